package records

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/commlog-server/internal/metrics"
	"github.com/vovakirdan/commlog-server/internal/store"
	"github.com/vovakirdan/commlog-server/internal/validation"
)

// Stats holds live record counts per kind.
type Stats struct {
	Emails   int64
	SMS      int64
	WhatsApp int64
}

// Service provides record logging operations on top of a store.
type Service struct {
	store store.Store
}

// New creates a new record Service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// CreateEmail logs an outbound email.
func (s *Service) CreateEmail(ctx context.Context, in validation.EmailInput) (*store.EmailRecord, error) {
	start := time.Now()
	rec, err := s.store.CreateEmail(ctx, in.EmailTo)
	metrics.RecordStoreOperation("create", string(store.KindEmail), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(string(store.KindEmail)).Inc()
	return rec, nil
}

// CreateMessage logs an outbound SMS or WhatsApp message.
func (s *Service) CreateMessage(ctx context.Context, kind store.Kind, in validation.MessageInput) (*store.MessageRecord, error) {
	start := time.Now()
	rec, err := s.store.CreateMessage(ctx, kind, in.MobileNumber, in.Message)
	metrics.RecordStoreOperation("create", string(kind), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(string(kind)).Inc()
	return rec, nil
}

// ListEmails returns email records, newest first.
func (s *Service) ListEmails(ctx context.Context, filter store.ListFilter) ([]*store.EmailRecord, error) {
	start := time.Now()
	recs, err := s.store.ListEmails(ctx, filter)
	metrics.RecordStoreOperation("list", string(store.KindEmail), time.Since(start), err)
	return recs, err
}

// ListMessages returns records of a message kind, newest first.
func (s *Service) ListMessages(ctx context.Context, kind store.Kind, filter store.ListFilter) ([]*store.MessageRecord, error) {
	start := time.Now()
	recs, err := s.store.ListMessages(ctx, kind, filter)
	metrics.RecordStoreOperation("list", string(kind), time.Since(start), err)
	return recs, err
}

// Count returns the live count for one kind.
func (s *Service) Count(ctx context.Context, kind store.Kind) (int64, error) {
	start := time.Now()
	n, err := s.store.Count(ctx, kind)
	metrics.RecordStoreOperation("count", string(kind), time.Since(start), err)
	return n, err
}

// Stats counts every kind. Counts are read fresh on each call.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	targets := map[store.Kind]*int64{
		store.KindEmail:    &stats.Emails,
		store.KindSMS:      &stats.SMS,
		store.KindWhatsApp: &stats.WhatsApp,
	}

	for _, kind := range store.Kinds() {
		n, err := s.Count(ctx, kind)
		if err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", kind, err)
		}
		*targets[kind] = n
	}
	return stats, nil
}

// Delete removes at most one record and returns how many were removed.
func (s *Service) Delete(ctx context.Context, in validation.DeleteInput) (int64, error) {
	start := time.Now()
	n, err := s.store.Delete(ctx, in.Kind, in.ID)
	metrics.RecordStoreOperation("delete", string(in.Kind), time.Since(start), err)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		metrics.RecordsDeleted.WithLabelValues(string(in.Kind)).Add(float64(n))
	}
	return n, nil
}
