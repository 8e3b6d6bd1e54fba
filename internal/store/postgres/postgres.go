package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vovakirdan/commlog-server/internal/store"
)

//go:embed schema.sql
var schema string

var _ store.Store = (*PostgresStore)(nil)

// PostgresStore implements store.Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New connects to the database at dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty dsn")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{
		pool: pool,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Migrate applies the embedded schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all pool connections.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateEmail inserts a new email log row.
func (s *PostgresStore) CreateEmail(ctx context.Context, emailTo string) (*store.EmailRecord, error) {
	rec := store.EmailRecord{EmailTo: emailTo, CreatedAt: s.now()}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO email_logs (email_to, created_at)
		VALUES ($1, $2)
		RETURNING id
	`, rec.EmailTo, rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("insert email: %w", err)
	}
	return &rec, nil
}

// ListEmails returns email log rows, newest first.
func (s *PostgresStore) ListEmails(ctx context.Context, filter store.ListFilter) ([]*store.EmailRecord, error) {
	query := `SELECT id, email_to, created_at FROM email_logs`
	var args []any
	if !filter.Empty() {
		query += ` WHERE LOWER(email_to) LIKE $1 ESCAPE '\'`
		args = append(args, store.LikePattern(filter.Query))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query emails: %w", err)
	}
	defer rows.Close()

	records := make([]*store.EmailRecord, 0)
	for rows.Next() {
		var rec store.EmailRecord
		if err := rows.Scan(&rec.ID, &rec.EmailTo, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// CreateMessage inserts a new SMS or WhatsApp log row.
func (s *PostgresStore) CreateMessage(ctx context.Context, kind store.Kind, mobileNumber, message string) (*store.MessageRecord, error) {
	table, err := store.MessageTable(kind)
	if err != nil {
		return nil, err
	}

	rec := store.MessageRecord{
		Kind:         kind,
		MobileNumber: mobileNumber,
		Message:      message,
		CreatedAt:    s.now(),
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (mobile_number, message, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, table)
	if err := s.pool.QueryRow(ctx, query, rec.MobileNumber, rec.Message, rec.CreatedAt).Scan(&rec.ID); err != nil {
		return nil, fmt.Errorf("insert %s: %w", kind, err)
	}
	return &rec, nil
}

// ListMessages returns message rows of the given kind, newest first.
func (s *PostgresStore) ListMessages(ctx context.Context, kind store.Kind, filter store.ListFilter) ([]*store.MessageRecord, error) {
	table, err := store.MessageTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, mobile_number, message, created_at FROM %s`, table)
	var args []any
	if !filter.Empty() {
		query += ` WHERE LOWER(mobile_number) LIKE $1 ESCAPE '\' OR LOWER(message) LIKE $1 ESCAPE '\'`
		args = append(args, store.LikePattern(filter.Query))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	records := make([]*store.MessageRecord, 0)
	for rows.Next() {
		rec := store.MessageRecord{Kind: kind}
		if err := rows.Scan(&rec.ID, &rec.MobileNumber, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Count returns the number of rows stored for kind.
func (s *PostgresStore) Count(ctx context.Context, kind store.Kind) (int64, error) {
	table, err := store.Table(kind)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// Delete removes a single row by id and reports how many rows went away.
func (s *PostgresStore) Delete(ctx context.Context, kind store.Kind, id int64) (int64, error) {
	table, err := store.Table(kind)
	if err != nil {
		return 0, err
	}

	tag, err := s.pool.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", kind, err)
	}
	return tag.RowsAffected(), nil
}
