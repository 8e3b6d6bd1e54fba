package store

import (
	"context"
	"errors"
	"time"
)

// Kind identifies one of the record categories.
type Kind string

const (
	KindEmail    Kind = "email"
	KindSMS      Kind = "sms"
	KindWhatsApp Kind = "whatsapp"
)

// ErrUnknownKind is returned when a store method receives a kind it has no table for.
var ErrUnknownKind = errors.New("unknown record kind")

// kinds is the lookup table used by ParseKind. Built once, never mutated.
var kinds = map[string]Kind{
	string(KindEmail):    KindEmail,
	string(KindSMS):      KindSMS,
	string(KindWhatsApp): KindWhatsApp,
}

// tables maps each kind to the table that holds its rows.
var tables = map[Kind]string{
	KindEmail:    "email_logs",
	KindSMS:      "sms_logs",
	KindWhatsApp: "whatsapp_logs",
}

// Kinds returns all kinds in display order.
func Kinds() []Kind {
	return []Kind{KindEmail, KindSMS, KindWhatsApp}
}

// ParseKind resolves a kind name. The second value is false for unknown names.
func ParseKind(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// Table returns the table name for kind.
func Table(kind Kind) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	return t, nil
}

// MessageTable is Table restricted to message kinds.
func MessageTable(kind Kind) (string, error) {
	if !IsMessageKind(kind) {
		return "", ErrUnknownKind
	}
	return Table(kind)
}

// IsMessageKind reports whether kind stores mobile_number/message pairs.
func IsMessageKind(kind Kind) bool {
	return kind == KindSMS || kind == KindWhatsApp
}

// EmailRecord represents a logged outbound email.
type EmailRecord struct {
	ID        int64
	EmailTo   string
	CreatedAt time.Time
}

// MessageRecord represents a logged SMS or WhatsApp message.
type MessageRecord struct {
	ID           int64
	Kind         Kind
	MobileNumber string
	Message      string
	CreatedAt    time.Time
}

// ListFilter narrows list results.
type ListFilter struct {
	// Query is a case-insensitive substring match. Empty matches everything.
	Query string
}

// EmailStore handles email log persistence.
type EmailStore interface {
	// CreateEmail persists a new email record and returns it with id and created_at set.
	CreateEmail(ctx context.Context, emailTo string) (*EmailRecord, error)

	// ListEmails returns email records, newest first.
	ListEmails(ctx context.Context, filter ListFilter) ([]*EmailRecord, error)
}

// MessageStore handles SMS and WhatsApp log persistence.
type MessageStore interface {
	// CreateMessage persists a new message record of the given kind.
	CreateMessage(ctx context.Context, kind Kind, mobileNumber, message string) (*MessageRecord, error)

	// ListMessages returns message records of the given kind, newest first.
	ListMessages(ctx context.Context, kind Kind, filter ListFilter) ([]*MessageRecord, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	EmailStore
	MessageStore

	// Count returns the number of records of the given kind.
	Count(ctx context.Context, kind Kind) (int64, error)

	// Delete removes the record with id from the kind's table and returns rows removed (0 or 1).
	Delete(ctx context.Context, kind Kind, id int64) (int64, error)

	// Migrate creates missing tables and indexes.
	Migrate(ctx context.Context) error

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
