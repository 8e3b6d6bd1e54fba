package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/commlog-server/internal/store"
)

// driverName is go-sqlite3 with a Unicode-aware ulower() SQL function.
// The builtin LOWER() only folds ASCII.
const driverName = "sqlite3_commlog"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

//go:embed schema.sql
var schema string

var _ store.Store = (*SQLiteStore)(nil)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLite store.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite works best with single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return NewFromDB(db), nil
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed data or apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits before setup, otherwise :memory: databases
	// are per-connection and the schema gets lost.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return NewFromDB(db), nil
}

// NewFromDB wraps an already opened database handle.
func NewFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate applies the embedded schema. Safe to run repeatedly.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== EmailStore implementation ====

// CreateEmail inserts a new email log row.
func (s *SQLiteStore) CreateEmail(ctx context.Context, emailTo string) (*store.EmailRecord, error) {
	query := `
		INSERT INTO email_logs (email_to, created_at)
		VALUES (?, ?)
	`
	createdAt := s.now()
	result, err := s.db.ExecContext(ctx, query, emailTo, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert email: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.EmailRecord{
		ID:        id,
		EmailTo:   emailTo,
		CreatedAt: createdAt,
	}, nil
}

// ListEmails returns email log rows, newest first.
func (s *SQLiteStore) ListEmails(ctx context.Context, filter store.ListFilter) ([]*store.EmailRecord, error) {
	query := `
		SELECT id, email_to, created_at
		FROM email_logs
	`
	var args []any
	if !filter.Empty() {
		query += ` WHERE ulower(email_to) LIKE ? ESCAPE '\'`
		args = append(args, store.LikePattern(filter.Query))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// ==== MessageStore implementation ====

// CreateMessage inserts a new SMS or WhatsApp log row.
func (s *SQLiteStore) CreateMessage(ctx context.Context, kind store.Kind, mobileNumber, message string) (*store.MessageRecord, error) {
	table, err := store.MessageTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (mobile_number, message, created_at)
		VALUES (?, ?, ?)
	`, table)
	createdAt := s.now()
	result, err := s.db.ExecContext(ctx, query, mobileNumber, message, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", kind, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.MessageRecord{
		ID:           id,
		Kind:         kind,
		MobileNumber: mobileNumber,
		Message:      message,
		CreatedAt:    createdAt,
	}, nil
}

// ListMessages returns message rows of the given kind, newest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, kind store.Kind, filter store.ListFilter) ([]*store.MessageRecord, error) {
	table, err := store.MessageTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, mobile_number, message, created_at
		FROM %s
	`, table)
	var args []any
	if !filter.Empty() {
		pattern := store.LikePattern(filter.Query)
		query += ` WHERE ulower(mobile_number) LIKE ? ESCAPE '\' OR ulower(message) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// ==== Kind-agnostic operations ====

// Count returns the number of rows stored for kind.
func (s *SQLiteStore) Count(ctx context.Context, kind store.Kind) (int64, error) {
	table, err := store.Table(kind)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// Delete removes a single row by id. Deleting a missing id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, kind store.Kind, id int64) (int64, error) {
	table, err := store.Table(kind)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", kind, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
