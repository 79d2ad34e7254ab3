package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// LogStore persists delivery-attempt rows. The trail is append-only;
// there is no update or read path in this service.
type LogStore interface {
	Insert(ctx context.Context, row *Log) error
}

// PgxPool is the subset of pgxpool.Pool the store uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLogStore writes notification logs to Postgres.
type PostgresLogStore struct {
	pool PgxPool
}

// NewPostgresLogStore initializes a store backed by a pgx pool.
func NewPostgresLogStore(pool PgxPool) *PostgresLogStore {
	if pool == nil {
		panic("notifications: pgx pool required")
	}
	return &PostgresLogStore{pool: pool}
}

var _ LogStore = (*PostgresLogStore)(nil)

// Insert appends one delivery-attempt row.
func (s *PostgresLogStore) Insert(ctx context.Context, row *Log) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	query := `
		INSERT INTO notification_logs (
			id, appointment_id, type, status, recipient,
			subject, message, scheduled_for, sent_at, error_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	if err := s.pool.QueryRow(ctx, query,
		row.ID,
		row.AppointmentID,
		row.Type,
		row.Status,
		row.Recipient,
		row.Subject,
		row.Message,
		row.ScheduledFor,
		row.SentAt,
		row.ErrorMessage,
	).Scan(&row.CreatedAt); err != nil {
		return fmt.Errorf("notifications: insert log: %w", err)
	}
	return nil
}

// InMemoryLogStore collects log rows for tests.
type InMemoryLogStore struct {
	mu   sync.Mutex
	rows []Log

	// FailWith forces Insert to fail, for exercising the swallow path.
	FailWith error
}

// NewInMemoryLogStore creates an empty in-memory store.
func NewInMemoryLogStore() *InMemoryLogStore {
	return &InMemoryLogStore{}
}

var _ LogStore = (*InMemoryLogStore)(nil)

func (s *InMemoryLogStore) Insert(ctx context.Context, row *Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	s.rows = append(s.rows, *row)
	return nil
}

// All returns a copy of the recorded rows.
func (s *InMemoryLogStore) All() []Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Log, len(s.rows))
	copy(out, s.rows)
	return out
}
