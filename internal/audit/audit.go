// Package audit keeps the immutable trail of appointment status
// transitions. Rows are written after each applied transition and are
// never updated.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medconnect-gh/booking-platform/internal/appointments"
)

// Entry is one recorded transition.
type Entry struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	ActorID       *uuid.UUID `json:"actor_id,omitempty"`
	FromStatus    string     `json:"from_status"`
	ToStatus      string     `json:"to_status"`
	Action        string     `json:"action"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Service writes and reads the transition trail.
type Service struct {
	db *sql.DB
}

// NewService creates an audit service.
func NewService(db *sql.DB) *Service {
	if db == nil {
		panic("audit: db required")
	}
	return &Service{db: db}
}

var _ appointments.TransitionRecorder = (*Service)(nil)

// RecordTransition appends one trail row.
func (s *Service) RecordTransition(ctx context.Context, appointmentID uuid.UUID, actorID *uuid.UUID, from, to appointments.Status, action appointments.Action) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointment_transitions (id, appointment_id, actor_id, from_status, to_status, action, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), appointmentID, actorID, string(from), string(to), string(action), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("audit: record transition: %w", err)
	}
	return nil
}

// ListByAppointment returns an appointment's trail, oldest first.
func (s *Service) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, appointment_id, actor_id, from_status, to_status, action, created_at
		FROM appointment_transitions
		WHERE appointment_id = $1
		ORDER BY created_at ASC`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AppointmentID, &e.ActorID, &e.FromStatus, &e.ToStatus, &e.Action, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountSince reports how many transitions were recorded after the
// cutoff, for the admin stats view.
func (s *Service) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM appointment_transitions WHERE created_at >= $1`, cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return n, nil
}
