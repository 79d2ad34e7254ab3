package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medconnect-gh/booking-platform/internal/sms"
)

// PgxPool is the subset of pgxpool.Pool the repository uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores patient records in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository initializes a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{pool: pool}
}

const patientColumns = `
	id, full_name, phone, email, date_of_birth, gender, address, created_at, updated_at`

// Create inserts a patient. The phone is normalized before storage so
// SMS dispatch never has to re-derive the format.
func (r *Repository) Create(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Phone = sms.FormatGhanaPhone(p.Phone)
	query := `
		INSERT INTO patients (id, full_name, phone, email, date_of_birth, gender, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.FullName, p.Phone, p.Email, p.DateOfBirth, p.Gender, p.Address,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}
	return nil
}

// GetByID fetches one patient.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `SELECT` + patientColumns + ` FROM patients WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByPhone fetches a patient by phone in any accepted format.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	query := `SELECT` + patientColumns + ` FROM patients WHERE phone = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, sms.FormatGhanaPhone(phone)))
}

// Update persists the editable profile fields.
func (r *Repository) Update(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Phone = sms.FormatGhanaPhone(p.Phone)
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET full_name = $2, phone = $3, email = $4,
			date_of_birth = $5, gender = $6, address = $7,
			updated_at = now()
		WHERE id = $1`,
		p.ID, p.FullName, p.Phone, p.Email, p.DateOfBirth, p.Gender, p.Address)
	if err != nil {
		return fmt.Errorf("patients: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByHospital returns the patients who have booked at a hospital,
// with their visit statistics batched into the same query. One round
// trip serves the whole staff list view.
func (r *Repository) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*PatientWithStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT` + patientColumns + `,
			count(a.id) AS total_visits,
			count(a.id) FILTER (WHERE a.status = 'completed') AS completed,
			count(a.id) FILTER (WHERE a.status = 'no_show') AS no_shows,
			count(a.id) FILTER (WHERE a.status = 'cancelled') AS cancelled,
			count(a.id) FILTER (WHERE a.status = 'pending') AS pending_reviews,
			max(a.appointment_date) FILTER (WHERE a.status = 'completed') AS last_visit,
			min(a.appointment_date) FILTER (WHERE a.status IN ('confirmed', 'scheduled') AND a.appointment_date >= current_date) AS next_upcoming
		FROM patients p
		JOIN appointments a ON a.patient_id = p.id
		WHERE a.hospital_id = $1
		GROUP BY p.id
		ORDER BY max(a.created_at) DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, hospitalID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("patients: list by hospital: %w", err)
	}
	defer rows.Close()

	out := []*PatientWithStats{}
	for rows.Next() {
		var ps PatientWithStats
		var lastVisit, nextUpcoming *time.Time
		if err := rows.Scan(
			&ps.ID, &ps.FullName, &ps.Phone, &ps.Email, &ps.DateOfBirth,
			&ps.Gender, &ps.Address, &ps.CreatedAt, &ps.UpdatedAt,
			&ps.Stats.TotalVisits, &ps.Stats.Completed, &ps.Stats.NoShows,
			&ps.Stats.Cancelled, &ps.Stats.PendingReviews,
			&lastVisit, &nextUpcoming,
		); err != nil {
			return nil, fmt.Errorf("patients: scan stats: %w", err)
		}
		ps.Stats.PatientID = ps.ID
		ps.Stats.LastVisit = lastVisit
		ps.Stats.NextUpcoming = nextUpcoming
		out = append(out, &ps)
	}
	return out, rows.Err()
}

func (r *Repository) scanOne(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Phone, &p.Email, &p.DateOfBirth,
		&p.Gender, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patients: scan: %w", err)
	}
	return &p, nil
}
