package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository uses. Tests inject
// a pgxmock pool through it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

var _ Repository = (*PostgresRepository)(nil)

const appointmentColumns = `
	id, reference_number, patient_id, hospital_id, department_id, provider_id,
	appointment_date, start_time, end_time, status, notes,
	reviewed_by, reviewed_at, rejection_reason, original_appointment_id,
	suggested_date, suggested_time,
	checked_in_at, completed_at, cancelled_at, cancellation_reason,
	created_at, updated_at`

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, reference_number, patient_id, hospital_id, department_id, provider_id,
			appointment_date, start_time, end_time, status, notes, original_appointment_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		appt.ID,
		appt.ReferenceNumber,
		appt.PatientID,
		appt.HospitalID,
		appt.DepartmentID,
		appt.ProviderID,
		appt.AppointmentDate,
		appt.StartTime,
		appt.EndTime,
		appt.Status,
		appt.Notes,
		appt.OriginalAppointmentID,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByReference fetches by the patient-facing reference number.
func (r *PostgresRepository) GetByReference(ctx context.Context, ref string) (*Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments WHERE reference_number = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, ref))
}

// Update persists all workflow-mutable fields of an existing row.
func (r *PostgresRepository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments
		SET status = $2,
			appointment_date = $3,
			start_time = $4,
			end_time = $5,
			reviewed_by = $6,
			reviewed_at = $7,
			rejection_reason = $8,
			suggested_date = $9,
			suggested_time = $10,
			checked_in_at = $11,
			completed_at = $12,
			cancelled_at = $13,
			cancellation_reason = $14,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		appt.ID,
		appt.Status,
		appt.AppointmentDate,
		appt.StartTime,
		appt.EndTime,
		appt.ReviewedBy,
		appt.ReviewedAt,
		appt.RejectionReason,
		appt.SuggestedDate,
		appt.SuggestedTime,
		appt.CheckedInAt,
		appt.CompletedAt,
		appt.CancelledAt,
		appt.CancellationReason,
	)
	if err != nil {
		return fmt.Errorf("appointments: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByPatient returns a patient's appointments, newest first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter) ([]*Appointment, error) {
	return r.listBy(ctx, "patient_id", patientID, filter)
}

// ListByHospital returns a hospital's appointments, newest first.
func (r *PostgresRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID, filter ListFilter) ([]*Appointment, error) {
	return r.listBy(ctx, "hospital_id", hospitalID, filter)
}

func (r *PostgresRepository) listBy(ctx context.Context, column string, owner uuid.UUID, filter ListFilter) ([]*Appointment, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	// status='' matches nothing, so substitute the wildcard filter in SQL.
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE ` + column + ` = $1
		  AND ($2 = '' OR status = $2 OR (status = 'scheduled' AND $2 = 'confirmed'))
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, owner, string(filter.Status.Canonical()), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// CountByStatus aggregates appointment counts for the admin stats view.
// hospitalID uuid.Nil counts across all hospitals.
func (r *PostgresRepository) CountByStatus(ctx context.Context, hospitalID uuid.UUID) (map[Status]int, error) {
	query := `
		SELECT CASE WHEN status = 'scheduled' THEN 'confirmed' ELSE status END, count(*)
		FROM appointments
		WHERE $1::uuid IS NULL OR hospital_id = $1
		GROUP BY 1
	`
	var owner any
	if hospitalID != uuid.Nil {
		owner = hospitalID
	}
	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("appointments: count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("appointments: count scan: %w", err)
		}
		counts[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: count rows: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Appointment, error) {
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var a Appointment
	var date time.Time
	if err := row.Scan(
		&a.ID,
		&a.ReferenceNumber,
		&a.PatientID,
		&a.HospitalID,
		&a.DepartmentID,
		&a.ProviderID,
		&date,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Notes,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&a.RejectionReason,
		&a.OriginalAppointmentID,
		&a.SuggestedDate,
		&a.SuggestedTime,
		&a.CheckedInAt,
		&a.CompletedAt,
		&a.CancelledAt,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("appointments: scan failed: %w", err)
	}
	a.AppointmentDate = date
	return &a, nil
}
