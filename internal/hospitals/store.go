package hospitals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a hospital, department or provider id
// does not resolve.
var ErrNotFound = errors.New("hospitals: not found")

// Store reads and writes the hospital reference tables.
type Store struct {
	db *sql.DB
}

// NewStore creates a store on a database handle.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("hospitals: db required")
	}
	return &Store{db: db}
}

const hospitalColumns = `
	id, name, address, city, region, phone, email, specialties, active, created_at, updated_at`

// CreateHospital inserts a new facility.
func (s *Store) CreateHospital(ctx context.Context, h *Hospital) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hospitals (id, name, address, city, region, phone, email, specialties, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		h.ID, h.Name, h.Address, h.City, h.Region, h.Phone, h.Email,
		pq.Array(h.Specialties), h.Active, now)
	if err != nil {
		return fmt.Errorf("hospitals: create: %w", err)
	}
	return nil
}

// UpdateHospital persists the editable fields of an existing facility.
func (s *Store) UpdateHospital(ctx context.Context, h *Hospital) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE hospitals
		SET name = $2, address = $3, city = $4, region = $5,
			phone = $6, email = $7, specialties = $8, active = $9,
			updated_at = now()
		WHERE id = $1`,
		h.ID, h.Name, h.Address, h.City, h.Region, h.Phone, h.Email,
		pq.Array(h.Specialties), h.Active)
	if err != nil {
		return fmt.Errorf("hospitals: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("hospitals: update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetHospital fetches one facility.
func (s *Store) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+hospitalColumns+` FROM hospitals WHERE id = $1`, id)
	return scanHospital(row)
}

// ListHospitals returns facilities, optionally only active ones.
func (s *Store) ListHospitals(ctx context.Context, activeOnly bool) ([]*Hospital, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+hospitalColumns+`
		FROM hospitals
		WHERE $1 = false OR active = true
		ORDER BY name`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("hospitals: list: %w", err)
	}
	defer rows.Close()

	out := []*Hospital{}
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListDepartments returns a hospital's departments.
func (s *Store) ListDepartments(ctx context.Context, hospitalID uuid.UUID, activeOnly bool) ([]*Department, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hospital_id, name, description, active, created_at, updated_at
		FROM departments
		WHERE hospital_id = $1 AND ($2 = false OR active = true)
		ORDER BY name`, hospitalID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("hospitals: list departments: %w", err)
	}
	defer rows.Close()

	out := []*Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.HospitalID, &d.Name, &d.Description, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("hospitals: scan department: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// GetDepartment fetches one department.
func (s *Store) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	var d Department
	err := s.db.QueryRowContext(ctx, `
		SELECT id, hospital_id, name, description, active, created_at, updated_at
		FROM departments WHERE id = $1`, id).
		Scan(&d.ID, &d.HospitalID, &d.Name, &d.Description, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("hospitals: get department: %w", err)
	}
	return &d, nil
}

// CreateDepartment inserts a department under a hospital.
func (s *Store) CreateDepartment(ctx context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO departments (id, hospital_id, name, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		d.ID, d.HospitalID, d.Name, d.Description, d.Active, now)
	if err != nil {
		return fmt.Errorf("hospitals: create department: %w", err)
	}
	return nil
}

// SetDepartmentActive toggles whether a department accepts bookings.
func (s *Store) SetDepartmentActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE departments SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("hospitals: toggle department: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("hospitals: toggle result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProvider fetches one provider.
func (s *Store) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	var p Provider
	err := s.db.QueryRowContext(ctx, `
		SELECT id, hospital_id, department_id, full_name, title, email, phone, active, created_at
		FROM providers WHERE id = $1`, id).
		Scan(&p.ID, &p.HospitalID, &p.DepartmentID, &p.FullName, &p.Title, &p.Email, &p.Phone, &p.Active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("hospitals: get provider: %w", err)
	}
	return &p, nil
}

// ListProviders returns a department's providers.
func (s *Store) ListProviders(ctx context.Context, departmentID uuid.UUID) ([]*Provider, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hospital_id, department_id, full_name, title, email, phone, active, created_at
		FROM providers
		WHERE department_id = $1 AND active = true
		ORDER BY full_name`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("hospitals: list providers: %w", err)
	}
	defer rows.Close()

	out := []*Provider{}
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.HospitalID, &p.DepartmentID, &p.FullName, &p.Title, &p.Email, &p.Phone, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("hospitals: scan provider: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHospital(row rowScanner) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.Region, &h.Phone, &h.Email,
		pq.Array(&h.Specialties), &h.Active, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("hospitals: scan: %w", err)
	}
	if h.Specialties == nil {
		h.Specialties = []string{}
	}
	return &h, nil
}
