package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows appointment listings.
type ListFilter struct {
	Status Status
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Repository defines the persistence operations the workflow needs.
// The concrete store is an implementation detail behind this interface.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByReference(ctx context.Context, ref string) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter) ([]*Appointment, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, filter ListFilter) ([]*Appointment, error)
	CountByStatus(ctx context.Context, hospitalID uuid.UUID) (map[Status]int, error)
}

// InMemoryRepository keeps appointments in a map. Used in tests and as a
// stand-in before the database is wired.
type InMemoryRepository struct {
	mu    sync.RWMutex
	rows  map[uuid.UUID]*Appointment
	byRef map[string]uuid.UUID
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		rows:  make(map[uuid.UUID]*Appointment),
		byRef: make(map[string]uuid.UUID),
	}
}

var _ Repository = (*InMemoryRepository)(nil)

func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *appt
	r.rows[cp.ID] = &cp
	r.byRef[cp.ReferenceNumber] = cp.ID
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *InMemoryRepository) GetByReference(ctx context.Context, ref string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byRef[ref]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.rows[id]
	return &cp, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[appt.ID]; !ok {
		return ErrNotFound
	}
	cp := *appt
	cp.UpdatedAt = time.Now().UTC()
	r.rows[cp.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter) ([]*Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.PatientID == patientID }, filter), nil
}

func (r *InMemoryRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID, filter ListFilter) ([]*Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.HospitalID == hospitalID }, filter), nil
}

func (r *InMemoryRepository) CountByStatus(ctx context.Context, hospitalID uuid.UUID) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[Status]int)
	for _, a := range r.rows {
		if hospitalID != uuid.Nil && a.HospitalID != hospitalID {
			continue
		}
		counts[a.Status.Canonical()]++
	}
	return counts, nil
}

func (r *InMemoryRepository) list(match func(*Appointment) bool, filter ListFilter) []*Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Appointment
	for _, a := range r.rows {
		if !match(a) {
			continue
		}
		if filter.Status != "" && a.Status.Canonical() != filter.Status.Canonical() {
			continue
		}
		if filter.From != nil && a.AppointmentDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.AppointmentDate.After(*filter.To) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}
