// Package hospitals holds the reference data patients book against:
// hospitals, their departments, and the providers who staff them.
package hospitals

import (
	"time"

	"github.com/google/uuid"
)

// Hospital is one facility patients can book into.
type Hospital struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	Region      string    `json:"region,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Specialties []string  `json:"specialties"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Department is a bookable unit within a hospital. Inactive departments
// stay attached to history but accept no new appointments.
type Department struct {
	ID          uuid.UUID `json:"id"`
	HospitalID  uuid.UUID `json:"hospital_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Provider is a clinician attached to a department.
type Provider struct {
	ID           uuid.UUID `json:"id"`
	HospitalID   uuid.UUID `json:"hospital_id"`
	DepartmentID uuid.UUID `json:"department_id"`
	FullName     string    `json:"full_name"`
	Title        string    `json:"title,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
