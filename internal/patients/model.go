// Package patients stores patient records and the visit statistics
// hospital staff see next to them.
package patients

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a patient id does not resolve.
var ErrNotFound = errors.New("patient not found")

// Patient is one person who books appointments. Phone is stored in the
// bare national-prefix form used for SMS dispatch.
type Patient struct {
	ID          uuid.UUID  `json:"id"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Address     string     `json:"address,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks the fields required to create a patient record.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return errors.New("patients: full_name is required")
	}
	if strings.TrimSpace(p.Phone) == "" {
		return errors.New("patients: phone is required")
	}
	return nil
}

// VisitStats summarizes one patient's history at a hospital. Staff see
// it on the patient list without opening each record.
type VisitStats struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	TotalVisits    int        `json:"total_visits"`
	Completed      int        `json:"completed"`
	NoShows        int        `json:"no_shows"`
	Cancelled      int        `json:"cancelled"`
	LastVisit      *time.Time `json:"last_visit,omitempty"`
	NextUpcoming   *time.Time `json:"next_upcoming,omitempty"`
	PendingReviews int        `json:"pending_reviews"`
}

// PatientWithStats pairs the record with its hospital-scoped history.
type PatientWithStats struct {
	Patient
	Stats VisitStats `json:"stats"`
}
