package appointments

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusRejected   Status = "rejected"
	StatusSuggested  Status = "suggested"
	StatusCheckedIn  Status = "checked_in"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"

	// StatusScheduled is a legacy synonym for confirmed still present in
	// older rows. Treated as confirmed on read.
	StatusScheduled Status = "scheduled"
)

// Canonical maps legacy statuses onto their current equivalent.
func (s Status) Canonical() Status {
	if s == StatusScheduled {
		return StatusConfirmed
	}
	return s
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s.Canonical() {
	case StatusRejected, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is one patient's request for a hospital-department slot,
// optionally with a specific provider.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	ReferenceNumber string     `json:"reference_number"`
	PatientID       uuid.UUID  `json:"patient_id"`
	HospitalID      uuid.UUID  `json:"hospital_id"`
	DepartmentID    uuid.UUID  `json:"department_id"`
	ProviderID      *uuid.UUID `json:"provider_id,omitempty"`

	AppointmentDate time.Time `json:"appointment_date"`
	StartTime       string    `json:"start_time"`
	EndTime         *string   `json:"end_time,omitempty"`

	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`

	ReviewedBy            *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt            *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason       *string    `json:"rejection_reason,omitempty"`
	OriginalAppointmentID *uuid.UUID `json:"original_appointment_id,omitempty"`
	SuggestedDate         *time.Time `json:"suggested_date,omitempty"`
	SuggestedTime         *string    `json:"suggested_time,omitempty"`

	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookRequest is the payload for a patient booking action.
type BookRequest struct {
	PatientID    uuid.UUID  `json:"patient_id"`
	HospitalID   uuid.UUID  `json:"hospital_id"`
	DepartmentID uuid.UUID  `json:"department_id"`
	ProviderID   *uuid.UUID `json:"provider_id,omitempty"`
	Date         string     `json:"appointment_date"` // YYYY-MM-DD
	StartTime    string     `json:"start_time"`       // HH:MM
	EndTime      *string    `json:"end_time,omitempty"`
	Notes        string     `json:"notes,omitempty"`

	// RebookOf links a fresh booking back to a cancelled appointment.
	RebookOf *uuid.UUID `json:"rebook_of,omitempty"`
}

// Validate checks required booking fields.
func (r *BookRequest) Validate() error {
	if r.PatientID == uuid.Nil {
		return &ValidationError{Field: "patient_id", Reason: "required"}
	}
	if r.HospitalID == uuid.Nil {
		return &ValidationError{Field: "hospital_id", Reason: "required"}
	}
	if r.DepartmentID == uuid.Nil {
		return &ValidationError{Field: "department_id", Reason: "required"}
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return &ValidationError{Field: "appointment_date", Reason: "must be YYYY-MM-DD"}
	}
	if !validClockTime(r.StartTime) {
		return &ValidationError{Field: "start_time", Reason: "must be HH:MM"}
	}
	if r.EndTime != nil && !validClockTime(*r.EndTime) {
		return &ValidationError{Field: "end_time", Reason: "must be HH:MM"}
	}
	return nil
}

// RejectRequest carries the provider's rejection payload. Reason is required.
type RejectRequest struct {
	ReviewerID uuid.UUID `json:"-"`
	Reason     string    `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return &ValidationError{Field: "reason", Reason: "required"}
	}
	return nil
}

// SuggestRequest carries a provider-proposed alternative slot.
// Date and time are required, the note is optional.
type SuggestRequest struct {
	ReviewerID uuid.UUID `json:"-"`
	Date       string    `json:"suggested_date"` // YYYY-MM-DD
	Time       string    `json:"suggested_time"` // HH:MM
	Note       string    `json:"note,omitempty"`
}

func (r *SuggestRequest) Validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return &ValidationError{Field: "suggested_date", Reason: "must be YYYY-MM-DD"}
	}
	if !validClockTime(r.Time) {
		return &ValidationError{Field: "suggested_time", Reason: "must be HH:MM"}
	}
	return nil
}

// CancelRequest carries an optional patient cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func validClockTime(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil
}
