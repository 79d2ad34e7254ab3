// Package notifications renders and dispatches appointment event
// messages over SMS and email, recording one log row per channel
// attempted.
package notifications

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names an appointment event a notification can be sent for.
type Type string

const (
	TypeBookingConfirmation Type = "booking_confirmation"
	TypeReminder48h         Type = "reminder_48h"
	TypeReminder24h         Type = "reminder_24h"
	TypeReminder2h          Type = "reminder_2h"
	TypeCancellation        Type = "cancellation"
	TypeReschedule          Type = "reschedule"
	TypeFeedbackRequest     Type = "feedback_request"
)

// ParseType validates a wire value against the known notification types.
func ParseType(v string) (Type, error) {
	switch Type(v) {
	case TypeBookingConfirmation, TypeReminder48h, TypeReminder24h,
		TypeReminder2h, TypeCancellation, TypeReschedule, TypeFeedbackRequest:
		return Type(v), nil
	}
	return "", fmt.Errorf("notifications: unknown type %q", v)
}

// Channel is the delivery medium of one log row.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// LogStatus is the delivery outcome recorded on a log row.
type LogStatus string

const (
	LogStatusPending LogStatus = "pending"
	LogStatusSent    LogStatus = "sent"
	LogStatusFailed  LogStatus = "failed"
)

// Log is one append-only record of a delivery attempt. Rows are never
// updated or read back by this service.
type Log struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	Type          Channel    `json:"type"`
	Status        LogStatus  `json:"status"`
	Recipient     string     `json:"recipient"`
	Subject       string     `json:"subject,omitempty"`
	Message       string     `json:"message"`
	ScheduledFor  *time.Time `json:"scheduled_for,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AppointmentDetails is the resolved data a template needs. Callers
// assemble it from the appointment and its reference entities.
type AppointmentDetails struct {
	AppointmentID   uuid.UUID
	ReferenceNumber string
	PatientName     string
	PatientPhone    string
	PatientEmail    string
	HospitalName    string
	HospitalAddress string
	DepartmentName  string
	Date            string // already formatted for display
	Time            string
	SuggestedDate   string
	SuggestedTime   string
	Reason          string // rejection or cancellation reason, if any
}

// Request asks the dispatcher to deliver one event on the requested
// channels. A channel without a template for the type is skipped
// silently.
type Request struct {
	Type         Type
	Details      AppointmentDetails
	SendSMS      bool
	SendEmail    bool
	ScheduledFor *time.Time
}

// ChannelResult describes the outcome on one channel.
type ChannelResult struct {
	Attempted bool   `json:"attempted"`
	Success   bool   `json:"success"`
	Provider  string `json:"provider,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result describes what the dispatcher did. It is always returned;
// dispatch never fails with an error.
type Result struct {
	SMS   ChannelResult `json:"sms"`
	Email ChannelResult `json:"email"`
}
