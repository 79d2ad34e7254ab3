package appointments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medconnect-gh/booking-platform/internal/notifications"
	"github.com/medconnect-gh/booking-platform/internal/observability/metrics"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

var appointmentsTracer = otel.Tracer("medconnect.internal.appointments")

// displayDate is how dates appear in patient-facing messages.
const displayDate = "Monday, 2 January 2006"

// createAttempts bounds reference-number regeneration when an insert
// hits the unique constraint.
const createAttempts = 3

// Directory resolves the patient and hospital display data a
// notification needs. Implementations query the reference tables.
type Directory interface {
	AppointmentDetails(ctx context.Context, appt *Appointment) (notifications.AppointmentDetails, error)
}

// Notifier dispatches appointment event messages. *notifications.Dispatcher
// satisfies this.
type Notifier interface {
	Dispatch(ctx context.Context, req notifications.Request) notifications.Result
}

// TransitionRecorder appends one audit row per applied transition.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, appointmentID uuid.UUID, actorID *uuid.UUID, from, to Status, action Action) error
}

// Service owns the appointment lifecycle. Every status change goes
// through the transition table; notifications and audit rows hang off
// the write but never veto it.
type Service struct {
	repo     Repository
	dir      Directory
	notifier Notifier
	audit    TransitionRecorder
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger

	now func() time.Time

	wg sync.WaitGroup
}

// NewService constructs the appointment service. dir, notifier and
// audit may be nil; the corresponding side effects are then skipped.
func NewService(repo Repository, dir Directory, notifier Notifier, audit TransitionRecorder, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		dir:      dir,
		notifier: notifier,
		audit:    audit,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Flush blocks until in-flight notification goroutines finish. Called
// on shutdown and by tests.
func (s *Service) Flush() {
	s.wg.Wait()
}

// Book creates a pending appointment and sends the booking message.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("medconnect.patient_id", req.PatientID.String()),
		attribute.String("medconnect.hospital_id", req.HospitalID.String()),
	)

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	now := s.now()
	appt := &Appointment{
		ID:                    uuid.New(),
		PatientID:             req.PatientID,
		HospitalID:            req.HospitalID,
		DepartmentID:          req.DepartmentID,
		ProviderID:            req.ProviderID,
		AppointmentDate:       date,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		Status:                StatusPending,
		Notes:                 req.Notes,
		OriginalAppointmentID: req.RebookOf,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		appt.ReferenceNumber = NewReferenceNumber(date)
		if err = s.repo.Create(ctx, appt); err == nil {
			break
		}
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: create: %w", err)
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"reference", appt.ReferenceNumber,
		"hospital_id", appt.HospitalID,
	)
	s.notify(ctx, notifications.TypeBookingConfirmation, appt, "")
	return appt, nil
}

// Get loads one appointment by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByReference loads one appointment by its patient-facing reference.
func (s *Service) GetByReference(ctx context.Context, ref string) (*Appointment, error) {
	return s.repo.GetByReference(ctx, ref)
}

// ListByPatient returns a patient's appointments, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID, filter)
}

// ListByHospital returns a hospital's appointments, newest first.
func (s *Service) ListByHospital(ctx context.Context, hospitalID uuid.UUID, filter ListFilter) ([]*Appointment, error) {
	return s.repo.ListByHospital(ctx, hospitalID, filter)
}

// CountByStatus returns per-status counts for a hospital dashboard.
// Legacy scheduled rows are counted as confirmed.
func (s *Service) CountByStatus(ctx context.Context, hospitalID uuid.UUID) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx, hospitalID)
}

// Approve confirms a pending appointment. The rejection reason stays
// untouched; approval never writes one.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID) (*Appointment, error) {
	appt, err := s.transition(ctx, id, ActionApprove, &reviewerID, func(a *Appointment) {
		now := s.now()
		a.ReviewedBy = &reviewerID
		a.ReviewedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.TypeBookingConfirmation, appt, "")
	return appt, nil
}

// Reject declines a pending appointment. A reason is mandatory; the
// request is refused before any write without one.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, req RejectRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	appt, err := s.transition(ctx, id, ActionReject, &req.ReviewerID, func(a *Appointment) {
		now := s.now()
		reason := req.Reason
		a.ReviewedBy = &req.ReviewerID
		a.ReviewedAt = &now
		a.RejectionReason = &reason
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.TypeCancellation, appt, req.Reason)
	return appt, nil
}

// Suggest proposes an alternative slot for a pending appointment.
func (s *Service) Suggest(ctx context.Context, id uuid.UUID, req SuggestRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	appt, err := s.transition(ctx, id, ActionSuggest, &req.ReviewerID, func(a *Appointment) {
		now := s.now()
		t := req.Time
		a.ReviewedBy = &req.ReviewerID
		a.ReviewedAt = &now
		a.SuggestedDate = &date
		a.SuggestedTime = &t
		if req.Note != "" {
			a.Notes = req.Note
		}
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.TypeReschedule, appt, "")
	return appt, nil
}

// AcceptSuggestion confirms a suggested appointment at the proposed
// slot. The suggested date and time become the actual ones.
func (s *Service) AcceptSuggestion(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, ActionAcceptSuggestion, nil, func(a *Appointment) {
		if a.SuggestedDate != nil {
			a.AppointmentDate = *a.SuggestedDate
		}
		if a.SuggestedTime != nil {
			a.StartTime = *a.SuggestedTime
		}
		a.SuggestedDate = nil
		a.SuggestedTime = nil
	})
}

// DeclineSuggestion closes a suggested appointment as cancelled. The
// patient books afresh if they still want a slot.
func (s *Service) DeclineSuggestion(ctx context.Context, id uuid.UUID, req CancelRequest) (*Appointment, error) {
	return s.transition(ctx, id, ActionDeclineSuggestion, nil, func(a *Appointment) {
		now := s.now()
		a.CancelledAt = &now
		reason := req.Reason
		if reason == "" {
			reason = "suggested time declined"
		}
		a.CancellationReason = &reason
	})
}

// Cancel cancels a pending or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*Appointment, error) {
	appt, err := s.transition(ctx, id, ActionCancel, nil, func(a *Appointment) {
		now := s.now()
		a.CancelledAt = &now
		if req.Reason != "" {
			reason := req.Reason
			a.CancellationReason = &reason
		}
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.TypeCancellation, appt, req.Reason)
	return appt, nil
}

// CheckIn marks a confirmed appointment as arrived.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, ActionCheckIn, &actorID, func(a *Appointment) {
		now := s.now()
		a.CheckedInAt = &now
	})
}

// Start moves a checked-in appointment into consultation.
func (s *Service) Start(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, ActionStart, &actorID, nil)
}

// Complete closes a consultation and asks the patient for feedback.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Appointment, error) {
	appt, err := s.transition(ctx, id, ActionComplete, &actorID, func(a *Appointment) {
		now := s.now()
		a.CompletedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.TypeFeedbackRequest, appt, "")
	return appt, nil
}

// MarkNoShow records that a confirmed patient never arrived. Staff
// trigger this manually; there is no automatic sweep.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, ActionMarkNoShow, &actorID, nil)
}

// SendReminder dispatches a reminder for a confirmed appointment on
// demand and reports the per-channel outcome. Unlike event
// notifications this runs synchronously so the caller sees the result.
func (s *Service) SendReminder(ctx context.Context, id uuid.UUID, typ notifications.Type) (notifications.Result, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.send_reminder")
	defer span.End()

	switch typ {
	case notifications.TypeReminder48h, notifications.TypeReminder24h, notifications.TypeReminder2h:
	default:
		return notifications.Result{}, &ValidationError{Field: "type", Reason: "must be a reminder type"}
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return notifications.Result{}, err
	}
	if appt.Status.Canonical() != StatusConfirmed {
		return notifications.Result{}, &InvalidTransitionError{From: appt.Status, Action: Action(typ)}
	}
	if s.notifier == nil || s.dir == nil {
		return notifications.Result{}, fmt.Errorf("appointments: notifications not configured")
	}
	details, err := s.details(ctx, appt, "")
	if err != nil {
		span.RecordError(err)
		return notifications.Result{}, err
	}
	// Manual reminders are dispatched immediately; the log row still
	// records when the send was scheduled.
	scheduledFor := s.now()
	return s.notifier.Dispatch(ctx, notifications.Request{
		Type:         typ,
		Details:      details,
		SendSMS:      true,
		SendEmail:    true,
		ScheduledFor: &scheduledFor,
	}), nil
}

// transition applies one workflow action: resolve the target status
// from the table, run the field mutation, persist, audit. Refused
// actions leave the row untouched.
func (s *Service) transition(ctx context.Context, id uuid.UUID, action Action, actorID *uuid.UUID, mutate func(*Appointment)) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments."+string(action))
	defer span.End()
	span.SetAttributes(attribute.String("medconnect.appointment_id", id.String()))

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	from := appt.Status
	next, err := Next(from, action)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTransition(string(action), "refused")
		return nil, err
	}

	appt.Status = next
	appt.UpdatedAt = s.now()
	if mutate != nil {
		mutate(appt)
	}
	if err := s.repo.Update(ctx, appt); err != nil {
		span.RecordError(err)
		s.metrics.ObserveTransition(string(action), "error")
		return nil, fmt.Errorf("appointments: %s: %w", action, err)
	}
	s.metrics.ObserveTransition(string(action), "applied")
	s.logger.Info("appointment transition",
		"appointment_id", appt.ID,
		"action", action,
		"from", from,
		"to", next,
	)

	if s.audit != nil {
		if err := s.audit.RecordTransition(ctx, appt.ID, actorID, from, next, action); err != nil {
			s.logger.Error("transition audit write failed", "appointment_id", appt.ID, "error", err)
		}
	}
	return appt, nil
}

// notify dispatches an event message in the background. The outcome
// never propagates to the caller.
func (s *Service) notify(ctx context.Context, typ notifications.Type, appt *Appointment, reason string) {
	if s.notifier == nil || s.dir == nil {
		return
	}
	details, err := s.details(ctx, appt, reason)
	if err != nil {
		s.logger.Error("notification details lookup failed",
			"appointment_id", appt.ID,
			"type", typ,
			"error", err,
		)
		return
	}
	// Detached from the request context so an early client disconnect
	// does not abort delivery.
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.notifier.Dispatch(bg, notifications.Request{
			Type:      typ,
			Details:   details,
			SendSMS:   true,
			SendEmail: true,
		})
	}()
}

func (s *Service) details(ctx context.Context, appt *Appointment, reason string) (notifications.AppointmentDetails, error) {
	details, err := s.dir.AppointmentDetails(ctx, appt)
	if err != nil {
		return notifications.AppointmentDetails{}, err
	}
	details.AppointmentID = appt.ID
	details.ReferenceNumber = appt.ReferenceNumber
	details.Date = appt.AppointmentDate.Format(displayDate)
	details.Time = appt.StartTime
	details.Reason = reason
	if appt.SuggestedDate != nil {
		details.SuggestedDate = appt.SuggestedDate.Format(displayDate)
	}
	if appt.SuggestedTime != nil {
		details.SuggestedTime = *appt.SuggestedTime
	}
	return details, nil
}
