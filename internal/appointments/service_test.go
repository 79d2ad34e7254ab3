package appointments

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect-gh/booking-platform/internal/notifications"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

type fakeDirectory struct {
	details notifications.AppointmentDetails
	err     error
}

func (d *fakeDirectory) AppointmentDetails(ctx context.Context, appt *Appointment) (notifications.AppointmentDetails, error) {
	return d.details, d.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	reqs []notifications.Request
}

func (n *fakeNotifier) Dispatch(ctx context.Context, req notifications.Request) notifications.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reqs = append(n.reqs, req)
	return notifications.Result{}
}

func (n *fakeNotifier) all() []notifications.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifications.Request, len(n.reqs))
	copy(out, n.reqs)
	return out
}

type auditEvent struct {
	appointmentID uuid.UUID
	actorID       *uuid.UUID
	from, to      Status
	action        Action
}

type fakeAudit struct {
	mu     sync.Mutex
	events []auditEvent
}

func (a *fakeAudit) RecordTransition(ctx context.Context, appointmentID uuid.UUID, actorID *uuid.UUID, from, to Status, action Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, auditEvent{appointmentID, actorID, from, to, action})
	return nil
}

func (a *fakeAudit) all() []auditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]auditEvent, len(a.events))
	copy(out, a.events)
	return out
}

type serviceFixture struct {
	svc      *Service
	repo     *InMemoryRepository
	notifier *fakeNotifier
	audit    *fakeAudit
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := NewInMemoryRepository()
	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	dir := &fakeDirectory{details: notifications.AppointmentDetails{
		PatientName:  "Ama Mensah",
		PatientPhone: "233244123456",
		PatientEmail: "ama@example.com",
		HospitalName: "Ridge Hospital",
	}}
	svc := NewService(repo, dir, notifier, audit, nil, logging.NewWithWriter("error", io.Discard))
	return &serviceFixture{svc: svc, repo: repo, notifier: notifier, audit: audit}
}

func validBooking() BookRequest {
	return BookRequest{
		PatientID:    uuid.New(),
		HospitalID:   uuid.New(),
		DepartmentID: uuid.New(),
		Date:         "2026-03-12",
		StartTime:    "09:30",
	}
}

func (f *serviceFixture) book(t *testing.T) *Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), validBooking())
	require.NoError(t, err)
	f.svc.Flush()
	return appt
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	f.svc.Flush()

	assert.Equal(t, StatusPending, appt.Status)
	assert.Regexp(t, `^APT-20260312-[A-Z0-9]{5}$`, appt.ReferenceNumber)
	assert.Nil(t, appt.RejectionReason)
	assert.False(t, appt.CreatedAt.IsZero())

	stored, err := f.repo.GetByReference(context.Background(), appt.ReferenceNumber)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, stored.ID)

	reqs := f.notifier.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, notifications.TypeBookingConfirmation, reqs[0].Type)
	assert.Equal(t, appt.ReferenceNumber, reqs[0].Details.ReferenceNumber)
	assert.Equal(t, "09:30", reqs[0].Details.Time)
	assert.Contains(t, reqs[0].Details.Date, "12 March 2026")
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	req := validBooking()
	req.Date = "12/03/2026"
	_, err := f.svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	req = validBooking()
	req.StartTime = "9.30am"
	_, err = f.svc.Book(context.Background(), req)
	assert.True(t, IsValidation(err))

	req = validBooking()
	req.HospitalID = uuid.Nil
	_, err = f.svc.Book(context.Background(), req)
	assert.True(t, IsValidation(err))
}

func TestApproveLeavesRejectionReasonEmpty(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	reviewer := uuid.New()

	updated, err := f.svc.Approve(context.Background(), appt.ID, reviewer)
	f.svc.Flush()
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.Nil(t, updated.RejectionReason)
	require.NotNil(t, updated.ReviewedBy)
	assert.Equal(t, reviewer, *updated.ReviewedBy)
	assert.NotNil(t, updated.ReviewedAt)

	events := f.audit.all()
	require.Len(t, events, 1)
	assert.Equal(t, ActionApprove, events[0].action)
	assert.Equal(t, StatusPending, events[0].from)
	assert.Equal(t, StatusConfirmed, events[0].to)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	f.svc.Flush()
	before := len(f.notifier.all())

	_, err := f.svc.Reject(context.Background(), appt.ID, RejectRequest{ReviewerID: uuid.New(), Reason: "   "})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// Refused before any write: status unchanged, no audit row, no message.
	stored, err := f.repo.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Empty(t, f.audit.all())
	assert.Len(t, f.notifier.all(), before)
}

func TestRejectRecordsReasonAndNotifies(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	f.svc.Flush()

	updated, err := f.svc.Reject(context.Background(), appt.ID, RejectRequest{ReviewerID: uuid.New(), Reason: "No cardiologist available that day"})
	f.svc.Flush()
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, updated.Status)
	require.NotNil(t, updated.RejectionReason)
	assert.Equal(t, "No cardiologist available that day", *updated.RejectionReason)

	reqs := f.notifier.all()
	require.Len(t, reqs, 2) // booking + rejection
	last := reqs[len(reqs)-1]
	assert.Equal(t, notifications.TypeCancellation, last.Type)
	assert.Equal(t, "No cardiologist available that day", last.Details.Reason)
}

func TestSuggestAndAccept(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)

	suggested, err := f.svc.Suggest(context.Background(), appt.ID, SuggestRequest{
		ReviewerID: uuid.New(),
		Date:       "2026-03-14",
		Time:       "11:00",
	})
	f.svc.Flush()
	require.NoError(t, err)
	assert.Equal(t, StatusSuggested, suggested.Status)
	require.NotNil(t, suggested.SuggestedDate)
	require.NotNil(t, suggested.SuggestedTime)
	assert.Equal(t, "11:00", *suggested.SuggestedTime)

	reqs := f.notifier.all()
	last := reqs[len(reqs)-1]
	assert.Equal(t, notifications.TypeReschedule, last.Type)
	assert.Contains(t, last.Details.SuggestedDate, "14 March 2026")
	assert.Equal(t, "11:00", last.Details.SuggestedTime)

	accepted, err := f.svc.AcceptSuggestion(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, accepted.Status)
	assert.Equal(t, "2026-03-14", accepted.AppointmentDate.Format("2006-01-02"))
	assert.Equal(t, "11:00", accepted.StartTime)
	assert.Nil(t, accepted.SuggestedDate)
	assert.Nil(t, accepted.SuggestedTime)
}

func TestDeclineSuggestionCancels(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	_, err := f.svc.Suggest(context.Background(), appt.ID, SuggestRequest{ReviewerID: uuid.New(), Date: "2026-03-14", Time: "11:00"})
	require.NoError(t, err)

	declined, err := f.svc.DeclineSuggestion(context.Background(), appt.ID, CancelRequest{})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, declined.Status)
	assert.NotNil(t, declined.CancelledAt)
	require.NotNil(t, declined.CancellationReason)
	assert.Equal(t, "suggested time declined", *declined.CancellationReason)
}

func TestCancelConfirmedAppointment(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	_, err := f.svc.Approve(context.Background(), appt.ID, uuid.New())
	require.NoError(t, err)
	f.svc.Flush()

	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, CancelRequest{Reason: "travelling"})
	f.svc.Flush()
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "travelling", *cancelled.CancellationReason)

	reqs := f.notifier.all()
	assert.Equal(t, notifications.TypeCancellation, reqs[len(reqs)-1].Type)
}

func TestVisitFlowTimestamps(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	staff := uuid.New()

	_, err := f.svc.Approve(context.Background(), appt.ID, staff)
	require.NoError(t, err)
	f.svc.Flush()

	checkedIn, err := f.svc.CheckIn(context.Background(), appt.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.CheckedInAt)
	assert.False(t, checkedIn.CheckedInAt.Before(appt.CreatedAt))

	started, err := f.svc.Start(context.Background(), appt.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)

	completed, err := f.svc.Complete(context.Background(), appt.ID, staff)
	f.svc.Flush()
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	reqs := f.notifier.all()
	assert.Equal(t, notifications.TypeFeedbackRequest, reqs[len(reqs)-1].Type)
}

func TestMarkNoShowOnlyFromConfirmed(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	staff := uuid.New()

	_, err := f.svc.MarkNoShow(context.Background(), appt.ID, staff)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	_, err = f.svc.Approve(context.Background(), appt.ID, staff)
	require.NoError(t, err)

	marked, err := f.svc.MarkNoShow(context.Background(), appt.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, marked.Status)
}

func TestRefusedTransitionLeavesRowUntouched(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	staff := uuid.New()
	_, err := f.svc.Approve(context.Background(), appt.ID, staff)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), appt.ID, staff)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	stored, err := f.repo.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
	assert.Len(t, f.audit.all(), 1)
}

func TestLegacyScheduledRowBehavesAsConfirmed(t *testing.T) {
	f := newFixture(t)
	appt := &Appointment{
		ID:              uuid.New(),
		ReferenceNumber: "APT-20240110-AAAAA",
		PatientID:       uuid.New(),
		HospitalID:      uuid.New(),
		DepartmentID:    uuid.New(),
		AppointmentDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "08:00",
		Status:          StatusScheduled,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, f.repo.Create(context.Background(), appt))

	checkedIn, err := f.svc.CheckIn(context.Background(), appt.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, checkedIn.Status)
}

func TestTransitionNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Approve(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendReminder(t *testing.T) {
	repo := NewInMemoryRepository()
	logs := notifications.NewInMemoryLogStore()
	dispatcher := notifications.NewDispatcher(&stubSMS{provider: "arkesel"}, nil, logs, nil, logging.NewWithWriter("error", io.Discard))
	dir := &fakeDirectory{details: notifications.AppointmentDetails{
		PatientName:  "Ama Mensah",
		PatientPhone: "233244123456",
		HospitalName: "Ridge Hospital",
	}}
	svc := NewService(repo, dir, dispatcher, nil, nil, logging.NewWithWriter("error", io.Discard))

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	// Reminders only go to confirmed appointments.
	_, err = svc.SendReminder(context.Background(), appt.ID, notifications.TypeReminder24h)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	_, err = svc.Approve(context.Background(), appt.ID, uuid.New())
	require.NoError(t, err)

	_, err = svc.SendReminder(context.Background(), appt.ID, notifications.TypeCancellation)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	svc.Flush()
	before := len(logs.All())

	res, err := svc.SendReminder(context.Background(), appt.ID, notifications.TypeReminder24h)
	require.NoError(t, err)
	assert.True(t, res.SMS.Attempted)
	assert.True(t, res.SMS.Success)
	assert.Equal(t, "arkesel", res.SMS.Provider)

	rows := logs.All()
	require.Len(t, rows, before+1)
	reminderRow := rows[len(rows)-1]
	require.NotNil(t, reminderRow.ScheduledFor, "manual reminder rows record scheduled_for")
	assert.WithinDuration(t, time.Now().UTC(), *reminderRow.ScheduledFor, 5*time.Second)
}

type stubSMS struct{ provider string }

func (s *stubSMS) Send(ctx context.Context, to, body string) (string, error) {
	return s.provider, nil
}

func TestBookDispatchesRealChannels(t *testing.T) {
	repo := NewInMemoryRepository()
	logs := notifications.NewInMemoryLogStore()
	dispatcher := notifications.NewDispatcher(&stubSMS{provider: "arkesel"}, nil, logs, nil, logging.NewWithWriter("error", io.Discard))
	dir := &fakeDirectory{details: notifications.AppointmentDetails{
		PatientName:  "Ama Mensah",
		PatientPhone: "233244123456",
		HospitalName: "Ridge Hospital",
	}}
	svc := NewService(repo, dir, dispatcher, nil, nil, logging.NewWithWriter("error", io.Discard))

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)
	svc.Flush()

	rows := logs.All()
	require.Len(t, rows, 1) // sms only, no email address on file
	assert.Equal(t, notifications.ChannelSMS, rows[0].Type)
	assert.Equal(t, notifications.LogStatusSent, rows[0].Status)
	assert.Equal(t, appt.ID, rows[0].AppointmentID)
	assert.Contains(t, rows[0].Message, appt.ReferenceNumber)
}
