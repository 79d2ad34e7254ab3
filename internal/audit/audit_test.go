package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect-gh/booking-platform/internal/appointments"
)

func TestRecordTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)
	appointmentID := uuid.New()
	actor := uuid.New()

	mock.ExpectExec("INSERT INTO appointment_transitions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = service.RecordTransition(context.Background(), appointmentID, &actor,
		appointments.StatusPending, appointments.StatusConfirmed, appointments.ActionApprove)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordTransitionWithoutActor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)
	mock.ExpectExec("INSERT INTO appointment_transitions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Patient self-service actions carry no staff actor.
	err = service.RecordTransition(context.Background(), uuid.New(), nil,
		appointments.StatusSuggested, appointments.StatusConfirmed, appointments.ActionAcceptSuggestion)
	assert.NoError(t, err)
}

func TestListByAppointment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)
	appointmentID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT(.+)FROM appointment_transitions").
		WithArgs(appointmentID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "appointment_id", "actor_id", "from_status", "to_status", "action", "created_at",
		}).
			AddRow(uuid.New(), appointmentID, nil, "pending", "confirmed", "approve", now.Add(-time.Hour)).
			AddRow(uuid.New(), appointmentID, nil, "confirmed", "checked_in", "check_in", now))

	entries, err := service.ListByAppointment(context.Background(), appointmentID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "approve", entries[0].Action)
	assert.Equal(t, "check_in", entries[1].Action)
}

func TestCountSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)
	mock.ExpectQuery("SELECT count(.+)FROM appointment_transitions").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	n, err := service.CountSince(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 17, n)
}
