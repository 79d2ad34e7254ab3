package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var apptColumnNames = []string{
	"id", "reference_number", "patient_id", "hospital_id", "department_id", "provider_id",
	"appointment_date", "start_time", "end_time", "status", "notes",
	"reviewed_by", "reviewed_at", "rejection_reason", "original_appointment_id",
	"suggested_date", "suggested_time",
	"checked_in_at", "completed_at", "cancelled_at", "cancellation_reason",
	"created_at", "updated_at",
}

func apptRow(mock pgxmock.PgxPoolIface, a *Appointment) *pgxmock.Rows {
	return mock.NewRows(apptColumnNames).AddRow(
		a.ID, a.ReferenceNumber, a.PatientID, a.HospitalID, a.DepartmentID, a.ProviderID,
		a.AppointmentDate, a.StartTime, a.EndTime, a.Status, a.Notes,
		a.ReviewedBy, a.ReviewedAt, a.RejectionReason, a.OriginalAppointmentID,
		a.SuggestedDate, a.SuggestedTime,
		a.CheckedInAt, a.CompletedAt, a.CancelledAt, a.CancellationReason,
		a.CreatedAt, a.UpdatedAt,
	)
}

func sampleAppointment() *Appointment {
	now := time.Now().UTC().Truncate(time.Second)
	return &Appointment{
		ID:              uuid.New(),
		ReferenceNumber: "APT-20260312-K7R2M",
		PatientID:       uuid.New(),
		HospitalID:      uuid.New(),
		DepartmentID:    uuid.New(),
		AppointmentDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:30",
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestPostgresCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	appt := sampleAppointment()
	created := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(appt.ID, appt.ReferenceNumber, appt.PatientID, appt.HospitalID,
			appt.DepartmentID, appt.ProviderID, appt.AppointmentDate, appt.StartTime,
			appt.EndTime, appt.Status, appt.Notes, appt.OriginalAppointmentID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	repo := NewPostgresRepository(mock)
	if err := repo.Create(context.Background(), appt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !appt.CreatedAt.Equal(created) {
		t.Errorf("created_at not taken from the database: %v", appt.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	appt := sampleAppointment()
	mock.ExpectQuery("SELECT(.+)FROM appointments WHERE id =").
		WithArgs(appt.ID).
		WillReturnRows(apptRow(mock, appt))

	repo := NewPostgresRepository(mock)
	got, err := repo.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ReferenceNumber != appt.ReferenceNumber {
		t.Errorf("reference = %q, want %q", got.ReferenceNumber, appt.ReferenceNumber)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %q", got.Status)
	}
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT(.+)FROM appointments WHERE id =").
		WithArgs(id).
		WillReturnRows(mock.NewRows(apptColumnNames))

	repo := NewPostgresRepository(mock)
	if _, err := repo.GetByID(context.Background(), id); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresGetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	appt := sampleAppointment()
	mock.ExpectQuery("SELECT(.+)FROM appointments WHERE reference_number =").
		WithArgs(appt.ReferenceNumber).
		WillReturnRows(apptRow(mock, appt))

	repo := NewPostgresRepository(mock)
	got, err := repo.GetByReference(context.Background(), appt.ReferenceNumber)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != appt.ID {
		t.Errorf("id = %v, want %v", got.ID, appt.ID)
	}
}

func TestPostgresUpdateMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	appt := sampleAppointment()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(appt.ID, appt.Status, appt.AppointmentDate, appt.StartTime, appt.EndTime,
			appt.ReviewedBy, appt.ReviewedAt, appt.RejectionReason,
			appt.SuggestedDate, appt.SuggestedTime,
			appt.CheckedInAt, appt.CompletedAt, appt.CancelledAt, appt.CancellationReason).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepository(mock)
	if err := repo.Update(context.Background(), appt); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresListByPatientStatusFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	appt := sampleAppointment()
	appt.Status = StatusConfirmed
	// Filtering by scheduled canonicalizes to confirmed before hitting SQL.
	mock.ExpectQuery("SELECT(.+)FROM appointments").
		WithArgs(appt.PatientID, "confirmed", 50, 0).
		WillReturnRows(apptRow(mock, appt))

	repo := NewPostgresRepository(mock)
	got, err := repo.ListByPatient(context.Background(), appt.PatientID, ListFilter{Status: StatusScheduled})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Status != StatusConfirmed {
		t.Fatalf("unexpected result %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresCountByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	hospitalID := uuid.New()
	mock.ExpectQuery("SELECT CASE WHEN status").
		WithArgs(hospitalID).
		WillReturnRows(mock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("confirmed", 7).
			AddRow("cancelled", 2))

	repo := NewPostgresRepository(mock)
	counts, err := repo.CountByStatus(context.Background(), hospitalID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[StatusConfirmed] != 7 || counts[StatusPending] != 3 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
