// Package directory resolves the reference entities an appointment
// points at into the display data notifications are rendered from.
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medconnect-gh/booking-platform/internal/appointments"
	"github.com/medconnect-gh/booking-platform/internal/hospitals"
	"github.com/medconnect-gh/booking-platform/internal/notifications"
	"github.com/medconnect-gh/booking-platform/internal/patients"
)

// PatientSource fetches patient contact records.
type PatientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patients.Patient, error)
}

// HospitalSource fetches hospital display records. Both the plain store
// and its cached wrapper satisfy this.
type HospitalSource interface {
	GetHospital(ctx context.Context, id uuid.UUID) (*hospitals.Hospital, error)
}

// DepartmentSource fetches department records.
type DepartmentSource interface {
	GetDepartment(ctx context.Context, id uuid.UUID) (*hospitals.Department, error)
}

// Resolver joins the three reference tables for one appointment.
type Resolver struct {
	patients    PatientSource
	hospitals   HospitalSource
	departments DepartmentSource
}

// NewResolver builds a resolver over the reference stores.
func NewResolver(p PatientSource, h HospitalSource, d DepartmentSource) *Resolver {
	if p == nil || h == nil || d == nil {
		panic("directory: all sources required")
	}
	return &Resolver{patients: p, hospitals: h, departments: d}
}

var _ appointments.Directory = (*Resolver)(nil)

// AppointmentDetails resolves the contact and display fields. The
// caller fills in the appointment-derived fields afterwards.
func (r *Resolver) AppointmentDetails(ctx context.Context, appt *appointments.Appointment) (notifications.AppointmentDetails, error) {
	patient, err := r.patients.GetByID(ctx, appt.PatientID)
	if err != nil {
		return notifications.AppointmentDetails{}, fmt.Errorf("directory: patient %s: %w", appt.PatientID, err)
	}
	hospital, err := r.hospitals.GetHospital(ctx, appt.HospitalID)
	if err != nil {
		return notifications.AppointmentDetails{}, fmt.Errorf("directory: hospital %s: %w", appt.HospitalID, err)
	}
	details := notifications.AppointmentDetails{
		PatientName:     patient.FullName,
		PatientPhone:    patient.Phone,
		PatientEmail:    patient.Email,
		HospitalName:    hospital.Name,
		HospitalAddress: hospital.Address,
	}
	// A missing department only costs the display name; the message is
	// still worth sending.
	if dept, err := r.departments.GetDepartment(ctx, appt.DepartmentID); err == nil {
		details.DepartmentName = dept.Name
	}
	return details, nil
}
