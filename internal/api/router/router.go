// Package router wires the HTTP surface: public directory reads,
// authenticated booking routes, staff workflow actions, and the admin
// plane.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medconnect-gh/booking-platform/internal/appointments"
	"github.com/medconnect-gh/booking-platform/internal/hospitals"
	"github.com/medconnect-gh/booking-platform/internal/http/handlers"
	httpmiddleware "github.com/medconnect-gh/booking-platform/internal/http/middleware"
	"github.com/medconnect-gh/booking-platform/internal/patients"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	Appointments *appointments.Handler
	Hospitals    *hospitals.Handler
	Patients     *patients.Handler
	AdminStats   *handlers.AdminStatsHandler
	AdminAudit   *handlers.AdminAuditHandler

	MetricsHandler http.Handler

	AuthSecret         string
	CORSAllowedOrigins []string

	// Booking endpoints sit behind a per-IP limiter when rate > 0.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, the hospital directory, and
	// patient self-registration.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Hospitals != nil {
			public.Get("/hospitals", cfg.Hospitals.List)
			public.Get("/hospitals/{hospitalID}", cfg.Hospitals.Get)
			public.Get("/hospitals/{hospitalID}/departments", cfg.Hospitals.ListDepartments)
		}
		if cfg.Patients != nil {
			public.Post("/patients", cfg.Patients.Register)
		}
	})

	auth := httpmiddleware.Auth(cfg.AuthSecret)
	anyRole := httpmiddleware.RequireRole(
		httpmiddleware.RolePatient, httpmiddleware.RoleProvider, httpmiddleware.RoleAdmin)
	staffOnly := httpmiddleware.RequireRole(
		httpmiddleware.RoleProvider, httpmiddleware.RoleAdmin)
	adminOnly := httpmiddleware.RequireRole(httpmiddleware.RoleAdmin)

	// Patient-facing booking routes.
	if cfg.Appointments != nil {
		r.Group(func(patient chi.Router) {
			patient.Use(auth, anyRole)
			if cfg.RateLimitPerSecond > 0 {
				patient.With(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst)).
					Post("/appointments", cfg.Appointments.Book)
			} else {
				patient.Post("/appointments", cfg.Appointments.Book)
			}
			patient.Get("/appointments/{appointmentID}", cfg.Appointments.Get)
			patient.Get("/appointments/ref/{reference}", cfg.Appointments.GetByReference)
			patient.Post("/appointments/{appointmentID}/cancel", cfg.Appointments.Cancel)
			patient.Post("/appointments/{appointmentID}/accept-suggestion", cfg.Appointments.AcceptSuggestion)
			patient.Post("/appointments/{appointmentID}/decline-suggestion", cfg.Appointments.DeclineSuggestion)
			patient.Get("/patients/{patientID}/appointments", cfg.Appointments.ListByPatient)
			if cfg.Patients != nil {
				patient.Get("/patients/{patientID}", cfg.Patients.Get)
				patient.Put("/patients/{patientID}", cfg.Patients.UpdateProfile)
			}
		})

		// Staff workflow actions.
		r.Group(func(staff chi.Router) {
			staff.Use(auth, staffOnly)
			staff.Post("/appointments/{appointmentID}/approve", cfg.Appointments.Approve)
			staff.Post("/appointments/{appointmentID}/reject", cfg.Appointments.Reject)
			staff.Post("/appointments/{appointmentID}/suggest", cfg.Appointments.Suggest)
			staff.Post("/appointments/{appointmentID}/check-in", cfg.Appointments.CheckIn)
			staff.Post("/appointments/{appointmentID}/start", cfg.Appointments.Start)
			staff.Post("/appointments/{appointmentID}/complete", cfg.Appointments.Complete)
			staff.Post("/appointments/{appointmentID}/no-show", cfg.Appointments.MarkNoShow)
			staff.Post("/appointments/{appointmentID}/reminders", cfg.Appointments.SendReminder)
			staff.Get("/hospitals/{hospitalID}/appointments", cfg.Appointments.ListByHospital)
			staff.Get("/hospitals/{hospitalID}/appointments/stats", cfg.Appointments.HospitalStats)
			if cfg.Patients != nil {
				staff.Get("/hospitals/{hospitalID}/patients", cfg.Patients.ListByHospital)
			}
		})
	}

	// Admin plane.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(auth, adminOnly)
		if cfg.Hospitals != nil {
			admin.Post("/hospitals", cfg.Hospitals.Create)
			admin.Put("/hospitals/{hospitalID}", cfg.Hospitals.Update)
			admin.Post("/hospitals/{hospitalID}/departments", cfg.Hospitals.CreateDepartment)
			admin.Patch("/departments/{departmentID}", cfg.Hospitals.ToggleDepartment)
		}
		if cfg.AdminStats != nil {
			admin.Get("/stats", cfg.AdminStats.GetStats)
		}
		if cfg.AdminAudit != nil {
			admin.Get("/appointments/{appointmentID}/transitions", cfg.AdminAudit.ListTransitions)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
