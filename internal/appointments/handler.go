package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconnect-gh/booking-platform/internal/http/middleware"
	"github.com/medconnect-gh/booking-platform/internal/notifications"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// Handler exposes the appointment workflow over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Book handles POST /appointments requests.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientID == uuid.Nil {
		// Patients book for themselves; staff may book on their behalf.
		if actor, ok := middleware.ActorID(r.Context()); ok {
			req.PatientID = actor
		}
	}

	appt, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, appt)
}

// Get handles GET /appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// GetByReference handles GET /appointments/ref/{reference}.
func (h *Handler) GetByReference(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	if ref == "" {
		http.Error(w, "missing reference", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.GetByReference(r.Context(), ref)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// ListAppointmentsResponse is the envelope for appointment listings.
type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}

// ListByPatient handles GET /patients/{patientID}/appointments.
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	filter := parseListFilter(r)
	appts, err := h.svc.ListByPatient(r.Context(), patientID, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondList(w, appts, filter)
}

// ListByHospital handles GET /hospitals/{hospitalID}/appointments.
func (h *Handler) ListByHospital(w http.ResponseWriter, r *http.Request) {
	hospitalID, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
	if err != nil {
		http.Error(w, "invalid hospital id", http.StatusBadRequest)
		return
	}
	filter := parseListFilter(r)
	appts, err := h.svc.ListByHospital(r.Context(), hospitalID, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondList(w, appts, filter)
}

// HospitalStats handles GET /hospitals/{hospitalID}/appointments/stats.
func (h *Handler) HospitalStats(w http.ResponseWriter, r *http.Request) {
	hospitalID, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
	if err != nil {
		http.Error(w, "invalid hospital id", http.StatusBadRequest)
		return
	}
	counts, err := h.svc.CountByStatus(r.Context(), hospitalID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"hospital_id": hospitalID,
		"by_status":   counts,
	})
}

// Approve handles POST /appointments/{appointmentID}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Approve(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// Reject handles POST /appointments/{appointmentID}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ReviewerID = actor
	appt, err := h.svc.Reject(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// Suggest handles POST /appointments/{appointmentID}/suggest.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ReviewerID = actor
	appt, err := h.svc.Suggest(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// AcceptSuggestion handles POST /appointments/{appointmentID}/accept-suggestion.
func (h *Handler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.AcceptSuggestion(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// DeclineSuggestion handles POST /appointments/{appointmentID}/decline-suggestion.
func (h *Handler) DeclineSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req := h.optionalCancelBody(r)
	appt, err := h.svc.DeclineSuggestion(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// Cancel handles POST /appointments/{appointmentID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req := h.optionalCancelBody(r)
	appt, err := h.svc.Cancel(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

// CheckIn handles POST /appointments/{appointmentID}/check-in.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.staffTransition(w, r, h.svc.CheckIn)
}

// Start handles POST /appointments/{appointmentID}/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.staffTransition(w, r, h.svc.Start)
}

// Complete handles POST /appointments/{appointmentID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.staffTransition(w, r, h.svc.Complete)
}

// MarkNoShow handles POST /appointments/{appointmentID}/no-show.
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.staffTransition(w, r, h.svc.MarkNoShow)
}

// SendReminderRequest selects which reminder to dispatch.
type SendReminderRequest struct {
	Type string `json:"type"`
}

// SendReminder handles POST /appointments/{appointmentID}/reminders.
func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SendReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	typ, err := notifications.ParseType(req.Type)
	if err != nil {
		h.respondError(w, &ValidationError{Field: "type", Reason: "unknown notification type"})
		return
	}
	res, err := h.svc.SendReminder(r.Context(), id, typ)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) staffTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id, actor uuid.UUID) (*Appointment, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	appt, err := op(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, appt)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actor, ok := middleware.ActorID(r.Context())
	if !ok {
		http.Error(w, "missing authenticated user", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return actor, true
}

func (h *Handler) optionalCancelBody(r *http.Request) CancelRequest {
	var req CancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	return req
}

func (h *Handler) respondList(w http.ResponseWriter, appts []*Appointment, filter ListFilter) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	h.respondJSON(w, http.StatusOK, ListAppointmentsResponse{
		Appointments: appts,
		Count:        len(appts),
		Limit:        limit,
		Offset:       filter.Offset,
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondError maps the error taxonomy onto HTTP statuses: validation
// failures are 400, unknown rows 404, refused transitions 409.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	var te *InvalidTransitionError
	switch {
	case errors.As(err, &ve):
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, ErrNotFound):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "appointment not found"})
	case errors.As(err, &te):
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: te.Error()})
	default:
		h.logger.Error("appointment request failed", "error", err)
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func parseListFilter(r *http.Request) ListFilter {
	filter := ListFilter{Limit: 50}
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		filter.Status = Status(status)
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if fromStr := q.Get("from"); fromStr != "" {
		if from, err := time.Parse("2006-01-02", fromStr); err == nil {
			filter.From = &from
		}
	}
	if toStr := q.Get("to"); toStr != "" {
		if to, err := time.Parse("2006-01-02", toStr); err == nil {
			filter.To = &to
		}
	}
	return filter
}
