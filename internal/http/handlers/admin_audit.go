package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconnect-gh/booking-platform/internal/audit"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// AdminAuditHandler exposes the appointment transition trail.
type AdminAuditHandler struct {
	audit  *audit.Service
	logger *logging.Logger
}

// NewAdminAuditHandler creates the audit trail handler.
func NewAdminAuditHandler(auditSvc *audit.Service, logger *logging.Logger) *AdminAuditHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAuditHandler{audit: auditSvc, logger: logger}
}

// ListTransitions handles GET /admin/appointments/{appointmentID}/transitions.
func (h *AdminAuditHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	entries, err := h.audit.ListByAppointment(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list transitions", "appointment_id", id, "error", err)
		http.Error(w, "failed to list transitions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"appointment_id": id,
		"transitions":    entries,
		"count":          len(entries),
	})
}
