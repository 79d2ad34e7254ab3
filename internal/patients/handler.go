package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconnect-gh/booking-platform/internal/http/middleware"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// Handler serves patient records.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a patients handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register handles POST /patients requests.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var p Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.repo.Create(r.Context(), &p); err != nil {
		h.logger.Error("failed to create patient", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Info("patient registered", "patient_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// Get handles GET /patients/{patientID}. Patients may only read their
// own record; staff roles may read any.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if ok && claims.Role == middleware.RolePatient {
		if actor, _ := middleware.ActorID(r.Context()); actor != id {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}
	p, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get patient", "patient_id", id, "error", err)
		http.Error(w, "failed to get patient", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /patients/{patientID}.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	var p Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = id
	err = h.repo.Update(r.Context(), &p)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to update patient", "patient_id", id, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListByHospitalResponse is the staff-facing patient list.
type ListByHospitalResponse struct {
	Patients []*PatientWithStats `json:"patients"`
	Count    int                 `json:"count"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

// ListByHospital handles GET /hospitals/{hospitalID}/patients.
func (h *Handler) ListByHospital(w http.ResponseWriter, r *http.Request) {
	hospitalID, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
	if err != nil {
		http.Error(w, "invalid hospital id", http.StatusBadRequest)
		return
	}
	limit, offset := 50, 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
			offset = v
		}
	}

	out, err := h.repo.ListByHospital(r.Context(), hospitalID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list patients", "hospital_id", hospitalID, "error", err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListByHospitalResponse{
		Patients: out,
		Count:    len(out),
		Limit:    limit,
		Offset:   offset,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
