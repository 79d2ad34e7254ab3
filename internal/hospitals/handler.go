package hospitals

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// Handler serves the hospital directory and its admin surface.
type Handler struct {
	store  *Store
	cache  *CachedStore
	logger *logging.Logger
}

// NewHandler creates a hospitals handler. cache may be nil; reads then
// go straight to the database.
func NewHandler(store *Store, cache *CachedStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, cache: cache, logger: logger}
}

// List handles GET /hospitals. Patients only see active facilities.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		out []*Hospital
		err error
	)
	if h.cache != nil {
		out, err = h.cache.ListActive(r.Context())
	} else {
		out, err = h.store.ListHospitals(r.Context(), true)
	}
	if err != nil {
		h.logger.Error("failed to list hospitals", "error", err)
		http.Error(w, "failed to list hospitals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hospitals": out, "count": len(out)})
}

// Get handles GET /hospitals/{hospitalID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathHospitalID(w, r)
	if !ok {
		return
	}
	var (
		hospital *Hospital
		err      error
	)
	if h.cache != nil {
		hospital, err = h.cache.GetHospital(r.Context(), id)
	} else {
		hospital, err = h.store.GetHospital(r.Context(), id)
	}
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "hospital not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get hospital", "hospital_id", id, "error", err)
		http.Error(w, "failed to get hospital", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, hospital)
}

// ListDepartments handles GET /hospitals/{hospitalID}/departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathHospitalID(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	departments, err := h.store.ListDepartments(r.Context(), id, activeOnly)
	if err != nil {
		h.logger.Error("failed to list departments", "hospital_id", id, "error", err)
		http.Error(w, "failed to list departments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": departments, "count": len(departments)})
}

// Create handles POST /admin/hospitals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var hospital Hospital
	if err := json.NewDecoder(r.Body).Decode(&hospital); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if hospital.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := h.store.CreateHospital(r.Context(), &hospital); err != nil {
		h.logger.Error("failed to create hospital", "error", err)
		http.Error(w, "failed to create hospital", http.StatusInternalServerError)
		return
	}
	h.invalidate(r, hospital.ID)
	h.logger.Info("hospital created", "hospital_id", hospital.ID, "name", hospital.Name)
	writeJSON(w, http.StatusCreated, hospital)
}

// Update handles PUT /admin/hospitals/{hospitalID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathHospitalID(w, r)
	if !ok {
		return
	}
	var hospital Hospital
	if err := json.NewDecoder(r.Body).Decode(&hospital); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	hospital.ID = id
	err := h.store.UpdateHospital(r.Context(), &hospital)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "hospital not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to update hospital", "hospital_id", id, "error", err)
		http.Error(w, "failed to update hospital", http.StatusInternalServerError)
		return
	}
	h.invalidate(r, id)
	writeJSON(w, http.StatusOK, hospital)
}

// CreateDepartment handles POST /admin/hospitals/{hospitalID}/departments.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathHospitalID(w, r)
	if !ok {
		return
	}
	var dept Department
	if err := json.NewDecoder(r.Body).Decode(&dept); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if dept.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	dept.HospitalID = id
	if err := h.store.CreateDepartment(r.Context(), &dept); err != nil {
		h.logger.Error("failed to create department", "hospital_id", id, "error", err)
		http.Error(w, "failed to create department", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, dept)
}

// ToggleDepartmentRequest switches a department's booking availability.
type ToggleDepartmentRequest struct {
	Active bool `json:"active"`
}

// ToggleDepartment handles PATCH /admin/departments/{departmentID}.
func (h *Handler) ToggleDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		http.Error(w, "invalid department id", http.StatusBadRequest)
		return
	}
	var req ToggleDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	err = h.store.SetDepartmentActive(r.Context(), id, req.Active)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "department not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to toggle department", "department_id", id, "error", err)
		http.Error(w, "failed to toggle department", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": req.Active})
}

func (h *Handler) invalidate(r *http.Request, hospitalID uuid.UUID) {
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), hospitalID)
	}
}

func pathHospitalID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
	if err != nil {
		http.Error(w, "invalid hospital id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
