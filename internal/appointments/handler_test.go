package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	logger := logging.NewWithWriter("error", io.Discard)
	svc := NewService(repo, nil, nil, nil, nil, logger)
	return NewHandler(svc, logger), repo
}

func withAppointmentID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("appointmentID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func bookOne(t *testing.T, h *Handler) *Appointment {
	t.Helper()
	payload := BookRequest{
		PatientID:    uuid.New(),
		HospitalID:   uuid.New(),
		DepartmentID: uuid.New(),
		Date:         "2026-05-12",
		StartTime:    "09:30",
		Notes:        "review",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Book(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var appt Appointment
	if err := json.NewDecoder(w.Body).Decode(&appt); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &appt
}

func TestBookHandler_Success(t *testing.T) {
	h, _ := newTestHandler(t)

	appt := bookOne(t, h)

	if appt.Status != StatusPending {
		t.Errorf("expected status %s, got %s", StatusPending, appt.Status)
	}
	if appt.ReferenceNumber == "" {
		t.Error("expected a reference number")
	}
	if appt.StartTime != "09:30" {
		t.Errorf("expected start time 09:30, got %s", appt.StartTime)
	}
}

func TestBookHandler_MissingDate(t *testing.T) {
	h, _ := newTestHandler(t)

	payload := BookRequest{
		PatientID:    uuid.New(),
		HospitalID:   uuid.New(),
		DepartmentID: uuid.New(),
		StartTime:    "09:30",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Book(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	var resp struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Field != "appointment_date" {
		t.Errorf("expected field appointment_date, got %q", resp.Field)
	}
}

func TestBookHandler_MalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()

	h.Book(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetHandler_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := withAppointmentID(httptest.NewRequest(http.MethodGet, "/appointments/nope", nil), "nope")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetHandler_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	id := uuid.NewString()
	req := withAppointmentID(httptest.NewRequest(http.MethodGet, "/appointments/"+id, nil), id)
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGetByReferenceHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	appt := bookOne(t, h)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("reference", appt.ReferenceNumber)
	req := httptest.NewRequest(http.MethodGet, "/appointments/ref/"+appt.ReferenceNumber, nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	h.GetByReference(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var got Appointment
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != appt.ID {
		t.Errorf("expected appointment %s, got %s", appt.ID, got.ID)
	}
}

func TestCancelHandler_TerminalConflict(t *testing.T) {
	h, _ := newTestHandler(t)
	appt := bookOne(t, h)

	cancel := func() *httptest.ResponseRecorder {
		body := bytes.NewBufferString(`{"reason":"schedule conflict"}`)
		req := withAppointmentID(
			httptest.NewRequest(http.MethodPost, "/appointments/"+appt.ID.String()+"/cancel", body),
			appt.ID.String(),
		)
		w := httptest.NewRecorder()
		h.Cancel(w, req)
		return w
	}

	if w := cancel(); w.Code != http.StatusOK {
		t.Fatalf("first cancel: expected %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	// Cancelled is terminal; a second cancel must be refused.
	if w := cancel(); w.Code != http.StatusConflict {
		t.Errorf("second cancel: expected %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestListByPatientHandler_Filters(t *testing.T) {
	h, _ := newTestHandler(t)
	appt := bookOne(t, h)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("patientID", appt.PatientID.String())
	req := httptest.NewRequest(http.MethodGet,
		"/patients/"+appt.PatientID.String()+"/appointments?status=pending&limit=10", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	h.ListByPatient(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ListAppointmentsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 appointment, got %d", resp.Count)
	}
	if resp.Limit != 10 {
		t.Errorf("expected limit 10, got %d", resp.Limit)
	}
}
