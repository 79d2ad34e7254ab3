// Package handlers holds the admin HTTP surface that cuts across the
// domain packages.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/medconnect-gh/booking-platform/internal/appointments"
	"github.com/medconnect-gh/booking-platform/internal/audit"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// AdminStatsHandler serves the platform-wide operations overview.
type AdminStatsHandler struct {
	appointments *appointments.Service
	audit        *audit.Service
	gatherer     prometheus.Gatherer
	logger       *logging.Logger
}

// NewAdminStatsHandler creates the stats handler. audit may be nil when
// the trail is not configured; gatherer nil falls back to the default
// registry.
func NewAdminStatsHandler(appts *appointments.Service, auditSvc *audit.Service, gatherer prometheus.Gatherer, logger *logging.Logger) *AdminStatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminStatsHandler{
		appointments: appts,
		audit:        auditSvc,
		gatherer:     gatherer,
		logger:       logger,
	}
}

// StatsResponse is the admin overview payload.
type StatsResponse struct {
	GeneratedAt          time.Time                     `json:"generated_at"`
	AppointmentsByStatus map[appointments.Status]int   `json:"appointments_by_status"`
	TransitionsLast24h   int                           `json:"transitions_last_24h"`
	Workflow             map[string]map[string]float64 `json:"workflow_counters"`
	Notifications        []NotificationCounter         `json:"notification_counters"`
}

// NotificationCounter is one dispatch counter series.
type NotificationCounter struct {
	Channel  string  `json:"channel"`
	Status   string  `json:"status"`
	Provider string  `json:"provider"`
	Count    float64 `json:"count"`
}

// GetStats handles GET /admin/stats.
func (h *AdminStatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatsResponse{
		GeneratedAt: time.Now().UTC(),
		Workflow:    map[string]map[string]float64{},
	}

	counts, err := h.appointments.CountByStatus(ctx, uuid.Nil)
	if err != nil {
		h.logger.Error("failed to count appointments", "error", err)
		http.Error(w, "failed to gather stats", http.StatusInternalServerError)
		return
	}
	resp.AppointmentsByStatus = counts

	if h.audit != nil {
		n, err := h.audit.CountSince(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			h.logger.Error("failed to count transitions", "error", err)
		} else {
			resp.TransitionsLast24h = n
		}
	}

	resp.Workflow, resp.Notifications = h.snapshotCounters()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// snapshotCounters reads the process-local Prometheus counters so the
// admin view shows dispatch outcomes without a separate metrics stack.
func (h *AdminStatsHandler) snapshotCounters() (map[string]map[string]float64, []NotificationCounter) {
	workflow := map[string]map[string]float64{}
	notif := []NotificationCounter{}

	gatherer := h.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		h.logger.Error("metrics gather failed", "error", err)
		return workflow, notif
	}

	for _, mf := range mfs {
		switch mf.GetName() {
		case "medconnect_appointments_transitions_total":
			for _, m := range mf.Metric {
				action := labelValue(m, "action")
				outcome := labelValue(m, "outcome")
				if action == "" || outcome == "" {
					continue
				}
				if workflow[action] == nil {
					workflow[action] = map[string]float64{}
				}
				workflow[action][outcome] += m.GetCounter().GetValue()
			}
		case "medconnect_notifications_outbound_total":
			for _, m := range mf.Metric {
				notif = append(notif, NotificationCounter{
					Channel:  labelValue(m, "channel"),
					Status:   labelValue(m, "status"),
					Provider: labelValue(m, "provider"),
					Count:    m.GetCounter().GetValue(),
				})
			}
		}
	}
	return workflow, notif
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.Label {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
