package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the appointment workflow and the
// notification dispatcher.
type BookingMetrics struct {
	transitionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconnect",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Total appointment workflow transitions by action and outcome",
		}, []string{"action", "outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconnect",
			Subsystem: "notifications",
			Name:      "outbound_total",
			Help:      "Total notification delivery attempts by channel, status and provider",
		}, []string{"channel", "status", "provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.notificationsTotal)
	return m
}

// ObserveTransition records one workflow transition attempt.
// Outcome is "applied", "refused" or "error".
func (m *BookingMetrics) ObserveTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveNotification records one delivery attempt on a channel.
func (m *BookingMetrics) ObserveNotification(channel, status, provider string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "none"
	}
	m.notificationsTotal.WithLabelValues(channel, status, provider).Inc()
}
