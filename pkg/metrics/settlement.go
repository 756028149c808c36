package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records settlement outcomes per entry point.
type SettlementMetrics struct {
	settlements   *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Settlement outcomes by entry point and result.",
	}, []string{"path", "result"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Gateway webhook deliveries by event type.",
	}, []string{"event"})
	reg.MustRegister(settlements, webhookEvents)
	return &SettlementMetrics{
		settlements:   settlements,
		webhookEvents: webhookEvents,
	}
}

// IncSettlement increments the settlement counter for the given path/result.
func (s *SettlementMetrics) IncSettlement(path, result string) {
	if s == nil || s.settlements == nil {
		return
	}
	s.settlements.WithLabelValues(normalizeLabel(path), normalizeLabel(result)).Inc()
}

// IncWebhookEvent increments the delivery counter for the named event type.
func (s *SettlementMetrics) IncWebhookEvent(event string) {
	if s == nil || s.webhookEvents == nil {
		return
	}
	s.webhookEvents.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
