package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics counts publish outcomes per event type.
type OutboxMetrics struct {
	published *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox publisher counter on reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox rows processed by the publisher, by event type and result.",
	}, []string{"type", "result"})
	reg.MustRegister(published)
	return &OutboxMetrics{published: published}
}

// Record counts one processed row. result is published, retry or parked.
func (m *OutboxMetrics) Record(eventType, result string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}
