package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts payment-intent and webhook outcomes.
type CheckoutMetrics struct {
	intents  *prometheus.CounterVec
	webhooks *prometheus.CounterVec
	orders   *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counters on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	intents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_intents_total",
		Help: "Payment intent creation attempts by result.",
	}, []string{"result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_webhook_events_total",
		Help: "Webhook events by type and result.",
	}, []string{"type", "result"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted by creation path.",
	}, []string{"path"})
	reg.MustRegister(intents, webhooks, orders)
	return &CheckoutMetrics{intents: intents, webhooks: webhooks, orders: orders}
}

// IncIntent records a payment intent attempt ("created", "failed").
func (c *CheckoutMetrics) IncIntent(result string) {
	if c == nil || c.intents == nil {
		return
	}
	c.intents.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncWebhook records a webhook event outcome ("processed", "duplicate", "ignored", "failed").
func (c *CheckoutMetrics) IncWebhook(eventType, result string) {
	if c == nil || c.webhooks == nil {
		return
	}
	c.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// IncOrder records a persisted order for the given path ("direct", "intent").
func (c *CheckoutMetrics) IncOrder(path string) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(path)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
