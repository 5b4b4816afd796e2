package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutboxMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.Record("order_paid", "published")
	m.Record("order_paid", "published")
	m.Record("", "parked")

	if got := testutil.ToFloat64(m.published.WithLabelValues("order_paid", "published")); got != 2 {
		t.Fatalf("expected 2 published, got %v", got)
	}
	if got := testutil.ToFloat64(m.published.WithLabelValues("unknown", "parked")); got != 1 {
		t.Fatalf("expected unknown type label, got %v", got)
	}

	var nilMetrics *OutboxMetrics
	nilMetrics.Record("order_paid", "published")
}
