package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	metrics.ObservePlaced(120*time.Millisecond, 350, 3)
	metrics.ObserveFailed(10*time.Millisecond, "INSUFFICIENT_STOCK")
	metrics.ObserveFailed(10*time.Millisecond, "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(t, mfs, "checkout_orders_placed_total", "", ""); got != 1 {
		t.Fatalf("expected placed=1, got %f", got)
	}
	if got := counterValue(t, mfs, "checkout_revenue_total", "", ""); got != 350 {
		t.Fatalf("expected revenue=350, got %f", got)
	}
	if got := counterValue(t, mfs, "checkout_items_sold_total", "", ""); got != 3 {
		t.Fatalf("expected items=3, got %f", got)
	}
	if got := counterValue(t, mfs, "checkout_orders_failed_total", "code", "INSUFFICIENT_STOCK"); got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}
	if got := counterValue(t, mfs, "checkout_orders_failed_total", "code", "unknown"); got != 1 {
		t.Fatalf("expected unknown failure=1, got %f", got)
	}
}

func TestNilRecordersAreNoops(t *testing.T) {
	var checkout *CheckoutMetrics
	checkout.ObservePlaced(time.Second, 1, 1)
	NewCheckoutMetrics(nil).ObserveFailed(time.Second, "X")

	var httpMetrics *HTTPMetrics
	httpMetrics.Observe("GET", "/", 200, time.Second)
}

func TestHTTPMetricsLabelsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("POST", "/api/v1/checkout", 201, 30*time.Millisecond)
	metrics.Observe("POST", "/api/v1/checkout", 201, 30*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got := counterValue(t, mfs, "http_requests_total", "route", "/api/v1/checkout"); got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	got, err := fetchCounterValue(mfs, name, label, value)
	if err != nil {
		t.Fatalf("fetch %s: %v", name, err)
	}
	return got
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if label == "" || matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
