package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order placement outcomes.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	placed   prometheus.Counter
	failed   *prometheus.CounterVec
	revenue  prometheus.Counter
	items    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of order placement in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Orders committed by the checkout pipeline.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_failed_total",
		Help: "Rejected or failed order placements by error code.",
	}, []string{"code"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_revenue_total",
		Help: "Sum of total_with_coupon of placed orders.",
	})
	items := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_items_sold_total",
		Help: "Units decremented from stock by placed orders.",
	})
	reg.MustRegister(duration, placed, failed, revenue, items)
	return &CheckoutMetrics{
		duration: duration,
		placed:   placed,
		failed:   failed,
		revenue:  revenue,
		items:    items,
	}
}

// ObservePlaced records a committed order.
func (c *CheckoutMetrics) ObservePlaced(elapsed time.Duration, amount float64, units int) {
	if c == nil || c.placed == nil {
		return
	}
	c.duration.WithLabelValues("placed").Observe(elapsed.Seconds())
	c.placed.Inc()
	if amount > 0 {
		c.revenue.Add(amount)
	}
	if units > 0 {
		c.items.Add(float64(units))
	}
}

// ObserveFailed records a rejected placement under its error code.
func (c *CheckoutMetrics) ObserveFailed(elapsed time.Duration, code string) {
	if c == nil || c.failed == nil {
		return
	}
	c.duration.WithLabelValues("failed").Observe(elapsed.Seconds())
	c.failed.WithLabelValues(normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
