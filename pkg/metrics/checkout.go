package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the outcome and latency of checkout attempts.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	replays  prometheus.Counter
	duration prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	replays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_idempotent_replays_total",
		Help: "Checkout requests answered from stored idempotency records.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout execution in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(attempts, replays, duration)
	return &CheckoutMetrics{
		attempts: attempts,
		replays:  replays,
		duration: duration,
	}
}

// IncOutcome increments the attempt counter for the given outcome label.
func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReplay counts a request answered from a stored idempotency record.
func (c *CheckoutMetrics) IncReplay() {
	if c == nil || c.replays == nil {
		return
	}
	c.replays.Inc()
}

// ObserveDuration records how long a checkout attempt took.
func (c *CheckoutMetrics) ObserveDuration(duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.Observe(duration.Seconds())
}
