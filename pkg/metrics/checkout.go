package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records stage submissions and order placement outcomes.
type CheckoutMetrics struct {
	stageDuration *prometheus.HistogramVec
	stageFailure  *prometheus.CounterVec
	ordersPlaced  prometheus.Counter
	ordersFailed  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_stage_duration_seconds",
		Help:    "Duration of checkout stage submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	stageFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_stage_failure",
		Help: "Rejected checkout stage submissions.",
	}, []string{"stage"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_placed",
		Help: "Orders successfully placed.",
	})
	ordersFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_failed",
		Help: "Order placements that failed after creation.",
	})
	reg.MustRegister(stageDuration, stageFailure, ordersPlaced, ordersFailed)
	return &CheckoutMetrics{
		stageDuration: stageDuration,
		stageFailure:  stageFailure,
		ordersPlaced:  ordersPlaced,
		ordersFailed:  ordersFailed,
	}
}

// ObserveStage records the duration for the named checkout stage.
func (c *CheckoutMetrics) ObserveStage(stage string, duration time.Duration) {
	if c == nil || c.stageDuration == nil {
		return
	}
	c.stageDuration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// IncStageFailure increments the failure counter for the named stage.
func (c *CheckoutMetrics) IncStageFailure(stage string) {
	if c == nil || c.stageFailure == nil {
		return
	}
	c.stageFailure.WithLabelValues(normalizeLabel(stage)).Inc()
}

// IncOrderPlaced increments the placed order counter.
func (c *CheckoutMetrics) IncOrderPlaced() {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.Inc()
}

// IncOrderFailed increments the failed order counter.
func (c *CheckoutMetrics) IncOrderFailed() {
	if c == nil || c.ordersFailed == nil {
		return
	}
	c.ordersFailed.Inc()
}

func normalizeLabel(stage string) string {
	if stage == "" {
		return "unknown"
	}
	return stage
}
