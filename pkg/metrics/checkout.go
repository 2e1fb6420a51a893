package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Checkout attempt outcomes.
const (
	OutcomeSuccess          = "success"
	OutcomeErrorBlocked     = "error_blocked"
	OutcomeErrorGeneric     = "error_generic"
	OutcomeRejectedEmpty    = "rejected_empty"
	OutcomeRejectedBlocked  = "rejected_blocked"
	OutcomeRejectedInFlight = "rejected_in_flight"
)

// CheckoutMetrics counts checkout attempts by outcome.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	blocked  prometheus.Counter
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
	blocked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_blocked_latch_total",
		Help: "Times the payment provider was latched as blocked.",
	})
	reg.MustRegister(attempts, blocked)
	return &CheckoutMetrics{attempts: attempts, blocked: blocked}
}

// IncAttempt records a checkout attempt with the given outcome.
func (c *CheckoutMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *CheckoutMetrics) IncBlocked() {
	if c == nil || c.blocked == nil {
		return
	}
	c.blocked.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
