package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics records outbound calls to the fulfillment API.
type ClientMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewClientMetrics registers the fulfillment client metrics on the provided registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fulfillment_request_duration_seconds",
		Help:    "Duration of fulfillment API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_request_failures_total",
		Help: "Failed fulfillment API requests.",
	}, []string{"endpoint"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_request_retries_total",
		Help: "Retried fulfillment API requests.",
	}, []string{"endpoint"})
	reg.MustRegister(duration, failure, retries)
	return &ClientMetrics{
		duration: duration,
		failure:  failure,
		retries:  retries,
	}
}

// ObserveDuration records the duration for the named endpoint.
func (c *ClientMetrics) ObserveDuration(endpoint string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

func (c *ClientMetrics) IncFailure(endpoint string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

func (c *ClientMetrics) IncRetry(endpoint string) {
	if c == nil || c.retries == nil {
		return
	}
	c.retries.WithLabelValues(normalizeLabel(endpoint)).Inc()
}
