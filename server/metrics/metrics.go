// Package metrics holds the Prometheus collectors shared by the codeshift
// server components. Every Metrics value owns its own registry so tests can
// create as many as they like without duplicate registration panics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates Prometheus metrics for the server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  *prometheus.GaugeVec
	ErrorsTotal     *prometheus.CounterVec

	// Conversions
	ConversionsTotal     *prometheus.CounterVec
	UploadBytes          prometheus.Histogram
	DeduplicatedRequests prometheus.Counter

	// Completion service
	CompletionLatency *prometheus.HistogramVec
	CompletionErrors  *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec
	BreakerTrips      *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with a custom registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeshift_http_requests_total",
				Help: "Total number of HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeshift_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		ActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "codeshift_http_active_requests",
				Help: "Number of currently active HTTP requests",
			},
			[]string{"endpoint"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeshift_errors_total",
				Help: "Total number of error responses by type",
			},
			[]string{"type"},
		),
		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeshift_conversions_total",
				Help: "Total number of conversions by outcome",
			},
			[]string{"outcome"},
		),
		UploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "codeshift_upload_bytes",
				Help:    "Size of accepted source uploads in bytes",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
		),
		DeduplicatedRequests: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "codeshift_deduplicated_requests_total",
				Help: "Number of conversions answered by an identical in-flight request",
			},
		),
		CompletionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeshift_completion_latency_seconds",
				Help:    "Latency of completion service calls",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"provider"},
		),
		CompletionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeshift_completion_errors_total",
				Help: "Number of failed completion service calls by provider",
			},
			[]string{"provider"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "codeshift_circuit_breaker_state",
				Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		BreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeshift_circuit_breaker_trips_total",
				Help: "Total number of times the circuit breaker has tripped",
			},
			[]string{"name"},
		),
	}

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Expose the outcome series before the first conversion
	for _, outcome := range []string{"success", "error", "empty", "rejected"} {
		m.ConversionsTotal.WithLabelValues(outcome).Add(0)
	}

	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns a handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: false,
	})
}
