// Package monitoring exposes Prometheus metrics and an in-process activity
// snapshot for the assistant.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whatsfordinner/internal/models"
)

// Metrics holds the Prometheus collectors. Each instance owns its registry
// so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	completionRequests *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	parseFailures      prometheus.Counter
	actions            *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		completionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dinner_completion_requests_total",
			Help: "Completion calls by call kind and outcome.",
		}, []string{"call", "outcome"}),
		completionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dinner_completion_duration_seconds",
			Help:    "Latency of completion calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"call"}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dinner_recipe_parse_failures_total",
			Help: "Recipe replies that could not be parsed.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dinner_actions_total",
			Help: "User actions by type and outcome.",
		}, []string{"action", "outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dinner_active_sessions",
			Help: "Sessions currently held by the store.",
		}),
	}

	m.registry.MustRegister(
		m.completionRequests,
		m.completionDuration,
		m.parseFailures,
		m.actions,
		m.activeSessions,
	)
	return m
}

// ObserveCompletion records one completion call.
func (m *Metrics) ObserveCompletion(call string, duration time.Duration, err error) {
	m.completionRequests.WithLabelValues(call, models.ErrorKind(err)).Inc()
	m.completionDuration.WithLabelValues(call).Observe(duration.Seconds())
}

// RecordParseFailure counts a reply that did not yield a recipe list.
func (m *Metrics) RecordParseFailure() {
	m.parseFailures.Inc()
}

// RecordAction counts one dispatched user action.
func (m *Metrics) RecordAction(action string, err error) {
	m.actions.WithLabelValues(action, models.ErrorKind(err)).Inc()
}

// SetActiveSessions updates the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
