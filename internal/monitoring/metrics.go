package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics handles metrics collection and reporting for the order pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	startTime time.Time

	turns        *prometheus.CounterVec
	intents      *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
	modelErrors  *prometheus.CounterVec
	orders       *prometheus.CounterVec
	issues       *prometheus.CounterVec
	sessions     prometheus.Gauge
}

// NewMetrics creates a new metrics collector with its own registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomservice_turns_total",
				Help: "Conversation turns processed, by resulting dialogue state",
			},
			[]string{"state"},
		),
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomservice_intents_total",
				Help: "Classified intents, by label and deciding strategy",
			},
			[]string{"intent", "source"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomservice_fallbacks_total",
				Help: "Times a component fell back from its primary strategy",
			},
			[]string{"component", "reason"},
		),
		modelLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roomservice_model_call_duration_seconds",
				Help:    "Latency of inference backend calls",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"backend", "op"},
		),
		modelErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomservice_model_errors_total",
				Help: "Failed inference backend calls",
			},
			[]string{"backend", "op"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomservice_orders_total",
				Help: "Order lifecycle events, by status reached",
			},
			[]string{"status"},
		),
		issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomservice_validation_issues_total",
				Help: "Validation issues raised, by kind",
			},
			[]string{"kind"},
		),
		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "roomservice_active_sessions",
				Help: "Conversation sessions currently held in memory",
			},
		),
	}

	// Register metrics
	registry.MustRegister(
		m.turns,
		m.intents,
		m.fallbacks,
		m.modelLatency,
		m.modelErrors,
		m.orders,
		m.issues,
		m.sessions,
	)

	return m
}

// Registry exposes the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Uptime returns the time since the collector was created
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}

// RecordTurn counts a processed conversation turn
func (m *Metrics) RecordTurn(state string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(state).Inc()
}

// RecordIntent counts a classification result
func (m *Metrics) RecordIntent(intent, source string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(intent, source).Inc()
}

// RecordFallback counts a switch to a secondary strategy
func (m *Metrics) RecordFallback(component, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(component, reason).Inc()
}

// ObserveModelCall records latency and failures of a backend call
func (m *Metrics) ObserveModelCall(backend, op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.modelLatency.WithLabelValues(backend, op).Observe(elapsed.Seconds())
	if err != nil {
		m.modelErrors.WithLabelValues(backend, op).Inc()
	}
}

// RecordOrder counts an order reaching a status
func (m *Metrics) RecordOrder(status string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(status).Inc()
}

// RecordIssue counts a validation issue
func (m *Metrics) RecordIssue(kind string) {
	if m == nil {
		return
	}
	m.issues.WithLabelValues(kind).Inc()
}

// SetActiveSessions reports the live session count
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
