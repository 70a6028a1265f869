package evaluation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector records evaluation outcomes in its own registry so a
// run can be exported without mixing with the service metrics.
type MetricsCollector struct {
	registry    *prometheus.Registry
	scenarios   *prometheus.CounterVec
	turnLatency *prometheus.HistogramVec
	passRate    prometheus.Gauge
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomservice_eval_scenarios_total",
				Help: "Evaluated scenarios by outcome",
			},
			[]string{"scenario", "result"},
		),
		turnLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roomservice_eval_turn_seconds",
				Help:    "Time taken to process one scripted turn",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"scenario"},
		),
		passRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomservice_eval_pass_rate",
			Help: "Share of scenarios that passed in the last run",
		}),
	}
	mc.registry.MustRegister(mc.scenarios, mc.turnLatency, mc.passRate)
	return mc
}

// Registry returns the registry holding the evaluation metrics
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// RecordScenario counts a finished scenario
func (mc *MetricsCollector) RecordScenario(id string, passed bool) {
	if mc == nil {
		return
	}
	result := "fail"
	if passed {
		result = "pass"
	}
	mc.scenarios.WithLabelValues(id, result).Inc()
}

// ObserveTurn records the latency of one turn
func (mc *MetricsCollector) ObserveTurn(id string, elapsed time.Duration) {
	if mc == nil {
		return
	}
	mc.turnLatency.WithLabelValues(id).Observe(elapsed.Seconds())
}

func (mc *MetricsCollector) SetPassRate(rate float64) {
	if mc == nil {
		return
	}
	mc.passRate.Set(rate)
}
