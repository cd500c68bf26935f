package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SimulatorMetrics contains Prometheus metrics for the load simulator.
type SimulatorMetrics struct {
	SamplesPublished *prometheus.CounterVec
	PublishFailures  *prometheus.CounterVec
	ActiveSimulators prometheus.Gauge
}

// NewSimulatorMetrics creates and registers simulator metrics.
func NewSimulatorMetrics(namespace string) *SimulatorMetrics {
	m := &SimulatorMetrics{
		SamplesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "samples_published_total",
				Help:      "Total number of synthetic samples published",
			},
			[]string{"device_type"},
		),
		PublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "publish_failures_total",
				Help:      "Total number of failed sample publishes",
			},
			[]string{"reason"},
		),
		ActiveSimulators: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "active_simulators",
				Help:      "Number of running simulator loops",
			},
		),
	}

	MustRegister(
		m.SamplesPublished,
		m.PublishFailures,
		m.ActiveSimulators,
	)

	return m
}
