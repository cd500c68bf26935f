package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for the telemetry ingest consumer.
type IngestMetrics struct {
	MessagesTotal      *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	ActiveConsumers    prometheus.Gauge
}

// NewIngestMetrics creates and registers ingest consumer metrics.
func NewIngestMetrics(namespace string) *IngestMetrics {
	m := &IngestMetrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_total",
				Help:      "Total number of telemetry messages consumed",
			},
			[]string{"queue", "status"}, // status: success, invalid, error
		),
		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "processing_duration_seconds",
				Help:      "Duration of telemetry message processing",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"queue"},
		),
		ActiveConsumers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "active_consumers",
				Help:      "Number of active telemetry consumers",
			},
		),
	}

	MustRegister(
		m.MessagesTotal,
		m.ProcessingDuration,
		m.ActiveConsumers,
	)

	return m
}
