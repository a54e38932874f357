package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"plotlines.app/internal/ports"
)

// dispatchCollector holds the process-wide Prometheus series.
// promauto registers with the default registry, so it is created once.
type dispatchCollector struct {
	Cycles         *prometheus.CounterVec
	Combinations   *prometheus.CounterVec
	Deliveries     *prometheus.CounterVec
	EngineDuration *prometheus.HistogramVec
	LastCycle      prometheus.Gauge
}

var (
	globalCollector *dispatchCollector
	collectorOnce   sync.Once
)

func getCollector() *dispatchCollector {
	collectorOnce.Do(func() {
		globalCollector = &dispatchCollector{
			Cycles: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plotlines_dispatch_cycles_total",
					Help: "Dispatch cycles by result",
				},
				[]string{"result"},
			),
			Combinations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plotlines_dispatch_combinations_total",
					Help: "Processed combinations by outcome",
				},
				[]string{"outcome"},
			),
			Deliveries: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "plotlines_deliveries_total",
					Help: "Delivery ledger rows by status",
				},
				[]string{"status"},
			),
			EngineDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "plotlines_engine_duration_seconds",
					Help:    "Engine invocation duration in seconds",
					Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
				},
				[]string{"success"},
			),
			LastCycle: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "plotlines_dispatch_last_cycle_timestamp_seconds",
					Help: "Unix time at which the last dispatch cycle finished",
				},
			),
		}
	})
	return globalCollector
}

// PrometheusMetricsCollector implements the MetricsCollector port
type PrometheusMetricsCollector struct {
	collector *dispatchCollector
}

// NewPrometheusMetricsCollector creates a collector backed by the default registry
func NewPrometheusMetricsCollector() *PrometheusMetricsCollector {
	return &PrometheusMetricsCollector{collector: getCollector()}
}

// RecordCycle counts a cycle; conflicts do not move the last-cycle gauge
func (m *PrometheusMetricsCollector) RecordCycle(ctx context.Context, result string, finishedAt time.Time) {
	m.collector.Cycles.WithLabelValues(result).Inc()
	if result != "conflict" {
		m.collector.LastCycle.Set(float64(finishedAt.Unix()))
	}
}

// RecordCombinationOutcome counts a combination outcome
func (m *PrometheusMetricsCollector) RecordCombinationOutcome(ctx context.Context, outcome string) {
	m.collector.Combinations.WithLabelValues(outcome).Inc()
}

// RecordDelivery counts a delivery ledger row
func (m *PrometheusMetricsCollector) RecordDelivery(ctx context.Context, status ports.DeliveryStatus) {
	m.collector.Deliveries.WithLabelValues(string(status)).Inc()
}

// RecordEngineDuration observes one engine invocation
func (m *PrometheusMetricsCollector) RecordEngineDuration(ctx context.Context, duration time.Duration, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	m.collector.EngineDuration.WithLabelValues(label).Observe(duration.Seconds())
}
