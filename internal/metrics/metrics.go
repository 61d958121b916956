// Package metrics exposes Prometheus metrics for the ingestion pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics collects ingestion counters on a private registry so
// tests can create isolated instances.
type PipelineMetrics struct {
	registry *prometheus.Registry

	// Fan-out units by kind (odds_refresh, tree_sync) and result (ok,
	// error, no_data).
	UnitsTotal *prometheus.CounterVec

	// Cache writes by result.
	CacheWrites *prometheus.CounterVec

	// Wall time of one full refresh cycle.
	RefreshDuration prometheus.Histogram

	// Events known to the tree store at the last fan-out.
	KnownEvents prometheus.Gauge
}

// NewPipelineMetrics creates and registers the pipeline collectors.
func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	m := &PipelineMetrics{
		registry: registry,
		UnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_units_total",
				Help: "Ingestion units executed, by kind and result",
			},
			[]string{"kind", "result"},
		),
		CacheWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_cache_writes_total",
				Help: "Canonical event cache writes, by result",
			},
			[]string{"result"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feed_refresh_duration_seconds",
				Help:    "Duration of one odds refresh fan-out cycle",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		KnownEvents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "feed_known_events",
				Help: "Events known to the tree store at the last fan-out",
			},
		),
	}

	registry.MustRegister(m.UnitsTotal, m.CacheWrites, m.RefreshDuration, m.KnownEvents)
	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}
