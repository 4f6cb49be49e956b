package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for report generation.
type Metrics struct {
	ReportsGenerated      *prometheus.CounterVec // labels: variant={rp,rc}, outcome={success,error}
	DocumentBuildDuration prometheus.Histogram

	// Map rendering metrics.
	MapRenders        *prometheus.CounterVec // labels: outcome={success,timeout,error,skipped}
	MapRenderDuration prometheus.Histogram
	TileFetches       *prometheus.CounterVec // labels: outcome={success,error}

	// Audit event metrics.
	AuditEvents  *prometheus.CounterVec // labels: outcome={success,error}
	AuditEnabled prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coe_word",
			Name:      "reports_generated_total",
			Help:      "Report documents generated by variant and outcome.",
		}, []string{"variant", "outcome"}),
		DocumentBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coe_word",
			Name:      "document_build_duration_seconds",
			Help:      "Duration of a complete normalize-layout-emit cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3.5, 5, 10},
		}),
		MapRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coe_word",
			Name:      "map_renders_total",
			Help:      "Static map render attempts by outcome.",
		}, []string{"outcome"}),
		MapRenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coe_word",
			Name:      "map_render_duration_seconds",
			Help:      "Duration of static map renders, including timed-out ones.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 2.5, 3, 4},
		}),
		TileFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coe_word",
			Name:      "tile_fetches_total",
			Help:      "Map tile HTTP fetches by outcome.",
		}, []string{"outcome"}),
		AuditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coe_word",
			Name:      "audit_events_total",
			Help:      "Audit event publishes by outcome.",
		}, []string{"outcome"}),
		AuditEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coe_word",
			Name:      "audit_enabled",
			Help:      "1 when audit event publishing is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ReportsGenerated,
		m.DocumentBuildDuration,
		m.MapRenders,
		m.MapRenderDuration,
		m.TileFetches,
		m.AuditEvents,
		m.AuditEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReportsGenerated:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coe_word", Name: "reports_generated_total"}, []string{"variant", "outcome"}),
		DocumentBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "coe_word", Name: "document_build_duration_seconds"}),
		MapRenders:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coe_word", Name: "map_renders_total"}, []string{"outcome"}),
		MapRenderDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "coe_word", Name: "map_render_duration_seconds"}),
		TileFetches:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coe_word", Name: "tile_fetches_total"}, []string{"outcome"}),
		AuditEvents:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coe_word", Name: "audit_events_total"}, []string{"outcome"}),
		AuditEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "coe_word", Name: "audit_enabled"}),
	}
}
