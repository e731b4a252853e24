package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seaice_catalog"

// Metrics holds the Prometheus counters, histograms, and gauges for catalog refreshes.
type Metrics struct {
	FilesDiscovered  *prometheus.CounterVec // labels: source
	RecordsUpserted  *prometheus.CounterVec // labels: source
	ParseErrors      *prometheus.CounterVec // labels: kind
	GeometryOutcomes *prometheus.CounterVec // labels: outcome={refined,skipped,failed}
	ChangesPublished prometheus.Counter

	RefreshRunning  prometheus.Gauge
	RefreshDuration prometheus.Histogram

	// Archive probe metrics.
	ProbeRequests *prometheus.CounterVec // labels: outcome={found,missing,error}
	ProbeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all catalog metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesDiscovered,
		m.RecordsUpserted,
		m.ParseErrors,
		m.GeometryOutcomes,
		m.ChangesPublished,
		m.RefreshRunning,
		m.RefreshDuration,
		m.ProbeRequests,
		m.ProbeCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_discovered_total",
			Help:      "Chart files listed by source locators.",
		}, []string{"source"}),
		RecordsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_upserted_total",
			Help:      "Chart records committed to the store.",
		}, []string{"source"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Chart filenames skipped because they could not be parsed.",
		}, []string{"kind"}),
		GeometryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_outcomes_total",
			Help:      "Exact geometry refinement attempts by outcome.",
		}, []string{"outcome"}),
		ChangesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_published_total",
			Help:      "Committed records published to the change feed.",
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_running",
			Help:      "1 while a catalog refresh is in progress.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete catalog refresh.",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		}),
		ProbeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_requests_total",
			Help:      "Archive HEAD probes by outcome.",
		}, []string{"outcome"}),
		ProbeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_cache_total",
			Help:      "Archive probe cache lookups by result.",
		}, []string{"result"}),
	}
}
