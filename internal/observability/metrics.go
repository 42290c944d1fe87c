package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ride_height"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	PipelineRunning prometheus.Gauge

	// Cycle metrics.
	Cycles        *prometheus.CounterVec   // labels: cycle={scrape,live}, outcome={success,error}
	CycleDuration *prometheus.HistogramVec // labels: cycle={scrape,live}

	// Scrape metrics.
	PageFetches      *prometheus.CounterVec // labels: kind={attraction,show}, outcome={success,error}
	ExtractionStatus *prometheus.CounterVec // labels: status={success,fallback,error}

	// Snapshot metrics.
	InconsistentRecords  prometheus.Gauge
	UnmatchedFeedEntries prometheus.Gauge
	OpenAttractions      prometheus.Gauge
	SnapshotReloads      *prometheus.CounterVec // labels: outcome={success,error}
	MessagesProduced     prometheus.Counter

	// Query metrics.
	HeightQueries *prometheus.CounterVec // labels: source={tracked,computed}
	HeightCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PipelineRunning,
		m.Cycles,
		m.CycleDuration,
		m.PageFetches,
		m.ExtractionStatus,
		m.InconsistentRecords,
		m.UnmatchedFeedEntries,
		m.OpenAttractions,
		m.SnapshotReloads,
		m.MessagesProduced,
		m.HeightQueries,
		m.HeightCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh runner is active, 0 when shut down.",
		}),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed refresh cycles by cycle and outcome.",
		}, []string{"cycle", "outcome"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a refresh cycle in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"cycle"}),
		PageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_fetches_total",
			Help:      "Park page fetches by page kind and outcome.",
		}, []string{"kind", "outcome"}),
		ExtractionStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_status_total",
			Help:      "Attraction records produced by extraction status.",
		}, []string{"status"}),
		InconsistentRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inconsistent_records",
			Help:      "Attractions excluded from categorization in the current snapshot.",
		}),
		UnmatchedFeedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unmatched_feed_entries",
			Help:      "Live feed entries that resolved to no attraction in the last merge.",
		}),
		OpenAttractions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_attractions",
			Help:      "Attractions reported open by the last merge.",
		}),
		SnapshotReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_reloads_total",
			Help:      "Snapshot reloads by readers, by outcome.",
		}, []string{"outcome"}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total attraction messages written to Kafka.",
		}),
		HeightQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "height_queries_total",
			Help:      "Height queries by bucket source.",
		}, []string{"source"}),
		HeightCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "height_cache_total",
			Help:      "Computed-bucket cache lookups by result.",
		}, []string{"result"}),
	}
}
