package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ephemeris service.
type Metrics struct {
	// Upstream query metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: ephem_type={OBSERVER,ELEMENTS}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: ephem_type
	CacheLookups     *prometheus.CounterVec   // labels: ephem_type, result={hit,miss}

	// Parsing metrics.
	ParseDegradations *prometheus.CounterVec // labels: field={elements,coordinates,magnitude,distances}

	// Snapshot publisher metrics.
	RecordsPublished     prometheus.Counter
	PublishErrors        prometheus.Counter
	PublisherRunning     prometheus.Gauge
	PublishCycleDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deepsix_ephem",
			Name:      "upstream_requests_total",
			Help:      "Horizons API requests by ephemeris type and outcome.",
		}, []string{"ephem_type", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "deepsix_ephem",
			Name:      "upstream_request_duration_seconds",
			Help:      "Horizons API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 8},
		}, []string{"ephem_type"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deepsix_ephem",
			Name:      "cache_lookups_total",
			Help:      "Ephemeris cache lookups by ephemeris type and result.",
		}, []string{"ephem_type", "result"}),
		ParseDegradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deepsix_ephem",
			Name:      "parse_degradations_total",
			Help:      "Fields that resolved to their sentinel default instead of a parsed value.",
		}, []string{"field"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepsix_ephem",
			Name:      "records_published_total",
			Help:      "Total ephemeris snapshots written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepsix_ephem",
			Name:      "publish_errors_total",
			Help:      "Total failed snapshot publish attempts.",
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "deepsix_ephem",
			Name:      "publisher_running",
			Help:      "1 when the snapshot publisher is active, 0 when shut down.",
		}),
		PublishCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "deepsix_ephem",
			Name:      "publish_cycle_duration_seconds",
			Help:      "Duration of one complete fetch-and-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.ParseDegradations,
		m.RecordsPublished,
		m.PublishErrors,
		m.PublisherRunning,
		m.PublishCycleDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		UpstreamRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "deepsix_ephem", Name: "upstream_requests_total"}, []string{"ephem_type", "outcome"}),
		UpstreamDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "deepsix_ephem", Name: "upstream_request_duration_seconds"}, []string{"ephem_type"}),
		CacheLookups:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "deepsix_ephem", Name: "cache_lookups_total"}, []string{"ephem_type", "result"}),
		ParseDegradations:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "deepsix_ephem", Name: "parse_degradations_total"}, []string{"field"}),
		RecordsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "deepsix_ephem", Name: "records_published_total"}),
		PublishErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "deepsix_ephem", Name: "publish_errors_total"}),
		PublisherRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "deepsix_ephem", Name: "publisher_running"}),
		PublishCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "deepsix_ephem", Name: "publish_cycle_duration_seconds"}),
	}
}
