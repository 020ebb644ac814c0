// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	SourceReads        *prometheus.CounterVec
	SourceReadDuration *prometheus.HistogramVec
	RowsIngested       prometheus.Counter
	UnparseableValues  *prometheus.CounterVec
	NegativeDurations  prometheus.Counter

	// Cache metrics
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	CachedDatasets prometheus.Gauge

	// Pipeline metrics
	StageDuration      *prometheus.HistogramVec
	DatasetsLoaded     prometheus.Counter
	DashboardsComputed prometheus.Counter
	ReportsGenerated   prometheus.Counter

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulLoad prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_eda"
	}

	return &Metrics{
		// Ingestion metrics
		SourceReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "source_reads_total",
			Help:      "Total number of source reads by source kind and status",
		}, []string{"kind", "status"}),
		SourceReadDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "source_read_duration_seconds",
			Help:      "Source read duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		RowsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_ingested_total",
			Help:      "Total number of trade rows normalized",
		}),
		UnparseableValues: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "unparseable_values_total",
			Help:      "Total number of cells present but not parseable, by column",
		}, []string{"column"}),
		NegativeDurations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "negative_durations_total",
			Help:      "Total number of trades exiting before entry",
		}),

		// Cache metrics
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of dataset cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of dataset cache misses",
		}),
		CacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of datasets evicted or invalidated",
		}),
		CachedDatasets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "datasets",
			Help:      "Current number of cached datasets",
		}),

		// Pipeline metrics
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"stage"}),
		DatasetsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "datasets_loaded_total",
			Help:      "Total number of datasets normalized and derived",
		}),
		DashboardsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "dashboards_computed_total",
			Help:      "Total number of dashboard views computed",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		// Health metrics
		LastSuccessfulLoad: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_load_timestamp",
			Help:      "Unix timestamp of last successful dataset load",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSourceRead records a source read of the given kind (csv, xlsx, postgres, clickhouse).
func RecordSourceRead(kind string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.SourceReads.WithLabelValues(kind, status).Inc()
	DefaultMetrics.SourceReadDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordDatasetLoaded records a freshly computed dataset and its quality counts.
func RecordDatasetLoaded(rows int, unparseable map[string]int, negativeDurations int) {
	DefaultMetrics.DatasetsLoaded.Inc()
	DefaultMetrics.RowsIngested.Add(float64(rows))
	for column, n := range unparseable {
		DefaultMetrics.UnparseableValues.WithLabelValues(column).Add(float64(n))
	}
	DefaultMetrics.NegativeDurations.Add(float64(negativeDurations))
	DefaultMetrics.LastSuccessfulLoad.Set(float64(time.Now().Unix()))
}

// RecordCacheHit increments the cache hits counter.
func RecordCacheHit() {
	DefaultMetrics.CacheHits.Inc()
}

// RecordCacheMiss increments the cache misses counter.
func RecordCacheMiss() {
	DefaultMetrics.CacheMisses.Inc()
}

// RecordCacheEviction increments the cache evictions counter.
func RecordCacheEviction() {
	DefaultMetrics.CacheEvictions.Inc()
}

// UpdateCachedDatasets updates the cached datasets gauge.
func UpdateCachedDatasets(n int) {
	DefaultMetrics.CachedDatasets.Set(float64(n))
}

// RecordStage records the duration of a pipeline stage.
func RecordStage(stage string, seconds float64) {
	DefaultMetrics.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordDashboardComputed increments the dashboards computed counter.
func RecordDashboardComputed() {
	DefaultMetrics.DashboardsComputed.Inc()
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route string, code int, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}
