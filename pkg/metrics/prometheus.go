// Package metrics provides Prometheus metrics for the podium scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Analyzer metrics - per-metric run health
	analyzerRuns    *prometheus.CounterVec
	analyzerErrors  *prometheus.CounterVec
	analyzerLatency *prometheus.HistogramVec

	// Pipeline metrics - ingestion and finalization
	itemsIngested    prometheus.Counter
	ingestErrors     prometheus.Counter
	finalizations    prometheus.Counter
	finalizeErrors   prometheus.Counter
	finalizeLatency  prometheus.Histogram
	itemsStored      prometheus.Gauge
	sessionsFinished prometheus.Gauge

	// Artifact cache metrics
	cacheEntries prometheus.Gauge

	// Queue and worker metrics - async analysis path
	queueSize    prometheus.Gauge
	queueCap     prometheus.Gauge
	jobsEnqueued prometheus.Counter
	jobsDropped  prometheus.Counter
	workerCount  prometheus.Gauge
	jobLatency   prometheus.Histogram
	workerErrors prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.analyzerRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "analyzer_runs_total",
			Help:      "Total analyzer runs by metric name",
		},
		[]string{"metric"},
	)

	m.analyzerErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "analyzer_errors_total",
			Help:      "Total analyzer runs that degraded with errors",
		},
		[]string{"metric"},
	)

	m.analyzerLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "analyzer_latency_milliseconds",
			Help:      "Analyzer run latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"metric"},
	)

	m.itemsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_ingested_total",
		Help:      "Total session items accepted by the meeting controller",
	})

	m.ingestErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "item_validation_errors_total",
		Help:      "Total session items rejected by validation",
	})

	m.finalizations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "finalizations_total",
		Help:      "Total sessions finalized successfully",
	})

	m.finalizeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "finalize_errors_total",
		Help:      "Total finalize calls that failed",
	})

	m.finalizeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "finalize_latency_milliseconds",
		Help:      "Finalization latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.itemsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_stored",
		Help:      "Current number of raw session items in the store",
	})

	m.sessionsFinished = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_finished",
		Help:      "Current number of finalized session documents",
	})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "artifact_cache_entries",
		Help:      "Current number of videos with cached intermediate artifacts",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_queue_size",
		Help:      "Current size of the async analysis queue",
	})

	m.queueCap = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_queue_capacity",
		Help:      "Capacity of the async analysis queue",
	})

	m.jobsEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_jobs_enqueued_total",
		Help:      "Total analysis jobs accepted onto the queue",
	})

	m.jobsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_jobs_dropped_total",
		Help:      "Total analysis jobs rejected due to backpressure",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_worker_count",
		Help:      "Current number of analysis workers",
	})

	m.jobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_job_latency_milliseconds",
		Help:      "End-to-end analysis job latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_worker_errors_total",
		Help:      "Total worker job failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers on the global manager.

// RecordAnalyzerRun counts one analyzer run.
func RecordAnalyzerRun(metricName string) {
	globalManager.analyzerRuns.WithLabelValues(metricName).Inc()
}

// RecordAnalyzerError counts one degraded analyzer run.
func RecordAnalyzerError(metricName string) {
	globalManager.analyzerErrors.WithLabelValues(metricName).Inc()
}

// RecordAnalyzerLatency records analyzer run latency.
func RecordAnalyzerLatency(metricName string, latencyMs float64) {
	globalManager.analyzerLatency.WithLabelValues(metricName).Observe(latencyMs)
}

// RecordItemIngested counts one accepted session item.
func RecordItemIngested() { globalManager.itemsIngested.Inc() }

// RecordIngestError counts one rejected session item.
func RecordIngestError() { globalManager.ingestErrors.Inc() }

// RecordFinalization counts one successful finalize.
func RecordFinalization() { globalManager.finalizations.Inc() }

// RecordFinalizeError counts one failed finalize.
func RecordFinalizeError() { globalManager.finalizeErrors.Inc() }

// RecordFinalizeLatency records finalization latency.
func RecordFinalizeLatency(latencyMs float64) { globalManager.finalizeLatency.Observe(latencyMs) }

// UpdateItemsStored sets the raw item gauge.
func UpdateItemsStored(count int) { globalManager.itemsStored.Set(float64(count)) }

// UpdateSessionsFinished sets the finalized document gauge.
func UpdateSessionsFinished(count int) { globalManager.sessionsFinished.Set(float64(count)) }

// UpdateCacheEntries sets the artifact cache gauge.
func UpdateCacheEntries(count int) { globalManager.cacheEntries.Set(float64(count)) }

// UpdateQueueSize sets the analysis queue size gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the analysis queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCap.Set(float64(capacity)) }

// RecordJobEnqueued counts one accepted analysis job.
func RecordJobEnqueued() { globalManager.jobsEnqueued.Inc() }

// RecordJobDropped counts one job rejected for backpressure.
func RecordJobDropped() { globalManager.jobsDropped.Inc() }

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordJobLatency records end-to-end job latency.
func RecordJobLatency(latencyMs float64) { globalManager.jobLatency.Observe(latencyMs) }

// RecordWorkerError counts one failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry backing the global manager, for
// exposing via promhttp.
func GetRegistry() *prometheus.Registry { return customRegistry }
