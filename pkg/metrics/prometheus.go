// Package metrics provides Prometheus metrics for the quench training and serving harness.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the quench service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Training Metrics - What the harness is for
	batchesProcessed  prometheus.Counter
	examplesProcessed prometheus.Counter
	stepLatency       prometheus.Histogram
	epochDuration     prometheus.Histogram
	trainLoss         prometheus.Gauge
	trainTop1         prometheus.Gauge

	// Evaluation Metrics - Accuracy per split and cutoff
	evalAccuracy *prometheus.GaugeVec
	evalLoss     *prometheus.GaugeVec

	// Answer Metrics - The demo question surface
	answersServed prometheus.Counter
	answerLatency prometheus.Histogram
	answerErrors  prometheus.Counter

	// Operational Health Metrics
	prefetchDepth   prometheus.Gauge
	datasetExamples prometheus.Gauge
	runsTotal       prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Hub Metrics - Remote model and dataset fetches
	hubDownloads       prometheus.Counter
	hubDownloadBytes   prometheus.Counter
	hubDownloadLatency prometheus.Histogram
	hubRetries         prometheus.Counter
	hubCacheHits       prometheus.Counter
	hubErrors          prometheus.Counter

	// Artifact Metrics - Conversion and compilation
	artifactsConverted prometheus.Counter
	artifactsCompiled  prometheus.Counter
	compileLatency     prometheus.Histogram
	artifactBytes      prometheus.Gauge

	// Run Store Metrics - Persisted run history
	runsRecorded         prometheus.Counter
	runstoreErrors       prometheus.Counter
	runstoreWriteLatency prometheus.Histogram
	runstoreQueryLatency prometheus.Histogram

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "quench",
		subsystem:        "harness",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Training Metrics
	m.batchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_processed_total",
		Help:      "Total number of batches pushed through the epoch driver",
	})

	m.examplesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "examples_processed_total",
		Help:      "Total number of examples pushed through the epoch driver",
	})

	m.stepLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "step_latency_milliseconds",
		Help:      "Histogram of per-batch step latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.epochDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "epoch_duration_milliseconds",
		Help:      "Histogram of whole-epoch duration in milliseconds",
		Buckets:   []float64{100, 500, 1000, 5000, 15000, 60000, 300000, 900000},
	})

	m.trainLoss = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "train_loss",
		Help:      "Running average training loss of the current epoch",
	})

	m.trainTop1 = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "train_top1_percent",
		Help:      "Running average top-1 training accuracy of the current epoch",
	})

	// Evaluation Metrics
	m.evalAccuracy = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "eval_accuracy_percent",
			Help:      "Top-k accuracy per split and cutoff",
		},
		[]string{"split", "k"},
	)

	m.evalLoss = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "eval_loss",
			Help:      "Average loss per split",
		},
		[]string{"split"},
	)

	// Answer Metrics
	m.answersServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "answers_served_total",
		Help:      "Total number of table questions answered",
	})

	m.answerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "answer_latency_milliseconds",
		Help:      "Histogram of question answering latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.answerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "answer_errors_total",
		Help:      "Total number of question answering failures",
	})

	// Operational Health Metrics
	m.prefetchDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prefetch_depth",
		Help:      "Current number of batches buffered ahead of the driver",
	})

	m.datasetExamples = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_examples",
		Help:      "Number of examples in the active dataset",
	})

	m.runsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total number of recorded runs in the run store",
	})

	// HTTP Performance Metrics
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

	// Hub Metrics
	m.hubDownloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_downloads_total",
		Help:      "Total number of files fetched from the model hub",
	})

	m.hubDownloadBytes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_download_bytes_total",
		Help:      "Total bytes fetched from the model hub",
	})

	m.hubDownloadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_download_latency_milliseconds",
		Help:      "Histogram of hub download latency in milliseconds",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 15000, 60000},
	})

	m.hubRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_retries_total",
		Help:      "Total number of retried hub fetch attempts",
	})

	m.hubCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_cache_hits_total",
		Help:      "Total number of hub fetches satisfied from the local cache",
	})

	m.hubErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_errors_total",
		Help:      "Total number of failed hub fetches",
	})

	// Artifact Metrics
	m.artifactsConverted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "artifacts_converted_total",
		Help:      "Total number of models converted to the portable artifact format",
	})

	m.artifactsCompiled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "artifacts_compiled_total",
		Help:      "Total number of artifacts compiled into executable engines",
	})

	m.compileLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compile_latency_milliseconds",
		Help:      "Histogram of artifact compilation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.artifactBytes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "artifact_bytes",
		Help:      "Size in bytes of the most recently written artifact",
	})

	// Run Store Metrics
	m.runsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_recorded_total",
		Help:      "Total number of runs written to the run store",
	})

	m.runstoreErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runstore_errors_total",
		Help:      "Total number of run store operation failures",
	})

	m.runstoreWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runstore_write_latency_milliseconds",
		Help:      "Run store write operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.runstoreQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runstore_query_latency_milliseconds",
		Help:      "Run store query operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Enhanced Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Training Metrics Functions.

// RecordBatchProcessed increments the batch counter and adds the batch's examples.
func RecordBatchProcessed(examples int) {
	globalManager.batchesProcessed.Inc()
	globalManager.examplesProcessed.Add(float64(examples))
}

// RecordStepLatency records per-batch step latency in milliseconds.
func RecordStepLatency(latencyMs float64) {
	globalManager.stepLatency.Observe(latencyMs)
}

// RecordEpochDuration records a whole-epoch duration in milliseconds.
func RecordEpochDuration(durationMs float64) {
	globalManager.epochDuration.Observe(durationMs)
}

// UpdateTrainLoss sets the running average training loss.
func UpdateTrainLoss(loss float64) {
	globalManager.trainLoss.Set(loss)
}

// UpdateTrainTop1 sets the running average top-1 training accuracy.
func UpdateTrainTop1(percent float64) {
	globalManager.trainTop1.Set(percent)
}

// Evaluation Metrics Functions.

// UpdateEvalAccuracy sets the top-k accuracy for a split and cutoff.
func UpdateEvalAccuracy(split, k string, percent float64) {
	globalManager.evalAccuracy.WithLabelValues(split, k).Set(percent)
}

// UpdateEvalLoss sets the average loss for a split.
func UpdateEvalLoss(split string, loss float64) {
	globalManager.evalLoss.WithLabelValues(split).Set(loss)
}

// Answer Metrics Functions.

// RecordAnswerServed increments the answers served counter.
func RecordAnswerServed() {
	globalManager.answersServed.Inc()
}

// RecordAnswerLatency records question answering latency in milliseconds.
func RecordAnswerLatency(latencyMs float64) {
	globalManager.answerLatency.Observe(latencyMs)
}

// RecordAnswerError increments the answer errors counter.
func RecordAnswerError() {
	globalManager.answerErrors.Inc()
}

// Operational Health Metrics Functions.

// UpdatePrefetchDepth sets the current prefetch buffer depth.
func UpdatePrefetchDepth(depth int) {
	globalManager.prefetchDepth.Set(float64(depth))
}

// UpdateDatasetExamples sets the number of examples in the active dataset.
func UpdateDatasetExamples(count int) {
	globalManager.datasetExamples.Set(float64(count))
}

// UpdateRunsTotal sets the total number of recorded runs.
func UpdateRunsTotal(count int) {
	globalManager.runsTotal.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Hub Metrics Functions.

// RecordHubDownload increments the hub download counter.
func RecordHubDownload() {
	globalManager.hubDownloads.Inc()
}

// RecordHubDownloadBytes adds fetched bytes to the hub byte counter.
func RecordHubDownloadBytes(n int64) {
	globalManager.hubDownloadBytes.Add(float64(n))
}

// RecordHubDownloadLatency records hub download latency in milliseconds.
func RecordHubDownloadLatency(latencyMs float64) {
	globalManager.hubDownloadLatency.Observe(latencyMs)
}

// RecordHubRetry increments the hub retry counter.
func RecordHubRetry() {
	globalManager.hubRetries.Inc()
}

// RecordHubCacheHit increments the hub cache hit counter.
func RecordHubCacheHit() {
	globalManager.hubCacheHits.Inc()
}

// RecordHubError increments the hub error counter.
func RecordHubError() {
	globalManager.hubErrors.Inc()
}

// Artifact Metrics Functions.

// RecordArtifactConverted increments the conversion counter.
func RecordArtifactConverted() {
	globalManager.artifactsConverted.Inc()
}

// RecordArtifactCompiled increments the compilation counter.
func RecordArtifactCompiled() {
	globalManager.artifactsCompiled.Inc()
}

// RecordCompileLatency records artifact compilation latency in milliseconds.
func RecordCompileLatency(latencyMs float64) {
	globalManager.compileLatency.Observe(latencyMs)
}

// UpdateArtifactBytes sets the size of the most recently written artifact.
func UpdateArtifactBytes(n int) {
	globalManager.artifactBytes.Set(float64(n))
}

// Run Store Metrics Functions.

// RecordRunRecorded increments the recorded runs counter.
func RecordRunRecorded() {
	globalManager.runsRecorded.Inc()
}

// RecordRunstoreError increments the run store error counter.
func RecordRunstoreError() {
	globalManager.runstoreErrors.Inc()
}

// RecordRunstoreWriteLatency records run store write latency in milliseconds.
func RecordRunstoreWriteLatency(latencyMs float64) {
	globalManager.runstoreWriteLatency.Observe(latencyMs)
}

// RecordRunstoreQueryLatency records run store query latency in milliseconds.
func RecordRunstoreQueryLatency(latencyMs float64) {
	globalManager.runstoreQueryLatency.Observe(latencyMs)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
