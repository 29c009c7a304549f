// Package metrics provides Prometheus metrics for the trackcast prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction Metrics
	batchesTotal     prometheus.Counter
	rowsTotal        prometheus.Counter
	batchLatency     prometheus.Histogram
	batchRows        prometheus.Histogram
	transitions      *prometheus.CounterVec
	dtSources        *prometheus.CounterVec
	extrapolatedRows prometheus.Counter

	// State Store Metrics
	entitiesTracked prometheus.Gauge
	storeEvictions  prometheus.Counter

	// Initialization Gate Metrics
	modelLoads      prometheus.Counter
	modelLoadErrors prometheus.Counter

	// Partition Metrics - Key-partitioned worker pool
	partitionQueueDepth     *prometheus.GaugeVec
	partitionEnqueueErrors  prometheus.Counter
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Data Preparation Metrics
	prepRowsLoaded  *prometheus.CounterVec
	prepRowsFlipped prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trackcast",
		subsystem:        "predictor",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.batchesTotal = m.counter("batches_total", "Total number of prediction batches processed")
	m.rowsTotal = m.counter("rows_total", "Total number of rows predicted")
	m.batchLatency = m.histogram("batch_latency_milliseconds", "Prediction batch latency in milliseconds", m.histogramBuckets)
	m.batchRows = m.histogram("batch_rows", "Number of rows per prediction batch",
		prometheus.ExponentialBuckets(1, 4, 10))
	m.transitions = m.counterVec("transitions_total", "Per-row state transitions by kind", "transition")
	m.dtSources = m.counterVec("dt_source_total", "Per-row delta-time source", "source")
	m.extrapolatedRows = m.counter("extrapolated_rows_total", "Rows without a full observation whose stored position was advanced by the prediction")

	m.entitiesTracked = m.gauge("entities_tracked", "Number of entities held in the state store")
	m.storeEvictions = m.counter("store_evictions_total", "Entities evicted from a bounded state store")

	m.modelLoads = m.counter("model_loads_total", "Number of times the model loader ran (at most one per process)")
	m.modelLoadErrors = m.counter("model_load_errors_total", "Number of failed model loads")

	m.partitionQueueDepth = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "partition_queue_depth",
		Help:        "Rows waiting in each partition queue",
		ConstLabels: m.constLabels,
	}, []string{"partition"})
	m.partitionEnqueueErrors = m.counter("partition_enqueue_errors_total", "Rows that could not be handed to a partition")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running partition workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-row processing latency in partition workers", m.histogramBuckets)

	m.prepRowsLoaded = m.counterVec("prep_rows_loaded_total", "Rows loaded by data preparation by source", "source")
	m.prepRowsFlipped = m.counter("prep_rows_flipped_total", "Tracking rows reflected to face left-to-right")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "error_latency_milliseconds",
		Help:        "Latency of operations that resulted in errors",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordBatch records one processed prediction batch.
func RecordBatch(rows int, latencyMs float64) {
	globalManager.batchesTotal.Inc()
	globalManager.rowsTotal.Add(float64(rows))
	globalManager.batchRows.Observe(float64(rows))
	globalManager.batchLatency.Observe(latencyMs)
}

// RecordTransition counts one per-row state transition.
func RecordTransition(transition string) {
	globalManager.transitions.WithLabelValues(transition).Inc()
}

// RecordDTSource counts where a row's delta-time came from.
func RecordDTSource(source string) {
	globalManager.dtSources.WithLabelValues(source).Inc()
}

// RecordExtrapolatedRow counts a row whose stored position was advanced by prediction.
func RecordExtrapolatedRow() {
	globalManager.extrapolatedRows.Inc()
}

// UpdateEntitiesTracked sets the number of entities in the state store.
func UpdateEntitiesTracked(count int) {
	globalManager.entitiesTracked.Set(float64(count))
}

// RecordStoreEviction counts one entity evicted from a bounded store.
func RecordStoreEviction() {
	globalManager.storeEvictions.Inc()
}

// RecordModelLoad counts one run of the model loader.
func RecordModelLoad(err error) {
	globalManager.modelLoads.Inc()
	if err != nil {
		globalManager.modelLoadErrors.Inc()
	}
}

// UpdatePartitionQueueDepth sets the queue depth of one partition.
func UpdatePartitionQueueDepth(partition string, depth int) {
	globalManager.partitionQueueDepth.WithLabelValues(partition).Set(float64(depth))
}

// RecordPartitionEnqueueError counts a row that could not be queued.
func RecordPartitionEnqueueError() {
	globalManager.partitionEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of running partition workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-row worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordPrepRows counts rows loaded from a data preparation source.
func RecordPrepRows(source string, rows int) {
	globalManager.prepRowsLoaded.WithLabelValues(source).Add(float64(rows))
}

// RecordPrepRowsFlipped counts rows reflected during normalization.
func RecordPrepRowsFlipped(rows int) {
	globalManager.prepRowsFlipped.Add(float64(rows))
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments errors for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments errors for an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
