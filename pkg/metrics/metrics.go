// Package metrics provides Prometheus metrics for the cortex learning core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the cortex service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingest pipeline
	eventsAppended    prometheus.Counter
	messagesIngested  prometheus.Counter
	messagesDuplicate prometheus.Counter
	ingestErrors      prometheus.Counter

	// Derivation
	deriveRuns       prometheus.Counter
	deriveLatency    prometheus.Histogram
	patternsDerived  prometheus.Counter
	patternsUpserted prometheus.Counter

	// Scoring modules
	moduleComputeLatency prometheus.Histogram
	moduleFaults         prometheus.Counter

	// Composite score
	compositeScore prometheus.Gauge

	// Store sizes
	eventStoreSize   prometheus.Gauge
	patternStoreSize prometheus.Gauge

	// Queue / worker health
	queueSize   prometheus.Gauge
	queueDrops  prometheus.Counter
	workerCount prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cortex",
		subsystem:        "learning",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.eventsAppended = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_appended_total",
		Help:      "Total number of events appended to the event store",
	})
	m.messagesIngested = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_ingested_total",
		Help:      "Total number of messages accepted by the ingest pipeline",
	})
	m.messagesDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_duplicate_total",
		Help:      "Total number of duplicate messages rejected by the deduper",
	})
	m.ingestErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_errors_total",
		Help:      "Total number of ingest failures",
	})

	m.deriveRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "derive_runs_total",
		Help:      "Total number of pattern derivation runs",
	})
	m.deriveLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "derive_latency_ms",
		Help:      "Latency of a full derive run in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.patternsDerived = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "patterns_derived_total",
		Help:      "Total number of candidate patterns emitted by derivation rules",
	})
	m.patternsUpserted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "patterns_upserted_total",
		Help:      "Total number of patterns written to the pattern store",
	})

	m.moduleComputeLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "module_compute_latency_ms",
		Help:      "Latency of a single scoring module compute in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.moduleFaults = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "module_faults_total",
		Help:      "Total number of scoring module computes converted to error results",
	})

	m.compositeScore = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "composite_score",
		Help:      "Most recently computed composite intelligence/health score (0-100)",
	})

	m.eventStoreSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_store_size",
		Help:      "Number of events currently held by the event store",
	})
	m.patternStoreSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pattern_store_size",
		Help:      "Number of live patterns in the pattern store",
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_size",
		Help:      "Current number of messages waiting in the ingest queue",
	})
	m.queueDrops = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_drops_total",
		Help:      "Total number of messages dropped because the queue was full or closed",
	})
	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_worker_count",
		Help:      "Number of running ingest workers",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})
}

// Package-level helpers operating on the global manager.

func RecordEventAppended() {
	if globalManager.enabled {
		globalManager.eventsAppended.Inc()
	}
}

func RecordMessageIngested() {
	if globalManager.enabled {
		globalManager.messagesIngested.Inc()
	}
}

func RecordMessageDuplicate() {
	if globalManager.enabled {
		globalManager.messagesDuplicate.Inc()
	}
}

func RecordIngestError() {
	if globalManager.enabled {
		globalManager.ingestErrors.Inc()
	}
}

func RecordDeriveRun(latencyMs float64) {
	if globalManager.enabled {
		globalManager.deriveRuns.Inc()
		globalManager.deriveLatency.Observe(latencyMs)
	}
}

func RecordPatternsDerived(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.patternsDerived.Add(float64(n))
	}
}

func RecordPatternsUpserted(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.patternsUpserted.Add(float64(n))
	}
}

func RecordModuleComputeLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.moduleComputeLatency.Observe(latencyMs)
	}
}

func RecordModuleFault() {
	if globalManager.enabled {
		globalManager.moduleFaults.Inc()
	}
}

func UpdateCompositeScore(score float64) {
	if globalManager.enabled {
		globalManager.compositeScore.Set(score)
	}
}

func UpdateEventStoreSize(size int) {
	if globalManager.enabled {
		globalManager.eventStoreSize.Set(float64(size))
	}
}

func UpdatePatternStoreSize(size int) {
	if globalManager.enabled {
		globalManager.patternStoreSize.Set(float64(size))
	}
}

func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

func RecordQueueDrop() {
	if globalManager.enabled {
		globalManager.queueDrops.Inc()
	}
}

func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
