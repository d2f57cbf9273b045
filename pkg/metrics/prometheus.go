// Package metrics provides Prometheus metrics for the stylist service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets cover the [0,1] score range in tenths.
var scoreBuckets = prometheus.LinearBuckets(0.1, 0.1, 10) //nolint:gochecknoglobals // constant bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine metrics
	compatibilityLatency *prometheus.HistogramVec
	compatibilityScores  prometheus.Histogram
	engineErrors         *prometheus.CounterVec
	occasionMatches      prometheus.Histogram
	recommendations      *prometheus.CounterVec

	// Async scoring pipeline
	jobsSubmitted      prometheus.Counter
	jobsDuplicate      prometheus.Counter
	jobsProcessed      prometheus.Counter
	rankingUpdates     prometheus.Counter
	rankedOutfits      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerActiveCount  prometheus.Gauge
	workerLatency      prometheus.Histogram
	workerErrors       prometheus.Counter
	repositoryLatency  *prometheus.HistogramVec
	batchSize          prometheus.Histogram

	// Wardrobe sources
	sourceLatency *prometheus.HistogramVec
	breakerState  *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter
	authFailures        *prometheus.CounterVec

	errorRateByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stylist",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.compatibilityLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("compatibility_latency_milliseconds"),
		Help:        "Latency of compatibility scoring by entry point",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"mode"})
	m.compatibilityScores = m.histogram("compatibility_score", "Distribution of computed compatibility scores", scoreBuckets)
	m.engineErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_total"),
		Help:        "Engine errors by kind (invalid_feature, degenerate_embedding)",
		ConstLabels: m.customLabels,
	}, []string{"kind"})
	m.occasionMatches = m.histogram("occasion_matches", "Number of outfits returned per occasion match",
		[]float64{0, 1, 2, 3, 5, 8, 13, 21})
	m.recommendations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("recommendations_total"),
		Help:        "Generated recommendations by type (idea, acquisition)",
		ConstLabels: m.customLabels,
	}, []string{"type"})

	m.jobsSubmitted = m.counter("jobs_submitted_total", "Score jobs accepted into the queue")
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Score jobs rejected as duplicates")
	m.jobsProcessed = m.counter("jobs_processed_total", "Score jobs processed by workers")
	m.rankingUpdates = m.counter("ranking_updates_total", "Outfit ranking updates")
	m.rankedOutfits = m.gauge("ranked_outfits", "Outfits held in the ranking store")
	m.queueSize = m.gauge("queue_size", "Current size of the score job queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the score job queue")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected because the queue was full or closed")
	m.workerCount = m.gauge("worker_count", "Configured number of scoring workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently processing a job")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one job", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that failed to score")
	m.repositoryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("repository_latency_milliseconds"),
		Help:        "Ranking store operation latency",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"operation"})
	m.batchSize = m.histogram("batch_size", "Outfits per batch scoring request", []float64{1, 2, 5, 10, 25, 50, 100})

	m.sourceLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("source_latency_milliseconds"),
		Help:        "Wardrobe source read latency by operation and outcome",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"operation", "outcome"})
	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("circuit_breaker_state"),
		Help:        "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		ConstLabels: m.customLabels,
	}, []string{"name"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.rateLimited = m.counter("http_rate_limited_total", "Requests rejected by the rate limiter")
	m.authFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("auth_failures_total"),
		Help:        "Rejected bearer tokens by reason",
		ConstLabels: m.customLabels,
	}, []string{"reason"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("component_errors_total"),
		Help:        "Errors by component and type",
		ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})
}

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordCompatibility records one compatibility computation.
func RecordCompatibility(mode string, latencyMs, score float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.compatibilityLatency.WithLabelValues(mode).Observe(latencyMs)
	globalManager.compatibilityScores.Observe(score)
}

// RecordEngineError increments the engine error counter for kind.
func RecordEngineError(kind string) {
	globalManager.engineErrors.WithLabelValues(kind).Inc()
}

// RecordOccasionMatches records the size of one occasion match result.
func RecordOccasionMatches(n int) {
	globalManager.occasionMatches.Observe(float64(n))
}

// RecordRecommendations adds n generated recommendations of the given type.
func RecordRecommendations(kind string, n int) {
	globalManager.recommendations.WithLabelValues(kind).Add(float64(n))
}

// RecordJobSubmitted increments the accepted job counter.
func RecordJobSubmitted() { globalManager.jobsSubmitted.Inc() }

// RecordJobDuplicate increments the duplicate job counter.
func RecordJobDuplicate() { globalManager.jobsDuplicate.Inc() }

// RecordJobProcessed increments the processed job counter.
func RecordJobProcessed() { globalManager.jobsProcessed.Inc() }

// RecordRankingUpdate increments the ranking update counter.
func RecordRankingUpdate() { globalManager.rankingUpdates.Inc() }

// UpdateRankedOutfits sets the ranked outfit gauge.
func UpdateRankedOutfits(n int) { globalManager.rankedOutfits.Set(float64(n)) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordRepositoryLatency records a ranking store operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordBatchSize records the number of outfits in a batch request.
func RecordBatchSize(n int) { globalManager.batchSize.Observe(float64(n)) }

// RecordSourceLatency records a wardrobe source read.
func RecordSourceLatency(operation, outcome string, latencyMs float64) {
	globalManager.sourceLatency.WithLabelValues(operation, outcome).Observe(latencyMs)
}

// UpdateBreakerState publishes the state of the named circuit breaker.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rate limited request counter.
func RecordRateLimited() { globalManager.rateLimited.Inc() }

// RecordAuthFailure increments the auth failure counter for reason.
func RecordAuthFailure(reason string) { globalManager.authFailures.WithLabelValues(reason).Inc() }

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
