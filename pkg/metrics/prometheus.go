// Package metrics provides Prometheus metrics for the DodgeStorm leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Submission pipeline
	submissionsAccepted prometheus.Counter
	submissionsRejected *prometheus.CounterVec
	submissionLatency   prometheus.Histogram

	// Broadcast pipeline
	broadcasts         prometheus.Counter
	broadcastFanout    prometheus.Histogram
	broadcastFailures  prometheus.Counter
	snapshotsDropped   prometheus.Counter
	liveConnections    prometheus.Gauge
	connectionsOpened  prometheus.Counter
	connectionsPruned  prometheus.Counter

	// Store
	storeAppendLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
	recordsTotal       prometheus.Gauge

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge

	// Auth
	usersRegistered prometheus.Counter
	authFailures    prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "dodgestorm",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissionsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_accepted_total",
		Help:      "Total number of score submissions accepted and persisted",
	})

	m.submissionsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submissions_rejected_total",
			Help:      "Total number of score submissions rejected by the acceptance policy",
		},
		[]string{"reason"},
	)

	m.submissionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submission_latency_milliseconds",
		Help:      "End-to-end latency of the accept/persist/rank pipeline in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.broadcasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcasts_total",
		Help:      "Total number of snapshot broadcasts delivered to the viewer set",
	})

	m.broadcastFanout = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_fanout",
		Help:      "Number of live connections targeted per broadcast",
		Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	})

	m.broadcastFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_failures_total",
		Help:      "Total number of per-connection delivery failures during broadcasts",
	})

	m.snapshotsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_dropped_total",
		Help:      "Total number of ranked snapshots dropped due to broadcast queue backpressure",
	})

	m.liveConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "live_connections",
		Help:      "Current number of registered viewer connections",
	})

	m.connectionsOpened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connections_opened_total",
		Help:      "Total number of viewer connections accepted",
	})

	m.connectionsPruned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connections_pruned_total",
		Help:      "Total number of viewer connections removed after delivery failure",
	})

	m.storeAppendLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_append_latency_milliseconds",
		Help:      "Score store append latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Score store candidate query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.recordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_total",
		Help:      "Total number of score records tracked by the store",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_queue_size",
		Help:      "Current depth of the snapshot broadcast queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_queue_capacity",
		Help:      "Configured capacity of the snapshot broadcast queue",
	})

	m.usersRegistered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "users_registered_total",
		Help:      "Total number of user accounts created",
	})

	m.authFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected credentials and tokens",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
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

// Package-level helpers operating on the global manager.

func RecordSubmissionAccepted() {
	globalManager.submissionsAccepted.Inc()
}

func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

func RecordSubmissionLatency(latencyMs float64) {
	globalManager.submissionLatency.Observe(latencyMs)
}

func RecordBroadcast(fanout int) {
	globalManager.broadcasts.Inc()
	globalManager.broadcastFanout.Observe(float64(fanout))
}

func RecordBroadcastFailure() {
	globalManager.broadcastFailures.Inc()
}

func RecordSnapshotDropped() {
	globalManager.snapshotsDropped.Inc()
}

func UpdateLiveConnections(count int) {
	globalManager.liveConnections.Set(float64(count))
}

func RecordConnectionOpened() {
	globalManager.connectionsOpened.Inc()
}

func RecordConnectionPruned() {
	globalManager.connectionsPruned.Inc()
}

func RecordStoreAppendLatency(latencyMs float64) {
	globalManager.storeAppendLatency.Observe(latencyMs)
}

func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

func UpdateRecordsTotal(count int) {
	globalManager.recordsTotal.Set(float64(count))
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func RecordUserRegistered() {
	globalManager.usersRegistered.Inc()
}

func RecordAuthFailure() {
	globalManager.authFailures.Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the registry backing the global manager, for serving
// the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
