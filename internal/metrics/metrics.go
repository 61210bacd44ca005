// Package metrics provides Prometheus metrics for the drawmatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcomes recorded by RecordEvaluation.
const (
	OutcomeScored       = "scored"
	OutcomeRejected     = "rejected"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeUpstreamFail = "upstream_error"
	OutcomeError        = "error"
)

// Manager owns the collectors for one registry.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	evaluations        *prometheus.CounterVec
	evaluationLatency  prometheus.Histogram
	evaluationScores   prometheus.Histogram
	scoringPaths       *prometheus.CounterVec
	upstreamErrors     *prometheus.CounterVec
	leaderboardUpdates *prometheus.CounterVec
	activeSessions     prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var customRegistry = prometheus.NewRegistry()

var globalManager = NewManager(WithPrometheusRegistry(customRegistry))

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "drawmatch",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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

	m.evaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "evaluations_total",
		Help:      "Drawing evaluations by outcome",
	}, []string{"outcome"})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "evaluation_latency_milliseconds",
		Help:      "End-to-end drawing evaluation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.evaluationScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "evaluation_score",
		Help:      "Distribution of final drawing scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.scoringPaths = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "scoring_path_total",
		Help:      "Scored evaluations by scoring path",
	}, []string{"path"})

	m.upstreamErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "upstream_errors_total",
		Help:      "Failed calls to vision and embedding adapters",
	}, []string{"adapter"})

	m.leaderboardUpdates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_updates_total",
		Help:      "Leaderboard and game result writes by kind",
	}, []string{"kind"})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "active_sessions",
		Help:      "Sessions seen within the presence TTL at the last count",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method", "status_code"})
}

// RecordEvaluation counts one evaluation and its latency.
func (m *Manager) RecordEvaluation(outcome string, latencyMs float64) {
	m.evaluations.WithLabelValues(outcome).Inc()
	m.evaluationLatency.Observe(latencyMs)
}

// RecordScore records a final score and the path that produced it.
func (m *Manager) RecordScore(path string, score int) {
	m.scoringPaths.WithLabelValues(path).Inc()
	m.evaluationScores.Observe(float64(score))
}

// RecordUpstreamError counts a failed adapter call.
func (m *Manager) RecordUpstreamError(adapter string) {
	m.upstreamErrors.WithLabelValues(adapter).Inc()
}

// RecordLeaderboardUpdate counts a leaderboard write of the given kind.
func (m *Manager) RecordLeaderboardUpdate(kind string) {
	m.leaderboardUpdates.WithLabelValues(kind).Inc()
}

// SetActiveSessions updates the active session gauge.
func (m *Manager) SetActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

// RecordHTTPRequest counts one request and its duration.
func (m *Manager) RecordHTTPRequest(route, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(durationMs)
}

// Default returns the process-wide manager backed by GetRegistry.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
