// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_misses_total",
			Help: "Total number of cache misses, including misses caused by an unavailable backend",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_errors_total",
			Help: "Total number of swallowed cache backend errors",
		},
		[]string{"op"}, // "get", "set", "delete", "scan"
	)

	CacheInvalidatedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_invalidated_keys_total",
			Help: "Total number of keys removed by pattern invalidation",
		},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Summarizer
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_ai_requests_total",
			Help: "Total number of summarization requests by outcome",
		},
		[]string{"outcome"}, // "success", "error", "rejected"
	)

	AIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_ai_request_duration_seconds",
			Help:    "Summarization request latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	AICircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_ai_circuit_state",
			Help: "Summarizer circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAIRequest records the outcome of one summarization call.
func RecordAIRequest(outcome string, duration time.Duration) {
	AIRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome != "rejected" {
		AIRequestDuration.Observe(duration.Seconds())
	}
}
