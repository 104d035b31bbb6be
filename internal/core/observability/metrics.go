// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	queryCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deals_query_candidates",
			Help:    "Candidate deals considered per nearby query, after the geo index pre-filter.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	queryBucketSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deals_query_bucket_size",
			Help:    "Result bucket sizes per nearby query.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"bucket"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Query cache results by outcome.",
		},
		[]string{"outcome", "tier"},
	)

	cacheOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Latency of cache backend operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "outcome"},
	)

	consumerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidation_consumer_errors_total",
			Help: "Invalidation consumer errors by kind.",
		},
		[]string{"kind"},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidations_total",
			Help: "Processed invalidation events by op.",
		},
		[]string{"op"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveQuery(candidates, active, upcoming, future int) {
	queryCandidates.Observe(float64(candidates))
	queryBucketSize.WithLabelValues("active").Observe(float64(active))
	queryBucketSize.WithLabelValues("upcoming").Observe(float64(upcoming))
	queryBucketSize.WithLabelValues("future").Observe(float64(future))
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues("hit", tier).Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues("miss", tier).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cacheOpDurationSeconds.WithLabelValues(op, outcome).Observe(durationSeconds)
}

func IncConsumerError(kind string) {
	consumerErrors.WithLabelValues(kind).Inc()
}

func IncInvalidation(op string) {
	invalidationsTotal.WithLabelValues(op).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
