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
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"method", "route", "status"},
	)

	dbOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Latency of record store operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"op", "outcome"},
	)

	chairPurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chair_purchases_total",
			Help: "Chair purchase attempts by outcome.",
		},
		[]string{"outcome"},
	)

	nazotteCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nazotte_candidates",
			Help:    "Bounding-box candidates examined per polygon search.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	nazotteMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nazotte_matches",
			Help:    "Estates returned per polygon search.",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by outcome.",
		},
		[]string{"cache", "outcome"},
	)

	cacheOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and outcome.",
		},
		[]string{"op", "outcome"},
	)

	redisOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events handed to the producer, by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	rowsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csv_rows_imported_total",
			Help: "Rows inserted through CSV import or fixture reload.",
		},
		[]string{"entity"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveDB(op string, err error, durationSeconds float64) {
	dbOperationDurationSeconds.WithLabelValues(op, outcome(err)).Observe(durationSeconds)
}

// outcome is one of ok, sold_out, error
func IncPurchase(outcome string) {
	chairPurchasesTotal.WithLabelValues(outcome).Inc()
}

func ObserveNazotte(candidates, matches int) {
	nazotteCandidates.Observe(float64(candidates))
	nazotteMatches.Observe(float64(matches))
}

func IncCacheHit(cache string) {
	cacheResults.WithLabelValues(cache, "hit").Inc()
}

func IncCacheMiss(cache string) {
	cacheResults.WithLabelValues(cache, "miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	cacheOpTotal.WithLabelValues(op, outcome(err)).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncEventPublished(eventType, outcome string) {
	eventsPublished.WithLabelValues(eventType, outcome).Inc()
}

func AddRowsImported(entity string, n int) {
	if n <= 0 {
		return
	}
	rowsImported.WithLabelValues(entity).Add(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
