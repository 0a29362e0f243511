// Package metrics registers the prometheus collectors for the query
// path. Exposed on /metrics by the HTTP server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "srql"

var (
	// QueryDuration tracks end-to-end SQL execution time. The storage
	// layer always sets the "operation" label to "query"; durations are
	// not broken down by entity.
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of SRQL query execution in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"operation"},
	)

	// QueryTotal counts queries by outcome.
	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_total",
			Help:      "Total number of SRQL queries",
		},
		[]string{"status"},
	)

	// QueryErrors counts failed queries by classification.
	QueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Total number of failed SRQL queries",
		},
		[]string{"error_type"},
	)

	// QueryResults tracks the distribution of rows returned per query.
	QueryResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results_total",
			Help:      "Distribution of number of rows returned per query",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 4),
		},
	)

	// RateLimitWait tracks time spent waiting on the admission window.
	RateLimitWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time requests spent waiting for a rate-limit permit",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	// DualRunMismatches counts shadow-comparison divergences.
	DualRunMismatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dual_run_mismatches_total",
			Help:      "Total number of dual-run result mismatches",
		},
		[]string{"kind"},
	)

	// APIKeyUpdates counts hot reloads applied from the KV watch.
	APIKeyUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_key_updates_total",
			Help:      "Total number of API key updates applied from KV",
		},
	)
)

func init() {
	prometheus.MustRegister(
		QueryDuration,
		QueryTotal,
		QueryErrors,
		QueryResults,
		RateLimitWait,
		DualRunMismatches,
		APIKeyUpdates,
	)
}
