package query

import "github.com/carverauto/srql/internal/parser"

// otelMetricsHourlySchema covers the hourly continuous aggregate used
// for dashboard KPIs instead of scanning raw metrics.
//
// Duration statistics are only meaningful for span rows; callers are
// expected to add metric_type:span when reading them. Not enforced.
var otelMetricsHourlySchema = &entitySchema{
	entity: parser.EntityOtelMetricsHourly,
	table:  "otel_metrics_hourly_stats",
	columns: []string{
		"bucket", "service_name", "metric_type", "total_count",
		"error_count", "avg_duration_ms", "p95_duration_ms",
	},
	timeColumn: "bucket",
	textFields: map[string]string{
		"service_name": "service_name",
		"service":      "service_name",
		"metric_type":  "metric_type",
		"type":         "metric_type",
	},
	orderFields: map[string]string{
		"bucket":          "bucket",
		"timestamp":       "bucket",
		"total_count":     "total_count",
		"total":           "total_count",
		"error_count":     "error_count",
		"errors":          "error_count",
		"avg_duration_ms": "avg_duration_ms",
		"avg_duration":    "avg_duration_ms",
		"p95_duration_ms": "p95_duration_ms",
		"p95":             "p95_duration_ms",
	},
	defaultOrder: "bucket DESC",
}
