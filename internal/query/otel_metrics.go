package query

import "github.com/carverauto/srql/internal/parser"

// otelMetricsSchema covers span-derived metrics with http/grpc labels.
var otelMetricsSchema = &entitySchema{
	entity: parser.EntityOtelMetrics,
	table:  "otel_metrics",
	columns: []string{
		"timestamp", "trace_id", "span_id", "service_name", "span_name",
		"span_kind", "duration_ms", "duration_seconds", "metric_type",
		"http_method", "http_route", "http_status_code", "grpc_service",
		"grpc_method", "grpc_status_code", "is_slow", "component", "level",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"trace_id":         "trace_id",
		"span_id":          "span_id",
		"service_name":     "service_name",
		"service.name":     "service_name",
		"span_name":        "span_name",
		"span_kind":        "span_kind",
		"metric_type":      "metric_type",
		"http_method":      "http_method",
		"http_route":       "http_route",
		"http_status_code": "http_status_code",
		"grpc_service":     "grpc_service",
		"grpc_method":      "grpc_method",
		"grpc_status_code": "grpc_status_code",
		"component":        "component",
		"level":            "level",
	},
	boolFields: map[string]string{
		"is_slow": "is_slow",
	},
	floatFields: map[string]string{
		"duration_ms":      "duration_ms",
		"duration_seconds": "duration_seconds",
	},
	orderFields: map[string]string{
		"timestamp":   "timestamp",
		"duration_ms": "duration_ms",
	},
	defaultOrder: "timestamp DESC",
}
