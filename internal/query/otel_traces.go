package query

import "github.com/carverauto/srql/internal/parser"

// otelTracesSchema covers raw OTEL spans. The dotted service.name alias
// matches what trace UIs send.
var otelTracesSchema = &entitySchema{
	entity: parser.EntityOtelTraces,
	table:  "otel_traces",
	columns: []string{
		"timestamp", "trace_id", "span_id", "parent_span_id", "name",
		"kind", "start_time_unix_nano", "end_time_unix_nano",
		"service_name", "service_version", "service_instance",
		"scope_name", "scope_version", "status_code", "status_message",
		"attributes", "resource_attributes", "events", "links",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"trace_id":         "trace_id",
		"span_id":          "span_id",
		"parent_span_id":   "parent_span_id",
		"name":             "name",
		"service_name":     "service_name",
		"service.name":     "service_name",
		"service_version":  "service_version",
		"service_instance": "service_instance",
		"scope_name":       "scope_name",
		"scope_version":    "scope_version",
		"status_message":   "status_message",
	},
	intFields: map[string]string{
		"kind":        "kind",
		"status_code": "status_code",
	},
	orderFields: map[string]string{
		"timestamp": "timestamp",
	},
	defaultOrder: "timestamp DESC",
}
