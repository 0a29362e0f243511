package query

import "github.com/carverauto/srql/internal/parser"

// logsSchema covers OTEL log records. Attribute columns pass through to
// the JSON result verbatim.
var logsSchema = &entitySchema{
	entity: parser.EntityLogs,
	table:  "logs",
	columns: []string{
		"timestamp", "trace_id", "span_id", "severity_text",
		"severity_number", "body", "service_name", "service_version",
		"service_instance", "scope_name", "scope_version", "attributes",
		"resource_attributes",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"trace_id":         "trace_id",
		"span_id":          "span_id",
		"severity_text":    "severity_text",
		"body":             "body",
		"service_name":     "service_name",
		"service.name":     "service_name",
		"service_version":  "service_version",
		"service_instance": "service_instance",
		"scope_name":       "scope_name",
		"scope_version":    "scope_version",
	},
	intFields: map[string]string{
		"severity_number": "severity_number",
	},
	orderFields: map[string]string{
		"timestamp":       "timestamp",
		"severity_number": "severity_number",
	},
	defaultOrder: "timestamp DESC",
}
