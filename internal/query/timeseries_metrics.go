package query

import "github.com/carverauto/srql/internal/parser"

// timeseriesSchema covers the generic poller metric stream.
var timeseriesSchema = &entitySchema{
	entity: parser.EntityTimeseriesMetrics,
	table:  "timeseries_metrics",
	columns: []string{
		"timestamp", "poller_id", "agent_id", "metric_name",
		"metric_type", "device_id", "value", "unit", "tags", "partition",
		"scale", "is_delta", "target_device_ip", "if_index", "metadata",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"poller_id":        "poller_id",
		"agent_id":         "agent_id",
		"metric_name":      "metric_name",
		"metric_type":      "metric_type",
		"device_id":        "device_id",
		"unit":             "unit",
		"partition":        "partition",
		"target_device_ip": "target_device_ip",
	},
	boolFields: map[string]string{
		"is_delta": "is_delta",
	},
	intFields: map[string]string{
		"if_index": "if_index",
	},
	floatFields: map[string]string{
		"value": "value",
		"scale": "scale",
	},
	orderFields: map[string]string{
		"timestamp":   "timestamp",
		"metric_name": "metric_name",
		"value":       "value",
	},
	defaultOrder: "timestamp DESC",
}
