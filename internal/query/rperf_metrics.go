package query

import "github.com/carverauto/srql/internal/parser"

// rperfSchema is a pinned view over timeseries_metrics: every query gets
// metric_type = 'rperf' ahead of the user's filters.
var rperfSchema = &entitySchema{
	entity: parser.EntityRperfMetrics,
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
		"partition":        "partition",
		"target_device_ip": "target_device_ip",
	},
	intFields: map[string]string{
		"if_index": "if_index",
	},
	floatFields: map[string]string{
		"value": "value",
	},
	orderFields: map[string]string{
		"timestamp":   "timestamp",
		"metric_name": "metric_name",
		"value":       "value",
	},
	defaultOrder: "timestamp DESC",
	pinned: []pinnedFilter{
		{column: "metric_type", value: "rperf"},
	},
}
