package query

import "github.com/carverauto/srql/internal/parser"

// servicesSchema covers per-poller service availability snapshots.
var servicesSchema = &entitySchema{
	entity: parser.EntityServices,
	table:  "service_status",
	columns: []string{
		"timestamp", "poller_id", "agent_id", "service_name",
		"service_type", "available", "message", "details", "partition",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"poller_id":    "poller_id",
		"agent_id":     "agent_id",
		"service_name": "service_name",
		"name":         "service_name",
		"service_type": "service_type",
		"type":         "service_type",
		"message":      "message",
		"partition":    "partition",
	},
	boolFields: map[string]string{
		"available": "available",
	},
	orderFields: map[string]string{
		"timestamp":    "timestamp",
		"last_seen":    "timestamp",
		"poller_id":    "poller_id",
		"service_name": "service_name",
		"service_type": "service_type",
		"type":         "service_type",
	},
	defaultOrder: "timestamp DESC",
}
