package query

import "github.com/carverauto/srql/internal/parser"

// deviceUpdatesSchema covers the raw discovery sightings feeding the
// unified device view. Same list/scalar split as devices.
var deviceUpdatesSchema = &entitySchema{
	entity: parser.EntityDeviceUpdates,
	table:  "device_updates",
	columns: []string{
		"observed_at", "agent_id", "poller_id", "partition", "device_id",
		"discovery_source", "ip", "mac", "hostname", "available",
		"metadata",
	},
	timeColumn: "observed_at",
	textFields: map[string]string{
		"agent_id":         "agent_id",
		"poller_id":        "poller_id",
		"partition":        "partition",
		"device_id":        "device_id",
		"discovery_source": "discovery_source",
		"source":           "discovery_source",
		"ip":               "ip",
		"mac":              "mac",
		"hostname":         "hostname",
	},
	boolFields: map[string]string{
		"available":    "available",
		"is_available": "available",
	},
	scalarOnly: map[string]bool{
		"ip":       true,
		"mac":      true,
		"hostname": true,
	},
	orderFields: map[string]string{
		"observed_at": "observed_at",
		"timestamp":   "observed_at",
		"device_id":   "device_id",
	},
	defaultOrder: "observed_at DESC",
}
