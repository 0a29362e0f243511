package query

import "github.com/carverauto/srql/internal/parser"

// devicesSchema covers the unified device inventory. Id-like fields take
// list filters; free-text fields (hostname, ip, mac) stay single-valued.
var devicesSchema = &entitySchema{
	entity: parser.EntityDevices,
	table:  "unified_devices",
	columns: []string{
		"device_id", "ip", "poller_id", "agent_id", "hostname", "mac",
		"discovery_sources", "is_available", "first_seen", "last_seen",
		"metadata", "device_type", "service_type", "service_status",
		"last_heartbeat", "os_info", "version_info",
	},
	timeColumn: "last_seen",
	textFields: map[string]string{
		"device_id":      "device_id",
		"ip":             "ip",
		"poller_id":      "poller_id",
		"agent_id":       "agent_id",
		"hostname":       "hostname",
		"mac":            "mac",
		"device_type":    "device_type",
		"service_type":   "service_type",
		"service_status": "service_status",
		"os_info":        "os_info",
		"version_info":   "version_info",
	},
	boolFields: map[string]string{
		"is_available": "is_available",
	},
	scalarOnly: map[string]bool{
		"hostname": true,
		"ip":       true,
		"mac":      true,
	},
	orderFields: map[string]string{
		"last_seen":  "last_seen",
		"first_seen": "first_seen",
		"hostname":   "hostname",
		"ip":         "ip",
		"device_id":  "device_id",
		"poller_id":  "poller_id",
	},
	defaultOrder: "last_seen DESC",
}
