package query

import "github.com/carverauto/srql/internal/parser"

// Sysmon host metrics: cpu, disk, and memory samples per poller.

var cpuMetricsSchema = &entitySchema{
	entity: parser.EntityCPUMetrics,
	table:  "cpu_metrics",
	columns: []string{
		"timestamp", "poller_id", "agent_id", "host_id", "core_id",
		"usage_percent", "frequency_hz", "label", "cluster", "device_id",
		"partition",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"poller_id": "poller_id",
		"agent_id":  "agent_id",
		"host_id":   "host_id",
		"label":     "label",
		"cluster":   "cluster",
		"device_id": "device_id",
		"partition": "partition",
	},
	intFields: map[string]string{
		"core_id": "core_id",
	},
	floatFields: map[string]string{
		"usage_percent": "usage_percent",
		"frequency_hz":  "frequency_hz",
	},
	orderFields: map[string]string{
		"timestamp":     "timestamp",
		"core_id":       "core_id",
		"usage_percent": "usage_percent",
	},
	defaultOrder: "timestamp DESC",
}

var diskMetricsSchema = &entitySchema{
	entity: parser.EntityDiskMetrics,
	table:  "disk_metrics",
	columns: []string{
		"timestamp", "poller_id", "agent_id", "host_id", "mount_point",
		"device_name", "total_bytes", "used_bytes", "available_bytes",
		"usage_percent", "device_id", "partition",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"poller_id":   "poller_id",
		"agent_id":    "agent_id",
		"host_id":     "host_id",
		"mount_point": "mount_point",
		"device_name": "device_name",
		"device_id":   "device_id",
		"partition":   "partition",
	},
	intFields: map[string]string{
		"total_bytes":     "total_bytes",
		"used_bytes":      "used_bytes",
		"available_bytes": "available_bytes",
	},
	floatFields: map[string]string{
		"usage_percent": "usage_percent",
	},
	orderFields: map[string]string{
		"timestamp":     "timestamp",
		"mount_point":   "mount_point",
		"usage_percent": "usage_percent",
	},
	defaultOrder: "timestamp DESC",
}

var memoryMetricsSchema = &entitySchema{
	entity: parser.EntityMemoryMetrics,
	table:  "memory_metrics",
	columns: []string{
		"timestamp", "poller_id", "agent_id", "host_id", "total_bytes",
		"used_bytes", "available_bytes", "usage_percent", "device_id",
		"partition",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"poller_id": "poller_id",
		"agent_id":  "agent_id",
		"host_id":   "host_id",
		"device_id": "device_id",
		"partition": "partition",
	},
	intFields: map[string]string{
		"total_bytes":     "total_bytes",
		"used_bytes":      "used_bytes",
		"available_bytes": "available_bytes",
	},
	floatFields: map[string]string{
		"usage_percent": "usage_percent",
	},
	orderFields: map[string]string{
		"timestamp":     "timestamp",
		"usage_percent": "usage_percent",
	},
	defaultOrder: "timestamp DESC",
}
