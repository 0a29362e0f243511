package query

import "github.com/carverauto/srql/internal/parser"

// interfacesSchema covers SNMP-discovered network interfaces.
var interfacesSchema = &entitySchema{
	entity: parser.EntityInterfaces,
	table:  "discovered_interfaces",
	columns: []string{
		"timestamp", "agent_id", "poller_id", "device_ip", "device_id",
		"if_index", "if_name", "if_descr", "if_alias", "if_speed",
		"if_phys_address", "ip_addresses", "if_admin_status",
		"if_oper_status", "metadata",
	},
	timeColumn: "timestamp",
	textFields: map[string]string{
		"agent_id":        "agent_id",
		"poller_id":       "poller_id",
		"device_ip":       "device_ip",
		"device_id":       "device_id",
		"if_name":         "if_name",
		"if_descr":        "if_descr",
		"if_alias":        "if_alias",
		"if_phys_address": "if_phys_address",
	},
	intFields: map[string]string{
		"if_index":        "if_index",
		"if_admin_status": "if_admin_status",
		"if_oper_status":  "if_oper_status",
	},
	orderFields: map[string]string{
		"timestamp": "timestamp",
		"if_index":  "if_index",
		"device_id": "device_id",
		"if_name":   "if_name",
	},
	defaultOrder: "timestamp DESC",
}
