package query

import "github.com/carverauto/srql/internal/parser"

// eventsSchema covers the CloudEvents-shaped event stream. The type
// filter addresses the underlying "type" column; level is integer-only
// equality.
var eventsSchema = &entitySchema{
	entity: parser.EntityEvents,
	table:  "events",
	columns: []string{
		"event_timestamp", "specversion", "id", "source", "type",
		"datacontenttype", "subject", "remote_addr", "host", "level",
		"severity", "short_message", "version", "raw_data",
	},
	timeColumn: "event_timestamp",
	textFields: map[string]string{
		"id":              "id",
		"type":            "type",
		"source":          "source",
		"subject":         "subject",
		"datacontenttype": "datacontenttype",
		"remote_addr":     "remote_addr",
		"host":            "host",
		"specversion":     "specversion",
		"severity":        "severity",
		"short_message":   "short_message",
		"version":         "version",
	},
	intFields: map[string]string{
		"level": "level",
	},
	orderFields: map[string]string{
		"event_timestamp": "event_timestamp",
		"timestamp":       "event_timestamp",
	},
	defaultOrder: "event_timestamp DESC",
}
