package query

import "github.com/carverauto/srql/internal/parser"

// pollersSchema covers the poller registry. Rich order surface: fleet
// dashboards sort on agent/checker counts and registration times.
var pollersSchema = &entitySchema{
	entity: parser.EntityPollers,
	table:  "pollers",
	columns: []string{
		"poller_id", "component_id", "registration_source", "status",
		"spiffe_identity", "first_registered", "first_seen", "last_seen",
		"metadata", "created_by", "is_healthy", "agent_count",
		"checker_count", "updated_at",
	},
	timeColumn: "last_seen",
	textFields: map[string]string{
		"poller_id":           "poller_id",
		"status":              "status",
		"component_id":        "component_id",
		"registration_source": "registration_source",
		"spiffe_identity":     "spiffe_identity",
		"created_by":          "created_by",
	},
	boolFields: map[string]string{
		"is_healthy": "is_healthy",
	},
	intFields: map[string]string{
		"agent_count":   "agent_count",
		"checker_count": "checker_count",
	},
	orderFields: map[string]string{
		"last_seen":        "last_seen",
		"first_seen":       "first_seen",
		"first_registered": "first_registered",
		"poller_id":        "poller_id",
		"status":           "status",
		"agent_count":      "agent_count",
		"checker_count":    "checker_count",
		"updated_at":       "updated_at",
	},
	defaultOrder: "last_seen DESC",
}
