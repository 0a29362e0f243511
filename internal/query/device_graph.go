package query

import (
	"strings"

	"github.com/carverauto/srql/internal/parser"
	"github.com/carverauto/srql/internal/srqlerrors"
)

// deviceGraphSQL expands one device's neighborhood — collectors,
// services, targets, interfaces, capabilities — into a single JSON
// aggregation. The device id is the only bind; the Cypher body is a
// fixed template.
const deviceGraphSQL = `WITH _config AS (
    SELECT
        set_config('search_path', 'ag_catalog,"$user",public', false)
)
SELECT result::jsonb AS result
FROM ag_catalog.cypher(
    'serviceradar',
    format($$
        MATCH (d:Device {id: %L})
        OPTIONAL MATCH (d)-[:REPORTED_BY]->(col:Collector)
        OPTIONAL MATCH (col)-[:HOSTS_SERVICE]->(svc:Service)
        OPTIONAL MATCH (svc)-[:TARGETS]->(t:Device)
        OPTIONAL MATCH (d)-[:HAS_INTERFACE]->(iface:Interface)
        OPTIONAL MATCH (d)-[:PROVIDES_CAPABILITY]->(dcap:Capability)
        OPTIONAL MATCH (svc)-[:PROVIDES_CAPABILITY]->(svcCap:Capability)
        RETURN jsonb_build_object(
            'device', d,
            'collectors', [c IN collect(DISTINCT col) WHERE c IS NOT NULL],
            'services', [s IN collect(DISTINCT CASE WHEN svc IS NULL THEN NULL ELSE jsonb_build_object(
                'service', svc,
                'collector_id', col.id,
                'collector_owned', col IS NOT NULL
            ) END) WHERE s IS NOT NULL],
            'targets', [target IN collect(DISTINCT t) WHERE target IS NOT NULL],
            'interfaces', [i IN collect(DISTINCT iface) WHERE i IS NOT NULL],
            'device_capabilities', [cap IN collect(DISTINCT dcap) WHERE cap IS NOT NULL],
            'service_capabilities', [cap IN collect(DISTINCT svcCap) WHERE cap IS NOT NULL]
        ) AS result
    $$, $1)
) AS (result agtype)`

// compileDeviceGraph requires exactly one device_id equality filter and
// emits the fixed template with the id as its single bind.
func compileDeviceGraph(plan *Plan) (string, []BindParam, error) {
	if plan.Entity != parser.EntityDeviceGraph {
		return "", nil, srqlerrors.NewInvalidRequest("entity not supported by device_graph query")
	}

	deviceID, err := extractDeviceID(plan)
	if err != nil {
		return "", nil, err
	}

	binds := []BindParam{TextParam(deviceID)}
	if err := reconcileBinds(deviceGraphSQL, binds); err != nil {
		return "", nil, err
	}
	return deviceGraphSQL, binds, nil
}

func extractDeviceID(plan *Plan) (string, error) {
	var deviceID string
	seen := 0
	for _, filter := range plan.Filters {
		if filter.Field != "device_id" {
			return "", srqlerrors.NewInvalidRequest("unsupported filter field '%s' for device_graph", filter.Field)
		}
		if filter.Op != parser.OpEq {
			return "", srqlerrors.NewInvalidRequest("device_id filter only supports equality")
		}
		raw, err := filter.Value.Scalar()
		if err != nil {
			return "", err
		}
		deviceID = strings.TrimSpace(raw)
		seen++
	}

	if seen > 1 {
		return "", srqlerrors.NewInvalidRequest("device_graph accepts exactly one device_id filter")
	}
	if deviceID == "" {
		return "", srqlerrors.NewInvalidRequest("device_id filter is required for device_graph queries")
	}
	return deviceID, nil
}
