package query

import (
	"github.com/carverauto/srql/internal/parser"
	"github.com/carverauto/srql/internal/srqlerrors"
)

// schemas maps every relational entity to its declarative schema. Graph
// entities compile through their own paths. The entity set is closed: a
// plan naming anything else is a client error, and keeping this an
// explicit table means a new entity cannot ship without a compile path.
var schemas = map[parser.Entity]*entitySchema{
	parser.EntityDevices:           devicesSchema,
	parser.EntityEvents:            eventsSchema,
	parser.EntityLogs:              logsSchema,
	parser.EntityServices:          servicesSchema,
	parser.EntityPollers:           pollersSchema,
	parser.EntityInterfaces:        interfacesSchema,
	parser.EntityOtelTraces:        otelTracesSchema,
	parser.EntityOtelMetrics:       otelMetricsSchema,
	parser.EntityOtelMetricsHourly: otelMetricsHourlySchema,
	parser.EntityTimeseriesMetrics: timeseriesSchema,
	parser.EntityCPUMetrics:        cpuMetricsSchema,
	parser.EntityDiskMetrics:       diskMetricsSchema,
	parser.EntityMemoryMetrics:     memoryMetricsSchema,
	parser.EntityDeviceUpdates:     deviceUpdatesSchema,
	parser.EntityRperfMetrics:      rperfSchema,
}

// Compile translates a plan into parameterized SQL and its ordered bind
// list. Both outputs are owned by the caller.
func Compile(plan *Plan) (string, []BindParam, error) {
	switch plan.Entity {
	case parser.EntityGraphCypher:
		return compileGraphCypher(plan)
	case parser.EntityDeviceGraph:
		return compileDeviceGraph(plan)
	default:
		schema, ok := schemas[plan.Entity]
		if !ok {
			return "", nil, srqlerrors.NewInvalidRequest("unknown entity '%s'", plan.Entity)
		}
		return compileRelational(schema, plan)
	}
}

// DebugSQL renders the plan as literal-substituted SQL for /translate.
// device_graph keeps its template form: the body is fixed and the single
// bind is obvious.
func DebugSQL(plan *Plan) (string, error) {
	if plan.Entity == parser.EntityDeviceGraph {
		if _, _, err := compileDeviceGraph(plan); err != nil {
			return "", err
		}
		return deviceGraphSQL, nil
	}

	sql, binds, err := Compile(plan)
	if err != nil {
		return "", err
	}
	return renderDebugSQL(sql, binds), nil
}
