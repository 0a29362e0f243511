package parser

import (
	"github.com/carverauto/srql/internal/srqlerrors"
	"github.com/carverauto/srql/internal/timeutil"
)

// Entity is the closed set of row sources addressable with in:<name>.
type Entity string

const (
	EntityDevices           Entity = "devices"
	EntityEvents            Entity = "events"
	EntityLogs              Entity = "logs"
	EntityServices          Entity = "services"
	EntityPollers           Entity = "pollers"
	EntityInterfaces        Entity = "interfaces"
	EntityOtelTraces        Entity = "otel_traces"
	EntityOtelMetrics       Entity = "otel_metrics"
	EntityOtelMetricsHourly Entity = "otel_metrics_hourly_stats"
	EntityTimeseriesMetrics Entity = "timeseries_metrics"
	EntityCPUMetrics        Entity = "cpu_metrics"
	EntityDiskMetrics       Entity = "disk_metrics"
	EntityMemoryMetrics     Entity = "memory_metrics"
	EntityDeviceUpdates     Entity = "device_updates"
	EntityRperfMetrics      Entity = "rperf_metrics"
	EntityGraphCypher       Entity = "graph_cypher"
	EntityDeviceGraph       Entity = "device_graph"
)

var entities = map[string]Entity{
	string(EntityDevices):           EntityDevices,
	string(EntityEvents):            EntityEvents,
	string(EntityLogs):              EntityLogs,
	string(EntityServices):          EntityServices,
	string(EntityPollers):           EntityPollers,
	string(EntityInterfaces):        EntityInterfaces,
	string(EntityOtelTraces):        EntityOtelTraces,
	string(EntityOtelMetrics):       EntityOtelMetrics,
	string(EntityOtelMetricsHourly): EntityOtelMetricsHourly,
	string(EntityTimeseriesMetrics): EntityTimeseriesMetrics,
	string(EntityCPUMetrics):        EntityCPUMetrics,
	string(EntityDiskMetrics):       EntityDiskMetrics,
	string(EntityMemoryMetrics):     EntityMemoryMetrics,
	string(EntityDeviceUpdates):     EntityDeviceUpdates,
	string(EntityRperfMetrics):      EntityRperfMetrics,
	string(EntityGraphCypher):       EntityGraphCypher,
	string(EntityDeviceGraph):       EntityDeviceGraph,
}

// ParseEntity resolves an in: directive value.
func ParseEntity(name string) (Entity, error) {
	if e, ok := entities[name]; ok {
		return e, nil
	}
	return "", srqlerrors.NewInvalidRequest("unknown entity '%s'", name)
}

// FilterOp enumerates the comparison operators SRQL filters support.
type FilterOp int

const (
	OpEq FilterOp = iota
	OpNotEq
	OpLike
	OpNotLike
	OpIn
	OpNotIn
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op FilterOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNotEq:
		return "!="
	case OpLike:
		return "~"
	case OpNotLike:
		return "!~"
	case OpIn:
		return "in"
	case OpNotIn:
		return "not in"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	}
	return "?"
}

// FilterValue is either a scalar or a list of strings. Typed coercion
// happens later, in the entity compilers.
type FilterValue struct {
	scalar string
	list   []string
	isList bool
}

// ScalarValue wraps a single string value.
func ScalarValue(v string) FilterValue { return FilterValue{scalar: v} }

// ListValue wraps a parenthesized CSV value.
func ListValue(vs []string) FilterValue { return FilterValue{list: vs, isList: true} }

// Scalar returns the scalar value or fails if the value is a list.
func (v FilterValue) Scalar() (string, error) {
	if v.isList {
		return "", srqlerrors.NewInvalidRequest("expected a single value, got a list")
	}
	return v.scalar, nil
}

// List returns the list value or fails if the value is a scalar.
func (v FilterValue) List() ([]string, error) {
	if !v.isList {
		return nil, srqlerrors.NewInvalidRequest("expected a list value")
	}
	return v.list, nil
}

// IsList reports whether the value is a list.
func (v FilterValue) IsList() bool { return v.isList }

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    FilterOp
	Value FilterValue
}

// OrderDirection is asc or desc.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

func (d OrderDirection) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderClause is one order:field.dir term.
type OrderClause struct {
	Field     string
	Direction OrderDirection
}

// AST is the parsed query. It is pure data: the parser performs no I/O
// and no SQL work.
type AST struct {
	Entity     Entity
	Filters    []Filter
	Order      []OrderClause
	Limit      *int64
	Time       *timeutil.Spec
	Stats      string
	Downsample string
}
