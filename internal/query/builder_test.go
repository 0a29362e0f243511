package query

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/srql/internal/parser"
	"github.com/carverauto/srql/internal/srqlerrors"
	"github.com/carverauto/srql/internal/timeutil"
)

func sortedFieldNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fullPlan builds a plan exercising one filter of every type the schema
// declares, a time range, and an order clause.
func fullPlan(schema *entitySchema) *Plan {
	plan := &Plan{
		Entity: schema.entity,
		Limit:  25,
		Offset: 50,
		TimeRange: &timeutil.Range{
			Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, field := range sortedFieldNames(schema.textFields) {
		if schema.scalarOnly[field] {
			plan.Filters = append(plan.Filters, parser.Filter{
				Field: field, Op: parser.OpLike, Value: parser.ScalarValue("%x%"),
			})
		} else {
			plan.Filters = append(plan.Filters, parser.Filter{
				Field: field, Op: parser.OpIn, Value: parser.ListValue([]string{"a", "b"}),
			})
		}
		break
	}
	for _, field := range sortedFieldNames(schema.boolFields) {
		plan.Filters = append(plan.Filters, parser.Filter{
			Field: field, Op: parser.OpEq, Value: parser.ScalarValue("true"),
		})
		break
	}
	for _, field := range sortedFieldNames(schema.intFields) {
		plan.Filters = append(plan.Filters, parser.Filter{
			Field: field, Op: parser.OpNotEq, Value: parser.ScalarValue("4"),
		})
		break
	}
	for _, field := range sortedFieldNames(schema.floatFields) {
		plan.Filters = append(plan.Filters, parser.Filter{
			Field: field, Op: parser.OpEq, Value: parser.ScalarValue("88.2"),
		})
		break
	}

	for field := range schema.orderFields {
		plan.Order = append(plan.Order, parser.OrderClause{Field: field, Direction: parser.Desc})
		break
	}
	return plan
}

// Every entity, every legal plan shape: placeholder count equals bind
// count, numbered contiguously.
func TestCompile_BindIntegrityAcrossEntities(t *testing.T) {
	t.Parallel()

	for entity, schema := range schemas {
		t.Run(string(entity), func(t *testing.T) {
			t.Parallel()

			sql, binds, err := compileRelational(schema, fullPlan(schema))
			require.NoError(t, err)

			count, maxIndex := countPlaceholders(sql)
			assert.Equal(t, len(binds), count)
			assert.Equal(t, len(binds), maxIndex)
			assert.Contains(t, sql, schema.table)
			assert.Contains(t, sql, "LIMIT")
			assert.Contains(t, sql, "OFFSET")
		})
	}
}

// Hostile filter values stay in the bind list; the SQL text never grows
// extra placeholders or carries the payload.
func TestCompile_InjectionStaysParameterized(t *testing.T) {
	t.Parallel()

	payloads := []string{
		`'; DROP TABLE unified_devices; --`,
		`" OR "1"="1`,
		`$1 UNION SELECT password FROM users`,
	}

	for i, payload := range payloads {
		t.Run(fmt.Sprintf("payload_%d", i), func(t *testing.T) {
			t.Parallel()

			plan := &Plan{
				Entity: parser.EntityDevices,
				Filters: []parser.Filter{
					{Field: "hostname", Op: parser.OpEq, Value: parser.ScalarValue(payload)},
				},
				Limit:  10,
				Offset: 0,
			}

			sql, binds, err := compileRelational(devicesSchema, plan)
			require.NoError(t, err)

			require.Len(t, binds, 3)
			assert.Equal(t, payload, binds[0].Text)
			assert.NotContains(t, sql, payload)

			count, _ := countPlaceholders(sql)
			assert.Equal(t, 3, count)
		})
	}
}

func TestCompile_TimeRangeBindsStartThenEnd(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	plan := &Plan{
		Entity:    parser.EntityEvents,
		Limit:     5,
		Offset:    0,
		TimeRange: &timeutil.Range{Start: start, End: end},
	}

	sql, binds, err := compileRelational(eventsSchema, plan)
	require.NoError(t, err)

	assert.Contains(t, sql, "event_timestamp >= $1")
	assert.Contains(t, sql, "event_timestamp <= $2")
	require.Len(t, binds, 4)
	assert.Equal(t, start, binds[0].Time)
	assert.Equal(t, end, binds[1].Time)
}

func TestCompile_UnknownFilterFieldFails(t *testing.T) {
	t.Parallel()

	for entity, schema := range schemas {
		plan := &Plan{
			Entity: entity,
			Filters: []parser.Filter{
				{Field: "no_such_field", Op: parser.OpEq, Value: parser.ScalarValue("x")},
			},
			Limit: 10,
		}
		_, _, err := compileRelational(schema, plan)
		require.Error(t, err, entity)
		assert.True(t, srqlerrors.IsInvalidRequest(err), entity)
	}
}

func TestCompile_UnknownOrderFieldIsIgnored(t *testing.T) {
	t.Parallel()

	plan := &Plan{
		Entity: parser.EntityLogs,
		Order: []parser.OrderClause{
			{Field: "nonexistent", Direction: parser.Asc},
		},
		Limit: 10,
	}

	sql, _, err := compileRelational(logsSchema, plan)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY timestamp DESC")
}

func TestCompile_DefaultOrdering(t *testing.T) {
	t.Parallel()

	for entity, schema := range schemas {
		sql, _, err := compileRelational(schema, &Plan{Entity: entity, Limit: 10})
		require.NoError(t, err, entity)
		assert.Contains(t, sql, "ORDER BY "+schema.defaultOrder, entity)
	}
}

func TestCompile_OperatorTypeRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		entity parser.Entity
		schema *entitySchema
		filter parser.Filter
	}{
		{
			"bool rejects like", parser.EntityDevices, devicesSchema,
			parser.Filter{Field: "is_available", Op: parser.OpLike, Value: parser.ScalarValue("t%")},
		},
		{
			"bool rejects bad literal", parser.EntityDevices, devicesSchema,
			parser.Filter{Field: "is_available", Op: parser.OpEq, Value: parser.ScalarValue("maybe")},
		},
		{
			"int rejects non-numeric", parser.EntityEvents, eventsSchema,
			parser.Filter{Field: "level", Op: parser.OpEq, Value: parser.ScalarValue("high")},
		},
		{
			"int rejects range op", parser.EntityEvents, eventsSchema,
			parser.Filter{Field: "level", Op: parser.OpGt, Value: parser.ScalarValue("3")},
		},
		{
			"text rejects range op", parser.EntityLogs, logsSchema,
			parser.Filter{Field: "body", Op: parser.OpLt, Value: parser.ScalarValue("z")},
		},
		{
			"scalar-only rejects list", parser.EntityDevices, devicesSchema,
			parser.Filter{Field: "hostname", Op: parser.OpIn, Value: parser.ListValue([]string{"a"})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := &Plan{Entity: tt.entity, Filters: []parser.Filter{tt.filter}, Limit: 10}
			_, _, err := compileRelational(tt.schema, plan)
			require.Error(t, err)
			assert.True(t, srqlerrors.IsInvalidRequest(err))
		})
	}
}

func TestCompile_BooleanLiterals(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"true", "1", "yes"} {
		plan := &Plan{
			Entity: parser.EntityServices,
			Filters: []parser.Filter{
				{Field: "available", Op: parser.OpEq, Value: parser.ScalarValue(raw)},
			},
			Limit: 10,
		}
		_, binds, err := compileRelational(servicesSchema, plan)
		require.NoError(t, err, raw)
		assert.True(t, binds[0].Bool, raw)
	}

	for _, raw := range []string{"false", "0", "no"} {
		plan := &Plan{
			Entity: parser.EntityServices,
			Filters: []parser.Filter{
				{Field: "available", Op: parser.OpEq, Value: parser.ScalarValue(raw)},
			},
			Limit: 10,
		}
		_, binds, err := compileRelational(servicesSchema, plan)
		require.NoError(t, err, raw)
		assert.False(t, binds[0].Bool, raw)
	}
}

func TestCompile_EmptyListShortCircuits(t *testing.T) {
	t.Parallel()

	plan := &Plan{
		Entity: parser.EntityDevices,
		Filters: []parser.Filter{
			{Field: "device_id", Op: parser.OpIn, Value: parser.ListValue(nil)},
		},
		Limit: 10,
	}

	sql, binds, err := compileRelational(devicesSchema, plan)
	require.NoError(t, err)
	assert.Contains(t, sql, "FALSE")
	assert.Len(t, binds, 2)
}

func TestCompile_RperfPinsMetricType(t *testing.T) {
	t.Parallel()

	sql, binds, err := compileRelational(rperfSchema, &Plan{Entity: parser.EntityRperfMetrics, Limit: 10})
	require.NoError(t, err)
	assert.Contains(t, sql, "metric_type = $1")
	require.NotEmpty(t, binds)
	assert.Equal(t, "rperf", binds[0].Text)
}

// User filters on metric_type and if_index stack on top of the pinned
// rperf predicate.
func TestCompile_RperfUserFilters(t *testing.T) {
	t.Parallel()

	plan := &Plan{
		Entity: parser.EntityRperfMetrics,
		Filters: []parser.Filter{
			{Field: "metric_type", Op: parser.OpEq, Value: parser.ScalarValue("rperf")},
			{Field: "if_index", Op: parser.OpEq, Value: parser.ScalarValue("3")},
		},
		Limit: 10,
	}

	sql, binds, err := compileRelational(rperfSchema, plan)
	require.NoError(t, err)
	assert.Contains(t, sql, "metric_type = $2")
	assert.Contains(t, sql, "if_index = $3")
	require.Len(t, binds, 5)
	assert.Equal(t, int64(3), binds[2].Int)
}

func TestCompile_FieldAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		entity parser.Entity
		schema *entitySchema
		filter parser.Filter
		want   string
	}{
		{
			"services type", parser.EntityServices, servicesSchema,
			parser.Filter{Field: "type", Op: parser.OpEq, Value: parser.ScalarValue("ssh")},
			"service_type = $1",
		},
		{
			"device_updates source", parser.EntityDeviceUpdates, deviceUpdatesSchema,
			parser.Filter{Field: "source", Op: parser.OpEq, Value: parser.ScalarValue("snmp")},
			"discovery_source = $1",
		},
		{
			"device_updates is_available", parser.EntityDeviceUpdates, deviceUpdatesSchema,
			parser.Filter{Field: "is_available", Op: parser.OpEq, Value: parser.ScalarValue("true")},
			"available = $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := &Plan{Entity: tt.entity, Filters: []parser.Filter{tt.filter}, Limit: 10}
			sql, _, err := compileRelational(tt.schema, plan)
			require.NoError(t, err)
			assert.Contains(t, sql, tt.want)
		})
	}
}

func TestCompile_OrderAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		entity parser.Entity
		schema *entitySchema
		field  string
		want   string
	}{
		{"services last_seen", parser.EntityServices, servicesSchema, "last_seen", "ORDER BY timestamp DESC"},
		{"services type", parser.EntityServices, servicesSchema, "type", "ORDER BY service_type DESC"},
		{"hourly total", parser.EntityOtelMetricsHourly, otelMetricsHourlySchema, "total", "ORDER BY total_count DESC"},
		{"hourly errors", parser.EntityOtelMetricsHourly, otelMetricsHourlySchema, "errors", "ORDER BY error_count DESC"},
		{"hourly avg_duration", parser.EntityOtelMetricsHourly, otelMetricsHourlySchema, "avg_duration", "ORDER BY avg_duration_ms DESC"},
		{"hourly p95", parser.EntityOtelMetricsHourly, otelMetricsHourlySchema, "p95", "ORDER BY p95_duration_ms DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := &Plan{
				Entity: tt.entity,
				Order:  []parser.OrderClause{{Field: tt.field, Direction: parser.Desc}},
				Limit:  10,
			}
			sql, _, err := compileRelational(tt.schema, plan)
			require.NoError(t, err)
			assert.Contains(t, sql, tt.want)
		})
	}
}

func TestCountPlaceholders_SkipsQuotedRegions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		sql   string
		count int
		max   int
	}{
		{"plain", "SELECT * FROM t WHERE a = $1 AND b = $2", 2, 2},
		{"inside string", "SELECT '$1' , a FROM t WHERE b = $1", 1, 1},
		{"inside identifier", `SELECT "$1" FROM t WHERE b = $1`, 1, 1},
		{"dollar quoted", "SELECT $tag$ $1 $2 $tag$ WHERE a = $1", 1, 1},
		{"escaped quote", "SELECT 'it''s $9' WHERE a = $3", 1, 3},
		{"empty tag", "SELECT $$ $5 $$ WHERE a = $1 AND b = $2", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			count, maxIndex := countPlaceholders(tt.sql)
			assert.Equal(t, tt.count, count)
			assert.Equal(t, tt.max, maxIndex)
		})
	}
}

func TestRenderDebugSQL(t *testing.T) {
	t.Parallel()

	plan := &Plan{
		Entity: parser.EntityDevices,
		Filters: []parser.Filter{
			{Field: "hostname", Op: parser.OpLike, Value: parser.ScalarValue("prod-%")},
			{Field: "is_available", Op: parser.OpEq, Value: parser.ScalarValue("true")},
			{Field: "device_id", Op: parser.OpIn, Value: parser.ListValue([]string{"a", "o'brien"})},
		},
		Limit:  2,
		Offset: 0,
	}

	sql, binds, err := compileRelational(devicesSchema, plan)
	require.NoError(t, err)

	debug := renderDebugSQL(sql, binds)
	assert.NotContains(t, debug, "$1")
	assert.Contains(t, debug, "hostname ILIKE 'prod-%'")
	assert.Contains(t, debug, "is_available = TRUE")
	assert.Contains(t, debug, "ARRAY['a', 'o''brien']")
	assert.True(t, strings.HasSuffix(debug, "LIMIT 2 OFFSET 0"))
}
