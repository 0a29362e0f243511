package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/srql/internal/parser"
	"github.com/carverauto/srql/internal/srqlerrors"
)

// entitySchema declares everything the shared builder needs to compile a
// relational entity: its table, its canonical time column, and the typed
// field allow-lists. A filter field outside the allow-lists is rejected;
// an order field outside orderFields is silently ignored.
type entitySchema struct {
	entity     parser.Entity
	table      string
	columns    []string
	timeColumn string

	textFields  map[string]string
	boolFields  map[string]string
	intFields   map[string]string
	floatFields map[string]string

	// scalarOnly lists filter fields that reject In/NotIn. Free-text
	// columns like hostname stay single-valued.
	scalarOnly map[string]bool

	orderFields  map[string]string
	defaultOrder string

	// pinned predicates apply before the user's filters, e.g. the rperf
	// view over timeseries_metrics.
	pinned []pinnedFilter
}

type pinnedFilter struct {
	column string
	value  string
}

// sqlBuilder accumulates bind parameters and hands back their $N tokens.
type sqlBuilder struct {
	binds []BindParam
}

func (b *sqlBuilder) add(p BindParam) string {
	b.binds = append(b.binds, p)
	return "$" + strconv.Itoa(len(b.binds))
}

// compileRelational builds the SELECT for a plain table or continuous
// aggregate: pinned predicates, time range, user filters in AST order,
// ordering, then limit/offset as the two tail binds.
func compileRelational(schema *entitySchema, plan *Plan) (string, []BindParam, error) {
	if plan.Entity != schema.entity {
		return "", nil, srqlerrors.NewInvalidRequest("entity not supported by %s query", schema.entity)
	}

	b := &sqlBuilder{}
	var sql strings.Builder
	fmt.Fprintf(&sql, "SELECT %s FROM %s", strings.Join(schema.columns, ", "), schema.table)

	var conditions []string
	for _, pin := range schema.pinned {
		conditions = append(conditions, fmt.Sprintf("%s = %s", pin.column, b.add(TextParam(pin.value))))
	}

	if plan.TimeRange != nil {
		conditions = append(conditions,
			fmt.Sprintf("%s >= %s", schema.timeColumn, b.add(TimestampParam(plan.TimeRange.Start))),
			fmt.Sprintf("%s <= %s", schema.timeColumn, b.add(TimestampParam(plan.TimeRange.End))),
		)
	}

	for _, filter := range plan.Filters {
		cond, err := compileFilter(schema, b, filter)
		if err != nil {
			return "", nil, err
		}
		if cond != "" {
			conditions = append(conditions, cond)
		}
	}

	if len(conditions) > 0 {
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(conditions, " AND "))
	}

	sql.WriteString(" ORDER BY ")
	sql.WriteString(orderClause(schema, plan.Order))

	fmt.Fprintf(&sql, " LIMIT %s OFFSET %s",
		b.add(IntParam(plan.Limit)), b.add(IntParam(plan.Offset)))

	out := sql.String()
	if err := reconcileBinds(out, b.binds); err != nil {
		return "", nil, err
	}
	return out, b.binds, nil
}

func compileFilter(schema *entitySchema, b *sqlBuilder, filter parser.Filter) (string, error) {
	field := strings.ToLower(filter.Field)

	if col, ok := schema.textFields[field]; ok {
		return compileTextFilter(schema, b, col, field, filter)
	}
	if col, ok := schema.boolFields[field]; ok {
		return compileBoolFilter(b, col, field, filter)
	}
	if col, ok := schema.intFields[field]; ok {
		return compileIntFilter(b, col, field, filter)
	}
	if col, ok := schema.floatFields[field]; ok {
		return compileFloatFilter(b, col, field, filter)
	}

	return "", srqlerrors.NewInvalidRequest("unsupported filter field for %s: '%s'", schema.entity, filter.Field)
}

func compileTextFilter(schema *entitySchema, b *sqlBuilder, col, field string, filter parser.Filter) (string, error) {
	switch filter.Op {
	case parser.OpEq, parser.OpNotEq, parser.OpLike, parser.OpNotLike:
		value, err := filter.Value.Scalar()
		if err != nil {
			return "", err
		}
		placeholder := b.add(TextParam(value))
		switch filter.Op {
		case parser.OpEq:
			return fmt.Sprintf("%s = %s", col, placeholder), nil
		case parser.OpNotEq:
			return fmt.Sprintf("%s != %s", col, placeholder), nil
		case parser.OpLike:
			return fmt.Sprintf("%s ILIKE %s", col, placeholder), nil
		default:
			return fmt.Sprintf("%s NOT ILIKE %s", col, placeholder), nil
		}
	case parser.OpIn, parser.OpNotIn:
		if schema.scalarOnly[field] {
			return "", srqlerrors.NewInvalidRequest("field '%s' does not support list filters", field)
		}
		values, err := filter.Value.List()
		if err != nil {
			return "", err
		}
		if len(values) == 0 {
			// An empty list matches nothing (or everything, negated).
			if filter.Op == parser.OpIn {
				return "FALSE", nil
			}
			return "TRUE", nil
		}
		placeholder := b.add(TextArrayParam(values))
		if filter.Op == parser.OpIn {
			return fmt.Sprintf("%s = ANY(%s)", col, placeholder), nil
		}
		return fmt.Sprintf("%s != ALL(%s)", col, placeholder), nil
	default:
		return "", srqlerrors.NewInvalidRequest("unsupported operator %s for text field '%s'", filter.Op, field)
	}
}

func compileBoolFilter(b *sqlBuilder, col, field string, filter parser.Filter) (string, error) {
	raw, err := filter.Value.Scalar()
	if err != nil {
		return "", err
	}
	value, err := parseBool(raw)
	if err != nil {
		return "", err
	}

	switch filter.Op {
	case parser.OpEq:
		return fmt.Sprintf("%s = %s", col, b.add(BoolParam(value))), nil
	case parser.OpNotEq:
		return fmt.Sprintf("%s != %s", col, b.add(BoolParam(value))), nil
	default:
		return "", srqlerrors.NewInvalidRequest("field '%s' only supports equality comparisons", field)
	}
}

func compileIntFilter(b *sqlBuilder, col, field string, filter parser.Filter) (string, error) {
	raw, err := filter.Value.Scalar()
	if err != nil {
		return "", err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", srqlerrors.NewInvalidRequest("invalid integer '%s'", raw)
	}

	switch filter.Op {
	case parser.OpEq:
		return fmt.Sprintf("%s = %s", col, b.add(IntParam(value))), nil
	case parser.OpNotEq:
		return fmt.Sprintf("%s != %s", col, b.add(IntParam(value))), nil
	default:
		return "", srqlerrors.NewInvalidRequest("field '%s' only supports equality comparisons", field)
	}
}

func compileFloatFilter(b *sqlBuilder, col, field string, filter parser.Filter) (string, error) {
	raw, err := filter.Value.Scalar()
	if err != nil {
		return "", err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", srqlerrors.NewInvalidRequest("invalid number '%s'", raw)
	}

	switch filter.Op {
	case parser.OpEq:
		return fmt.Sprintf("%s = %s", col, b.add(FloatParam(value))), nil
	case parser.OpNotEq:
		return fmt.Sprintf("%s != %s", col, b.add(FloatParam(value))), nil
	default:
		return "", srqlerrors.NewInvalidRequest("field '%s' only supports equality comparisons", field)
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, srqlerrors.NewInvalidRequest("invalid boolean value '%s'", raw)
}

// orderClause maps the requested order fields onto columns. Unknown
// fields pass silently so stale dashboards keep working; with nothing
// applied the entity's default ordering holds.
func orderClause(schema *entitySchema, order []parser.OrderClause) string {
	var parts []string
	for _, clause := range order {
		col, ok := schema.orderFields[strings.ToLower(clause.Field)]
		if !ok {
			continue
		}
		parts = append(parts, col+" "+clause.Direction.String())
	}
	if len(parts) == 0 {
		return schema.defaultOrder
	}
	return strings.Join(parts, ", ")
}

// reconcileBinds asserts that the emitted SQL references exactly one $N
// placeholder per bind, numbered contiguously from $1.
func reconcileBinds(sql string, binds []BindParam) error {
	seen, maxIndex := countPlaceholders(sql)
	if seen != len(binds) || maxIndex != len(binds) {
		return srqlerrors.NewInternal(fmt.Errorf(
			"bind count mismatch: sql has %d placeholders (max $%d), %d binds", seen, maxIndex, len(binds)))
	}
	return nil
}

// countPlaceholders counts $N references outside string literals,
// quoted identifiers, and dollar-quoted blocks. Returns the number of
// placeholder occurrences and the highest index seen.
func countPlaceholders(sql string) (count, maxIndex int) {
	i := 0
	for i < len(sql) {
		switch sql[i] {
		case '\'':
			i = skipSingleQuoted(sql, i)
		case '"':
			i = skipDoubleQuoted(sql, i)
		case '$':
			if idx, next, ok := readPlaceholder(sql, i); ok {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
				i = next
			} else if next, ok := skipDollarQuoted(sql, i); ok {
				i = next
			} else {
				i++
			}
		default:
			i++
		}
	}
	return count, maxIndex
}

func skipSingleQuoted(sql string, start int) int {
	i := start + 1
	for i < len(sql) {
		if sql[i] == '\'' {
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func skipDoubleQuoted(sql string, start int) int {
	i := start + 1
	for i < len(sql) {
		if sql[i] == '"' {
			return i + 1
		}
		i++
	}
	return i
}

func readPlaceholder(sql string, start int) (index, next int, ok bool) {
	i := start + 1
	j := i
	for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
		j++
	}
	if j == i {
		return 0, start, false
	}
	n, err := strconv.Atoi(sql[i:j])
	if err != nil {
		return 0, start, false
	}
	return n, j, true
}

// skipDollarQuoted consumes $tag$ ... $tag$ blocks (tag possibly empty).
func skipDollarQuoted(sql string, start int) (next int, ok bool) {
	i := start + 1
	for i < len(sql) {
		ch := sql[i]
		if ch == '$' {
			break
		}
		if !isTagChar(ch) {
			return start, false
		}
		i++
	}
	if i >= len(sql) {
		return start, false
	}
	delimiter := sql[start : i+1]
	end := strings.Index(sql[i+1:], delimiter)
	if end < 0 {
		return len(sql), true
	}
	return i + 1 + end + len(delimiter), true
}

func isTagChar(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}

// renderDebugSQL substitutes literals for placeholders. Output is for
// humans via /translate; it is never executed.
func renderDebugSQL(sql string, binds []BindParam) string {
	var out strings.Builder
	i := 0
	for i < len(sql) {
		switch sql[i] {
		case '\'':
			next := skipSingleQuoted(sql, i)
			out.WriteString(sql[i:next])
			i = next
		case '"':
			next := skipDoubleQuoted(sql, i)
			out.WriteString(sql[i:next])
			i = next
		case '$':
			if idx, next, ok := readPlaceholder(sql, i); ok && idx >= 1 && idx <= len(binds) {
				out.WriteString(binds[idx-1].Literal())
				i = next
			} else if next, ok := skipDollarQuoted(sql, i); ok {
				out.WriteString(sql[i:next])
				i = next
			} else {
				out.WriteByte(sql[i])
				i++
			}
		default:
			out.WriteByte(sql[i])
			i++
		}
	}
	return out.String()
}
