package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/srql/internal/parser"
	"github.com/carverauto/srql/internal/srqlerrors"
)

// graphName is the AGE graph the topology lives in.
const graphName = "serviceradar"

// cypherWriteKeywords are rejected anywhere they appear as a standalone
// token: this entrypoint is strictly read-only.
var cypherWriteKeywords = []string{
	"create", "merge", "set", "delete", "detach", "remove", "drop", "call",
}

// compileGraphCypher wraps a user-supplied Cypher body in a dollar-quoted
// literal inside an ag_catalog.cypher call, normalizing each result row
// into a {nodes, edges} object. The body is scanned for writes before any
// SQL is built.
func compileGraphCypher(plan *Plan) (string, []BindParam, error) {
	if plan.Entity != parser.EntityGraphCypher {
		return "", nil, srqlerrors.NewInvalidRequest("entity not supported by graph_cypher query")
	}

	cypher, err := extractCypher(plan)
	if err != nil {
		return "", nil, err
	}

	sql := rewritePlaceholders(buildCypherSQL(cypher))
	binds := []BindParam{IntParam(plan.Limit), IntParam(plan.Offset)}
	if err := reconcileBinds(sql, binds); err != nil {
		return "", nil, err
	}
	return sql, binds, nil
}

func extractCypher(plan *Plan) (string, error) {
	var cypher string
	for _, filter := range plan.Filters {
		if filter.Field != "cypher" {
			return "", srqlerrors.NewInvalidRequest("unsupported filter field '%s' for graph_cypher", filter.Field)
		}
		if filter.Op != parser.OpEq {
			return "", srqlerrors.NewInvalidRequest("cypher filter only supports equality")
		}
		raw, err := filter.Value.Scalar()
		if err != nil {
			return "", err
		}
		cypher = strings.TrimSpace(raw)
	}

	if cypher == "" {
		return "", srqlerrors.NewInvalidRequest(`graph_cypher requires cypher:"..."`)
	}
	if err := ensureReadOnly(cypher); err != nil {
		return "", err
	}
	return cypher, nil
}

func ensureReadOnly(raw string) error {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, ";") {
		return srqlerrors.NewInvalidRequest("cypher queries must not contain ';'")
	}

	tokens := strings.FieldsFunc(lower, func(ch rune) bool {
		return !(ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9'))
	})
	for _, token := range tokens {
		for _, keyword := range cypherWriteKeywords {
			if token == keyword {
				return srqlerrors.NewInvalidRequest("cypher queries must be read-only (found '%s')", keyword)
			}
		}
	}
	return nil
}

func buildCypherSQL(cypher string) string {
	quoted := dollarQuote(cypher)
	return fmt.Sprintf(`WITH _config AS (
  SELECT set_config('search_path', 'ag_catalog,pg_catalog,"$user",public', false)
),
_rows AS (
  SELECT (result::text)::jsonb AS r
  FROM ag_catalog.cypher('%s', %s) AS (result ag_catalog.agtype)
  LIMIT ? OFFSET ?
)
SELECT
  CASE
    WHEN jsonb_typeof(r) = 'object' AND (jsonb_exists(r, 'nodes') OR jsonb_exists(r, 'vertices')) AND jsonb_exists(r, 'edges') THEN r
    WHEN jsonb_typeof(r) = 'object' AND (jsonb_exists(r, 'start_id') OR jsonb_exists(r, 'end_id')) THEN jsonb_build_object(
      'nodes', jsonb_build_array(
        jsonb_build_object('id', r->>'start_id', 'label', r->>'start_id'),
        jsonb_build_object('id', r->>'end_id', 'label', r->>'end_id')
      ),
      'edges', jsonb_build_array(r)
    )
    WHEN jsonb_typeof(r) = 'object' AND jsonb_exists(r, 'id') THEN jsonb_build_object('nodes', jsonb_build_array(r), 'edges', '[]'::jsonb)
    ELSE jsonb_build_object('nodes', '[]'::jsonb, 'edges', '[]'::jsonb, 'rows', jsonb_build_array(r))
  END AS result
FROM _rows`, graphName, quoted)
}

// dollarQuote wraps the body in a $tag$ literal, bumping the tag until it
// no longer collides with the body.
func dollarQuote(input string) string {
	for attempt := 0; ; attempt++ {
		tag := "srql"
		if attempt > 0 {
			tag = "srql_" + strconv.Itoa(attempt)
		}
		delimiter := "$" + tag + "$"
		if !strings.Contains(input, delimiter) {
			return delimiter + input + delimiter
		}
	}
}

// rewritePlaceholders converts ? markers to $1..$N, leaving markers
// inside string literals and dollar-quoted blocks untouched.
func rewritePlaceholders(sql string) string {
	var out strings.Builder
	index := 1
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
			if next, ok := skipDollarQuoted(sql, i); ok {
				out.WriteString(sql[i:next])
				i = next
			} else {
				out.WriteByte(sql[i])
				i++
			}
		case '?':
			out.WriteString("$" + strconv.Itoa(index))
			index++
			i++
		default:
			out.WriteByte(sql[i])
			i++
		}
	}
	return out.String()
}
