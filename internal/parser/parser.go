// Package parser tokenizes and parses SRQL query strings into an AST.
//
// An SRQL query is a whitespace-separated list of terms:
//
//	in:devices is_available:true hostname:~"prod-%" order:last_seen.desc limit:10 time:last_24h
//
// Filter operators infer from the value prefix: != !~ > >= < <= ~, a
// parenthesized CSV makes an In, and ! before parens makes a NotIn.
package parser

import (
	"strconv"
	"strings"

	"github.com/carverauto/srql/internal/srqlerrors"
	"github.com/carverauto/srql/internal/timeutil"
)

// Parse turns an SRQL string into an AST. Exactly one in: directive is
// required.
func Parse(query string) (*AST, error) {
	terms, err := tokenize(query)
	if err != nil {
		return nil, err
	}

	ast := &AST{}
	seenEntity := false

	for _, term := range terms {
		key, rest, found := strings.Cut(term, ":")
		if !found {
			return nil, srqlerrors.NewInvalidRequest("unexpected term '%s' (expected key:value)", term)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, srqlerrors.NewInvalidRequest("missing field name in term '%s'", term)
		}

		switch key {
		case "in":
			if seenEntity {
				return nil, srqlerrors.NewInvalidRequest("duplicate in: directive")
			}
			entity, err := ParseEntity(strings.ToLower(unquote(rest)))
			if err != nil {
				return nil, err
			}
			ast.Entity = entity
			seenEntity = true
		case "order":
			clauses, err := parseOrder(rest)
			if err != nil {
				return nil, err
			}
			ast.Order = append(ast.Order, clauses...)
		case "limit":
			n, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
			if err != nil {
				return nil, srqlerrors.NewInvalidRequest("invalid limit '%s'", rest)
			}
			ast.Limit = &n
		case "time":
			spec, err := timeutil.Parse(rest)
			if err != nil {
				return nil, err
			}
			ast.Time = &spec
		case "stats":
			ast.Stats = unquote(rest)
		case "downsample":
			ast.Downsample = unquote(rest)
		case "cypher":
			ast.Filters = append(ast.Filters, Filter{
				Field: "cypher",
				Op:    OpEq,
				Value: ScalarValue(unquote(rest)),
			})
		default:
			filter, err := parseFilter(key, rest)
			if err != nil {
				return nil, err
			}
			ast.Filters = append(ast.Filters, filter)
		}
	}

	if !seenEntity {
		return nil, srqlerrors.NewInvalidRequest("query must name an entity with in:<entity>")
	}
	return ast, nil
}

// tokenize splits on whitespace outside quotes, parentheses, and square
// brackets, so time:[2025-01-01 00:00:00, ...] and cypher:"..." survive
// as single terms.
func tokenize(query string) ([]string, error) {
	var terms []string
	var current strings.Builder
	depth := 0
	inQuote := false
	var quote rune
	escaped := false

	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}

	for _, ch := range query {
		if inQuote {
			current.WriteRune(ch)
			if escaped {
				escaped = false
				continue
			}
			switch ch {
			case '\\':
				escaped = true
			case quote:
				inQuote = false
			}
			continue
		}

		switch ch {
		case '"', '\'':
			inQuote = true
			quote = ch
			current.WriteRune(ch)
		case '(', '[':
			depth++
			current.WriteRune(ch)
		case ')', ']':
			if depth > 0 {
				depth--
			}
			current.WriteRune(ch)
		case ' ', '\t', '\n', '\r':
			if depth > 0 {
				current.WriteRune(ch)
			} else {
				flush()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if inQuote {
		return nil, srqlerrors.NewInvalidRequest("unterminated quoted string")
	}
	if depth > 0 {
		return nil, srqlerrors.NewInvalidRequest("unbalanced parentheses or brackets")
	}
	flush()
	return terms, nil
}

func parseFilter(field, rest string) (Filter, error) {
	op := OpEq

	switch {
	case strings.HasPrefix(rest, "!="):
		op, rest = OpNotEq, rest[2:]
	case strings.HasPrefix(rest, "!~"):
		op, rest = OpNotLike, rest[2:]
	case strings.HasPrefix(rest, "!("):
		values, err := parseList(rest[1:])
		if err != nil {
			return Filter{}, err
		}
		return Filter{Field: field, Op: OpNotIn, Value: ListValue(values)}, nil
	case strings.HasPrefix(rest, ">="):
		op, rest = OpGe, rest[2:]
	case strings.HasPrefix(rest, "<="):
		op, rest = OpLe, rest[2:]
	case strings.HasPrefix(rest, ">"):
		op, rest = OpGt, rest[1:]
	case strings.HasPrefix(rest, "<"):
		op, rest = OpLt, rest[1:]
	case strings.HasPrefix(rest, "~"):
		op, rest = OpLike, rest[1:]
	case strings.HasPrefix(rest, "("):
		values, err := parseList(rest)
		if err != nil {
			return Filter{}, err
		}
		return Filter{Field: field, Op: OpIn, Value: ListValue(values)}, nil
	}

	value := unquote(rest)
	if value == "" {
		return Filter{}, srqlerrors.NewInvalidRequest("missing value for field '%s'", field)
	}
	return Filter{Field: field, Op: op, Value: ScalarValue(value)}, nil
}

func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "(") || !strings.HasSuffix(raw, ")") {
		return nil, srqlerrors.NewInvalidRequest("invalid list value '%s'", raw)
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")")

	var values []string
	for _, part := range strings.Split(inner, ",") {
		if v := unquote(strings.TrimSpace(part)); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

func parseOrder(rest string) ([]OrderClause, error) {
	var clauses []OrderClause
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field := part
		direction := Asc
		if idx := strings.LastIndex(part, "."); idx > 0 {
			switch strings.ToLower(part[idx+1:]) {
			case "asc":
				field, direction = part[:idx], Asc
			case "desc":
				field, direction = part[:idx], Desc
			default:
				return nil, srqlerrors.NewInvalidRequest("invalid order direction in '%s'", part)
			}
		}

		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			return nil, srqlerrors.NewInvalidRequest("missing order field in '%s'", part)
		}
		clauses = append(clauses, OrderClause{Field: field, Direction: direction})
	}

	if len(clauses) == 0 {
		return nil, srqlerrors.NewInvalidRequest("order: requires at least one field")
	}
	return clauses, nil
}

// unquote strips one level of surrounding quotes and unescapes \" and \\.
func unquote(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 {
		first := raw[0]
		if (first == '"' || first == '\'') && raw[len(raw)-1] == first {
			inner := raw[1 : len(raw)-1]
			var b strings.Builder
			escaped := false
			for _, ch := range inner {
				if escaped {
					b.WriteRune(ch)
					escaped = false
					continue
				}
				if ch == '\\' {
					escaped = true
					continue
				}
				b.WriteRune(ch)
			}
			return b.String()
		}
	}
	return raw
}
