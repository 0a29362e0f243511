package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/srql/internal/parser"
	"github.com/carverauto/srql/internal/timeutil"
)

// Direction selects which page a cursor moves toward.
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

// Request is the body of POST /api/query.
type Request struct {
	Query     string    `json:"query"`
	Limit     *int64    `json:"limit,omitempty"`
	Cursor    *string   `json:"cursor,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	Mode      *string   `json:"mode,omitempty"`
}

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Query string `json:"query"`
}

// PaginationMeta carries the cursors for the surrounding pages.
type PaginationMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
	PrevCursor string `json:"prev_cursor,omitempty"`
	Limit      int64  `json:"limit,omitempty"`
}

// Response is the body of a successful query.
type Response struct {
	Results    []map[string]any `json:"results"`
	Pagination PaginationMeta   `json:"pagination"`
	Error      *string          `json:"error"`
}

// TranslateResponse returns debug-rendered SQL. The SQL is never executed
// and params stays empty: literals are substituted inline for humans.
type TranslateResponse struct {
	SQL    string   `json:"sql"`
	Params []string `json:"params"`
}

// Plan is the AST flattened with request overrides applied. It owns its
// data; nothing borrows from the request once planning is done.
type Plan struct {
	Entity    parser.Entity
	Filters   []parser.Filter
	Order     []parser.OrderClause
	Limit     int64
	Offset    int64
	TimeRange *timeutil.Range
}

// BindKind tags the SQL type of a bind parameter.
type BindKind int

const (
	BindText BindKind = iota
	BindTextArray
	BindInt
	BindBool
	BindTimestamp
	BindFloat
)

// BindParam is a typed value passed out-of-band with SQL, referenced by a
// $N placeholder.
type BindParam struct {
	Kind  BindKind
	Text  string
	List  []string
	Int   int64
	Bool  bool
	Time  time.Time
	Float float64
}

func TextParam(v string) BindParam        { return BindParam{Kind: BindText, Text: v} }
func TextArrayParam(v []string) BindParam { return BindParam{Kind: BindTextArray, List: v} }
func IntParam(v int64) BindParam          { return BindParam{Kind: BindInt, Int: v} }
func BoolParam(v bool) BindParam          { return BindParam{Kind: BindBool, Bool: v} }
func TimestampParam(v time.Time) BindParam {
	return BindParam{Kind: BindTimestamp, Time: v.UTC()}
}
func FloatParam(v float64) BindParam { return BindParam{Kind: BindFloat, Float: v} }

// Value returns the driver-level value for parameter binding.
func (p BindParam) Value() any {
	switch p.Kind {
	case BindTextArray:
		return p.List
	case BindInt:
		return p.Int
	case BindBool:
		return p.Bool
	case BindTimestamp:
		return p.Time
	case BindFloat:
		return p.Float
	default:
		return p.Text
	}
}

// Literal renders the value as a SQL literal for debug output only.
// Execution always goes through placeholders.
func (p BindParam) Literal() string {
	switch p.Kind {
	case BindTextArray:
		if len(p.List) == 0 {
			return "ARRAY[]::text[]"
		}
		quoted := make([]string, len(p.List))
		for i, v := range p.List {
			quoted[i] = quoteLiteral(v)
		}
		return "ARRAY[" + strings.Join(quoted, ", ") + "]"
	case BindInt:
		return strconv.FormatInt(p.Int, 10)
	case BindBool:
		if p.Bool {
			return "TRUE"
		}
		return "FALSE"
	case BindTimestamp:
		return quoteLiteral(p.Time.Format(time.RFC3339Nano))
	case BindFloat:
		return strconv.FormatFloat(p.Float, 'g', -1, 64)
	default:
		return quoteLiteral(p.Text)
	}
}

func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
