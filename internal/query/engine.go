package query

import (
	"context"
	"time"

	"github.com/carverauto/srql/internal/cursor"
	"github.com/carverauto/srql/internal/parser"
	"github.com/carverauto/srql/internal/srqlerrors"
	"github.com/carverauto/srql/internal/timeutil"
)

// Executor runs compiled SQL and materializes rows as JSON objects.
// Implemented by the Postgres storage layer; tests substitute stubs.
type Executor interface {
	Query(ctx context.Context, sql string, binds []BindParam) ([]map[string]any, error)
}

// Limits carries the planner's clamping configuration.
type Limits struct {
	Default int64
	Max     int64
}

// Engine parses, plans, compiles, and executes SRQL queries.
type Engine struct {
	exec   Executor
	limits Limits
	now    func() time.Time
}

// NewEngine builds an engine over the given executor.
func NewEngine(exec Executor, limits Limits) *Engine {
	return &Engine{exec: exec, limits: limits, now: time.Now}
}

// Execute runs a query request end to end and builds the pagination
// cursors for the surrounding pages.
func (e *Engine) Execute(ctx context.Context, req Request) (*Response, error) {
	plan, err := e.Plan(req)
	if err != nil {
		return nil, err
	}

	sql, binds, err := Compile(plan)
	if err != nil {
		return nil, err
	}

	results, err := e.exec.Query(ctx, sql, binds)
	if err != nil {
		return nil, err
	}
	if plan.Entity == parser.EntityGraphCypher || plan.Entity == parser.EntityDeviceGraph {
		results = unwrapGraphRows(results)
	}
	if results == nil {
		results = []map[string]any{}
	}

	return &Response{
		Results:    results,
		Pagination: buildPagination(plan, int64(len(results))),
	}, nil
}

// Translate parses and plans the query with default paging, returning
// debug-rendered SQL. Nothing is executed.
func (e *Engine) Translate(req TranslateRequest) (*TranslateResponse, error) {
	plan, err := e.Plan(Request{Query: req.Query, Direction: DirectionNext})
	if err != nil {
		return nil, err
	}

	sql, err := DebugSQL(plan)
	if err != nil {
		return nil, err
	}
	return &TranslateResponse{SQL: sql, Params: []string{}}, nil
}

// Plan resolves the AST against the request overrides: clamped limit,
// cursor-decoded offset, resolved time range.
func (e *Engine) Plan(req Request) (*Plan, error) {
	ast, err := parser.Parse(req.Query)
	if err != nil {
		return nil, err
	}
	if ast.Stats != "" {
		return nil, srqlerrors.NewNotImplemented("stats queries")
	}
	if ast.Downsample != "" {
		return nil, srqlerrors.NewNotImplemented("downsample queries")
	}

	limit := e.clampLimit(req.Limit, ast.Limit)

	var offset int64
	if req.Cursor != nil && *req.Cursor != "" {
		offset, err = cursor.Decode(*req.Cursor)
		if err != nil {
			return nil, err
		}
	}
	// prev pages back through the same ordering: one page earlier, rows
	// in the original direction.
	if req.Direction == DirectionPrev {
		offset = max(offset-limit, 0)
	}

	var timeRange *timeutil.Range
	if ast.Time != nil {
		resolved, err := ast.Time.Resolve(e.now())
		if err != nil {
			return nil, err
		}
		timeRange = &resolved
	}

	return &Plan{
		Entity:    ast.Entity,
		Filters:   ast.Filters,
		Order:     ast.Order,
		Limit:     limit,
		Offset:    offset,
		TimeRange: timeRange,
	}, nil
}

func (e *Engine) clampLimit(requested, fromAST *int64) int64 {
	limit := e.limits.Default
	if requested != nil {
		limit = *requested
	} else if fromAST != nil {
		limit = *fromAST
	}
	return min(max(limit, 1), e.limits.Max)
}

// unwrapGraphRows flattens the single "result" jsonb column the graph
// queries project, so clients see the {nodes, edges} objects directly.
func unwrapGraphRows(rows []map[string]any) []map[string]any {
	unwrapped := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		inner, ok := row["result"]
		if !ok {
			unwrapped = append(unwrapped, row)
			continue
		}
		if obj, ok := inner.(map[string]any); ok {
			unwrapped = append(unwrapped, obj)
		}
	}
	return unwrapped
}

func buildPagination(plan *Plan, fetched int64) PaginationMeta {
	meta := PaginationMeta{Limit: plan.Limit}
	if fetched >= plan.Limit {
		meta.NextCursor = cursor.Encode(plan.Offset + plan.Limit)
	}
	if plan.Offset > 0 {
		meta.PrevCursor = cursor.Encode(max(plan.Offset-plan.Limit, 0))
	}
	return meta
}
