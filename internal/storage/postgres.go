// Package storage executes compiled SRQL against PostgreSQL.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"

	"github.com/carverauto/srql/internal/metrics"
	"github.com/carverauto/srql/internal/query"
	"github.com/carverauto/srql/internal/srqlerrors"
)

var tracer = otel.Tracer("srql-postgres-storage")

// Postgres wraps a bounded pgx pool and implements query.Executor.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect builds the pool and pings once so bad credentials fail at
// startup instead of on the first request.
func Connect(ctx context.Context, databaseURL string, maxPoolSize int32) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, srqlerrors.NewConfig("invalid database URL: %v", err)
	}
	cfg.MaxConns = maxPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build PostgreSQL connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initial database connectivity check failed: %w", err)
	}
	klog.InfoS("database connectivity check succeeded")

	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Query binds the parameters in order, executes, and materializes every
// row as a JSON object keyed by column name.
func (p *Postgres) Query(ctx context.Context, sql string, binds []query.BindParam) ([]map[string]any, error) {
	truncated := sql
	if len(truncated) > 1000 {
		truncated = truncated[:1000] + "..."
	}

	ctx, span := tracer.Start(ctx, "postgres.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.statement", truncated),
			attribute.Int("db.bind_count", len(binds)),
		),
	)
	defer span.End()

	args := make([]any, len(binds))
	for i, bind := range binds {
		args[i] = bind.Value()
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		recordFailure(span, err, time.Since(start))
		return nil, srqlerrors.NewInternal(fmt.Errorf("query execution failed: %w", err))
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var results []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			recordFailure(span, err, time.Since(start))
			return nil, srqlerrors.NewInternal(fmt.Errorf("row scan failed: %w", err))
		}

		row := make(map[string]any, len(fields))
		for i, field := range fields {
			row[field.Name] = normalizeValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		recordFailure(span, err, time.Since(start))
		return nil, srqlerrors.NewInternal(fmt.Errorf("row iteration failed: %w", err))
	}

	duration := time.Since(start).Seconds()
	metrics.QueryDuration.WithLabelValues("query").Observe(duration)
	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.QueryResults.Observe(float64(len(results)))

	span.SetAttributes(attribute.Int("db.rows_returned", len(results)))
	span.SetStatus(codes.Ok, "query successful")

	klog.V(3).InfoS("query executed",
		"rows", len(results),
		"bindCount", len(binds),
		"duration", duration,
	)
	return results, nil
}

func recordFailure(span trace.Span, err error, elapsed time.Duration) {
	metrics.QueryDuration.WithLabelValues("query").Observe(elapsed.Seconds())
	metrics.QueryTotal.WithLabelValues("error").Inc()
	metrics.QueryErrors.WithLabelValues(classifyError(err)).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "query execution failed")
}

func classifyError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection"):
		return "connection"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "syntax"):
		return "syntax"
	default:
		return "unknown"
	}
}

// normalizeValue flattens driver types into JSON-friendly values:
// timestamps to RFC3339, byte slices to strings (jsonb payloads decode
// into objects when they parse).
func normalizeValue(v any) any {
	switch value := v.(type) {
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano)
	case []byte:
		var decoded any
		if json.Unmarshal(value, &decoded) == nil {
			return decoded
		}
		return string(value)
	default:
		return v
	}
}
