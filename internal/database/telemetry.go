package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DBTX is the subset of pgxpool.Pool the repositories need. pgxmock pools
// satisfy it too.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TracedDB wraps a DBTX with one client span per statement
type TracedDB struct {
	db     DBTX
	tracer trace.Tracer
}

// NewTracedDB creates a traced wrapper around db
func NewTracedDB(db DBTX) *TracedDB {
	return &TracedDB{
		db:     db,
		tracer: otel.Tracer("github.com/irfndi/wellcast-go/internal/database"),
	}
}

func (t *TracedDB) start(ctx context.Context, op, sql string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", compactSQL(sql)),
		))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := t.start(ctx, "query", sql)
	rows, err := t.db.Query(ctx, sql, args...)
	finishSpan(span, err)
	return rows, err
}

// QueryRow errors surface on Scan, so the span only covers dispatch
func (t *TracedDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := t.start(ctx, "query_row", sql)
	defer span.End()
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *TracedDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := t.start(ctx, "exec", sql)
	tag, err := t.db.Exec(ctx, sql, args...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	finishSpan(span, err)
	return tag, err
}

func (t *TracedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := t.start(ctx, "begin", "BEGIN")
	tx, err := t.db.Begin(ctx)
	finishSpan(span, err)
	return tx, err
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
