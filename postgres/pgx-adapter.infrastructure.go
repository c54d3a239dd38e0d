package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ctx2 "github.com/go-arrower/todo/ctx"
)

const spanKey ctx2.CTXKey = "todo.pgx.span"

var _ pgx.QueryTracer = (*pgxTraceAdapter)(nil)

// pgxTraceAdapter starts a client span for each query pgx sends to the database.
// The span is named after the SQL operation, e.g. "pgx SELECT".
type pgxTraceAdapter struct {
	tracer trace.Tracer
}

func (p pgxTraceAdapter) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	config := conn.Config()

	ctx, span := p.tracer.Start(ctx, spanName(data.SQL),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.name", config.Database),
			attribute.String("db.statement", data.SQL),
			attribute.StringSlice("db.statement.args", argsToStrings(data.Args)),
			attribute.String("server.address", config.Host),
			attribute.Int("server.port", int(config.Port)),
		),
	)

	return context.WithValue(ctx, spanKey, span)
}

func (p pgxTraceAdapter) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(spanKey).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())

		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
}

func spanName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "pgx"
	}

	return "pgx " + strings.ToUpper(fields[0])
}

func argsToStrings(args []any) []string {
	s := make([]string, 0, len(args))

	for _, arg := range args {
		s = append(s, fmt.Sprintf("%v", arg))
	}

	return s
}
