package alog

import (
	"context"
	"log/slog"

	ctx2 "github.com/go-arrower/todo/ctx"
)

const ctxAttrs ctx2.CTXKey = "todo.log.attrs"

// AddAttr returns a copy of ctx carrying attr.
// Loggers created by New add all attributes of the context to each record.
func AddAttr(ctx context.Context, attr slog.Attr) context.Context {
	return AddAttrs(ctx, attr)
}

func AddAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing := FromContext(ctx)

	// copy, so contexts derived from the same parent never share the backing array
	all := make([]slog.Attr, 0, len(existing)+len(attrs))
	all = append(all, existing...)
	all = append(all, attrs...)

	return context.WithValue(ctx, ctxAttrs, all)
}

func ClearAttrs(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxAttrs, []slog.Attr{})
}

// FromContext returns the attributes added to ctx.
func FromContext(ctx context.Context) []slog.Attr {
	if attrs, ok := ctx.Value(ctxAttrs).([]slog.Attr); ok {
		return attrs
	}

	return []slog.Attr{}
}
