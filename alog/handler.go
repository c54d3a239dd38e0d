package alog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoggerOpt allows to initialise a logger with custom options.
type LoggerOpt func(h *tracedHandler)

// WithHandler adds a slog.Handler to be logged to.
// You can set as many as you want.
func WithHandler(h slog.Handler) LoggerOpt {
	return func(th *tracedHandler) {
		th.handlers = append(th.handlers, h)
	}
}

// WithLevel initialises the logger with a starting level.
// To change the level at runtime use Unwrap(logger).SetLevel(level).
func WithLevel(level slog.Level) LoggerOpt {
	return func(th *tracedHandler) {
		th.level.Set(level)
	}
}

// New returns a production ready logger.
//
// If no handler is given via WithHandler, it logs JSON to os.Stderr.
func New(opts ...LoggerOpt) *slog.Logger {
	return slog.New(newTracedHandler(opts...))
}

// NewDevelopment returns a logger for local development,
// logging readable text on debug level to os.Stderr.
func NewDevelopment() *slog.Logger {
	return New(
		WithLevel(slog.LevelDebug),
		WithHandler(slog.NewTextHandler(os.Stderr, getDebugHandlerOptions())),
	)
}

// NewNoop returns a logger that discards everything.
func NewNoop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1 << 10)})) //nolint:mnd,lll // higher than any level in use
}

func newTracedHandler(opts ...LoggerOpt) *tracedHandler {
	handler := &tracedHandler{
		level:    &slog.LevelVar{},
		handlers: []slog.Handler{},
	}
	handler.level.Set(slog.LevelInfo)

	for _, opt := range opts {
		opt(handler)
	}

	if len(handler.handlers) == 0 {
		handler.handlers = []slog.Handler{slog.NewJSONHandler(os.Stderr, getDefaultHandlerOptions())}
	}

	return handler
}

var _ slog.Handler = (*tracedHandler)(nil)

// tracedHandler fans each record out to all handlers.
// The record is enriched with the trace and span id of the active span and
// the attributes stored via AddAttr; the record is also added to the span as an event.
type tracedHandler struct {
	// level is shared by all handlers and by all loggers derived via With or WithGroup.
	// The level of the individual handlers is ignored.
	level *slog.LevelVar

	handlers []slog.Handler
}

func (h *tracedHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *tracedHandler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)

	record = record.Clone()
	record.AddAttrs(FromContext(ctx)...)
	record = addTraceAndSpanIDs(span, record)

	addRecordToSpan(span, record)

	var err error
	for _, handler := range h.handlers {
		err = errors.Join(err, handler.Handle(ctx, record))
	}

	return err
}

func (h *tracedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
}

func (h *tracedHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
}

func (h *tracedHandler) derive(fn func(handler slog.Handler) slog.Handler) *tracedHandler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = fn(handler)
	}

	return &tracedHandler{level: h.level, handlers: handlers}
}

func (h *tracedHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}

func (h *tracedHandler) Level() slog.Level {
	return h.level.Level()
}

func addTraceAndSpanIDs(span trace.Span, record slog.Record) slog.Record {
	sCtx := span.SpanContext()

	if sCtx.HasTraceID() {
		record.AddAttrs(slog.String("traceID", sCtx.TraceID().String()))
	}

	if sCtx.HasSpanID() {
		record.AddAttrs(slog.String("spanID", sCtx.SpanID().String()))
	}

	return record
}

func addRecordToSpan(span trace.Span, record slog.Record) {
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("log.severity", record.Level.String()),
		attribute.String("log.message", record.Message),
	}

	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, attribute.String(a.Key, a.Value.String()))
		return true
	})

	span.AddEvent("log", trace.WithAttributes(attrs...))

	if record.Level >= slog.LevelError {
		span.SetStatus(codes.Error, record.Message)
	}
}

// Controller offers control over a logger created by this package at run time.
type Controller interface {
	SetLevel(level slog.Level)
	Level() slog.Level
}

// Unwrap returns the Controller of logger.
// If logger is not created by this package, it returns nil.
func Unwrap(logger Logger) Controller { //nolint:ireturn // TestLogger and tracedHandler
	switch l := logger.(type) {
	case *TestLogger:
		return l
	case *slog.Logger:
		if h, ok := l.Handler().(*tracedHandler); ok {
			return h
		}
	}

	return nil
}

func getDefaultHandlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource:   true,
		Level:       LevelDebug, // filtering is done by tracedHandler
		ReplaceAttr: MapLogLevelsToName,
	}
}

// getDebugHandlerOptions keeps the output readable, by removing not essential keys.
func getDebugHandlerOptions() *slog.HandlerOptions {
	opt := getDefaultHandlerOptions()
	opt.AddSource = false

	return opt
}
