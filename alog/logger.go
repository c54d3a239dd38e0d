// Package alog builds the slog loggers of the application.
// Log records are correlated with the active OpenTelemetry span.
package alog

import (
	"context"
	"log/slog"
)

// Logger is the subset of slog.Logger the application depends on.
// It favours the methods taking a context.Context, so records can be correlated with traces.
type Logger interface {
	Log(ctx context.Context, level slog.Level, msg string, args ...any)
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
}

var (
	_ Logger = (*slog.Logger)(nil)
	_ Logger = (*TestLogger)(nil)
)

const (
	// LevelInfo shows what the storage layer is doing, e.g. each repository call.
	LevelInfo = slog.Level(-8)

	// LevelDebug shows everything, e.g. every SQL statement.
	LevelDebug = slog.Level(-12)
)

// MapLogLevelsToName replaces the default name of the custom levels with a readable one.
// Use it as slog.HandlerOptions.ReplaceAttr.
func MapLogLevelsToName(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}

	level, _ := attr.Value.Any().(slog.Level)

	switch level {
	case LevelInfo:
		attr.Value = slog.StringValue("TODO:INFO")
	case LevelDebug:
		attr.Value = slog.StringValue("TODO:DEBUG")
	}

	return attr
}

// ParseLevel maps the names used in configuration files to a slog.Level.
// Unknown names return slog.LevelInfo and false.
func ParseLevel(name string) (slog.Level, bool) {
	switch name {
	case "todo:debug":
		return LevelDebug, true
	case "todo:info":
		return LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}

	return slog.LevelInfo, false
}

// Error returns an Attr for an error value.
func Error(err error) slog.Attr {
	return slog.Any("err", err)
}
