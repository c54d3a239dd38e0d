package alog

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test returns a logger for unit tests, logging on LevelDebug.
// It offers assertions on the logged lines, following the style of testify:
// every assertion returns whether it was successful.
func Test(t *testing.T) *TestLogger {
	t.Helper()

	buf := &lineBuffer{mu: sync.Mutex{}, lines: []string{}}

	return &TestLogger{
		Logger: New(
			WithLevel(LevelDebug),
			WithHandler(slog.NewTextHandler(buf, getDebugHandlerOptions())),
		),
		t:   t,
		buf: buf,
	}
}

// TestLogger can be injected wherever a *slog.Logger or Logger is expected,
// via its embedded Logger.
type TestLogger struct {
	*slog.Logger

	t   *testing.T
	buf *lineBuffer
}

var _ Controller = (*TestLogger)(nil)

func (l *TestLogger) SetLevel(level slog.Level) {
	Unwrap(l.Logger).SetLevel(level)
}

func (l *TestLogger) Level() slog.Level {
	return Unwrap(l.Logger).Level()
}

// String returns the complete log output.
func (l *TestLogger) String() string {
	return strings.Join(l.Lines(), "")
}

func (l *TestLogger) Lines() []string {
	return l.buf.snapshot()
}

// Empty asserts that nothing is logged.
func (l *TestLogger) Empty(msgAndArgs ...any) bool {
	l.t.Helper()

	if n := len(l.Lines()); n > 0 {
		return assert.Fail(l.t, fmt.Sprintf("logger is not empty, it has %d line(s)", n), msgAndArgs...)
	}

	return true
}

// NotEmpty asserts that at least one line is logged.
func (l *TestLogger) NotEmpty(msgAndArgs ...any) bool {
	l.t.Helper()

	if len(l.Lines()) == 0 {
		return assert.Fail(l.t, "logger is empty, should not be", msgAndArgs...)
	}

	return true
}

// Contains asserts that at least one line contains the substring.
func (l *TestLogger) Contains(substring string, msgAndArgs ...any) bool {
	l.t.Helper()

	for _, line := range l.Lines() {
		if strings.Contains(line, substring) {
			return true
		}
	}

	return assert.Fail(l.t, "log output does not have a line which contains: "+substring, msgAndArgs...)
}

// NotContains asserts that no line contains the substring.
func (l *TestLogger) NotContains(substring string, msgAndArgs ...any) bool {
	l.t.Helper()

	for _, line := range l.Lines() {
		if strings.Contains(line, substring) {
			return assert.Fail(l.t, "log output contains: "+substring+", should not be", msgAndArgs...)
		}
	}

	return true
}

// Total asserts that exactly total lines are logged.
func (l *TestLogger) Total(total int, msgAndArgs ...any) bool {
	l.t.Helper()

	if n := len(l.Lines()); n != total {
		return assert.Fail(l.t, fmt.Sprintf("logger does not have %d lines, it has: %d", total, n), msgAndArgs...)
	}

	return true
}

// lineBuffer keeps each write as one line, slog handlers write each record with one call.
type lineBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = append(b.lines, string(p))

	return len(p), nil
}

func (b *lineBuffer) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.lines...)
}
