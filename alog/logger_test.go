package alog_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/todo/alog"
)

var ctx = context.Background()

const applicationMsg = "application message"

func TestMapLogLevelsToName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level    slog.Level
		expected string
	}{
		"todo debug": {alog.LevelDebug, "TODO:DEBUG"},
		"todo info":  {alog.LevelInfo, "TODO:INFO"},
		"slog debug": {slog.LevelDebug, "DEBUG"},
		"slog error": {slog.LevelError, "ERROR"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			attr := alog.MapLogLevelsToName(nil, slog.Any(slog.LevelKey, tt.level))
			assert.Equal(t, tt.expected, attr.Value.String())
		})
	}

	t.Run("other keys are untouched", func(t *testing.T) {
		t.Parallel()

		attr := alog.MapLogLevelsToName(nil, slog.String("some", "value"))
		assert.Equal(t, slog.String("some", "value"), attr)
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, ok := alog.ParseLevel("todo:debug")
	assert.True(t, ok)
	assert.Equal(t, alog.LevelDebug, level)

	level, ok = alog.ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	level, ok = alog.ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestAddAttr(t *testing.T) {
	t.Parallel()

	t.Run("add first attribute", func(t *testing.T) {
		t.Parallel()

		ctx := alog.AddAttr(ctx, slog.String("some", "attr")) //nolint:govet // shadow ctx to not overwrite it for other tests

		assert.Len(t, alog.FromContext(ctx), 1)
	})

	t.Run("add additional attributes", func(t *testing.T) {
		t.Parallel()

		ctx := alog.AddAttr(ctx, slog.String("initial", "attr")) //nolint:govet // shadow ctx to not overwrite it for other tests
		ctx = alog.AddAttrs(ctx, slog.String("some", "attr"), slog.String("other", "attr"))

		assert.Len(t, alog.FromContext(ctx), 3)
	})

	t.Run("sibling contexts do not share attributes", func(t *testing.T) {
		t.Parallel()

		parent := alog.AddAttrs(ctx, slog.String("a", "1"), slog.String("b", "2"))
		sibling0 := alog.AddAttr(parent, slog.String("c", "3"))
		sibling1 := alog.AddAttr(parent, slog.String("d", "4"))

		assert.Equal(t, "c", alog.FromContext(sibling0)[2].Key)
		assert.Equal(t, "d", alog.FromContext(sibling1)[2].Key)
	})
}

func TestClearAttrs(t *testing.T) {
	t.Parallel()

	ctx := alog.AddAttr(ctx, slog.String("some", "attr")) //nolint:govet // shadow ctx to not overwrite it for other tests
	ctx = alog.ClearAttrs(ctx)

	assert.Empty(t, alog.FromContext(ctx))
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	attrs := alog.FromContext(ctx)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)
}

func TestError(t *testing.T) {
	t.Parallel()

	got := alog.Error(errors.New("my-error")) //nolint:err113
	assert.Equal(t, "err", got.Key)
	assert.Equal(t, "err=my-error", got.String())
}
