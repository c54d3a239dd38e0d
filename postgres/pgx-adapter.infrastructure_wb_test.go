package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                                     "pgx",
		"   ":                                  "pgx",
		"SELECT 1":                             "pgx SELECT",
		"insert into items (text) values ($1)": "pgx INSERT",
		"\n\tUPDATE items SET text = $1":       "pgx UPDATE",
		"begin":                                "pgx BEGIN",
	}

	for sql, expected := range tests {
		assert.Equal(t, expected, spanName(sql), sql)
	}
}

func TestArgsToStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{}, argsToStrings(nil))
	assert.Equal(t, []string{"1", "text", "true", "<nil>"}, argsToStrings([]any{1, "text", true, nil}))
}
