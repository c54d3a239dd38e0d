package aassert_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/todo/aassert"
)

func TestNumFields(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		object   any
		expected int
		pass     bool
	}{
		"nil":              {nil, 0, false},
		"int":              {0, 0, false},
		"slice of structs": {[]label{}, 2, false},
		"ptr to int":       {new(int), 0, false},
		"flat":             {label{}, 2, true},
		"ptr to struct":    {&label{}, 2, true},
		"miscount":         {label{}, 3, false},
		"unexported":       {withUnexported{}, 1, true},
		"no nested fields": {withTime{}, 1, true},
		"nested":           {task{}, 11, true},
		"embedded":         {embedded{}, 3, true},
		"recursive":        {node{}, 2, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pass := aassert.NumFields(new(testing.T), tt.expected, tt.object)
			assert.Equal(t, tt.pass, pass)
		})
	}
}

type (
	label struct {
		ID   int
		Name string
	}
	withUnexported struct {
		Name   string
		secret string //nolint:unused
	}
	withTime struct {
		At time.Time
	}
	task struct {
		Text     string
		Labels   []label          // 1 + 2
		Primary  *label           // 1 + 2
		ByName   map[string]label // 1 + 2
		Children []int
	}
	Base struct {
		ID int
	}
	embedded struct {
		Base
		Text string
	}
	node struct {
		Value int
		Next  *node
	}
)
