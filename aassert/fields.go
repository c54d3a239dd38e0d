// Package aassert has assertions beyond what testify/assert offers.
// They follow the conventions of testify: they take a *testing.T,
// report failures, and return if the assertion passed.
package aassert

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// NumFields asserts that the struct object has the expected number of exported fields.
// Fields of nested structs are counted as well, also if they are
// behind a pointer or are the element of a slice, array, or map.
//
// Use it to guard code that maps one struct onto another,
// so a new field can not be forgotten silently.
func NumFields(t *testing.T, expected int, object any, msgAndArgs ...any) bool {
	t.Helper()

	typ := reflect.TypeOf(object)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ == nil || typ.Kind() != reflect.Struct {
		return assert.Fail(t, fmt.Sprintf("invalid argument, expected a struct, got: %T", object), msgAndArgs...)
	}

	fields := countFields(typ, map[reflect.Type]bool{})
	if fields != expected {
		t.Logf("the exported fields of %s changed: check all code mapping it and its test data", typ)

		return assert.Fail(t, fmt.Sprintf("struct %s has %d fields, expected: %d", typ, fields, expected), msgAndArgs...)
	}

	return true
}

func countFields(typ reflect.Type, seen map[reflect.Type]bool) int {
	for typ.Kind() == reflect.Ptr || typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array || typ.Kind() == reflect.Map {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct || seen[typ] {
		return 0
	}

	seen[typ] = true
	defer delete(seen, typ)

	fields := 0

	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		fields += 1 + countFields(field.Type, seen)
	}

	return fields
}
