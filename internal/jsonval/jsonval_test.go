package jsonval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetType(t *testing.T) {
	assert.Equal(t, TypeNull, GetType(nil))
	assert.Equal(t, TypeUndefined, GetType(Undefined))
	assert.Equal(t, TypeObject, GetType(map[string]any{}))
	assert.Equal(t, TypeArray, GetType([]any{}))
	assert.Equal(t, TypeString, GetType("x"))
	assert.Equal(t, TypeNumber, GetType(1.5))
	assert.Equal(t, TypeNumber, GetType(3))
	assert.Equal(t, TypeBoolean, GetType(true))

	assert.True(t, IsExpandable([]any{1.0}))
	assert.False(t, IsExpandable("[]"))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "null", Display(nil))
	assert.Equal(t, "undefined", Display(Undefined))
	assert.Equal(t, "42", Display(42.0))
	assert.Equal(t, "0.25", Display(0.25))
	assert.Equal(t, "false", Display(false))
	assert.Equal(t, "hi", Display("hi"))
	assert.Equal(t, `{"a":[1,2]}`, Display(map[string]any{"a": []any{1.0, 2.0}}))
}

func TestPretty(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", Pretty(map[string]any{"a": 1.0}))
	assert.Equal(t, "undefined", Pretty(Undefined))
}

func TestParseLoose(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1.0}, ParseLoose(`{"a":1}`))
	assert.Equal(t, []any{"x"}, ParseLoose(` ["x"] `))
	assert.Equal(t, "not json {", ParseLoose("not json {"))
	assert.Equal(t, "", ParseLoose(""))
	assert.Equal(t, 7.0, ParseLoose(7.0))
}

func TestIdentical(t *testing.T) {
	assert.True(t, Identical(1.0, 1))
	assert.True(t, Identical("a", "a"))
	assert.True(t, Identical(nil, nil))
	assert.False(t, Identical(nil, Undefined))
	assert.False(t, Identical("1", 1.0))
	assert.False(t, Identical(map[string]any{}, map[string]any{}))
}
