// Package jsonval classifies and formats loosely typed JSON values as decoded
// by encoding/json (map[string]any, []any, float64, string, bool, nil).
package jsonval

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

type Type string

const (
	TypeNull      Type = "null"
	TypeArray     Type = "array"
	TypeObject    Type = "object"
	TypeString    Type = "string"
	TypeNumber    Type = "number"
	TypeBoolean   Type = "boolean"
	TypeUndefined Type = "undefined"
)

type undefined struct{}

// Undefined marks a value that is absent, e.g. a key present on only one side
// of a diff.
var Undefined any = undefined{}

// MarshalJSON writes an absent value as null.
func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// GetType classifies v.
func GetType(v any) Type {
	switch v.(type) {
	case nil:
		return TypeNull
	case undefined:
		return TypeUndefined
	case map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return TypeNumber
	}
	return TypeString
}

// IsExpandable reports whether v has children (objects and arrays only).
func IsExpandable(v any) bool {
	t := GetType(v)
	return t == TypeObject || t == TypeArray
}

// Keys returns the sorted keys of an object.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Display renders a leaf value the way it is shown in a tree row.
func Display(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case undefined:
		return "undefined"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case float32:
		return formatNumber(float64(x))
	case json.Number:
		return x.String()
	}
	if IsExpandable(v) {
		return Compact(v)
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Pretty encodes v as two-space indented JSON. Values that cannot be encoded
// fall back to their display form.
func Pretty(v any) string {
	if _, ok := v.(undefined); ok {
		return "undefined"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Compact encodes v as single-line JSON.
func Compact(v any) string {
	if _, ok := v.(undefined); ok {
		return "undefined"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// ParseLoose decodes v when it is a string holding JSON; anything else,
// including strings that fail to decode, is returned unchanged.
func ParseLoose(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return v
	}
	var out any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return v
	}
	return out
}

// Identical reports whether a and b are the same leaf value. Objects and
// arrays are never identical here; callers recurse into them instead.
func Identical(a, b any) bool {
	if IsExpandable(a) || IsExpandable(b) {
		return false
	}
	ta, tb := GetType(a), GetType(b)
	if ta != tb {
		return false
	}
	if ta == TypeNumber {
		fa, okA := toFloat(a)
		fb, okB := toFloat(b)
		return okA && okB && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}
