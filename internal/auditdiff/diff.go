// Package auditdiff compares old/new audit snapshots.
package auditdiff

import (
	"strconv"

	"carbon-admin-console/internal/jsonval"
)

// Change is one leaf-level difference.
type Change struct {
	Path string `json:"path"`
	Old  any    `json:"old"`
	New  any    `json:"new"`
}

// BuildDiff returns the leaf differences between oldVal and newVal. Objects
// and arrays are walked key by key (arrays by index); any other pairing that
// is not identical yields a single change at path. Keys missing on one side
// compare against jsonval.Undefined.
func BuildDiff(oldVal, newVal any, path string) []Change {
	if jsonval.Identical(oldVal, newVal) {
		return nil
	}
	if !jsonval.IsExpandable(oldVal) || !jsonval.IsExpandable(newVal) {
		return []Change{{Path: path, Old: oldVal, New: newVal}}
	}

	oldFields, newFields := fields(oldVal), fields(newVal)
	var out []Change
	for _, k := range unionKeys(oldVal, newVal) {
		o, ok := oldFields[k]
		if !ok {
			o = jsonval.Undefined
		}
		n, ok := newFields[k]
		if !ok {
			n = jsonval.Undefined
		}
		for _, c := range BuildDiff(o, n, join(path, k)) {
			if jsonval.Identical(c.Old, c.New) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func fields(v any) map[string]any {
	switch x := v.(type) {
	case map[string]any:
		return x
	case []any:
		m := make(map[string]any, len(x))
		for i, item := range x {
			m[strconv.Itoa(i)] = item
		}
		return m
	}
	return nil
}

// unionKeys lists keys of a then the keys only b has. Object keys are sorted,
// array indices ascend.
func unionKeys(a, b any) []string {
	seen := map[string]bool{}
	var keys []string
	for _, v := range []any{a, b} {
		for _, k := range orderedKeys(v) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func orderedKeys(v any) []string {
	switch x := v.(type) {
	case map[string]any:
		return jsonval.Keys(x)
	case []any:
		keys := make([]string, len(x))
		for i := range x {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}
