package jsontree_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/jsontree"
)

type memClipboard struct {
	texts []string
	err   error
}

func (c *memClipboard) WriteText(text string) error {
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, text)
	return nil
}

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

const sample = `{
	"request": {"method": "POST", "path": "/api/v1/products"},
	"items": [{"name": "Widget", "qty": 2}, {"name": "Gadget", "qty": 1}],
	"meta.info": {"trace id": "abc"},
	"ok": true
}`

func TestPathKey(t *testing.T) {
	tests := []struct {
		path     jsontree.Path
		expected string
	}{
		{jsontree.Path{}, "$"},
		{jsontree.Path{jsontree.KeySegment("items"), jsontree.IndexSegment(0), jsontree.KeySegment("name")}, "$.items[0].name"},
		{jsontree.Path{jsontree.IndexSegment(3)}, "$[3]"},
		{jsontree.Path{jsontree.KeySegment("meta.info")}, `$["meta.info"]`},
		{jsontree.Path{jsontree.KeySegment("")}, `$[""]`},
		{jsontree.Path{jsontree.KeySegment("@timestamp")}, "$.@timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.path.Key())
			parsed, err := jsontree.ParseKey(tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.path, parsed)
		})
	}
}

func TestParseKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "items", "$.", "$[x]", "$[1", `$["a"`, "$..a", "$[-1]"} {
		_, err := jsontree.ParseKey(key)
		assert.ErrorIs(t, err, jsontree.ErrInvalidPath, key)
	}
}

func TestPathRoundTrip_EveryNode(t *testing.T) {
	root := jsontree.Build(decode(t, sample))
	count := 0
	jsontree.Walk(root, func(n *jsontree.Node) bool {
		count++
		found, ok := jsontree.LookupKey(root, n.PathKey)
		require.True(t, ok, n.PathKey)
		assert.Same(t, n, found)
		return true
	})
	assert.Equal(t, 14, count)
}

func TestViewer_DefaultsToRootExpanded(t *testing.T) {
	v := jsontree.NewViewer(decode(t, sample), &memClipboard{})
	assert.Equal(t, map[string]bool{"$": true}, v.Expanded())

	rows := v.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, "$", rows[0].PathKey)
	assert.Equal(t, []string{"items", "meta.info", "ok", "request"},
		[]string{rows[1].Key, rows[2].Key, rows[3].Key, rows[4].Key})
	assert.Equal(t, "true", rows[3].Display)
}

func TestViewer_ExpandAllCollapseAll(t *testing.T) {
	v := jsontree.NewViewer(decode(t, sample), &memClipboard{})
	v.ExpandAll()
	assert.Equal(t, map[string]bool{
		"$":              true,
		"$.items":        true,
		"$.items[0]":     true,
		"$.items[1]":     true,
		`$["meta.info"]`: true,
		"$.request":      true,
	}, v.Expanded())
	assert.Len(t, v.Rows(), 14)

	v.CollapseAll()
	assert.Equal(t, map[string]bool{"$": true}, v.Expanded())
}

func TestViewer_Toggle(t *testing.T) {
	v := jsontree.NewViewer(decode(t, sample), &memClipboard{})
	require.NoError(t, v.Toggle("$.request"))
	assert.True(t, v.IsExpanded("$.request"))
	require.NoError(t, v.Toggle("$.request"))
	assert.False(t, v.IsExpanded("$.request"))

	require.NoError(t, v.Toggle("$.ok"))
	assert.False(t, v.IsExpanded("$.ok"))

	assert.ErrorIs(t, v.Toggle("$.missing"), jsontree.ErrNodeNotFound)
}

func TestViewer_SearchExpandsAncestors(t *testing.T) {
	v := jsontree.NewViewer(decode(t, sample), &memClipboard{})

	matches := v.SetSearch("GADGET")
	assert.Equal(t, []string{"$.items[1].name"}, matches)
	expanded := v.Expanded()
	assert.True(t, expanded["$"])
	assert.True(t, expanded["$.items"])
	assert.True(t, expanded["$.items[1]"])
	assert.False(t, expanded["$.items[0]"])

	matches = v.SetSearch("trace")
	assert.Equal(t, []string{`$["meta.info"]["trace id"]`}, matches)
	assert.True(t, v.IsExpanded(`$["meta.info"]`))

	var matchRows int
	for _, r := range v.Rows() {
		if r.Match {
			matchRows++
		}
	}
	assert.Equal(t, 1, matchRows)

	assert.Empty(t, v.SetSearch("   "))
}

func TestViewer_Copy(t *testing.T) {
	cb := &memClipboard{}
	v := jsontree.NewViewer(decode(t, sample), cb, jsontree.WithFeedbackTTL(150*time.Millisecond))
	defer v.Close()

	require.NoError(t, v.CopyPath("$.items[0].name"))
	require.NoError(t, v.CopyValue("$.items[0].name"))
	require.NoError(t, v.CopyValue("$.request"))
	require.NoError(t, v.CopyJSON())

	require.Len(t, cb.texts, 4)
	assert.Equal(t, "$.items[0].name", cb.texts[0])
	assert.Equal(t, "Widget", cb.texts[1])
	assert.Equal(t, "{\n  \"method\": \"POST\",\n  \"path\": \"/api/v1/products\"\n}", cb.texts[2])
	assert.True(t, strings.HasPrefix(cb.texts[3], "{\n  \"items\": ["))

	assert.Equal(t, "JSON copied", v.Feedback())
	assert.Eventually(t, func() bool { return v.Feedback() == "" }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, v.CopyPath("$.nope"), jsontree.ErrNodeNotFound)
}

func TestViewer_CopyFailureLeavesNoFeedback(t *testing.T) {
	cb := &memClipboard{err: errors.New("denied")}
	v := jsontree.NewViewer(decode(t, sample), cb)
	defer v.Close()

	assert.Error(t, v.CopyJSON())
	assert.Empty(t, v.Feedback())
}
