package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/apiclient"
	"carbon-admin-console/internal/jsontree"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/timeline"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--state", filepath.Join(t.TempDir(), "state.json")}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "", "parse", "status:500 dur>=1000 timeout")
	require.NoError(t, err)
	assert.Contains(t, out, "duration_ms >= 1000")
	assert.Contains(t, out, "status_code : 500")
	assert.Contains(t, out, `text "timeout"`)
	assert.Contains(t, out, "min_duration=1000")
}

func TestDiffCommand(t *testing.T) {
	out, err := run(t, "", "diff", `{"name":"a","n":1}`, `{"name":"b","n":1}`)
	require.NoError(t, err)
	assert.Equal(t, "- name: a\n+ name: b\n", out)
}

func TestDiffCommand_ReadsFiles(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.json")
	require.NoError(t, os.WriteFile(oldFile, []byte(`{"role":"user"}`), 0o600))

	out, err := run(t, `{"role":"admin"}`, "diff", oldFile, "-", "--mode", "split")
	require.NoError(t, err)
	assert.Contains(t, out, "role | user | admin")
}

func TestSearchRequiresLogin(t *testing.T) {
	_, err := run(t, "", "search", "status:500")
	assert.ErrorContains(t, err, "not logged in")
}

func TestReadJSONArg(t *testing.T) {
	v, err := readJSONArg(nil, `{"inline":true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"inline":true}`, v)

	v, err = readJSONArg(strings.NewReader("[1]"), "-")
	require.NoError(t, err)
	assert.Equal(t, "[1]", v)
}

func TestCell(t *testing.T) {
	assert.Equal(t, "-", cell(""))
	assert.Equal(t, "a b", cell("a\n  b"))
	long := strings.Repeat("x", 100)
	assert.Len(t, []rune(cell(long)), maxCellWidth)
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	records := []model.LogRecord{
		{Kind: model.KindError, Timestamp: "2024-05-01T10:00:00Z", Fields: map[string]any{"status_code": 500.0}},
	}
	require.NoError(t, printRecords(&buf, records, []string{"timestamp", "kind", "status_code", "path"}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"TIMESTAMP", "KIND", "STATUS_CODE", "PATH"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2024-05-01T10:00:00Z", "error", "500", "-"}, strings.Fields(lines[1]))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}

func pageOf(n, page, perPage, totalPages int) *apiclient.Envelope[[]model.LogRecord] {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	data := make([]model.LogRecord, n)
	for i := range data {
		offset := (page-1)*perPage + i
		data[i] = model.LogRecord{
			Kind:      model.KindSystem,
			Timestamp: base.Add(-time.Duration(offset) * time.Second).Format(time.RFC3339),
			Fields:    map[string]any{"i": fmt.Sprint(offset)},
		}
	}
	return &apiclient.Envelope[[]model.LogRecord]{
		Data:       data,
		Pagination: &model.Pagination{CurrentPage: page, PerPage: perPage, TotalPages: totalPages},
	}
}

func TestCollect_StopsAtLastPage(t *testing.T) {
	var calls int
	records, err := collect(context.Background(), func(_ context.Context, page int) (*apiclient.Envelope[[]model.LogRecord], error) {
		calls++
		n := 10
		if page == 2 {
			n = 3
		}
		return pageOf(n, page, 10, 2), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, records, 13)
	assert.Equal(t, "0", records[0].String("i"))
}

func TestCollect_CapsAtRawViewLimit(t *testing.T) {
	var calls int
	records, err := collect(context.Background(), func(_ context.Context, page int) (*apiclient.Envelope[[]model.LogRecord], error) {
		calls++
		return pageOf(400, page, 400, 10), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, records, timeline.RawViewLimit)
}

func TestCollect_Error(t *testing.T) {
	_, err := collect(context.Background(), func(context.Context, int) (*apiclient.Envelope[[]model.LogRecord], error) {
		return nil, apiclient.ErrUnauthorized
	})
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}

func TestPrintTree(t *testing.T) {
	v := jsontree.NewViewer(map[string]any{"user": map[string]any{"id": 1.0}}, nil)
	v.ExpandAll()
	v.SetSearch("id")
	var buf bytes.Buffer
	printTree(&buf, v.Rows())
	out := buf.String()
	assert.Contains(t, out, "▾ user (object, 1)")
	assert.Contains(t, out, "id: 1  *")
}
