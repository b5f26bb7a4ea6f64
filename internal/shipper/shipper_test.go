package shipper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/localstore"
	"carbon-admin-console/internal/model"
)

type fakeProducer struct {
	batches [][]model.LogRecord
	err     error
}

func (p *fakeProducer) Produce(_ context.Context, records []model.LogRecord) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.batches = append(p.batches, records)
	return len(records), nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) count() int {
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestReadRecords_KeepsPartialLine(t *testing.T) {
	input := "22/01/24 14:30:45 INFO a: one\n22/01/24 14:30:46 INFO a: tw"
	records, lines, consumed, err := ReadRecords(strings.NewReader(input), "f.log", model.KindSystem)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.EqualValues(t, 1, lines)
	assert.EqualValues(t, len("22/01/24 14:30:45 INFO a: one\n"), consumed)
}

func TestFindLogFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "application_2", "c.log"), "")
	writeFile(t, filepath.Join(dir, "application_1", "c.ndjson"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	files, err := FindLogFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "application_1", "c.ndjson"),
		filepath.Join(dir, "application_2", "c.log"),
	}, files)
}

func TestShipper_ResumesFromOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, "22/01/24 14:30:45 INFO a: one\n22/01/24 14:30:46 INFO a: two\n")

	producer := &fakeProducer{}
	store := localstore.NewMemory()
	s := New(dir, model.KindSystem, 1, producer, store)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	assert.Len(t, producer.batches, 2)

	stats, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Records)

	appendFile(t, path, `{"kind":"audit","action":"login"}`+"\n")
	stats, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, model.KindAudit, producer.batches[2][0].Kind)
	assert.Equal(t, 3, producer.count())
}

func TestShipper_FailedProduceKeepsOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, "22/01/24 14:30:45 INFO a: one\n")

	producer := &fakeProducer{err: errors.New("broker down")}
	store := localstore.NewMemory()
	s := New(dir, model.KindSystem, 10, producer, store)

	_, err := s.Run(context.Background())
	assert.ErrorContains(t, err, "broker down")
	_, ok := store.Get(OffsetKey(path))
	assert.False(t, ok)

	producer.err = nil
	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Records)
}

func TestShipper_TruncatedFileRestarts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, "22/01/24 14:30:45 INFO a: one\n")

	producer := &fakeProducer{}
	store := localstore.NewMemory()
	require.NoError(t, store.Set(OffsetKey(path), "9999"))

	stats, err := New(dir, model.KindSystem, 10, producer, store).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Records)
	v, _ := store.Get(OffsetKey(path))
	assert.Equal(t, "30", v)
}
