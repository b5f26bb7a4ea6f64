package localstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/localstore"
	"carbon-admin-console/internal/model"
)

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := localstore.Open(path)
	require.NoError(t, err)

	_, ok := s.Get("auth_token")
	assert.False(t, ok)
	assert.Equal(t, path, s.Path())
}

func TestSetPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := localstore.Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set("auth_token", "abc"))
	require.NoError(t, s.Set(localstore.KeyLanguage, "vi"))

	reopened, err := localstore.Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("auth_token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not linger")
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := localstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))

	require.NoError(t, s.Delete("a", "missing"))

	reopened, err := localstore.Open(path)
	require.NoError(t, err)
	_, ok := reopened.Get("a")
	assert.False(t, ok)
	_, ok = reopened.Get("b")
	assert.True(t, ok)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := localstore.Open(path)
	assert.Error(t, err)
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := localstore.Open(path)
	require.NoError(t, err)
	_, ok := s.Get("x")
	assert.False(t, ok)
}

func TestColumns(t *testing.T) {
	s := localstore.NewMemory()

	_, ok := s.Columns(model.KindAudit)
	assert.False(t, ok)

	require.NoError(t, s.SetColumns(model.KindAudit, []string{"timestamp", "action"}))
	cols, ok := s.Columns(model.KindAudit)
	assert.True(t, ok)
	assert.Equal(t, []string{"timestamp", "action"}, cols)

	raw, _ := s.Get("logCols_audit")
	assert.Equal(t, `["timestamp","action"]`, raw)

	require.NoError(t, s.Set("logCols_system", "oops"))
	_, ok = s.Columns(model.KindSystem)
	assert.False(t, ok)
}
