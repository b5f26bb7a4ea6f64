// Package localstore persists client state (the CLI's equivalent of browser
// local storage) as a JSON object of string keys and values.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/model"
)

// Well-known keys besides the session ones.
const (
	KeyLanguage = "i18nextLng"
	columnsKey  = "logCols_"
)

// ColumnsKey is the key holding the column selection of a stream, e.g.
// logCols_system.
func ColumnsKey(kind model.LogKind) string {
	return columnsKey + string(kind)
}

type State map[string]string

type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
	Columns(kind model.LogKind) ([]string, bool)
	SetColumns(kind model.LogKind, cols []string) error
	Path() string
}

type fileStore struct {
	filePath string
	mu       sync.RWMutex
	state    State
}

// Open loads the store at filePath; a missing or empty file starts fresh.
func Open(filePath string) (Store, error) {
	s := &fileStore{filePath: filePath}
	state, err := s.load()
	if err != nil {
		return nil, err
	}
	s.state = state
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory() Store {
	return &fileStore{state: State{}}
}

func (s *fileStore) load() (State, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("file", s.filePath).Msg("Local store not found, starting fresh.")
			return State{}, nil
		}
		log.Error().Err(err).Str("file", s.filePath).Msg("Failed to read local store")
		return nil, err
	}
	if len(data) == 0 {
		log.Warn().Str("file", s.filePath).Msg("Local store is empty, starting fresh.")
		return State{}, nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Error().Err(err).Str("file", s.filePath).Msg("Failed to unmarshal local store")
		return nil, fmt.Errorf("decode %s: %w", s.filePath, err)
	}
	if state == nil {
		state = State{}
	}
	log.Debug().Str("file", s.filePath).Int("keys", len(state)).Msg("Loaded local store")
	return state, nil
}

// save writes the state through a temp file and rename. Callers hold mu.
func (s *fileStore) save() error {
	if s.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal local store")
		return err
	}
	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	tempFilePath := s.filePath + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0o600); err != nil {
		log.Error().Err(err).Str("file", tempFilePath).Msg("Failed to write temporary store file")
		return err
	}
	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		log.Error().Err(err).Str("from", tempFilePath).Str("to", s.filePath).Msg("Failed to rename store file")
		_ = os.Remove(tempFilePath)
		return err
	}
	log.Debug().Str("file", s.filePath).Int("keys", len(s.state)).Msg("Saved local store")
	return nil
}

func (s *fileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

func (s *fileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
	return s.save()
}

func (s *fileStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, k := range keys {
		if _, ok := s.state[k]; ok {
			delete(s.state, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save()
}

// Columns reads a stream's column selection. Unreadable values count as
// unset.
func (s *fileStore) Columns(kind model.LogKind) ([]string, bool) {
	raw, ok := s.Get(ColumnsKey(kind))
	if !ok {
		return nil, false
	}
	var cols []string
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("Ignoring unreadable column selection")
		return nil, false
	}
	return cols, true
}

func (s *fileStore) SetColumns(kind model.LogKind, cols []string) error {
	if cols == nil {
		cols = []string{}
	}
	data, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	return s.Set(ColumnsKey(kind), string(data))
}

func (s *fileStore) Path() string {
	return s.filePath
}
