package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// Store is the JSON document persisted between restarts. It is read once
// at startup, merged on update and rewritten on every change.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data map[string]any
}

// RainSection is the "rain" part of the store.
type RainSection struct {
	Level float64 `mapstructure:"level"`
}

// NewStore creates an empty store backed by path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger.With("component", "status"),
		data:   make(map[string]any),
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory document with the file contents.
// A missing file leaves the store empty and is not an error.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("no status file, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read status %s: %w", s.path, err)
	}

	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse status %s: %w", s.path, err)
	}
	if data == nil {
		// a literal null
		s.logger.Warn("status file holds null, starting empty", "path", s.path)
		data = make(map[string]any)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Update deep-merges changes into the document. Nested maps are merged key
// by key; every other value replaces what was there.
func (s *Store) Update(changes map[string]any) {
	s.mu.Lock()
	merge(s.data, changes)
	s.mu.Unlock()
}

// Write stores the document atomically: a temp file in the same directory
// is synced and renamed over the target.
func (s *Store) Write() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write status: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close status: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename status: %w", err)
	}
	return nil
}

// Save merges changes and writes the result.
func (s *Store) Save(changes map[string]any) error {
	s.Update(changes)
	return s.Write()
}

// Dump returns a deep copy of the document.
func (s *Store) Dump() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.data)
}

// Decode copies one top-level section into out, which must be a pointer
// to a struct with mapstructure tags. A missing section leaves out as is.
func (s *Store) Decode(section string, out any) error {
	s.mu.Lock()
	v, ok := s.data[section]
	if ok {
		v = cloneValue(v)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("decode %s: %w", section, err)
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", section, err)
	}
	return nil
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		srcMap, ok := v.(map[string]any)
		if !ok {
			dst[k] = cloneValue(v)
			continue
		}
		dstMap, ok := dst[k].(map[string]any)
		if !ok {
			dstMap = make(map[string]any, len(srcMap))
			dst[k] = dstMap
		}
		merge(dstMap, srcMap)
	}
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return clone(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
