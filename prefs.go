package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// preference keys shared by every surface
const (
	prefNoCacheEnabled   = "nocacheEnabled"
	prefExtensionEnabled = "extensionEnabled"
	prefHighlightEnabled = "highlightEnabled"
)

// prefs maps a preference key to its value
type prefs map[string]bool

// defaultPrefs returns the default table applied to absent keys. The
// cache bypass default differs between extension generations, so it is
// supplied by the caller
func defaultPrefs(noCacheDefault bool) prefs {
	return prefs{
		prefNoCacheEnabled:   noCacheDefault,
		prefExtensionEnabled: true,
		prefHighlightEnabled: true,
	}
}

// prefStore defines the interface for reading and writing persisted preferences
type prefStore interface {
	Get(ctx context.Context, names ...string) (prefs, error)
	Set(ctx context.Context, values prefs) error
}

// storageError reports a failed preference read or write
type storageError struct {
	op   string
	keys []string
	err  error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("preference %s %s: %v", e.op, strings.Join(e.keys, ","), e.err)
}

func (e *storageError) Unwrap() error {
	return e.err
}

// fileStore persists preferences as a YAML map on disk - it satisfies the
// prefStore interface
type fileStore struct {
	path     string
	defaults prefs
	mu       sync.Mutex
}

// newFileStore creates a new fileStore instance backed by path
func newFileStore(path string, defaults prefs) (*fileStore, error) {
	if path == "" {
		return nil, errors.New("preferences path cannot be empty")
	}

	return &fileStore{path: path, defaults: defaults}, nil
}

// Get returns the stored value of each named preference, falling back to
// the default table for keys that were never written
func (s *fileStore) Get(ctx context.Context, names ...string) (prefs, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storageError{op: "read", keys: names, err: err}
	}

	s.mu.Lock()
	stored, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, &storageError{op: "read", keys: names, err: err}
	}

	out := prefs{}
	for _, name := range names {
		if v, ok := stored[name]; ok {
			out[name] = v
		} else if v, ok := s.defaults[name]; ok {
			out[name] = v
		}
	}

	return out, nil
}

// Set merges values into the stored preferences. The file is replaced in a
// single rename so readers never observe a partial write
func (s *fileStore) Set(ctx context.Context, values prefs) error {
	keys := values.keys()
	if err := ctx.Err(); err != nil {
		return &storageError{op: "write", keys: keys, err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load()
	if err != nil {
		return &storageError{op: "write", keys: keys, err: err}
	}

	for k, v := range values {
		stored[k] = v
	}

	if err := s.save(stored); err != nil {
		return &storageError{op: "write", keys: keys, err: err}
	}

	return nil
}

// stored returns only the keys present on disk, without defaults
func (s *fileStore) stored() (prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *fileStore) load() (prefs, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return prefs{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	stored := prefs{}
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}

	return stored, nil
}

func (s *fileStore) save(values prefs) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}

	return nil
}

// installDefaults writes every default whose key is not yet stored, leaving
// existing user choices alone
func installDefaults(ctx context.Context, store *fileStore, defaults prefs) (prefs, error) {
	stored, err := store.stored()
	if err != nil {
		return nil, &storageError{op: "read", keys: defaults.keys(), err: err}
	}

	missing := prefs{}
	for k, v := range defaults {
		if _, ok := stored[k]; !ok {
			missing[k] = v
		}
	}

	if len(missing) == 0 {
		return missing, nil
	}

	return missing, store.Set(ctx, missing)
}

// keys returns the preference names in a stable order
func (p prefs) keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// valueOr returns the named preference or fallback when absent
func (p prefs) valueOr(name string, fallback bool) bool {
	if v, ok := p[name]; ok {
		return v
	}

	return fallback
}
