package host

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
)

// Store is the host's persisted key/value storage plus the environment
// snapshot it hands to sandboxes. Backed by one JSON document written
// atomically on every mutation.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]string
	env    map[string]string
}

type storeFile struct {
	Values map[string]string `json:"values"`
	Env    map[string]string `json:"env"`
}

// OpenStore loads or creates the store at path.
func OpenStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]string),
		env:    make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("open store: %w", err)
	}

	var f storeFile
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("open store: corrupt %s: %w", path, err)
	}
	if f.Values != nil {
		s.values = f.Values
	}
	if f.Env != nil {
		s.env = f.Env
	}
	return s, nil
}

// Get reads a stored value.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value and persists.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persist()
}

// Remove deletes a value and persists.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.persist()
}

// Keys lists stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the environment snapshot.
func (s *Store) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.env))
	for k, v := range s.env {
		out[k] = v
	}
	return out
}

// SeedEnv merges variables into the snapshot and persists. Existing
// keys are overwritten; seeding happens before any sandbox connects.
func (s *Store) SeedEnv(vars map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range vars {
		s.env[k] = v
	}
	return s.persist()
}

// persist writes the document via tmp+rename so readers never observe a
// partial file. Caller holds s.mu.
func (s *Store) persist() error {
	data, err := sonic.Marshal(storeFile{Values: s.values, Env: s.env})
	if err != nil {
		return fmt.Errorf("persist store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("persist store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}
