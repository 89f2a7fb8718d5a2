package paramset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore persists parameter sets as JSON files, one per set.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-backed store. If baseDir is empty, defaults
// to ~/.config/seamweave/paramsets/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "seamweave", "paramsets")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create paramset dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) setPath(name string) string {
	return filepath.Join(s.baseDir, sanitize(name)+".json")
}

// sanitize maps a set name to a safe file stem.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
}

// Get loads one set by name. A set that does not exist returns nil.
func (s *FileStore) Get(name string) (*Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.setPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read parameter set: %w", err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse parameter set %q: %w", name, err)
	}
	if set.Name == "" {
		set.Name = name
	}
	return &set, nil
}

// Save writes a set, replacing any previous one with the same name.
func (s *FileStore) Save(set *Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal parameter set: %w", err)
	}
	if err := os.WriteFile(s.setPath(set.Name), data, 0o600); err != nil {
		return fmt.Errorf("write parameter set: %w", err)
	}
	return nil
}

// Delete removes a set. Deleting a missing set is not an error.
func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.setPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove parameter set: %w", err)
	}
	return nil
}

// List returns the stored set names, sorted.
func (s *FileStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read paramset dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
