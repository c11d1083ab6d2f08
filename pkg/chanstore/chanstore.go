// Package chanstore persists the channel directory.
//
// The directory saves its full state after every mutation; the store is a
// best-effort mirror of the in-memory state, which stays authoritative for
// the life of the process. The file backend writes YAML via a
// temp-file-then-rename so a crash mid-write cannot corrupt it.
package chanstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Record is one persisted channel.
type Record struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Members []string `yaml:"members,omitempty"`
}

// directoryYAML is the top-level on-disk layout.
type directoryYAML struct {
	Channels []Record `yaml:"channels"`
}

// Store is the channel persistence contract.
type Store interface {
	// Load returns all persisted channels. A store with no prior data
	// returns an empty slice and no error.
	Load() ([]Record, error)

	// Save replaces the persisted state with the given records.
	Save(records []Record) error
}

// FileStore persists the directory as a YAML file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// OpenFile creates a FileStore for the given path. The file itself is not
// touched until the first Save.
func OpenFile(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and parses the YAML file. A missing file yields no records.
func (fs *FileStore) Load() ([]Record, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path) //nolint:gosec // path from server config
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chanstore: read %s: %w", fs.path, err)
	}

	var dir directoryYAML
	if err := yaml.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("chanstore: parse %s: %w", fs.path, err)
	}
	return dir.Channels, nil
}

// Save writes the records to a temp file and renames it over the target.
func (fs *FileStore) Save(records []Record) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := yaml.Marshal(&directoryYAML{Channels: records})
	if err != nil {
		return fmt.Errorf("chanstore: marshal: %w", err)
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".channels-*.yaml")
	if err != nil {
		return fmt.Errorf("chanstore: save %s: %w", fs.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chanstore: save %s: %w", fs.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chanstore: save %s: %w", fs.path, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chanstore: save %s: %w", fs.path, err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chanstore: save %s: %w", fs.path, err)
	}
	return nil
}

// MemoryStore keeps records in memory, for tests.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	saves   int
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Save(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]Record, len(records))
	copy(s.records, records)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
