package credstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// userDatabase is the on-disk JSON layout, kept compatible with the
// legacy users.json format: {"users": {"name": "hash"}}.
type userDatabase struct {
	Users map[string]string `json:"users"`
}

// FileStore keeps credentials in a single JSON file. The full map is held
// in memory; every Insert rewrites the file via a temp-file-then-rename so
// a crash mid-write cannot corrupt it.
type FileStore struct {
	mu   sync.Mutex
	path string
	db   userDatabase
}

// OpenFile loads (or initialises) a JSON credential file.
// A missing file is not an error; it is created on first Insert.
func OpenFile(path string) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		db:   userDatabase{Users: make(map[string]string)},
	}

	data, err := os.ReadFile(path) //nolint:gosec // path from server config
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &fs.db); err != nil {
		return nil, fmt.Errorf("credstore: parse %s: %w", path, err)
	}
	if fs.db.Users == nil {
		fs.db.Users = make(map[string]string)
	}
	return fs, nil
}

// Lookup returns the stored hash for a username.
func (fs *FileStore) Lookup(username string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	hash, ok := fs.db.Users[username]
	return hash, ok, nil
}

// Insert stores a new credential and rewrites the file. A failed save is
// logged, not returned: the in-memory state stays authoritative for the
// running process and the next successful save catches up.
func (fs *FileStore) Insert(username, hash string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.db.Users[username]; exists {
		return ErrDuplicate
	}
	fs.db.Users[username] = hash

	if err := fs.save(); err != nil {
		slog.Error("failed to save credential store", "path", fs.path, "err", err)
	}
	return nil
}

// save writes the database to a temp file in the same directory and
// renames it over the target. Caller holds fs.mu.
func (fs *FileStore) save() error {
	data, err := json.MarshalIndent(&fs.db, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Close is a no-op for FileStore.
func (fs *FileStore) Close() error {
	return nil
}
