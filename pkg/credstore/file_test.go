package credstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/NicolasHaas/gochat/pkg/credstore"
)

func TestFileStoreInsertLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	fs, err := credstore.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	if _, ok, _ := fs.Lookup("alice"); ok {
		t.Fatalf("Lookup on empty store reported a user")
	}

	if err := fs.Insert("alice", "hash-a"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	hash, ok, err := fs.Lookup("alice")
	if err != nil || !ok || hash != "hash-a" {
		t.Fatalf("Lookup = (%q, %t, %v), want (hash-a, true, nil)", hash, ok, err)
	}

	if err := fs.Insert("alice", "hash-b"); !errors.Is(err, credstore.ErrDuplicate) {
		t.Fatalf("duplicate Insert = %v, want %v", err, credstore.ErrDuplicate)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	fs, err := credstore.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := fs.Insert("alice", "hash-a"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := fs.Insert("bob", "hash-b"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	reopened, err := credstore.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for user, want := range map[string]string{"alice": "hash-a", "bob": "hash-b"} {
		hash, ok, err := reopened.Lookup(user)
		if err != nil || !ok || hash != want {
			t.Errorf("Lookup(%q) after reopen = (%q, %t, %v), want (%q, true, nil)", user, hash, ok, err, want)
		}
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")

	fs, err := credstore.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := fs.Insert("alice", "hash-a"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "users.json" {
			t.Errorf("unexpected file left in store directory: %s", e.Name())
		}
	}
}

// A save failure must not surface to the caller: the in-memory insert is
// authoritative and the registration still succeeds.
func TestFileStoreInsertSurvivesSaveFailure(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	if err := os.Mkdir(storeDir, 0700); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	fs, err := credstore.OpenFile(filepath.Join(storeDir, "users.json"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	// Replace the store directory with a regular file so the temp-file
	// write inside save fails.
	if err := os.RemoveAll(storeDir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := os.WriteFile(storeDir, []byte{}, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := fs.Insert("alice", "hash-a"); err != nil {
		t.Fatalf("Insert with failing save = %v, want nil", err)
	}

	hash, ok, err := fs.Lookup("alice")
	if err != nil || !ok || hash != "hash-a" {
		t.Fatalf("Lookup after failed save = (%q, %t, %v), want (hash-a, true, nil)", hash, ok, err)
	}

	if err := fs.Insert("alice", "hash-b"); !errors.Is(err, credstore.ErrDuplicate) {
		t.Fatalf("duplicate Insert after failed save = %v, want %v", err, credstore.ErrDuplicate)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := credstore.OpenFile(path); err == nil {
		t.Fatalf("OpenFile accepted a corrupt credential file")
	}
}

func TestMemoryStoreDuplicate(t *testing.T) {
	s := credstore.NewMemory()
	if err := s.Insert("alice", "hash-a"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert("alice", "hash-b"); !errors.Is(err, credstore.ErrDuplicate) {
		t.Fatalf("duplicate Insert = %v, want %v", err, credstore.ErrDuplicate)
	}
}
