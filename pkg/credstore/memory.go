package credstore

import "sync"

// MemoryStore provides an in-memory Store implementation for tests.
// It mirrors the file and SQLite stores' duplicate handling.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{users: make(map[string]string)}
}

func (s *MemoryStore) Lookup(username string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.users[username]
	return hash, ok, nil
}

func (s *MemoryStore) Insert(username, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return ErrDuplicate
	}
	s.users[username] = hash
	return nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
