package server

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"sync"

	"github.com/NicolasHaas/gochat/pkg/model"
)

// SessionManager is the shared source of truth mapping session IDs to live
// sessions. Mutations hold the lock for the structural change only; no I/O
// happens under it. Lookups for IDs that raced a disconnect are no-ops.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session // sessionID -> session
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*model.Session),
	}
}

// Create registers a new session for an authenticated identity and returns
// it. The session ID is random, opaque, and unique among live sessions.
func (sm *SessionManager) Create(username string, conn io.Writer) *model.Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var id string
	for {
		b := make([]byte, 8)
		if _, err := rand.Read(b); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		id = hex.EncodeToString(b)
		if _, exists := sm.sessions[id]; !exists {
			break
		}
	}

	sess := model.NewSession(id, username, conn)
	sm.sessions[id] = sess
	return sess
}

// Get retrieves a session by ID.
func (sm *SessionManager) Get(id string) (*model.Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sess, ok := sm.sessions[id]
	return sess, ok
}

// Remove removes a session. Removing an absent ID is a no-op.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

// CurrentChannel returns a session's current channel. The boolean reports
// whether the session exists; an empty channel means no join yet.
func (sm *SessionManager) CurrentChannel(id string) (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sess, ok := sm.sessions[id]
	if !ok {
		return "", false
	}
	return sess.Channel, true
}

// SetChannel updates a session's current channel. No-op for absent IDs.
func (sm *SessionManager) SetChannel(id, channel string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.Channel = channel
	}
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// SnapshotFor returns the sessions matching pred, copied out under the read
// lock so callers can write to their transports without holding it.
func (sm *SessionManager) SnapshotFor(pred func(*model.Session) bool) []*model.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	var result []*model.Session
	for _, sess := range sm.sessions {
		if pred(sess) {
			result = append(result, sess)
		}
	}
	return result
}

// All returns all active sessions (snapshot).
func (sm *SessionManager) All() []*model.Session {
	return sm.SnapshotFor(func(*model.Session) bool { return true })
}
