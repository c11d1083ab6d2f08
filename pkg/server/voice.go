package server

import (
	"sort"
	"sync"

	"github.com/NicolasHaas/gochat/pkg/model"
)

// VoiceManager tracks voice channel membership, keyed by identity. It is a
// membership table only; no media flows through the server.
type VoiceManager struct {
	mu       sync.RWMutex
	sessions map[string]*model.VoiceSession // identity -> voice session
}

// NewVoiceManager creates an empty voice manager.
func NewVoiceManager() *VoiceManager {
	return &VoiceManager{
		sessions: make(map[string]*model.VoiceSession),
	}
}

// Join places an identity in a voice channel, silently replacing any prior
// voice session it had.
func (vm *VoiceManager) Join(identity, channel string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.sessions[identity] = &model.VoiceSession{Username: identity, Channel: channel}
}

// Leave removes an identity's voice session, reporting whether one existed.
func (vm *VoiceManager) Leave(identity string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	_, ok := vm.sessions[identity]
	delete(vm.sessions, identity)
	return ok
}

// ToggleMute flips the mute flag and returns the new value. ok is false if
// the identity has no voice session.
func (vm *VoiceManager) ToggleMute(identity string) (muted, ok bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	sess, ok := vm.sessions[identity]
	if !ok {
		return false, false
	}
	sess.Muted = !sess.Muted
	return sess.Muted, true
}

// ToggleDeafen flips the deafen flag and returns the new value. Deafening
// forces mute; un-deafening leaves the mute flag alone.
func (vm *VoiceManager) ToggleDeafen(identity string) (deafened, ok bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	sess, ok := vm.sessions[identity]
	if !ok {
		return false, false
	}
	sess.Deafened = !sess.Deafened
	if sess.Deafened {
		sess.Muted = true
	}
	return sess.Deafened, true
}

// Get returns a copy of an identity's voice session.
func (vm *VoiceManager) Get(identity string) (model.VoiceSession, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	sess, ok := vm.sessions[identity]
	if !ok {
		return model.VoiceSession{}, false
	}
	return *sess, true
}

// MembersOf returns the identities present in a voice channel, sorted.
func (vm *VoiceManager) MembersOf(channel string) []string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	var members []string
	for identity, sess := range vm.sessions {
		if sess.Channel == channel {
			members = append(members, identity)
		}
	}
	sort.Strings(members)
	return members
}
