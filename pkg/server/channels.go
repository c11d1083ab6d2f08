package server

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/NicolasHaas/gochat/pkg/chanstore"
	"github.com/NicolasHaas/gochat/pkg/model"
)

// ChannelDirectory owns channel metadata and per-channel membership.
// Membership is keyed by identity (display name), not session ID.
//
// Every mutation is mirrored to the config store after the lock is
// released; a failed save is logged and the in-memory state stays
// authoritative. Channels are never deleted.
type ChannelDirectory struct {
	mu       sync.RWMutex
	channels map[string]*model.Channel
	store    chanstore.Store
}

// ChannelInfo is a read-only listing entry.
type ChannelInfo struct {
	Name    string
	Kind    model.Kind
	Members int
}

// NewChannelDirectory creates an empty directory backed by the given store.
// A nil store disables persistence (used by tests).
func NewChannelDirectory(store chanstore.Store) *ChannelDirectory {
	return &ChannelDirectory{
		channels: make(map[string]*model.Channel),
		store:    store,
	}
}

// Bootstrap loads persisted channels, seeding the defaults when the store
// has no prior data. A load failure is logged and the defaults are used;
// persistence problems are never fatal.
func (cd *ChannelDirectory) Bootstrap() {
	var records []chanstore.Record
	if cd.store != nil {
		var err error
		records, err = cd.store.Load()
		if err != nil {
			slog.Error("failed to load channel directory, starting with defaults", "err", err)
			records = nil
		}
	}

	cd.mu.Lock()
	if len(records) == 0 {
		for _, def := range []struct {
			name string
			kind model.Kind
		}{
			{DefaultChannel, model.KindText},
			{"random", model.KindText},
			{"voice-lobby", model.KindVoice},
			{"gaming", model.KindVoice},
		} {
			cd.channels[def.name] = model.NewChannel(def.name, def.kind)
		}
		slog.Info("created default channels", "count", len(cd.channels))
	} else {
		for _, rec := range records {
			kind, ok := model.ParseKind(rec.Kind)
			if !ok {
				slog.Warn("skipping channel with unknown kind", "name", rec.Name, "kind", rec.Kind)
				continue
			}
			ch := model.NewChannel(rec.Name, kind)
			for _, member := range rec.Members {
				ch.Members[member] = true
			}
			cd.channels[rec.Name] = ch
		}
		slog.Info("loaded channel directory", "count", len(cd.channels))
	}
	snapshot := cd.recordsLocked()
	cd.mu.Unlock()

	cd.persist(snapshot)
}

// Create inserts an empty channel of the given kind. Returns false without
// mutation if the name is already taken.
func (cd *ChannelDirectory) Create(name string, kind model.Kind) bool {
	cd.mu.Lock()
	if _, exists := cd.channels[name]; exists {
		cd.mu.Unlock()
		return false
	}
	cd.channels[name] = model.NewChannel(name, kind)
	snapshot := cd.recordsLocked()
	cd.mu.Unlock()

	cd.persist(snapshot)
	return true
}

// Exists reports whether a channel name is taken.
func (cd *ChannelDirectory) Exists(name string) bool {
	cd.mu.RLock()
	defer cd.mu.RUnlock()
	_, ok := cd.channels[name]
	return ok
}

// Get returns a read-only copy of a channel.
func (cd *ChannelDirectory) Get(name string) (model.Channel, bool) {
	cd.mu.RLock()
	defer cd.mu.RUnlock()
	ch, ok := cd.channels[name]
	if !ok {
		return model.Channel{}, false
	}
	return ch.Snapshot(), true
}

// Join adds an identity to a channel's member set. Idempotent; a missing
// channel is a no-op, not an error.
func (cd *ChannelDirectory) Join(name, identity string) {
	cd.mu.Lock()
	ch, ok := cd.channels[name]
	if !ok || ch.Members[identity] {
		cd.mu.Unlock()
		return
	}
	ch.Members[identity] = true
	snapshot := cd.recordsLocked()
	cd.mu.Unlock()

	cd.persist(snapshot)
}

// Leave removes an identity from a channel's member set if present.
func (cd *ChannelDirectory) Leave(name, identity string) {
	cd.mu.Lock()
	ch, ok := cd.channels[name]
	if !ok || !ch.Members[identity] {
		cd.mu.Unlock()
		return
	}
	delete(ch.Members, identity)
	snapshot := cd.recordsLocked()
	cd.mu.Unlock()

	cd.persist(snapshot)
}

// LeaveAll removes an identity from every channel. Used on disconnect: a
// session's recorded channel can be stale, so cleanup sweeps everything.
func (cd *ChannelDirectory) LeaveAll(identity string) {
	cd.mu.Lock()
	changed := false
	for _, ch := range cd.channels {
		if ch.Members[identity] {
			delete(ch.Members, identity)
			changed = true
		}
	}
	if !changed {
		cd.mu.Unlock()
		return
	}
	snapshot := cd.recordsLocked()
	cd.mu.Unlock()

	cd.persist(snapshot)
}

// MembersOf returns a copy of a channel's member set. Empty for missing
// channels.
func (cd *ChannelDirectory) MembersOf(name string) map[string]bool {
	cd.mu.RLock()
	defer cd.mu.RUnlock()
	ch, ok := cd.channels[name]
	if !ok {
		return nil
	}
	members := make(map[string]bool, len(ch.Members))
	for identity := range ch.Members {
		members[identity] = true
	}
	return members
}

// List returns all channels with their member counts, unordered.
func (cd *ChannelDirectory) List() []ChannelInfo {
	cd.mu.RLock()
	defer cd.mu.RUnlock()
	infos := make([]ChannelInfo, 0, len(cd.channels))
	for _, ch := range cd.channels {
		infos = append(infos, ChannelInfo{
			Name:    ch.Name,
			Kind:    ch.Kind,
			Members: len(ch.Members),
		})
	}
	return infos
}

// recordsLocked snapshots the directory as store records. Caller holds
// cd.mu. Names and members are sorted so saved files are deterministic.
func (cd *ChannelDirectory) recordsLocked() []chanstore.Record {
	records := make([]chanstore.Record, 0, len(cd.channels))
	for _, ch := range cd.channels {
		members := make([]string, 0, len(ch.Members))
		for identity := range ch.Members {
			members = append(members, identity)
		}
		sort.Strings(members)
		records = append(records, chanstore.Record{
			Name:    ch.Name,
			Kind:    ch.Kind.String(),
			Members: members,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

// persist mirrors a snapshot to the config store, outside any lock.
func (cd *ChannelDirectory) persist(records []chanstore.Record) {
	if cd.store == nil {
		return
	}
	if err := cd.store.Save(records); err != nil {
		slog.Error("failed to save channel directory", "err", err)
	}
}
