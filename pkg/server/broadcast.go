package server

import (
	"log/slog"

	"github.com/NicolasHaas/gochat/pkg/model"
)

// Dispatcher fans channel-scoped messages out to live sessions.
//
// Delivery is copy-then-release: the member set and the session snapshot
// are taken under their own locks, and all writes happen with no lock held,
// so one slow or dead peer cannot stall the rest of the server. The member
// read is point-in-time — a member who leaves between the read and the
// write may still receive one final message. That race is inherent to the
// design and deliberately not synchronized away.
type Dispatcher struct {
	sessions *SessionManager
	channels *ChannelDirectory
	metrics  *Metrics
}

// NewDispatcher creates a dispatcher over the given registries.
func NewDispatcher(sessions *SessionManager, channels *ChannelDirectory, metrics *Metrics) *Dispatcher {
	return &Dispatcher{sessions: sessions, channels: channels, metrics: metrics}
}

// Broadcast delivers message to every session whose identity is in the
// channel's member set, except excludeID. A failed write prunes the
// recipient's session from the registry; no retry is attempted.
func (d *Dispatcher) Broadcast(channel, message, excludeID string) {
	members := d.channels.MembersOf(channel)
	if len(members) == 0 {
		return
	}

	targets := d.sessions.SnapshotFor(func(s *model.Session) bool {
		return members[s.Username] && s.ID != excludeID
	})

	for _, sess := range targets {
		if err := sess.Send(message); err != nil {
			// Self-healing: a dead peer is pruned on its first failed
			// send rather than proactively detected.
			d.sessions.Remove(sess.ID)
			if d.metrics != nil {
				d.metrics.SessionsPruned.Add(1)
			}
			slog.Debug("pruned unreachable session", "session", sess.ID, "user", sess.Username, "err", err)
		}
	}
}
