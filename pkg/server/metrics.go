package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections   atomic.Int64 // lifetime TCP connections accepted
	ActiveConnections  atomic.Int64 // current admitted connections
	RefusedConnections atomic.Int64 // connections refused at the admission bound
	FailedAuths        atomic.Int64 // failed authentication attempts
	SuccessfulAuths    atomic.Int64 // successful authentication attempts
	TotalDisconnects   atomic.Int64 // total client disconnects (clean + unclean)
	IdleTimeouts       atomic.Int64 // disconnects caused by the inactivity limit

	// Chat counters
	ChatMessagesSent atomic.Int64 // chat lines accepted for broadcast
	SessionsPruned   atomic.Int64 // sessions removed after a failed send

	// Channel counters
	ChannelsCreated atomic.Int64 // channels created during this run
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections  int64 `json:"active_connections"`
	TotalConnections   int64 `json:"total_connections"`
	RefusedConnections int64 `json:"refused_connections"`
	SuccessfulAuths    int64 `json:"successful_auths"`
	FailedAuths        int64 `json:"failed_auths"`
	TotalDisconnects   int64 `json:"total_disconnects"`
	IdleTimeouts       int64 `json:"idle_timeouts"`

	ChatMessagesSent int64 `json:"chat_messages_sent"`
	SessionsPruned   int64 `json:"sessions_pruned"`

	ChannelsCreated int64 `json:"channels_created"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:             uptime.Truncate(time.Second).String(),
		UptimeSeconds:      int64(uptime.Seconds()),
		ActiveConnections:  m.ActiveConnections.Load(),
		TotalConnections:   m.TotalConnections.Load(),
		RefusedConnections: m.RefusedConnections.Load(),
		SuccessfulAuths:    m.SuccessfulAuths.Load(),
		FailedAuths:        m.FailedAuths.Load(),
		TotalDisconnects:   m.TotalDisconnects.Load(),
		IdleTimeouts:       m.IdleTimeouts.Load(),
		ChatMessagesSent:   m.ChatMessagesSent.Load(),
		SessionsPruned:     m.SessionsPruned.Load(),
		ChannelsCreated:    m.ChannelsCreated.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"refused", s.RefusedConnections,
		"chat_msgs", s.ChatMessagesSent,
		"pruned", s.SessionsPruned,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
