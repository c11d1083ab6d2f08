// Package server implements the gochat server.
package server

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/NicolasHaas/gochat/pkg/auth"
	"github.com/NicolasHaas/gochat/pkg/chanstore"
	"github.com/NicolasHaas/gochat/pkg/credstore"
)

// DefaultChannel is the channel every session is placed in after
// authenticating.
const DefaultChannel = "general"

// Config holds server configuration.
type Config struct {
	Addr           string        // TCP bind address (e.g. "127.0.0.1:8080")
	MaxConnections int           // admission bound on concurrent connections
	IdleTimeout    time.Duration // per-read inactivity limit after auth
	MetricsAddr    string        // HTTP bind address for /metrics (empty = disabled)
}

// Dependencies holds external collaborators for the server.
// Server assumes ownership of Credentials and will Close() it on shutdown.
type Dependencies struct {
	Credentials credstore.Store
	Channels    chanstore.Store
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		MaxConnections: 100,
		IdleTimeout:    5 * time.Minute,
		MetricsAddr:    ":8081",
	}
}

// Server is the main gochat server.
type Server struct {
	cfg         Config
	gate        *auth.Gate
	sessions    *SessionManager
	channels    *ChannelDirectory
	voice       *VoiceManager
	dispatcher  *Dispatcher
	router      *Router
	metrics     *Metrics
	credentials credstore.Store
	listener    net.Listener
	active      atomic.Int64 // current admitted connections, bounded by MaxConnections
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	sessions := NewSessionManager()
	channels := NewChannelDirectory(deps.Channels)
	voice := NewVoiceManager()
	metrics := NewMetrics()
	dispatcher := NewDispatcher(sessions, channels, metrics)

	s := &Server{
		cfg:         cfg,
		gate:        auth.NewGate(deps.Credentials),
		sessions:    sessions,
		channels:    channels,
		voice:       voice,
		dispatcher:  dispatcher,
		metrics:     metrics,
		credentials: deps.Credentials,
		ctx:         ctx,
		cancel:      cancel,
	}
	s.router = NewRouter(sessions, channels, voice, dispatcher, metrics)
	return s
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Channels returns the channel directory.
func (s *Server) Channels() *ChannelDirectory {
	return s.channels
}

// Voice returns the voice manager.
func (s *Server) Voice() *VoiceManager {
	return s.voice
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
