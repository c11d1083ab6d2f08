package server

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Run starts the server and blocks until a shutdown signal.
func (s *Server) Run() error {
	if s.credentials == nil {
		return fmt.Errorf("server: missing credential store dependency")
	}
	defer func() { _ = s.credentials.Close() }()

	// Load or seed the channel directory. Persistence problems are
	// logged, never fatal.
	s.channels.Bootstrap()

	if err := s.Start(); err != nil {
		return err
	}

	slog.Info("gochat server running",
		"addr", s.cfg.Addr,
		"max_connections", s.cfg.MaxConnections,
	)

	// Metrics HTTP endpoint plus periodic summary logging.
	s.StartMetricsHTTP()
	s.metrics.StartPeriodicLog(60*time.Second, s.ctx.Done())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	s.Shutdown()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
}
