package server

import (
	"fmt"
	"log/slog"
	"net"
)

// Start binds the TCP listener and begins accepting connections in the
// background. Failure to bind is the only fatal startup condition.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = ln
	slog.Info("listening", "addr", s.cfg.Addr)

	go s.acceptLoop(ln)
	return nil
}

// acceptLoop admits connections up to the configured bound. Connections
// over the bound are refused before any handler resources are allocated
// and before any prompt is sent.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				slog.Error("accept error", "err", err)
				continue
			}
		}

		s.metrics.TotalConnections.Add(1)

		if s.active.Add(1) > int64(s.cfg.MaxConnections) {
			s.active.Add(-1)
			s.metrics.RefusedConnections.Add(1)
			slog.Debug("connection refused: server full", "remote", conn.RemoteAddr())
			_, _ = conn.Write([]byte("Server is full. Try again later.\n"))
			_ = conn.Close()
			continue
		}

		go s.handleConn(conn)
	}
}
