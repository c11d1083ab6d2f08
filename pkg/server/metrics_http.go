package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
func (s *Server) StartMetricsHTTP() {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return // metrics endpoint disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Helper for gauge/counter lines.
	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("gochat_uptime_seconds", "Server uptime in seconds.", "gauge", uptime)

	write("gochat_connections_active", "Current admitted connections.", "gauge",
		m.ActiveConnections.Load())
	write("gochat_connections_total", "Lifetime TCP connections accepted.", "counter",
		m.TotalConnections.Load())
	write("gochat_connections_refused_total", "Connections refused at the admission bound.", "counter",
		m.RefusedConnections.Load())
	write("gochat_disconnects_total", "Total client disconnects.", "counter",
		m.TotalDisconnects.Load())
	write("gochat_idle_timeouts_total", "Disconnects caused by the inactivity limit.", "counter",
		m.IdleTimeouts.Load())

	write("gochat_auth_success_total", "Successful authentication attempts.", "counter",
		m.SuccessfulAuths.Load())
	write("gochat_auth_failed_total", "Failed authentication attempts.", "counter",
		m.FailedAuths.Load())

	write("gochat_chat_messages_total", "Chat lines accepted for broadcast.", "counter",
		m.ChatMessagesSent.Load())
	write("gochat_sessions_pruned_total", "Sessions removed after a failed send.", "counter",
		m.SessionsPruned.Load())

	write("gochat_channels_created_total", "Channels created.", "counter",
		m.ChannelsCreated.Load())
}
