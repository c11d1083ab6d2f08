package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/NicolasHaas/gochat/pkg/chanstore"
	"github.com/NicolasHaas/gochat/pkg/credstore"
	"github.com/NicolasHaas/gochat/pkg/logging"
	"github.com/NicolasHaas/gochat/pkg/server"
)

func main() {
	cfg := server.DefaultConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "TCP bind address")
	flag.IntVar(&cfg.MaxConnections, "max-conns", cfg.MaxConnections, "Maximum concurrent client connections")
	flag.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Disconnect clients idle longer than this")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")

	usersFile := flag.String("users", "users.json", "JSON credential file path")
	usersDB := flag.String("users-db", "", "SQLite credential database path (overrides -users)")
	channelsFile := flag.String("channels-file", "channels.yaml", "YAML file the channel directory persists to")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	var creds credstore.Store
	var err error
	if *usersDB != "" {
		creds, err = credstore.OpenSQLite(*usersDB)
	} else {
		creds, err = credstore.OpenFile(*usersFile)
	}
	if err != nil {
		slog.Error("open credential store", "err", err)
		os.Exit(1)
	}

	srv := server.New(cfg, server.Dependencies{
		Credentials: creds,
		Channels:    chanstore.OpenFile(*channelsFile),
	})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
