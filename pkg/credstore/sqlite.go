package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists credentials in a SQLite database. SQLite commits
// are atomic, so a crash mid-insert cannot corrupt the store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite credential database and runs the
// schema migration.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("credstore: open db: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credstore: set WAL: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credstore: set busy_timeout: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		username      TEXT NOT NULL PRIMARY KEY CHECK(length(username) > 0 AND length(username) <= 32),
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credstore: migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Lookup returns the stored hash for a username.
func (s *SQLiteStore) Lookup(username string) (string, bool, error) {
	var hash string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT password_hash FROM users WHERE username = ?`, username,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("credstore: lookup user: %w", err)
	}
	return hash, true, nil
}

// Insert stores a new credential row.
func (s *SQLiteStore) Insert(username, hash string) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, hash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "PRIMARY KEY constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("credstore: insert user: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
