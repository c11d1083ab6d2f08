// Package credstore persists username -> password hash mappings.
//
// The auth gate consults a Store through Lookup and Insert only; it never
// sees how credentials are persisted. Implementations include a JSON file
// store (compatible with the legacy users.json layout), a SQLite store,
// and an in-memory store for tests.
package credstore

import "errors"

// ErrDuplicate is returned by Insert when the username is already present.
var ErrDuplicate = errors.New("credstore: username already exists")

// Store is the credential persistence contract.
type Store interface {
	// Lookup returns the stored password hash for a username. The boolean
	// reports whether the username exists; a missing user is not an error.
	Lookup(username string) (hash string, ok bool, err error)

	// Insert stores a new username -> hash mapping. Returns ErrDuplicate
	// if the username is already present. Implementations persist
	// atomically: a crash mid-write must not corrupt the store.
	Insert(username, hash string) error

	Close() error
}
