// Package auth implements the authentication gate: credential validation
// plus delegation to a credential store.
//
// Validation order is fixed (format before existence before password) so a
// given bad input always produces the same error text.
package auth

import (
	"errors"
	"fmt"

	"github.com/NicolasHaas/gochat/pkg/credstore"
	"github.com/NicolasHaas/gochat/pkg/model"
)

var ErrEmptyField = errors.New("username and password must not be empty")
var ErrUserExists = errors.New("username already exists")
var ErrUserNotFound = errors.New("username not found")
var ErrInvalidPassword = errors.New("invalid password")

// Identity is the authenticated display name associated with a session.
type Identity string

// Gate validates credentials and authenticates against a credential store.
// Gate itself is stateless; it is safe for concurrent use if the store is.
type Gate struct {
	store credstore.Store
}

// NewGate creates a Gate backed by the given store.
func NewGate(store credstore.Store) *Gate {
	return &Gate{store: store}
}

// Register creates a new account and returns its identity. The password is
// stored as a salted Argon2id hash, never in clear.
func (g *Gate) Register(username, password string) (Identity, error) {
	if err := validateCredentials(username, password); err != nil {
		return "", err
	}

	_, exists, err := g.store.Lookup(username)
	if err != nil {
		return "", fmt.Errorf("auth: lookup user: %w", err)
	}
	if exists {
		return "", ErrUserExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	if err := g.store.Insert(username, hash); err != nil {
		if errors.Is(err, credstore.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("auth: store credentials: %w", err)
	}
	return Identity(username), nil
}

// Login authenticates existing credentials. It has no side effects.
func (g *Gate) Login(username, password string) (Identity, error) {
	if err := validateCredentials(username, password); err != nil {
		return "", err
	}

	hash, ok, err := g.store.Lookup(username)
	if err != nil {
		return "", fmt.Errorf("auth: lookup user: %w", err)
	}
	if !ok {
		return "", ErrUserNotFound
	}
	if !VerifyPassword(password, hash) {
		return "", ErrInvalidPassword
	}
	return Identity(username), nil
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return ErrEmptyField
	}
	if err := model.ValidateUsername(username); err != nil {
		return err
	}
	return model.ValidatePassword(password)
}
