package auth_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/NicolasHaas/gochat/pkg/auth"
	"github.com/NicolasHaas/gochat/pkg/credstore"
	"github.com/NicolasHaas/gochat/pkg/model"
)

func TestRegisterThenLogin(t *testing.T) {
	gate := auth.NewGate(credstore.NewMemory())

	identity, err := gate.Register("alice", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if identity != "alice" {
		t.Fatalf("Register identity = %q, want %q", identity, "alice")
	}

	identity, err = gate.Login("alice", "password1")
	if err != nil {
		t.Fatalf("Login after Register: %v", err)
	}
	if identity != "alice" {
		t.Fatalf("Login identity = %q, want %q", identity, "alice")
	}
}

func TestRegisterValidation(t *testing.T) {
	type tcase struct {
		username string
		password string
		wantErr  error
	}

	tcases := map[string]tcase{
		"empty_username": {
			username: "",
			password: "password1",
			wantErr:  auth.ErrEmptyField,
		},
		"empty_password": {
			username: "alice",
			password: "",
			wantErr:  auth.ErrEmptyField,
		},
		"both_empty": {
			username: "",
			password: "",
			wantErr:  auth.ErrEmptyField,
		},
		"username_too_long": {
			username: strings.Repeat("a", model.MaxUsernameLength+1),
			password: "password1",
			wantErr:  model.ErrUsernameTooLong,
		},
		"username_bad_chars": {
			username: "al ice",
			password: "password1",
			wantErr:  model.ErrUsernameInvalidChars,
		},
		"password_too_short": {
			username: "alice",
			password: "short",
			wantErr:  model.ErrPasswordTooShort,
		},
		"password_too_long": {
			username: "alice",
			password: strings.Repeat("p", model.MaxPasswordLength+1),
			wantErr:  model.ErrPasswordTooLong,
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			gate := auth.NewGate(credstore.NewMemory())
			if _, err := gate.Register(tc.username, tc.password); !errors.Is(err, tc.wantErr) {
				t.Errorf("Register(%q, %q) = %v, want %v", tc.username, tc.password, err, tc.wantErr)
			}
		})
	}
}

// Format checks run before existence checks, so a too-long username on a
// populated store reports the format error, not UserNotFound.
func TestValidationOrderIsDeterministic(t *testing.T) {
	store := credstore.NewMemory()
	gate := auth.NewGate(store)
	if _, err := gate.Register("alice", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := gate.Login(strings.Repeat("a", model.MaxUsernameLength+1), "short")
	if !errors.Is(err, model.ErrUsernameTooLong) {
		t.Errorf("Login with long username and short password = %v, want %v", err, model.ErrUsernameTooLong)
	}
}

func TestRegisterDuplicatePreservesHash(t *testing.T) {
	store := credstore.NewMemory()
	gate := auth.NewGate(store)

	if _, err := gate.Register("alice", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	before, ok, err := store.Lookup("alice")
	if err != nil || !ok {
		t.Fatalf("Lookup after Register: ok=%t err=%v", ok, err)
	}

	if _, err := gate.Register("alice", "different1"); !errors.Is(err, auth.ErrUserExists) {
		t.Fatalf("duplicate Register = %v, want %v", err, auth.ErrUserExists)
	}

	after, ok, err := store.Lookup("alice")
	if err != nil || !ok {
		t.Fatalf("Lookup after duplicate Register: ok=%t err=%v", ok, err)
	}
	if before != after {
		t.Errorf("stored hash changed after rejected duplicate registration")
	}
}

func TestLoginFailures(t *testing.T) {
	store := credstore.NewMemory()
	gate := auth.NewGate(store)
	if _, err := gate.Register("alice", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := gate.Login("nobody", "password1"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("Login unknown user = %v, want %v", err, auth.ErrUserNotFound)
	}
	if _, err := gate.Login("alice", "wrongpass1"); !errors.Is(err, auth.ErrInvalidPassword) {
		t.Errorf("Login wrong password = %v, want %v", err, auth.ErrInvalidPassword)
	}
}

func TestLoginHasNoSideEffect(t *testing.T) {
	store := credstore.NewMemory()
	gate := auth.NewGate(store)
	if _, err := gate.Register("alice", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	before, _, _ := store.Lookup("alice")

	_, _ = gate.Login("alice", "password1")
	_, _ = gate.Login("alice", "wrongpass1")

	after, ok, _ := store.Lookup("alice")
	if !ok || before != after {
		t.Errorf("Login mutated the credential store")
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("password1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Fatalf("hash %q missing argon2id prefix", hash)
	}
	if !auth.VerifyPassword("password1", hash) {
		t.Errorf("VerifyPassword rejected the matching password")
	}
	if auth.VerifyPassword("password2", hash) {
		t.Errorf("VerifyPassword accepted a different password")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := auth.HashPassword("password1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := auth.HashPassword("password1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Errorf("two hashes of the same password are identical; salt is not random")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"argon2id$zz$zz",
		"argon2id$deadbeef",
		"bcrypt$00$00",
	} {
		if auth.VerifyPassword("password1", encoded) {
			t.Errorf("VerifyPassword accepted malformed hash %q", encoded)
		}
	}
}
