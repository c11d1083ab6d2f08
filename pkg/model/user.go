package model

import (
	"errors"
	"fmt"
)

const (
	MaxUsernameLength    = 32
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
	MaxChannelNameLength = 64
)

var ErrUsernameEmpty = errors.New("username must not be empty")
var ErrUsernameTooLong = fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
var ErrUsernameInvalidChars = errors.New("username must contain only alphanumeric characters, underscores, or hyphens")
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
var ErrPasswordTooLong = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
var ErrChannelNameEmpty = errors.New("channel name must not be empty")
var ErrChannelNameTooLong = fmt.Errorf("channel name must not exceed %d characters", MaxChannelNameLength)
var ErrChannelNameInvalidChars = errors.New("channel name must contain only alphanumeric characters, underscores, or hyphens")

// ValidateUsername checks that a username is 1-32 ASCII alphanumeric,
// underscore, or hyphen characters. Returns nil on success or a descriptive
// error.
func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return ErrUsernameInvalidChars
		}
	}
	return nil
}

// ValidatePassword checks password length bounds. Content is unrestricted.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateChannelName checks that a channel name is 1-64 ASCII alphanumeric,
// underscore, or hyphen characters. Names are case-sensitive keys.
func ValidateChannelName(name string) error {
	if len(name) == 0 {
		return ErrChannelNameEmpty
	}
	if len(name) > MaxChannelNameLength {
		return ErrChannelNameTooLong
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return ErrChannelNameInvalidChars
		}
	}
	return nil
}
