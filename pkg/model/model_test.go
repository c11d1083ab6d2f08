package model

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid simple", "alice", nil},
		{"valid with numbers", "user123", nil},
		{"valid with underscore", "my_user", nil},
		{"valid with hyphen", "my-user", nil},
		{"valid mixed", "A-b_3", nil},
		{"valid max length", strings.Repeat("a", MaxUsernameLength), nil},
		{"empty", "", ErrUsernameEmpty},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), ErrUsernameTooLong},
		{"contains space", "has space", ErrUsernameInvalidChars},
		{"contains dot", "user.name", ErrUsernameInvalidChars},
		{"contains @", "user@name", ErrUsernameInvalidChars},
		{"contains slash", "user/name", ErrUsernameInvalidChars},
		{"unicode letter", "ñoño", ErrUsernameInvalidChars},
		{"tab character", "user\tname", ErrUsernameInvalidChars},
		{"newline", "user\nname", ErrUsernameInvalidChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if err != tt.wantErr {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid minimum", strings.Repeat("p", MinPasswordLength), nil},
		{"valid maximum", strings.Repeat("p", MaxPasswordLength), nil},
		{"valid with symbols", "p@ss w0rd!", nil},
		{"empty", "", ErrPasswordTooShort},
		{"seven chars", "1234567", ErrPasswordTooShort},
		{"too long", strings.Repeat("p", MaxPasswordLength+1), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.input)
			if err != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChannelName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid simple", "general", nil},
		{"valid hyphenated", "voice-lobby", nil},
		{"valid max length", strings.Repeat("c", MaxChannelNameLength), nil},
		{"empty", "", ErrChannelNameEmpty},
		{"too long", strings.Repeat("c", MaxChannelNameLength+1), ErrChannelNameTooLong},
		{"contains space", "two words", ErrChannelNameInvalidChars},
		{"contains hash", "#general", ErrChannelNameInvalidChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChannelName(tt.input)
			if err != tt.wantErr {
				t.Errorf("ValidateChannelName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindText, "text"},
		{KindVoice, "voice"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input  string
		want   Kind
		wantOK bool
	}{
		{"text", KindText, true},
		{"voice", KindVoice, true},
		{"", KindText, false},
		{"Text", KindText, false},
		{"video", KindText, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseKind(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseKind(%q) = (%v, %t), want (%v, %t)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
