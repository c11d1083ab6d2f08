// Package model defines the core domain types for gochat.
package model

// Kind represents a channel's type.
type Kind int

const (
	KindText  Kind = iota // plain text chat channel
	KindVoice             // voice channel (membership only, no media path)
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a known channel kind.
func (k Kind) Valid() bool {
	return k == KindText || k == KindVoice
}

// ParseKind converts a string to a Kind. The second return value reports
// whether the input named a known kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "text":
		return KindText, true
	case "voice":
		return KindVoice, true
	default:
		return KindText, false
	}
}
