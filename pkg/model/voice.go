package model

// VoiceSession records a user's presence in a voice channel. It carries no
// media; voice transport is out of scope for this server.
//
// Invariant: Deafened implies Muted. Enforced when deafen is toggled on,
// not continuously — un-deafening does not unmute.
type VoiceSession struct {
	Username string
	Channel  string
	Muted    bool
	Deafened bool
}
