package model

// Channel represents a named chat channel and its member identities.
// The member set holds display names, not session IDs; two sessions
// authenticated under the same name are indistinguishable here.
type Channel struct {
	Name    string
	Kind    Kind
	Members map[string]bool
}

// NewChannel creates an empty channel of the given kind.
func NewChannel(name string, kind Kind) *Channel {
	return &Channel{
		Name:    name,
		Kind:    kind,
		Members: make(map[string]bool),
	}
}

// Snapshot returns a copy of the channel safe to use without the
// directory's lock. The member set is copied, not shared.
func (c *Channel) Snapshot() Channel {
	members := make(map[string]bool, len(c.Members))
	for name := range c.Members {
		members[name] = true
	}
	return Channel{Name: c.Name, Kind: c.Kind, Members: members}
}
