package model

import (
	"fmt"
	"io"
	"sync"
)

// Session represents one live, authenticated connection.
//
// The outbound transport handle is owned by the session: all writes go
// through Send, which serializes concurrent writers (the owning handler
// and the broadcast dispatcher) so their lines never interleave.
type Session struct {
	ID       string // opaque, stable for the connection's lifetime
	Username string // authenticated identity (display name)
	Channel  string // current channel; "" before the first join

	writeMu sync.Mutex
	conn    io.Writer
}

// NewSession creates a session bound to an outbound transport handle.
func NewSession(id, username string, conn io.Writer) *Session {
	return &Session{ID: id, Username: username, conn: conn}
}

// Send writes one line to the session's transport. Safe for concurrent use.
func (s *Session) Send(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := fmt.Fprintf(s.conn, "%s\n", line)
	return err
}
