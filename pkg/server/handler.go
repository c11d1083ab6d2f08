package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/NicolasHaas/gochat/pkg/auth"
)

const (
	// authReadTimeout bounds each read during the handshake.
	authReadTimeout = 30 * time.Second

	// maxLineLength caps one logical line of input.
	maxLineLength = 64 * 1024
)

// handleConn runs one connection from handshake to cleanup. The admission
// counter is decremented exactly once on every exit path, including
// authentication failures.
func (s *Server) handleConn(conn net.Conn) {
	defer s.active.Add(-1)
	defer func() { _ = conn.Close() }()

	s.metrics.ActiveConnections.Add(1)
	defer s.metrics.ActiveConnections.Add(-1)

	remote := conn.RemoteAddr().String()
	slog.Debug("new connection", "remote", remote)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	identity, ok := s.authenticate(conn, scanner)
	if !ok {
		s.metrics.FailedAuths.Add(1)
		return
	}
	s.metrics.SuccessfulAuths.Add(1)

	sess := s.sessions.Create(string(identity), conn)
	s.channels.Join(DefaultChannel, sess.Username)
	s.sessions.SetChannel(sess.ID, DefaultChannel)
	slog.Info("client authenticated", "user", sess.Username, "session", sess.ID, "remote", remote)

	defer func() {
		// Deregister everywhere before announcing. LeaveAll sweeps every
		// channel because the session's recorded channel can be stale.
		last, _ := s.sessions.CurrentChannel(sess.ID)
		s.sessions.Remove(sess.ID)
		s.channels.LeaveAll(sess.Username)
		s.voice.Leave(sess.Username)
		s.metrics.TotalDisconnects.Add(1)
		if last != "" {
			s.dispatcher.Broadcast(last, fmt.Sprintf("*** %s left ***", sess.Username), sess.ID)
		}
		slog.Info("client disconnected", "user", sess.Username, "session", sess.ID)
	}()

	_ = sess.Send(helpText)
	_ = sess.Send("You are in " + DefaultChannel)
	s.dispatcher.Broadcast(DefaultChannel, fmt.Sprintf("*** %s joined ***", sess.Username), sess.ID)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		if !scanner.Scan() {
			err := scanner.Err()
			if err == nil {
				return // EOF
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				s.metrics.IdleTimeouts.Add(1)
				_ = sess.Send("Disconnected due to inactivity.")
				return
			}
			if !isClosedErr(err) {
				slog.Error("read error", "user", sess.Username, "err", err)
			}
			return
		}

		line := strings.TrimSpace(sanitizeText(scanner.Text()))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if s.router.Route(sess, line) {
				return
			}
		} else {
			s.router.Chat(sess, line)
		}
	}
}

// authenticate runs the server-initiated handshake: choice prompt,
// username, password, then the gate. Any read failure, invalid choice, or
// gate rejection aborts the connection; authentication is not retried.
func (s *Server) authenticate(conn net.Conn, scanner *bufio.Scanner) (auth.Identity, bool) {
	send := func(text string) {
		_, _ = conn.Write([]byte(text))
	}

	send("Welcome to the chat server!\n")
	send("1. Login\n2. Register\nChoose option (1 or 2): ")

	choice, ok := s.readAuthLine(conn, scanner)
	if !ok {
		return "", false
	}

	var identity auth.Identity
	var err error

	switch choice {
	case "1":
		send("Username: ")
		username, ok := s.readAuthLine(conn, scanner)
		if !ok {
			return "", false
		}
		send("Password: ")
		password, ok := s.readAuthLine(conn, scanner)
		if !ok {
			return "", false
		}
		identity, err = s.gate.Login(username, password)
		if err != nil {
			send("Login failed: " + err.Error() + "\n")
			send("Authentication failed. Disconnecting.\n")
			return "", false
		}
		send("Login successful!\n")

	case "2":
		send("Choose username: ")
		username, ok := s.readAuthLine(conn, scanner)
		if !ok {
			return "", false
		}
		send("Choose password: ")
		password, ok := s.readAuthLine(conn, scanner)
		if !ok {
			return "", false
		}
		identity, err = s.gate.Register(username, password)
		if err != nil {
			send("Registration failed: " + err.Error() + "\n")
			send("Authentication failed. Disconnecting.\n")
			return "", false
		}
		send("Registration successful! You are now logged in.\n")

	default:
		send("Invalid choice.\n")
		send("Authentication failed. Disconnecting.\n")
		return "", false
	}

	return identity, true
}

// readAuthLine reads one trimmed line under the handshake deadline.
func (s *Server) readAuthLine(conn net.Conn, scanner *bufio.Scanner) (string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(authReadTimeout))
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, net.ErrClosed) ||
		strings.Contains(err.Error(), "use of closed network connection")
}
