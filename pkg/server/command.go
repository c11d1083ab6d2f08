package server

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/NicolasHaas/gochat/pkg/model"
)

// commandKind enumerates the closed command set. Dispatch is a single
// exhaustive switch in Route; there is no string branching at call sites.
type commandKind int

const (
	cmdHelp commandKind = iota
	cmdChannels
	cmdJoin
	cmdVoice
	cmdLeave
	cmdMute
	cmdDeafen
	cmdCreate
	cmdUsers
	cmdQuit
	cmdBadArity
	cmdUnknown
)

type command struct {
	kind  commandKind
	args  []string
	name  string // original leading token, for unknown-command replies
	usage string // usage string, for arity violations
}

// grammar is the immutable command table: leading token -> kind, arity,
// usage text.
var grammar = map[string]struct {
	kind  commandKind
	arity int
	usage string
}{
	"/help":     {cmdHelp, 0, "Usage: /help"},
	"/channels": {cmdChannels, 0, "Usage: /channels"},
	"/join":     {cmdJoin, 1, "Usage: /join <channel>"},
	"/voice":    {cmdVoice, 1, "Usage: /voice <channel>"},
	"/leave":    {cmdLeave, 0, "Usage: /leave"},
	"/mute":     {cmdMute, 0, "Usage: /mute"},
	"/deafen":   {cmdDeafen, 0, "Usage: /deafen"},
	"/create":   {cmdCreate, 2, "Usage: /create <name> <text|voice>"},
	"/users":    {cmdUsers, 0, "Usage: /users"},
	"/quit":     {cmdQuit, 0, "Usage: /quit"},
}

// parseCommand tokenizes a slash-command line against the grammar table.
// The caller guarantees line begins with "/".
func parseCommand(line string) command {
	fields := strings.Fields(line)
	name := fields[0]
	spec, ok := grammar[name]
	if !ok {
		return command{kind: cmdUnknown, name: name}
	}
	if len(fields)-1 != spec.arity {
		return command{kind: cmdBadArity, usage: spec.usage}
	}
	return command{kind: spec.kind, args: fields[1:]}
}

const helpText = `Available commands:
  /help                        show this help
  /channels                    list all channels
  /join <channel>              switch to a text channel
  /voice <channel>             join a voice channel
  /leave                       leave your voice channel
  /mute                        toggle voice mute
  /deafen                      toggle voice deafen (deafen also mutes)
  /create <name> <text|voice>  create a new channel
  /users                       list users in your channel
  /quit                        disconnect`

// Router dispatches parsed commands against the registries. It holds no
// state of its own beyond the grammar table.
type Router struct {
	sessions   *SessionManager
	channels   *ChannelDirectory
	voice      *VoiceManager
	dispatcher *Dispatcher
	metrics    *Metrics
}

// NewRouter creates a command router over the given registries.
func NewRouter(sessions *SessionManager, channels *ChannelDirectory, voice *VoiceManager, dispatcher *Dispatcher, metrics *Metrics) *Router {
	return &Router{
		sessions:   sessions,
		channels:   channels,
		voice:      voice,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// Route parses and executes one slash command for a session. The return
// value reports whether the connection should terminate (/quit).
func (r *Router) Route(sess *model.Session, line string) (quit bool) {
	cmd := parseCommand(line)
	switch cmd.kind {
	case cmdHelp:
		_ = sess.Send(helpText)
	case cmdChannels:
		r.handleChannels(sess)
	case cmdJoin:
		r.handleJoin(sess, cmd.args[0])
	case cmdVoice:
		r.handleVoice(sess, cmd.args[0])
	case cmdLeave:
		r.handleLeave(sess)
	case cmdMute:
		r.handleMute(sess)
	case cmdDeafen:
		r.handleDeafen(sess)
	case cmdCreate:
		r.handleCreate(sess, cmd.args[0], cmd.args[1])
	case cmdUsers:
		r.handleUsers(sess)
	case cmdQuit:
		_ = sess.Send("Goodbye!")
		return true
	case cmdBadArity:
		_ = sess.Send(cmd.usage)
	case cmdUnknown:
		_ = sess.Send("Unknown command: " + cmd.name + " (type /help)")
	}
	return false
}

// Chat forwards a plain text line to the sender's current channel as
// "[channel] name: text", excluding the sender. A session with no current
// channel is inert: the line is dropped with no reply.
func (r *Router) Chat(sess *model.Session, text string) {
	channel, ok := r.sessions.CurrentChannel(sess.ID)
	if !ok || channel == "" {
		return
	}
	if r.metrics != nil {
		r.metrics.ChatMessagesSent.Add(1)
	}
	r.dispatcher.Broadcast(channel, fmt.Sprintf("[%s] %s: %s", channel, sess.Username, text), sess.ID)
}

func (r *Router) handleChannels(sess *model.Session) {
	infos := r.channels.List()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	lines := make([]string, 0, len(infos)+1)
	lines = append(lines, "Channels:")
	for _, info := range infos {
		lines = append(lines, fmt.Sprintf("  %s (%s, %d users)", info.Name, info.Kind, info.Members))
	}
	_ = sess.Send(strings.Join(lines, "\n"))
}

// handleJoin performs the two-step channel switch: leave the old channel
// and announce there, then join the new one and announce to everyone but
// the actor.
func (r *Router) handleJoin(sess *model.Session, name string) {
	if !r.channels.Exists(name) {
		_ = sess.Send("Channel not found: " + name)
		return
	}

	prev, _ := r.sessions.CurrentChannel(sess.ID)
	if prev == name {
		_ = sess.Send("You are already in " + name)
		return
	}
	if prev != "" {
		r.channels.Leave(prev, sess.Username)
		r.dispatcher.Broadcast(prev, fmt.Sprintf("*** %s left ***", sess.Username), "")
	}

	r.channels.Join(name, sess.Username)
	r.sessions.SetChannel(sess.ID, name)
	_ = sess.Send("Joined channel: " + name)
	r.dispatcher.Broadcast(name, fmt.Sprintf("*** %s joined ***", sess.Username), sess.ID)
}

func (r *Router) handleVoice(sess *model.Session, name string) {
	ch, ok := r.channels.Get(name)
	if !ok {
		_ = sess.Send("Channel not found: " + name)
		return
	}
	if ch.Kind != model.KindVoice {
		_ = sess.Send("Not a voice channel: " + name)
		return
	}
	r.voice.Join(sess.Username, name)
	_ = sess.Send("Joined voice channel: " + name)
}

func (r *Router) handleLeave(sess *model.Session) {
	if r.voice.Leave(sess.Username) {
		_ = sess.Send("Left voice channel.")
	} else {
		_ = sess.Send("You are not in a voice channel.")
	}
}

func (r *Router) handleMute(sess *model.Session) {
	muted, ok := r.voice.ToggleMute(sess.Username)
	switch {
	case !ok:
		_ = sess.Send("You are not in a voice channel.")
	case muted:
		_ = sess.Send("You are now muted.")
	default:
		_ = sess.Send("You are now unmuted.")
	}
}

func (r *Router) handleDeafen(sess *model.Session) {
	deafened, ok := r.voice.ToggleDeafen(sess.Username)
	switch {
	case !ok:
		_ = sess.Send("You are not in a voice channel.")
	case deafened:
		_ = sess.Send("You are now deafened (and muted).")
	default:
		_ = sess.Send("You are no longer deafened.")
	}
}

func (r *Router) handleCreate(sess *model.Session, name, kindStr string) {
	if err := model.ValidateChannelName(name); err != nil {
		_ = sess.Send(err.Error())
		return
	}
	kind, ok := model.ParseKind(kindStr)
	if !ok {
		_ = sess.Send("Usage: /create <name> <text|voice>")
		return
	}
	if !r.channels.Create(name, kind) {
		_ = sess.Send("Channel already exists: " + name)
		return
	}
	if r.metrics != nil {
		r.metrics.ChannelsCreated.Add(1)
	}
	_ = sess.Send("Channel created: " + name)
}

func (r *Router) handleUsers(sess *model.Session) {
	channel, ok := r.sessions.CurrentChannel(sess.ID)
	if !ok || channel == "" {
		_ = sess.Send("You are not in a channel.")
		return
	}
	members := r.channels.MembersOf(channel)
	names := make([]string, 0, len(members))
	for identity := range members {
		names = append(names, identity)
	}
	sort.Strings(names)
	_ = sess.Send(fmt.Sprintf("Users in %s: %s", channel, strings.Join(names, ", ")))
}

// sanitizeText strips control characters (except newline, which framing
// already removed) from user-supplied text to prevent terminal escape
// injection and null-byte attacks.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
