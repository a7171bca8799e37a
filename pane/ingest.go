// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircmsg"

	"github.com/ergochat/textpane/pane/archive"
	"github.com/ergochat/textpane/pane/colours"
	"github.com/ergochat/textpane/pane/document"
	"github.com/ergochat/textpane/pane/format"
	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/utils"
)

const (
	// StatusWindow receives lines that belong to no channel or query, such
	// as quits and nick changes.
	StatusWindow = "status"

	ctcpDelimiter = "\x01"
)

// Event is a protocol line turned into something to show.
type Event struct {
	Window     string
	Time       time.Time
	Properties document.Properties
	Text       format.Text
}

var (
	// membership changes are shown dimmed
	membershipProperties = document.With(document.Properties{}, document.Foreground, colours.Gray)
	noticeProperties     = document.With(document.Properties{}, document.Location, "notices")
)

// serverTime returns the time given by the server-time tag, or the zero
// time if there is none.
func serverTime(msg *ircmsg.Message) time.Time {
	if present, value := msg.GetTag("time"); present {
		if t, err := time.Parse(utils.IRCv3TimestampFormat, value); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseEvents turns one raw protocol line into the events it displays.
// Commands with nothing to show yield no events and no error.
func ParseEvents(line string, config *Config) (events []Event, err error) {
	msg, err := ircmsg.ParseLine(line)
	if err != nil {
		return nil, err
	}

	t := serverTime(&msg)
	nick := msg.Nick()
	var b format.Builder
	event := func(window string, properties document.Properties) {
		events = append(events, Event{Window: window, Time: t, Properties: properties, Text: b.Text()})
	}
	needParams := func(n int) bool {
		if len(msg.Params) < n {
			err = errNotEnoughParams
			return false
		}
		return true
	}
	// a query is filed under the other party's nick
	windowFor := func(target string) string {
		if config.IsChannel(target) {
			return target
		}
		return nick
	}

	switch strings.ToUpper(msg.Command) {
	case "PRIVMSG":
		if !needParams(2) {
			return
		}
		target, text := msg.Params[0], msg.Params[1]
		if action, ok := ctcpAction(text); ok {
			b.Literal("* ").Nickname(nick, nick).Literal(" ").Raw(action)
		} else if strings.HasPrefix(text, ctcpDelimiter) {
			return
		} else {
			b.Literal("<").Nickname(nick, nick).Literal("> ").Raw(text)
		}
		event(windowFor(target), document.Properties{})
	case "NOTICE":
		if !needParams(2) {
			return
		}
		target, text := msg.Params[0], msg.Params[1]
		if strings.HasPrefix(text, ctcpDelimiter) {
			return
		}
		window := StatusWindow
		if config.IsChannel(target) {
			window = target
		}
		if nick == "" {
			b.Raw(text)
		} else {
			b.Literal("-").Nickname(nick, nick).Literal("- ").Raw(text)
		}
		event(window, noticeProperties)
	case "JOIN":
		if !needParams(1) {
			return
		}
		b.Literal("--> ").Nickname(nick, nick).Literal(userhost(&msg)).Literal(" has joined ").Channel(msg.Params[0])
		event(msg.Params[0], membershipProperties)
	case "PART":
		if !needParams(1) {
			return
		}
		b.Literal("<-- ").Nickname(nick, nick).Literal(" has left ").Channel(msg.Params[0])
		reason(&b, msg.Params, 1)
		event(msg.Params[0], membershipProperties)
	case "QUIT":
		b.Literal("<-- ").Nickname(nick, nick).Literal(" has quit")
		reason(&b, msg.Params, 0)
		event(StatusWindow, membershipProperties)
	case "NICK":
		if !needParams(1) {
			return
		}
		newNick := msg.Params[0]
		b.Literal("*** ").Nickname(nick, nick).Literal(" is now known as ").Nickname(newNick, newNick)
		event(StatusWindow, membershipProperties)
	case "TOPIC":
		if !needParams(2) {
			return
		}
		b.Literal("*** ").Nickname(nick, nick).Literal(" has changed the topic to: ").Raw(msg.Params[1])
		event(msg.Params[0], document.Properties{})
	case "KICK":
		if !needParams(2) {
			return
		}
		victim := msg.Params[1]
		b.Literal("<-- ").Nickname(victim, victim).Literal(" was kicked from ").Channel(msg.Params[0]).
			Literal(" by ").Nickname(nick, nick)
		reason(&b, msg.Params, 2)
		event(msg.Params[0], membershipProperties)
	case "MODE":
		if !needParams(2) {
			return
		}
		b.Literal("*** ").Nickname(nick, nick).Literal(" sets mode ").Literal(strings.Join(msg.Params[1:], " "))
		window := StatusWindow
		if config.IsChannel(msg.Params[0]) {
			window = msg.Params[0]
		}
		event(window, document.Properties{})
	}
	return
}

// ctcpAction extracts the text of a CTCP ACTION; the closing delimiter is
// optional.
func ctcpAction(text string) (action string, ok bool) {
	const prefix = ctcpDelimiter + "ACTION "
	if !strings.HasPrefix(text, prefix) {
		return
	}
	return strings.TrimSuffix(text[len(prefix):], ctcpDelimiter), true
}

func userhost(msg *ircmsg.Message) string {
	nuh, err := msg.NUH()
	if err != nil || nuh.User == "" || nuh.Host == "" {
		return ""
	}
	return " (" + nuh.User + "@" + nuh.Host + ")"
}

// reason appends " (reason)" if params has a non-empty element at index.
func reason(b *format.Builder, params []string, index int) {
	if index < len(params) && params[index] != "" {
		b.Literal(" (").Raw(params[index]).Code(format.Stop).Literal(")")
	}
}

// Session routes protocol lines to windows, creating them on first use and
// keeping them in step with config rehashes.
type Session struct {
	config *ConfigManager
	store  archive.Store
	logger *logger.Manager

	sync.Mutex // tier 1
	windows    map[string]*Window
	cancel     func()
	onCreate   func(*Window)
}

// NewSession returns an empty session. store may be nil.
func NewSession(config *ConfigManager, store archive.Store, logger *logger.Manager) *Session {
	session := &Session{
		config:  config,
		store:   store,
		logger:  logger,
		windows: make(map[string]*Window),
	}
	session.cancel = config.Subscribe(session.applyConfig)
	return session
}

func (session *Session) applyConfig(oldConfig, newConfig *Config) {
	for _, window := range session.Windows() {
		window.ApplyConfig(newConfig)
	}
}

// OnCreate registers fn to be called for every window created from now on.
func (session *Session) OnCreate(fn func(*Window)) {
	session.Lock()
	session.onCreate = fn
	session.Unlock()
}

// Window returns the named window, creating and backfilling it if needed.
// Names are compared case-insensitively.
func (session *Session) Window(name string) (window *Window, err error) {
	if !archive.ValidWindow(name) {
		return nil, errInvalidWindowName
	}
	key := strings.ToLower(name)

	session.Lock()
	window, exists := session.windows[key]
	var onCreate func(*Window)
	if !exists {
		config := session.config.Config()
		window = NewWindow(name, config, session.store, session.logger)
		if _, err := window.Backfill(config.Archive.Backfill); err != nil {
			session.logger.Warning("archive", "Could not backfill window", name, err.Error())
		}
		session.windows[key] = window
		onCreate = session.onCreate
	}
	session.Unlock()

	if onCreate != nil {
		onCreate(window)
	}
	return window, nil
}

// Windows returns every window, sorted by name.
func (session *Session) Windows() (result []*Window) {
	session.Lock()
	result = make([]*Window, 0, len(session.windows))
	for _, window := range session.windows {
		result = append(result, window)
	}
	session.Unlock()
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return
}

// Ingest parses one protocol line and adds what it displays to the right
// windows. Unparseable lines are logged and reported.
func (session *Session) Ingest(line string) error {
	events, err := ParseEvents(line, session.config.Config())
	if err != nil {
		session.logger.Debug("ingest", "Could not parse line", err.Error(), line)
		return err
	}
	for _, event := range events {
		window, err := session.Window(event.Window)
		if err != nil {
			session.logger.Debug("ingest", "Dropping line for bad window", event.Window)
			continue
		}
		window.AddText(event.Time, event.Properties, event.Text)
	}
	return nil
}

// Close stops following config changes.
func (session *Session) Close() {
	session.cancel()
}
