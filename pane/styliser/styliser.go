// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

// Package styliser turns formatted chat text into calls against a Sink,
// detecting hyperlinks, channel names and smilies on the way.
package styliser

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ergochat/textpane/pane/colours"
	"github.com/ergochat/textpane/pane/format"
	"github.com/ergochat/textpane/pane/logger"
)

// SmiliePrefix is prepended to smilie names passed to Sink.StartSmilie.
const SmiliePrefix = "smilie-"

// Options controls link detection and styling.
type Options struct {
	// StyleLinks and StyleChannels enable the link style toggles.
	StyleLinks    bool
	StyleChannels bool
	// LinkColour and ChannelColour are colour specs; empty means no colour.
	LinkColour    string
	ChannelColour string
	// ChannelPrefixes lists the characters that start a channel name, e.g.
	// "#&". Empty disables channel detection.
	ChannelPrefixes string
	// Smilies are the tokens tagged as smilies when they stand alone.
	Smilies []string
}

// settings is an immutable snapshot of Options with everything derived
// from them resolved and compiled.
type settings struct {
	Options
	linkColour    colours.Colour
	channelColour colours.Colour
	channels      *matcher
	smilies       *matcher
}

// Styliser applies formatting to a Sink. It is safe for concurrent use;
// SetOptions may be called while other goroutines are styling.
type Styliser struct {
	resolver *colours.Resolver
	logger   *logger.Manager
	settings atomic.Pointer[settings]
}

// New returns a Styliser using resolver for all colour lookups.
func New(opts Options, resolver *colours.Resolver, logger *logger.Manager) *Styliser {
	s := &Styliser{
		resolver: resolver,
		logger:   logger,
	}
	s.SetOptions(opts)
	return s
}

// SetOptions replaces the options. Colour specs are resolved immediately,
// so this should also be called after the palette changes.
func (s *Styliser) SetOptions(opts Options) {
	config := &settings{
		Options:       opts,
		linkColour:    s.resolveOption(opts.LinkColour),
		channelColour: s.resolveOption(opts.ChannelColour),
	}
	config.Smilies = append([]string(nil), opts.Smilies...)

	var err error
	if config.channels, err = compileChannelMatcher(opts.ChannelPrefixes); err != nil {
		s.logger.Warning("styliser", "Could not compile channel matcher", err.Error())
	}
	if config.smilies, err = compileSmilieMatcher(opts.Smilies); err != nil {
		s.logger.Warning("styliser", "Could not compile smilie matcher", err.Error())
	}
	s.settings.Store(config)
}

// Options returns the options currently in effect.
func (s *Styliser) Options() Options {
	return s.settings.Load().Options
}

func (s *Styliser) resolveOption(spec string) colours.Colour {
	if spec == "" {
		return colours.Colour{}
	}
	return s.resolver.FromSpec(spec, colours.Colour{})
}

// Style styles each protocol string in turn.
func (s *Styliser) Style(sink Sink, raw ...string) {
	for _, r := range raw {
		s.styleOne(sink, format.Parse(r))
	}
}

// StyleText styles already tokenized text, such as text decoded from the
// marked encoding or assembled with a format.Builder.
func (s *Styliser) StyleText(sink Sink, text ...format.Text) {
	for _, t := range text {
		s.styleOne(sink, t)
	}
}

func (s *Styliser) styleOne(sink Sink, text format.Text) {
	config := s.settings.Load()
	text = s.autolink(config, text)

	sink.ResetAllStyles()
	state := state{sink: sink, config: config, resolver: s.resolver}
	for _, tok := range text {
		state.apply(tok)
	}
	state.closeAll()
}

// state is the transient per-string styling state.
type state struct {
	sink     Sink
	config   *settings
	resolver *colours.Resolver

	negated bool
	// hyperlinks, channel links and nickname links share a single slot
	inLink     bool
	linkKind   format.Kind
	linkStyled bool
	inSmilie   bool
	inToolTip  bool
	// opening order of the spans currently open
	opened []format.Kind
}

func (st *state) apply(tok format.Token) {
	switch tok.Kind {
	case format.Literal:
		if tok.Text != "" {
			st.sink.AppendString(tok.Text)
		}
	case format.Bold:
		if !st.negated {
			st.sink.ToggleBold()
		}
	case format.Underline:
		if !st.negated {
			st.sink.ToggleUnderline()
		}
	case format.Italic:
		if !st.negated {
			st.sink.ToggleItalic()
		}
	case format.Fixed:
		if !st.negated {
			st.sink.ToggleFixedWidth()
		}
	case format.Stop:
		if !st.negated {
			st.sink.ResetAllStyles()
		}
	case format.Negate:
		st.negated = !st.negated
	case format.Colour:
		st.colour(tok, numericSpec)
	case format.ColourHex:
		st.colour(tok, strings.ToUpper)
	case format.Hyperlink, format.Channel, format.Nickname:
		if tok.Close {
			st.closeLink(tok.Kind)
		} else {
			st.openLink(tok.Kind, tok.Text)
		}
	case format.Smilie:
		if tok.Close {
			if st.inSmilie {
				st.sink.EndSmilie()
				st.inSmilie = false
				st.forget(format.Smilie)
			}
		} else if !st.inSmilie {
			st.sink.StartSmilie(SmiliePrefix + tok.Text)
			st.inSmilie = true
			st.opened = append(st.opened, format.Smilie)
		}
	case format.Tooltip:
		if tok.Close {
			if st.inToolTip {
				st.sink.EndToolTip()
				st.inToolTip = false
				st.forget(format.Tooltip)
			}
		} else if !st.inToolTip {
			st.sink.StartToolTip(tok.Text)
			st.inToolTip = true
			st.opened = append(st.opened, format.Tooltip)
		}
	}
}

// numericSpec reduces a one or two digit colour number modulo 16.
func numericSpec(arg string) string {
	num, _ := strconv.Atoi(arg)
	return strconv.Itoa(num % colours.PaletteSize)
}

func (st *state) colour(tok format.Token, spec func(string) string) {
	if st.negated {
		return
	}
	if tok.Fg == "" {
		st.sink.ResetColours()
		return
	}
	st.sink.SetForeground(st.resolver.FromSpec(spec(tok.Fg), colours.White))
	if tok.Bg != "" {
		st.sink.SetBackground(st.resolver.FromSpec(spec(tok.Bg), colours.White))
	}
}

func (st *state) toggleLinkStyle(kind format.Kind) {
	switch kind {
	case format.Hyperlink:
		st.sink.ToggleHyperlinkStyle(st.config.linkColour)
	case format.Channel:
		st.sink.ToggleChannelLinkStyle(st.config.channelColour)
	}
}

func (st *state) openLink(kind format.Kind, payload string) {
	if st.inLink {
		return
	}
	st.linkStyled = !st.negated &&
		((kind == format.Hyperlink && st.config.StyleLinks) ||
			(kind == format.Channel && st.config.StyleChannels))
	if st.linkStyled {
		st.toggleLinkStyle(kind)
	}
	switch kind {
	case format.Hyperlink:
		st.sink.StartHyperlink(payload)
	case format.Channel:
		st.sink.StartChannelLink(payload)
	case format.Nickname:
		st.sink.StartNicknameLink(payload)
	}
	st.inLink = true
	st.linkKind = kind
	st.opened = append(st.opened, kind)
}

func (st *state) closeLink(kind format.Kind) {
	if !st.inLink || st.linkKind != kind {
		return
	}
	if st.linkStyled {
		st.toggleLinkStyle(kind)
	}
	switch kind {
	case format.Hyperlink:
		st.sink.EndHyperlink()
	case format.Channel:
		st.sink.EndChannelLink()
	case format.Nickname:
		st.sink.EndNicknameLink()
	}
	st.inLink = false
	st.linkStyled = false
	st.forget(kind)
}

func (st *state) forget(kind format.Kind) {
	for i := len(st.opened) - 1; i >= 0; i-- {
		if st.opened[i] == kind {
			st.opened = append(st.opened[:i], st.opened[i+1:]...)
			return
		}
	}
}

// closeAll ends every span still open, most recently opened first, so each
// Start call on the sink is matched by exactly one End call.
func (st *state) closeAll() {
	for len(st.opened) != 0 {
		st.apply(format.Close(st.opened[len(st.opened)-1]))
	}
}
