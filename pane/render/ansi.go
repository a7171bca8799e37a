// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package render

import (
	"strings"

	"github.com/muesli/termenv"
)

// ANSI renders for a terminal with the given colour profile. Hyperlinks are
// emitted as OSC 8 sequences; the Ascii profile gets plain text.
type ANSI struct {
	attributes
	profile termenv.Profile
	buf     strings.Builder

	inLink bool
	url    string
	link   strings.Builder
}

func NewANSI(profile termenv.Profile) *ANSI {
	return &ANSI{profile: profile}
}

func (a *ANSI) styled(text string) string {
	if a.profile == termenv.Ascii {
		return text
	}
	style := a.effective()
	out := a.profile.String(text)
	if style.Bold {
		out = out.Bold()
	}
	if style.Italic {
		out = out.Italic()
	}
	if style.Underline {
		out = out.Underline()
	}
	if style.Foreground.IsSet {
		out = out.Foreground(a.profile.Color("#" + style.Foreground.Hex()))
	}
	if style.Background.IsSet {
		out = out.Background(a.profile.Color("#" + style.Background.Hex()))
	}
	return out.String()
}

func (a *ANSI) AppendString(text string) {
	if a.inLink {
		a.link.WriteString(a.styled(text))
	} else {
		a.buf.WriteString(a.styled(text))
	}
}

func (a *ANSI) StartHyperlink(url string) {
	a.attributes.StartHyperlink(url)
	a.flushLink()
	a.inLink = true
	a.url = url
}

func (a *ANSI) EndHyperlink() {
	a.attributes.EndHyperlink()
	a.flushLink()
}

func (a *ANSI) flushLink() {
	if !a.inLink {
		return
	}
	if a.profile == termenv.Ascii {
		a.buf.WriteString(a.link.String())
	} else {
		a.buf.WriteString(termenv.Hyperlink(a.url, a.link.String()))
	}
	a.link.Reset()
	a.inLink = false
}

func (a *ANSI) Clear() {
	a.clearAttributes()
	a.buf.Reset()
	a.link.Reset()
	a.inLink = false
}

func (a *ANSI) Result() string {
	a.flushLink()
	return a.buf.String()
}
