// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

// Package render provides concrete styliser sinks and a rolling cache of
// rendered document lines.
package render

import (
	"github.com/ergochat/textpane/pane/colours"
)

// Style is the set of attributes applied to a run of text. Unset colours
// mean "the default colour".
type Style struct {
	Bold       bool
	Underline  bool
	Italic     bool
	Fixed      bool
	Foreground colours.Colour
	Background colours.Colour
}

// Spans records which spans enclose a run of text.
type Spans struct {
	Hyperlink string
	Channel   string
	Nickname  string
	Smilie    string
	ToolTip   string
}

// attributes tracks the style state shared by every sink here; the concrete
// sinks embed it and add output.
type attributes struct {
	style     Style
	defaultFg colours.Colour
	defaultBg colours.Colour

	linkStyled bool
	// style to restore when the link style is toggled off
	beforeLink Style

	spans    Spans
	fontName string
	fontSize int
}

// effective returns the current style with default colours filled in.
func (a *attributes) effective() (style Style) {
	style = a.style
	if !style.Foreground.IsSet {
		style.Foreground = a.defaultFg
	}
	if !style.Background.IsSet {
		style.Background = a.defaultBg
	}
	return
}

func (a *attributes) ResetAllStyles() {
	a.style = Style{}
	a.linkStyled = false
}

func (a *attributes) ResetColours() {
	a.style.Foreground = colours.Colour{}
	a.style.Background = colours.Colour{}
}

func (a *attributes) ToggleBold()       { a.style.Bold = !a.style.Bold }
func (a *attributes) ToggleUnderline()  { a.style.Underline = !a.style.Underline }
func (a *attributes) ToggleItalic()     { a.style.Italic = !a.style.Italic }
func (a *attributes) ToggleFixedWidth() { a.style.Fixed = !a.style.Fixed }

func (a *attributes) SetForeground(colour colours.Colour) { a.style.Foreground = colour }
func (a *attributes) SetBackground(colour colours.Colour) { a.style.Background = colour }

func (a *attributes) SetDefaultForeground(colour colours.Colour) { a.defaultFg = colour }
func (a *attributes) SetDefaultBackground(colour colours.Colour) { a.defaultBg = colour }

// toggleLinkStyle underlines and recolours link text, and restores the
// previous underline and colour when toggled again.
func (a *attributes) toggleLinkStyle(colour colours.Colour) {
	if a.linkStyled {
		a.style.Underline = a.beforeLink.Underline
		a.style.Foreground = a.beforeLink.Foreground
	} else {
		a.beforeLink = a.style
		a.style.Underline = true
		if colour.IsSet {
			a.style.Foreground = colour
		}
	}
	a.linkStyled = !a.linkStyled
}

func (a *attributes) ToggleHyperlinkStyle(colour colours.Colour)   { a.toggleLinkStyle(colour) }
func (a *attributes) ToggleChannelLinkStyle(colour colours.Colour) { a.toggleLinkStyle(colour) }

func (a *attributes) StartHyperlink(url string)     { a.spans.Hyperlink = url }
func (a *attributes) EndHyperlink()                 { a.spans.Hyperlink = "" }
func (a *attributes) StartChannelLink(name string)  { a.spans.Channel = name }
func (a *attributes) EndChannelLink()               { a.spans.Channel = "" }
func (a *attributes) StartNicknameLink(nick string) { a.spans.Nickname = nick }
func (a *attributes) EndNicknameLink()              { a.spans.Nickname = "" }
func (a *attributes) StartSmilie(name string)       { a.spans.Smilie = name }
func (a *attributes) EndSmilie()                    { a.spans.Smilie = "" }
func (a *attributes) StartToolTip(text string)      { a.spans.ToolTip = text }
func (a *attributes) EndToolTip()                   { a.spans.ToolTip = "" }

func (a *attributes) SetDefaultFont(name string, size int) {
	a.fontName = name
	a.fontSize = size
}

func (a *attributes) MaximumFontSize() int {
	return a.fontSize
}

func (a *attributes) clearAttributes() {
	*a = attributes{}
}
