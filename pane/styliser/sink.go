// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package styliser

import (
	"github.com/ergochat/textpane/pane/colours"
)

// Sink receives the style operations produced by the Styliser. Each
// rendering backend implements it; implementations may wrap another Sink to
// post-process its output.
type Sink interface {
	AppendString(text string)

	ResetAllStyles()
	ResetColours()
	ToggleBold()
	ToggleUnderline()
	ToggleItalic()
	ToggleFixedWidth()

	SetForeground(colour colours.Colour)
	SetBackground(colour colours.Colour)
	SetDefaultForeground(colour colours.Colour)
	SetDefaultBackground(colour colours.Colour)

	StartHyperlink(url string)
	EndHyperlink()
	ToggleHyperlinkStyle(colour colours.Colour)
	StartChannelLink(name string)
	EndChannelLink()
	ToggleChannelLinkStyle(colour colours.Colour)
	StartNicknameLink(nick string)
	EndNicknameLink()
	StartSmilie(name string)
	EndSmilie()
	StartToolTip(text string)
	EndToolTip()

	SetDefaultFont(name string, size int)
	MaximumFontSize() int
	Clear()
}
