// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package document

import (
	"sync/atomic"
	"time"

	"github.com/ergochat/textpane/pane/format"
)

// Font is the typeface lines are rendered with.
type Font struct {
	Name string
	Size int
}

// Line is one line of scrollback. Everything but the font is fixed when the
// line is appended; the font is updated in place by settings refreshes.
type Line struct {
	time       time.Time
	timestamp  string
	text       format.Text
	plain      string
	properties Properties
	font       atomic.Pointer[Font]
}

func newLine(t time.Time, timestamp string, text format.Text, properties Properties, font *Font) *Line {
	line := &Line{
		time:       t,
		timestamp:  timestamp,
		text:       text,
		plain:      text.Plain(),
		properties: properties,
	}
	line.font.Store(font)
	return line
}

// Time returns the time the line was appended for.
func (line *Line) Time() time.Time {
	return line.time
}

// Timestamp returns the formatted timestamp.
func (line *Line) Timestamp() string {
	return line.timestamp
}

// Text returns the formatted text. Callers must not modify it.
func (line *Line) Text() format.Text {
	return line.text
}

// Plain returns the text without formatting.
func (line *Line) Plain() string {
	return line.plain
}

func (line *Line) Properties() Properties {
	return line.properties
}

func (line *Line) Font() Font {
	return *line.font.Load()
}

func (line *Line) FontName() string {
	return line.font.Load().Name
}

func (line *Line) FontSize() int {
	return line.font.Load().Size
}
