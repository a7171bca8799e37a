// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package format

import (
	"strings"
)

// Kind identifies what a Token represents.
type Kind uint8

const (
	Literal Kind = iota
	Bold
	Underline
	Italic
	Fixed
	Stop
	Negate
	Colour
	ColourHex
	Hyperlink
	Channel
	Nickname
	Smilie
	Tooltip
)

var kindNames = [...]string{
	Literal:   "Literal",
	Bold:      "Bold",
	Underline: "Underline",
	Italic:    "Italic",
	Fixed:     "Fixed",
	Stop:      "Stop",
	Negate:    "Negate",
	Colour:    "Colour",
	ColourHex: "ColourHex",
	Hyperlink: "Hyperlink",
	Channel:   "Channel",
	Nickname:  "Nickname",
	Smilie:    "Smilie",
	Tooltip:   "Tooltip",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsSpan reports whether tokens of this kind open and close spans.
func (k Kind) IsSpan() bool {
	return Hyperlink <= k && k <= Tooltip
}

// Token is one element of formatted text.
type Token struct {
	Kind Kind
	// Text is the content of a Literal, or the payload of a span opener
	// (URL, channel name, nickname, smilie name or tooltip text).
	Text string
	// Fg and Bg are colour arguments exactly as written; an empty Fg on a
	// colour token means "reset colours".
	Fg, Bg string
	// Close marks a span token that ends its span.
	Close bool
}

// Lit returns a literal token.
func Lit(text string) Token {
	return Token{Kind: Literal, Text: text}
}

// Code returns a token for one of the argument-free codes.
func Code(kind Kind) Token {
	return Token{Kind: kind}
}

// Open returns a span opener with the given payload.
func Open(kind Kind, payload string) Token {
	return Token{Kind: kind, Text: payload}
}

// Close returns a span closer.
func Close(kind Kind) Token {
	return Token{Kind: kind, Close: true}
}

// Text is a sequence of tokens. Values are treated as immutable once built.
type Text []Token

// Plain returns the visible text with all formatting removed. Span payloads
// are not part of the visible text, so a tooltip span yields its inner text.
func (t Text) Plain() string {
	var buf strings.Builder
	for _, tok := range t {
		if tok.Kind == Literal {
			buf.WriteString(tok.Text)
		}
	}
	return buf.String()
}

// Lines splits the text at newlines. Spans still open at a line break are
// closed at the end of that line and reopened at the start of the next. A
// single trailing newline does not produce an empty final line.
func (t Text) Lines() []Text {
	var lines []Text
	var current Text
	var open []Token
	for _, tok := range t {
		if tok.Kind != Literal {
			if tok.Kind.IsSpan() {
				if tok.Close {
					for i := len(open) - 1; i >= 0; i-- {
						if open[i].Kind == tok.Kind {
							open = append(open[:i], open[i+1:]...)
							break
						}
					}
				} else {
					open = append(open, tok)
				}
			}
			current = append(current, tok)
			continue
		}
		for i, part := range strings.Split(tok.Text, "\n") {
			if i > 0 {
				for j := len(open) - 1; j >= 0; j-- {
					current = append(current, Close(open[j].Kind))
				}
				lines = append(lines, current)
				current = append(Text(nil), open...)
			}
			if part != "" {
				current = append(current, Lit(part))
			}
		}
	}
	if len(lines) == 0 || len(current) != 0 {
		lines = append(lines, current)
	}
	return lines
}

// Raw encodes the text as protocol text. Spans carry no visible codes, so
// only their inner text survives.
func (t Text) Raw() string {
	var buf strings.Builder
	for i, tok := range t {
		switch tok.Kind {
		case Literal:
			buf.WriteString(tok.Text)
		case Bold:
			buf.WriteByte(CodeBold)
		case Underline:
			buf.WriteByte(CodeUnderline)
		case Italic:
			buf.WriteByte(CodeItalic)
		case Fixed:
			buf.WriteByte(CodeFixed)
		case Stop:
			buf.WriteByte(CodeStop)
		case Negate:
			buf.WriteByte(CodeNegate)
		case Colour:
			buf.WriteByte(CodeColour)
			// a following digit would otherwise be read as part of the colour
			padding := nextStartsWithDigit(t, i)
			if tok.Fg != "" {
				writeColourNumber(&buf, tok.Fg, padding && tok.Bg == "")
				if tok.Bg != "" {
					buf.WriteByte(',')
					writeColourNumber(&buf, tok.Bg, padding)
				}
			}
		case ColourHex:
			buf.WriteByte(CodeColourHex)
			if tok.Fg != "" {
				buf.WriteString(tok.Fg)
				if tok.Bg != "" {
					buf.WriteByte(',')
					buf.WriteString(tok.Bg)
				}
			}
		}
	}
	return buf.String()
}

func nextStartsWithDigit(t Text, i int) bool {
	for _, tok := range t[i+1:] {
		if tok.Kind == Literal {
			return tok.Text != "" && isDigit(tok.Text[0])
		}
		if !tok.Kind.IsSpan() {
			return false
		}
	}
	return false
}

func writeColourNumber(buf *strings.Builder, number string, pad bool) {
	if pad && len(number) == 1 {
		buf.WriteByte('0')
	}
	buf.WriteString(number)
}
