// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package format

import (
	"strings"
)

// Parse lexes protocol text. Only the visible codes are recognized; marker
// bytes are reserved and silently dropped, and invalid characters become '?'.
// Parse never fails: malformed code arguments degrade to colour resets or to
// plain text.
func Parse(raw string) Text {
	return lex(strings.Map(dropMarkers, sanitize(raw)), false)
}

// ParseMarked decodes the legacy marked encoding, which adds the span markers
// to the visible codes. Each span kind is paired independently: its first
// marker opens, the next one closes. Nickname and tooltip openers carry their
// payload between the opening marker and a second marker, so a complete
// nickname span is written as marker, nick, marker, text, marker. Hyperlink,
// channel and smilie openers take the text up to the next code as payload.
// An opener whose payload is not terminated is skipped.
func ParseMarked(s string) Text {
	return lex(sanitize(s), true)
}

// Strip removes all formatting from protocol text.
func Strip(raw string) string {
	return Parse(raw).Plain()
}

// StripMarked removes all formatting from marked text, leaving tooltip spans
// as their inner text.
func StripMarked(s string) string {
	return ParseMarked(s).Plain()
}

type lexer struct {
	marked bool
	open   [Tooltip + 1]bool
	tokens Text
}

func lex(s string, marked bool) Text {
	l := lexer{marked: marked}
	for len(s) != 0 {
		literal := ReadUntilControl(s)
		l.literal(literal)
		s = s[len(literal):]
		if len(s) != 0 {
			s = s[l.code(s):]
		}
	}
	return l.tokens
}

func (l *lexer) literal(text string) {
	if text == "" {
		return
	}
	if n := len(l.tokens); n != 0 && l.tokens[n-1].Kind == Literal {
		l.tokens[n-1].Text += text
		return
	}
	l.tokens = append(l.tokens, Lit(text))
}

// code consumes the code at the start of s and returns how many bytes it
// used, including arguments.
func (l *lexer) code(s string) (consumed int) {
	switch s[0] {
	case CodeBold:
		l.tokens = append(l.tokens, Code(Bold))
	case CodeUnderline:
		l.tokens = append(l.tokens, Code(Underline))
	case CodeItalic:
		l.tokens = append(l.tokens, Code(Italic))
	case CodeFixed:
		l.tokens = append(l.tokens, Code(Fixed))
	case CodeStop:
		l.tokens = append(l.tokens, Code(Stop))
	case CodeNegate:
		l.tokens = append(l.tokens, Code(Negate))
	case CodeColour:
		tok, n := readColour(s)
		l.tokens = append(l.tokens, tok)
		return n
	case CodeColourHex:
		tok, n := readHexColour(s)
		l.tokens = append(l.tokens, tok)
		return n
	case CodeHyperlink:
		l.span(Hyperlink, ReadUntilControl(s[1:]))
	case CodeChannel:
		l.span(Channel, ReadUntilControl(s[1:]))
	case CodeSmilie:
		l.span(Smilie, ReadUntilControl(s[1:]))
	case CodeNickname, CodeTooltip:
		kind := Nickname
		if s[0] == CodeTooltip {
			kind = Tooltip
		}
		if l.open[kind] {
			l.span(kind, "")
			return 1
		}
		end := strings.IndexByte(s[1:], s[0])
		if end == -1 {
			return 1
		}
		l.span(kind, s[1:1+end])
		return end + 2
	}
	return 1
}

func (l *lexer) span(kind Kind, payload string) {
	if !l.marked {
		return
	}
	if l.open[kind] {
		l.tokens = append(l.tokens, Close(kind))
	} else {
		l.tokens = append(l.tokens, Open(kind, payload))
	}
	l.open[kind] = !l.open[kind]
}

// readColour reads a numeric colour code: up to two digits of foreground,
// then optionally a comma and up to two digits of background.
func readColour(s string) (tok Token, consumed int) {
	tok.Kind = Colour
	consumed = 1
	fg := digitRun(s[consumed:])
	if fg == 0 {
		return
	}
	tok.Fg = s[consumed : consumed+fg]
	consumed += fg
	if consumed < len(s) && s[consumed] == ',' {
		if bg := digitRun(s[consumed+1:]); bg != 0 {
			tok.Bg = s[consumed+1 : consumed+1+bg]
			consumed += 1 + bg
		}
	}
	return
}

func digitRun(s string) (n int) {
	for n < 2 && n < len(s) && isDigit(s[n]) {
		n++
	}
	return
}

// readHexColour reads exactly six hex digits of foreground, then optionally
// a comma and exactly six more of background.
func readHexColour(s string) (tok Token, consumed int) {
	tok.Kind = ColourHex
	consumed = 1
	if !hasHexString(s, consumed) {
		return
	}
	tok.Fg = s[consumed : consumed+6]
	consumed += 6
	if consumed < len(s) && s[consumed] == ',' && hasHexString(s, consumed+1) {
		tok.Bg = s[consumed+1 : consumed+7]
		consumed += 7
	}
	return
}
