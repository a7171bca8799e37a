// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package format

import (
	"strings"
)

// Builder assembles Text for producers that know the structure of what they
// are emitting (who said it, what a link points to). The zero value is ready
// to use.
type Builder struct {
	tokens Text
}

func (b *Builder) add(tok Token) *Builder {
	if tok.Kind == Literal {
		if tok.Text == "" {
			return b
		}
		if n := len(b.tokens); n != 0 && b.tokens[n-1].Kind == Literal {
			b.tokens[n-1].Text += tok.Text
			return b
		}
	}
	b.tokens = append(b.tokens, tok)
	return b
}

// Raw appends protocol text, keeping its visible codes.
func (b *Builder) Raw(raw string) *Builder {
	for _, tok := range Parse(raw) {
		b.add(tok)
	}
	return b
}

// Literal appends text verbatim, minus any codes it contains.
func (b *Builder) Literal(text string) *Builder {
	return b.add(Lit(strings.Map(dropCodes, sanitize(text))))
}

// Code appends one of the argument-free codes.
func (b *Builder) Code(kind Kind) *Builder {
	return b.add(Code(kind))
}

// Colour appends a numeric colour code; empty fg resets colours.
func (b *Builder) Colour(fg, bg string) *Builder {
	return b.add(Token{Kind: Colour, Fg: fg, Bg: bg})
}

func (b *Builder) span(kind Kind, payload, text string) *Builder {
	b.add(Open(kind, strings.Map(dropCodes, payload)))
	b.Raw(text)
	return b.add(Close(kind))
}

// Nickname appends text shown for nick, e.g. "<dan>" for "dan".
func (b *Builder) Nickname(nick, text string) *Builder {
	return b.span(Nickname, nick, text)
}

// Tooltip appends text that carries a tooltip.
func (b *Builder) Tooltip(tip, text string) *Builder {
	return b.span(Tooltip, tip, text)
}

// Hyperlink appends text that links to url.
func (b *Builder) Hyperlink(url, text string) *Builder {
	return b.span(Hyperlink, url, text)
}

// Channel appends a channel link.
func (b *Builder) Channel(name string) *Builder {
	return b.span(Channel, name, name)
}

// Text returns a copy of the tokens built so far.
func (b *Builder) Text() Text {
	return append(Text(nil), b.tokens...)
}

// Len returns the number of tokens built so far.
func (b *Builder) Len() int {
	return len(b.tokens)
}
