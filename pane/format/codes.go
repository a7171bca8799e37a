// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

// Package format implements the in-band formatting alphabet used in chat
// text, and a token model for it. Protocol text only ever carries the visible
// codes; the span markers exist for the legacy "marked" encoding that message
// producers may emit to tag hyperlinks, nicknames and the like.
package format

import (
	"strings"
)

const (
	// visible codes, as found in protocol text
	CodeBold      byte = 0x02
	CodeColour    byte = 0x03
	CodeColourHex byte = 0x04
	CodeStop      byte = 0x0f
	CodeFixed     byte = 0x11
	CodeNegate    byte = 0x12
	CodeItalic    byte = 0x1d
	CodeUnderline byte = 0x1f

	// span markers, only meaningful in marked text
	CodeHyperlink byte = 0x05
	CodeNickname  byte = 0x10
	CodeTooltip   byte = 0x13
	CodeChannel   byte = 0x14
	CodeSmilie    byte = 0x15
)

var (
	visibleCodes = string([]byte{CodeBold, CodeColour, CodeColourHex, CodeStop,
		CodeFixed, CodeNegate, CodeItalic, CodeUnderline})
	markerCodes = string([]byte{CodeHyperlink, CodeNickname, CodeTooltip,
		CodeChannel, CodeSmilie})
	allCodes = visibleCodes + markerCodes
)

// IsControl reports whether c is any recognized code, visible or marker.
func IsControl(c byte) bool {
	return strings.IndexByte(allCodes, c) != -1
}

// IsMarker reports whether c is one of the span markers.
func IsMarker(c byte) bool {
	return strings.IndexByte(markerCodes, c) != -1
}

// ReadUntilControl returns the longest prefix of s that contains no code.
// If the result is shorter than s, the next byte of s is a code.
func ReadUntilControl(s string) string {
	if idx := strings.IndexAny(s, allCodes); idx != -1 {
		return s[:idx]
	}
	return s
}

func dropMarkers(r rune) rune {
	if r < 0x20 && IsMarker(byte(r)) {
		return -1
	}
	return r
}

func dropCodes(r rune) rune {
	if r < 0x20 && IsControl(byte(r)) {
		return -1
	}
	return r
}

// sanitize replaces undecodable input with '?', as does the U+FFFD that
// upstream decoders leave behind.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "?")
	return strings.ReplaceAll(s, "\uFFFD", "?")
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hasHexString(s string, offset int) bool {
	if len(s) < offset+6 {
		return false
	}
	for i := offset; i < offset+6; i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}
