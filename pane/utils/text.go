// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WordWrap wraps the given text into a series of lines whose display width
// doesn't exceed lineWidth columns. A lineWidth of zero or less disables
// wrapping (the text is only split at newlines).
func WordWrap(text string, lineWidth int) []string {
	var lines []string
	var cacheLine, cacheWord strings.Builder
	var lineCols, wordCols int

	flushWord := func() {
		cacheLine.WriteString(cacheWord.String())
		lineCols += wordCols
		cacheWord.Reset()
		wordCols = 0
	}
	flushLine := func() {
		lines = append(lines, cacheLine.String())
		cacheLine.Reset()
		lineCols = 0
	}

	for _, char := range text {
		width := runewidth.RuneWidth(char)
		if char == '\r' {
			continue
		} else if char == '\n' {
			flushWord()
			flushLine()
			continue
		} else if lineWidth <= 0 || lineCols+wordCols+width <= lineWidth {
			cacheWord.WriteRune(char)
			wordCols += width
			if char == ' ' || char == '-' {
				// natural word boundary
				flushWord()
			}
			continue
		}

		// time to wrap to next line
		if lineCols < (lineWidth / 2) {
			// this word takes up more than half a line... just split in the middle of the word
			flushWord()
		}
		flushLine()
		cacheWord.WriteRune(char)
		wordCols += width
	}
	flushWord()
	if 0 < cacheLine.Len() {
		flushLine()
	}

	return lines
}

// DisplayWidth returns the number of terminal columns needed for s.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}
