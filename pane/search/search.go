// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

// Package search finds literal phrases in the scrollback, one match at a
// time, wrapping around the ends of the document.
package search

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"github.com/ergochat/textpane/pane/document"
)

// Position is a selection inside a document: a start and an end (line index
// plus byte offset into that line's plain text).
type Position struct {
	StartLine int
	StartPos  int
	EndLine   int
	EndPos    int
}

// Normalize returns the position with its start before its end.
func (p Position) Normalize() Position {
	if p.StartLine > p.EndLine || (p.StartLine == p.EndLine && p.StartPos > p.EndPos) {
		p.StartLine, p.EndLine = p.EndLine, p.StartLine
		p.StartPos, p.EndPos = p.EndPos, p.StartPos
	}
	return p
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", p.StartLine, p.StartPos, p.EndLine, p.EndPos)
}

// Source is what a Searcher reads; *document.Document implements it.
type Source interface {
	Size() int
	LineText(i int) string
}

type match struct {
	start, end int
}

// Searcher walks the matches of one phrase. It implements document.Listener,
// so subscribing it to its document keeps the cursor on the same line
// when old lines are trimmed.
type Searcher struct {
	document.NopListener

	sync.Mutex
	phrase  string
	source  Source
	pattern *search.Pattern // nil when matching case-sensitively
	cursor  Position
	valid   bool
}

// New returns a searcher for phrase over source, with its cursor at the end
// of the document.
func New(phrase string, source Source, caseSensitive bool) *Searcher {
	s := &Searcher{
		phrase: phrase,
		source: source,
	}
	if !caseSensitive && phrase != "" {
		s.pattern = search.New(language.Und, search.IgnoreCase).CompileString(phrase)
	}
	s.cursor, s.valid = endPosition(source)
	return s
}

func endPosition(source Source) (Position, bool) {
	last := source.Size() - 1
	if last < 0 {
		return Position{}, false
	}
	length := len(source.LineText(last))
	return Position{StartLine: last, StartPos: length, EndLine: last, EndPos: length}, true
}

// Phrase returns the phrase being searched for.
func (s *Searcher) Phrase() string {
	return s.phrase
}

// Position returns the cursor.
func (s *Searcher) Position() Position {
	s.Lock()
	defer s.Unlock()
	return s.cursor
}

// SetPosition moves the cursor; the next search starts from there.
func (s *Searcher) SetPosition(p Position) {
	s.Lock()
	defer s.Unlock()
	s.cursor = p.Normalize()
	s.valid = true
}

// Trimmed implements document.Listener.
func (s *Searcher) Trimmed(size, evicted int) {
	s.Lock()
	defer s.Unlock()
	s.cursor.StartLine -= evicted
	s.cursor.EndLine -= evicted
	if s.cursor.StartLine < 0 {
		s.valid = false
	}
}

// Cleared implements document.Listener.
func (s *Searcher) Cleared() {
	s.Lock()
	defer s.Unlock()
	s.valid = false
}

// cursorLocked returns a cursor that is inside the document, falling back
// to the end position.
func (s *Searcher) cursorLocked(size int) (Position, bool) {
	if !s.valid || s.cursor.StartLine < 0 || s.cursor.EndLine >= size {
		s.cursor, s.valid = endPosition(s.source)
	}
	return s.cursor, s.valid
}

// SearchDown returns the first match after the cursor, scanning forward
// and wrapping to the first line after the last. The cursor moves to the
// match. It returns false when the phrase occurs nowhere.
func (s *Searcher) SearchDown() (result Position, found bool) {
	s.Lock()
	defer s.Unlock()

	size := s.source.Size()
	if s.phrase == "" || size == 0 {
		return
	}
	cursor, ok := s.cursorLocked(size)
	if !ok {
		return
	}

	for step := 0; step <= size; step++ {
		line := (cursor.EndLine + step) % size
		matches := s.find(s.source.LineText(line))
		for _, m := range matches {
			// the cursor line is constrained on the first visit only;
			// coming back to it after a full wrap takes any match
			if step == 0 && m.end <= cursor.EndPos {
				continue
			}
			result = Position{StartLine: line, StartPos: m.start, EndLine: line, EndPos: m.end}
			s.cursor = result
			return result, true
		}
	}
	return
}

// SearchUp returns the nearest match before the cursor, scanning backward
// and wrapping to the last line before the first.
func (s *Searcher) SearchUp() (result Position, found bool) {
	s.Lock()
	defer s.Unlock()

	size := s.source.Size()
	if s.phrase == "" || size == 0 {
		return
	}
	cursor, ok := s.cursorLocked(size)
	if !ok {
		return
	}

	for step := 0; step <= size; step++ {
		line := ((cursor.StartLine-step)%size + size) % size
		matches := s.find(s.source.LineText(line))
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			if step == 0 && m.start >= cursor.StartPos {
				continue
			}
			result = Position{StartLine: line, StartPos: m.start, EndLine: line, EndPos: m.end}
			s.cursor = result
			return result, true
		}
	}
	return
}

// find returns the non-overlapping matches of the phrase in text, in order.
func (s *Searcher) find(text string) (matches []match) {
	offset := 0
	for offset < len(text) {
		var start, end int
		if s.pattern != nil {
			start, end = s.pattern.IndexString(text[offset:])
		} else {
			start = strings.Index(text[offset:], s.phrase)
			end = start + len(s.phrase)
		}
		if start < 0 || end <= start {
			break
		}
		matches = append(matches, match{start: offset + start, end: offset + end})
		offset += end
	}
	return
}
