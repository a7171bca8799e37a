// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package search

import (
	"reflect"
	"testing"
	"time"

	"github.com/ergochat/textpane/pane/document"
)

func assertEqual(supplied, expected interface{}, t *testing.T) {
	t.Helper()
	if !reflect.DeepEqual(supplied, expected) {
		t.Errorf("expected %v but got %v", expected, supplied)
	}
}

type lines []string

func (l lines) Size() int { return len(l) }

func (l lines) LineText(i int) string { return l[i] }

func at(line, start, end int) Position {
	return Position{StartLine: line, StartPos: start, EndLine: line, EndPos: end}
}

var sentences = lines{
	"rar! this is a text sentence to search",
	"we need to have several of these",
	"then we can pretend to search through them if we want",
}

func TestNormalize(t *testing.T) {
	assertEqual(Position{2, 5, 1, 3}.Normalize(), Position{1, 3, 2, 5}, t)
	assertEqual(Position{1, 7, 1, 3}.Normalize(), Position{1, 3, 1, 7}, t)
	assertEqual(Position{1, 3, 2, 0}.Normalize(), Position{1, 3, 2, 0}, t)
}

func TestInitialCursor(t *testing.T) {
	s := New("to", sentences, true)
	assertEqual(s.Position(), at(2, 53, 53), t)
	assertEqual(New("to", lines{}, true).Position(), Position{}, t)
}

func TestSearchDown(t *testing.T) {
	s := New("to", sentences, true)

	pos, ok := s.SearchDown()
	assertEqual(ok, true, t)
	assertEqual(pos, at(0, 29, 31), t)

	pos, _ = s.SearchDown()
	assertEqual(pos, at(1, 8, 10), t)
	pos, _ = s.SearchDown()
	assertEqual(pos, at(2, 20, 22), t)
	// wrapped
	pos, _ = s.SearchDown()
	assertEqual(pos, at(0, 29, 31), t)
}

func TestSearchUp(t *testing.T) {
	s := New("to", sentences, true)

	pos, ok := s.SearchUp()
	assertEqual(ok, true, t)
	assertEqual(pos, at(2, 20, 22), t)
	pos, _ = s.SearchUp()
	assertEqual(pos, at(1, 8, 10), t)
	pos, _ = s.SearchUp()
	assertEqual(pos, at(0, 29, 31), t)
	pos, _ = s.SearchUp()
	assertEqual(pos, at(2, 20, 22), t)
}

func TestSeveralMatchesPerLine(t *testing.T) {
	s := New("we", sentences, true)
	s.SetPosition(at(1, 0, 0))

	var found []Position
	for i := 0; i < 4; i++ {
		pos, _ := s.SearchDown()
		found = append(found, pos)
	}
	assertEqual(found, []Position{at(1, 0, 2), at(2, 5, 7), at(2, 46, 48), at(1, 0, 2)}, t)

	found = nil
	for i := 0; i < 3; i++ {
		pos, _ := s.SearchUp()
		found = append(found, pos)
	}
	assertEqual(found, []Position{at(2, 46, 48), at(2, 5, 7), at(1, 0, 2)}, t)
}

func TestTotality(t *testing.T) {
	source := make(lines, 7)
	for i := range source {
		source[i] = "line with a needle in it"
	}
	s := New("needle", source, true)

	visited := make(map[int]int)
	var order []int
	for i := 0; i < len(source); i++ {
		pos, ok := s.SearchDown()
		if !ok {
			t.Fatalf("search %d found nothing", i)
		}
		visited[pos.StartLine]++
		order = append(order, pos.StartLine)
	}
	assertEqual(len(visited), len(source), t)
	assertEqual(order, []int{0, 1, 2, 3, 4, 5, 6}, t)

	// and then it repeats
	pos, _ := s.SearchDown()
	assertEqual(pos.StartLine, 0, t)
}

func TestSingleMatchWraps(t *testing.T) {
	s := New("only", lines{"nothing", "the only one", "nothing"}, true)
	for i := 0; i < 3; i++ {
		pos, ok := s.SearchDown()
		assertEqual(ok, true, t)
		assertEqual(pos, at(1, 4, 8), t)
	}
	for i := 0; i < 3; i++ {
		pos, ok := s.SearchUp()
		assertEqual(ok, true, t)
		assertEqual(pos, at(1, 4, 8), t)
	}
}

func TestNoMatch(t *testing.T) {
	_, ok := New("absent", sentences, true).SearchDown()
	assertEqual(ok, false, t)
	_, ok = New("absent", sentences, true).SearchUp()
	assertEqual(ok, false, t)
	_, ok = New("", sentences, true).SearchDown()
	assertEqual(ok, false, t)
	_, ok = New("to", lines{}, false).SearchUp()
	assertEqual(ok, false, t)
}

func TestLiteralPhrase(t *testing.T) {
	s := New("a.b(", lines{"axb( a.b( end"}, true)
	pos, ok := s.SearchDown()
	assertEqual(ok, true, t)
	assertEqual(pos, at(0, 5, 9), t)
}

func TestCaseSensitivity(t *testing.T) {
	source := lines{"Hello there", "say HELLO", "hello"}

	s := New("hello", source, true)
	var found []int
	for i := 0; i < 2; i++ {
		pos, _ := s.SearchDown()
		found = append(found, pos.StartLine)
	}
	assertEqual(found, []int{2, 2}, t)

	s = New("hello", source, false)
	found = nil
	for i := 0; i < 3; i++ {
		pos, _ := s.SearchDown()
		found = append(found, pos.StartLine)
	}
	assertEqual(found, []int{0, 1, 2}, t)

	// offsets are bytes into the original text
	s = New("ÉTÉ", lines{"un été chaud"}, false)
	pos, ok := s.SearchDown()
	assertEqual(ok, true, t)
	assertEqual(pos, at(0, 3, 8), t)
}

func TestDocumentTracking(t *testing.T) {
	epoch := time.Unix(0, 0)
	doc := document.New(document.Config{FrameBufferSize: 3}, nil)
	for _, text := range []string{"one match", "two", "three match"} {
		doc.Append(epoch, document.Properties{}, text)
	}
	s := New("match", doc, true)
	cancel := doc.Subscribe(s)
	defer cancel()

	pos, _ := s.SearchUp()
	assertEqual(pos, at(2, 6, 11), t)

	// "one match" is evicted, so the cursor's line moves up
	doc.Append(epoch, document.Properties{}, "four")
	assertEqual(s.Position(), at(1, 6, 11), t)
	pos, _ = s.SearchUp()
	assertEqual(pos, at(1, 6, 11), t)

	doc.Clear()
	_, ok := s.SearchDown()
	assertEqual(ok, false, t)
	doc.Append(epoch, document.Properties{}, "a match again")
	pos, ok = s.SearchDown()
	assertEqual(ok, true, t)
	assertEqual(pos, at(0, 2, 7), t)
}
