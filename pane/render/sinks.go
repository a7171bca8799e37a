// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package render

import (
	"strings"

	"github.com/ergochat/textpane/pane/styliser"
	"github.com/ergochat/textpane/pane/utils"
)

// Backend is a Sink that can hand back what it rendered.
type Backend[T any] interface {
	styliser.Sink
	Result() T
}

// Plain renders text only.
type Plain struct {
	attributes
	buf strings.Builder
}

func NewPlain() *Plain {
	return new(Plain)
}

func (p *Plain) AppendString(text string) {
	p.buf.WriteString(text)
}

func (p *Plain) Clear() {
	p.clearAttributes()
	p.buf.Reset()
}

func (p *Plain) Result() string {
	return p.buf.String()
}

// Wrapped renders text only, word-wrapped to a display width.
type Wrapped struct {
	Plain
	width int
}

func NewWrapped(width int) *Wrapped {
	return &Wrapped{width: width}
}

func (w *Wrapped) Result() []string {
	return utils.WordWrap(w.Plain.Result(), w.width)
}

// Run is a piece of text with uniform style and spans.
type Run struct {
	Text string
	Style
	Spans
}

// Runs renders to a list of styled runs; adjacent text with identical
// attributes is merged into one run.
type Runs struct {
	attributes
	runs []Run
}

func NewRuns() *Runs {
	return new(Runs)
}

func (r *Runs) AppendString(text string) {
	if text == "" {
		return
	}
	run := Run{Style: r.effective(), Spans: r.spans}
	if n := len(r.runs); n != 0 && r.runs[n-1].Style == run.Style && r.runs[n-1].Spans == run.Spans {
		r.runs[n-1].Text += text
		return
	}
	run.Text = text
	r.runs = append(r.runs, run)
}

func (r *Runs) Clear() {
	r.clearAttributes()
	r.runs = nil
}

func (r *Runs) Result() []Run {
	return r.runs
}
