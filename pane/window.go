// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import (
	"fmt"
	"time"

	"code.cloudfoundry.org/bytefmt"

	"github.com/ergochat/textpane/pane/archive"
	"github.com/ergochat/textpane/pane/colours"
	"github.com/ergochat/textpane/pane/document"
	"github.com/ergochat/textpane/pane/format"
	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/search"
	"github.com/ergochat/textpane/pane/styliser"
)

// Window is one scrollback (a channel, a query, or the status window) with
// everything needed to style it: its own palette, styliser and document.
type Window struct {
	name     string
	resolver *colours.Resolver
	styliser *styliser.Styliser
	document *document.Document
	archive  archive.Store
	logger   *logger.Manager
}

// NewWindow builds a window from config. Lines added to it are archived in
// store, which may be nil.
func NewWindow(name string, config *Config, store archive.Store, logger *logger.Manager) *Window {
	resolver := colours.NewResolver(logger)
	resolver.SetPalette(config.Palette())
	return &Window{
		name:     name,
		resolver: resolver,
		styliser: styliser.New(config.StyliserOptions(), resolver, logger),
		document: document.New(config.DocumentConfig(), logger),
		archive:  store,
		logger:   logger,
	}
}

func (w *Window) Name() string {
	return w.name
}

func (w *Window) Document() *document.Document {
	return w.document
}

func (w *Window) Styliser() *styliser.Styliser {
	return w.styliser
}

func (w *Window) Resolver() *colours.Resolver {
	return w.resolver
}

// AddLine adds protocol text to the window. The text is always shown; an
// error means only that it could not be archived.
func (w *Window) AddLine(t time.Time, properties document.Properties, raw string) error {
	return w.AddText(t, properties, format.Parse(raw))
}

// AddText adds formatted text to the window, archiving each line of it.
func (w *Window) AddText(t time.Time, properties document.Properties, text format.Text) error {
	if t.IsZero() {
		t = time.Now()
	}
	w.document.AppendText(t, properties, text)

	if w.archive == nil {
		return nil
	}
	if noDisplay, _ := document.Get(properties, document.NoDisplay); noDisplay {
		return nil
	}
	parts := text.Lines()
	entries := make([]archive.Entry, len(parts))
	for i, part := range parts {
		entries[i] = archive.NewEntry(t, part)
	}
	err := w.archive.Append(w.name, entries...)
	if err != nil {
		w.logger.Warning("archive", "Could not archive line", w.name, err.Error())
	}
	return err
}

// Backfill loads up to limit of the newest archived lines into the window,
// without archiving them again.
func (w *Window) Backfill(limit int) (count int, err error) {
	if w.archive == nil || limit <= 0 {
		return 0, nil
	}
	entries, err := w.archive.Recent(w.name, limit)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		w.document.AppendText(entry.Time, document.Properties{}, entry.Text)
	}
	w.logger.Debug("archive", "Backfilled window", w.name, fmt.Sprintf("%d lines", len(entries)))
	return len(entries), nil
}

// ApplyConfig refreshes the window's palette, link styling and scrollback
// settings. The palette goes first, since the styliser resolves its link
// colours against it.
func (w *Window) ApplyConfig(config *Config) {
	w.resolver.SetPalette(config.Palette())
	w.styliser.SetOptions(config.StyliserOptions())
	w.document.ApplyConfig(config.DocumentConfig())
}

// Search returns a searcher over the window's scrollback that follows the
// document as old lines are trimmed. Call cancel when done with it.
func (w *Window) Search(phrase string, caseSensitive bool) (searcher *search.Searcher, cancel func()) {
	searcher = search.New(phrase, w.document, caseSensitive)
	cancel = w.document.Subscribe(searcher)
	return
}

// WindowStats summarizes a window's scrollback.
type WindowStats struct {
	Lines     int
	TextBytes uint64
}

func (s WindowStats) String() string {
	return fmt.Sprintf("%d lines, %s of text", s.Lines, bytefmt.ByteSize(s.TextBytes))
}

// Stats counts the lines in the window and the size of their plain text.
func (w *Window) Stats() (stats WindowStats) {
	for _, line := range w.document.All() {
		stats.Lines++
		stats.TextBytes += uint64(len(line.Plain()))
	}
	return
}
