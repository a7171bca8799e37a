// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

// Package document implements the scrollback buffer: a bounded, ordered
// sequence of formatted lines with change notification.
package document

import (
	"strconv"
	"sync"
	"time"

	"github.com/ergochat/textpane/pane/format"
	"github.com/ergochat/textpane/pane/logger"
)

const (
	DefaultTimestampFormat = "15:04:05"
	DefaultFontName        = "monospace"
	DefaultFontSize        = 12
)

// Config holds the settings a document caches.
type Config struct {
	// FrameBufferSize caps the number of lines; 0 means unbounded.
	FrameBufferSize int
	FontName        string
	FontSize        int
	// TimestampFormat is a time.Format layout applied when lines are appended.
	TimestampFormat string
}

func (config *Config) setDefaults() {
	if config.FrameBufferSize < 0 {
		config.FrameBufferSize = 0
	}
	if config.FontName == "" {
		config.FontName = DefaultFontName
	}
	if config.FontSize <= 0 {
		config.FontSize = DefaultFontSize
	}
	if config.TimestampFormat == "" {
		config.TimestampFormat = DefaultTimestampFormat
	}
}

// Listener is notified of changes to a Document. Callbacks run on the
// goroutine that made the change, after the document lock is released, in
// the order the changes were made; a listener sees every change made after
// it subscribed. The document may have moved on by the time a callback
// runs, so the arguments describe it as of that change. Callbacks may read
// the document, but must not modify it.
type Listener interface {
	// LinesAdded reports the lines appended at index start; size is the
	// document size after the append and any trimming it caused. Lines that
	// an append pushed straight out again are not reported.
	LinesAdded(start int, lines []*Line, size int)
	// Trimmed reports that the evicted oldest lines were removed. An append
	// reports its new lines before the trim it caused.
	Trimmed(size, evicted int)
	Cleared()
	// RepaintNeeded reports that every line may render differently.
	RepaintNeeded()
}

// NopListener implements Listener by doing nothing; embed it to implement
// only some of the callbacks.
type NopListener struct{}

func (NopListener) LinesAdded(start int, lines []*Line, size int) {}
func (NopListener) Trimmed(size, evicted int)                     {}
func (NopListener) Cleared()                                      {}
func (NopListener) RepaintNeeded()                                {}

// Document is the scrollback for one window. It is safe for concurrent use.
type Document struct {
	sync.RWMutex // tier 1

	lines  ring
	config Config
	font   *Font

	// changes are numbered under the main lock and delivered in that order
	// under deliveryMutex, which is never taken with the main lock held
	deliveryMutex sync.Mutex // tier 2
	delivered     sync.Cond
	queued        uint64
	next          uint64

	listenersMutex sync.Mutex // tier 3
	listeners      map[uint64]Listener
	nextListenerID uint64

	logger *logger.Manager
}

// New returns an empty document.
func New(config Config, logger *logger.Manager) *Document {
	config.setDefaults()
	doc := &Document{
		lines:     newRing(),
		config:    config,
		font:      &Font{Name: config.FontName, Size: config.FontSize},
		listeners: make(map[uint64]Listener),
		logger:    logger,
	}
	doc.delivered.L = &doc.deliveryMutex
	return doc
}

// Subscribe registers l for change notifications until cancel is called.
// Changes already being delivered when cancel returns may still reach l.
func (doc *Document) Subscribe(l Listener) (cancel func()) {
	_, cancel = doc.subscribe(l, false)
	return
}

// Follow is Subscribe, but also returns the lines l starts from: every
// later change is reported to l, and no earlier one is.
func (doc *Document) Follow(l Listener) (lines []*Line, cancel func()) {
	return doc.subscribe(l, true)
}

func (doc *Document) subscribe(l Listener, snapshot bool) (lines []*Line, cancel func()) {
	// listeners are captured under the main lock when a change is queued
	doc.Lock()
	if snapshot {
		lines = doc.lines.slice(0, doc.lines.length())
	}
	doc.listenersMutex.Lock()
	id := doc.nextListenerID
	doc.nextListenerID++
	doc.listeners[id] = l
	doc.listenersMutex.Unlock()
	doc.Unlock()

	var once sync.Once
	return lines, func() {
		once.Do(func() {
			doc.listenersMutex.Lock()
			delete(doc.listeners, id)
			doc.listenersMutex.Unlock()
		})
	}
}

func (doc *Document) currentListeners() (result []Listener) {
	doc.listenersMutex.Lock()
	defer doc.listenersMutex.Unlock()
	result = make([]Listener, 0, len(doc.listeners))
	for _, l := range doc.listeners {
		result = append(result, l)
	}
	return
}

// delivery is one change waiting to be reported to its listeners.
type delivery struct {
	doc       *Document
	seq       uint64
	listeners []Listener
}

// queue numbers a change; the main lock must be held.
func (doc *Document) queue() delivery {
	seq := doc.queued
	doc.queued++
	return delivery{doc: doc, seq: seq, listeners: doc.currentListeners()}
}

// begin waits until every earlier change has been delivered. The main lock
// must not be held.
func (d delivery) begin() {
	d.doc.deliveryMutex.Lock()
	for d.doc.next != d.seq {
		d.doc.delivered.Wait()
	}
}

func (d delivery) end() {
	d.doc.next++
	d.doc.delivered.Broadcast()
	d.doc.deliveryMutex.Unlock()
}

// Append adds protocol text, one line per newline-separated part.
func (doc *Document) Append(t time.Time, properties Properties, raw string) {
	doc.AppendText(t, properties, format.Parse(raw))
}

// AppendText adds formatted text, one line per newline-separated part. If a
// zero time is given, the current time is used.
func (doc *Document) AppendText(t time.Time, properties Properties, text format.Text) {
	if t.IsZero() {
		t = time.Now()
	}
	parts := text.Lines()

	doc.Lock()
	timestamp := t.Format(doc.config.TimestampFormat)
	oldSize := doc.lines.length()
	limit := doc.config.FrameBufferSize
	added := make([]*Line, len(parts))
	for i, part := range parts {
		added[i] = newLine(t, timestamp, part, properties, doc.font)
		doc.lines.push(added[i], limit)
	}
	size := doc.lines.length()
	// lines pushed out by this same append are never reported, in either
	// direction, so listeners always add up to size
	if len(added) > size {
		added = added[len(added)-size:]
	}
	evicted := oldSize + len(added) - size
	d := doc.queue()
	doc.Unlock()

	d.begin()
	defer d.end()
	for _, l := range d.listeners {
		l.LinesAdded(size-len(added), added, size)
	}
	if evicted > 0 {
		d.trimmed(size, evicted)
	}
}

func (d delivery) trimmed(size, evicted int) {
	d.doc.logger.Debug("document", "Trimmed scrollback", strconv.Itoa(evicted), strconv.Itoa(size))
	for _, l := range d.listeners {
		l.Trimmed(size, evicted)
	}
}

// Trim evicts the oldest lines until at most maxLines remain. It does
// nothing unless the document has a configured cap.
func (doc *Document) Trim(maxLines int) {
	doc.Lock()
	evicted := doc.trim(maxLines)
	size := doc.lines.length()
	d := doc.queue()
	doc.Unlock()

	d.begin()
	defer d.end()
	if evicted > 0 {
		d.trimmed(size, evicted)
	}
}

func (doc *Document) trim(maxLines int) (evicted int) {
	if doc.config.FrameBufferSize <= 0 || maxLines < 0 {
		return 0
	}
	evicted = doc.lines.length() - maxLines
	if evicted <= 0 {
		return 0
	}
	doc.lines.dropOldest(evicted)
	return evicted
}

// Clear removes every line.
func (doc *Document) Clear() {
	doc.Lock()
	doc.lines.clear()
	d := doc.queue()
	doc.Unlock()

	d.begin()
	defer d.end()
	for _, l := range d.listeners {
		l.Cleared()
	}
}

// ApplyConfig refreshes the cached settings: existing lines get the new
// font, and the document is trimmed to the new cap.
func (doc *Document) ApplyConfig(config Config) {
	config.setDefaults()

	doc.Lock()
	doc.config = config
	font := &Font{Name: config.FontName, Size: config.FontSize}
	if *font != *doc.font {
		doc.font = font
		for i := 0; i < doc.lines.length(); i++ {
			doc.lines.at(i).font.Store(font)
		}
	}
	evicted := doc.trim(config.FrameBufferSize)
	if limit := config.FrameBufferSize; 0 < limit && limit < len(doc.lines.buffer) {
		doc.lines.resize(limit)
	}
	size := doc.lines.length()
	d := doc.queue()
	doc.Unlock()

	d.begin()
	defer d.end()
	if evicted > 0 {
		d.trimmed(size, evicted)
	}
	for _, l := range d.listeners {
		l.RepaintNeeded()
	}
}

// Config returns the settings currently in effect.
func (doc *Document) Config() Config {
	doc.RLock()
	defer doc.RUnlock()
	return doc.config
}

// Size returns the number of lines.
func (doc *Document) Size() int {
	doc.RLock()
	defer doc.RUnlock()
	return doc.lines.length()
}

// Line returns the line at index i, or nil if there is none.
func (doc *Document) Line(i int) *Line {
	doc.RLock()
	defer doc.RUnlock()
	if i < 0 || doc.lines.length() <= i {
		return nil
	}
	return doc.lines.at(i)
}

// Lines returns up to count lines starting at index start.
func (doc *Document) Lines(start, count int) []*Line {
	doc.RLock()
	defer doc.RUnlock()
	length := doc.lines.length()
	if start < 0 {
		start = 0
	}
	if start >= length || count <= 0 {
		return nil
	}
	if length-start < count {
		count = length - start
	}
	return doc.lines.slice(start, count)
}

// All returns every line, oldest first.
func (doc *Document) All() []*Line {
	doc.RLock()
	defer doc.RUnlock()
	return doc.lines.slice(0, doc.lines.length())
}

// LineText returns the unformatted text of line i, or "" if there is none.
func (doc *Document) LineText(i int) string {
	if line := doc.Line(i); line != nil {
		return line.Plain()
	}
	return ""
}

// LineHeight returns the height of line i, which is its font size.
func (doc *Document) LineHeight(i int) int {
	if line := doc.Line(i); line != nil {
		return line.FontSize()
	}
	return 0
}
