// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package render

import (
	"sync"

	"github.com/ergochat/textpane/pane/document"
	"github.com/ergochat/textpane/pane/styliser"
)

const DefaultCacheSize = 50

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits     uint64
	Misses   uint64
	Size     int
	Capacity int
}

// Cache memoizes the rendered form of the most recently rendered lines of a
// document. Entries are keyed by line identity, so they survive lines being
// added or trimmed around them. Eviction is first-in first-out.
//
// The cache empties itself whenever the document reports that lines need
// repainting (e.g. after a font change) or that it was cleared.
type Cache[T any] struct {
	sync.Mutex

	doc        *document.Document
	styliser   *styliser.Styliser
	newBackend func() Backend[T]

	// cached lines in insertion order; once full, order[next] is the oldest
	order   []*document.Line
	next    int
	entries map[*document.Line]T

	hits   uint64
	misses uint64

	cancel func()
}

type invalidator struct {
	document.NopListener
	invalidate func()
}

func (i invalidator) Cleared()       { i.invalidate() }
func (i invalidator) RepaintNeeded() { i.invalidate() }

// NewCache returns a cache of the given capacity (DefaultCacheSize if not
// positive), rendering with backends obtained from newBackend.
func NewCache[T any](doc *document.Document, s *styliser.Styliser, newBackend func() Backend[T], capacity int) *Cache[T] {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache := &Cache[T]{
		doc:        doc,
		styliser:   s,
		newBackend: newBackend,
		order:      make([]*document.Line, capacity),
		entries:    make(map[*document.Line]T, capacity),
	}
	cache.cancel = doc.Subscribe(invalidator{invalidate: cache.Invalidate})
	return cache
}

// Render returns the rendered form of line index of the document.
func (cache *Cache[T]) Render(index int) (result T, ok bool) {
	line := cache.doc.Line(index)
	if line == nil {
		return result, false
	}
	return cache.RenderLine(line), true
}

// RenderLine returns the rendered form of line, which should belong to the
// cache's document.
func (cache *Cache[T]) RenderLine(line *document.Line) T {
	cache.Lock()
	defer cache.Unlock()

	if result, ok := cache.entries[line]; ok {
		cache.hits++
		return result
	}
	cache.misses++

	result := cache.render(line)
	if evicted := cache.order[cache.next]; evicted != nil {
		delete(cache.entries, evicted)
	}
	cache.order[cache.next] = line
	cache.next = (cache.next + 1) % len(cache.order)
	cache.entries[line] = result
	return result
}

func (cache *Cache[T]) render(line *document.Line) T {
	backend := cache.newBackend()
	backend.SetDefaultFont(line.FontName(), line.FontSize())
	properties := line.Properties()
	if fg, ok := document.Get(properties, document.Foreground); ok {
		backend.SetDefaultForeground(fg)
	}
	if bg, ok := document.Get(properties, document.Background); ok {
		backend.SetDefaultBackground(bg)
	}
	cache.styliser.StyleText(backend, line.Text())
	return backend.Result()
}

// Invalidate drops every cached render.
func (cache *Cache[T]) Invalidate() {
	cache.Lock()
	defer cache.Unlock()
	clear(cache.order)
	clear(cache.entries)
	cache.next = 0
}

func (cache *Cache[T]) Stats() CacheStats {
	cache.Lock()
	defer cache.Unlock()
	return CacheStats{
		Hits:     cache.hits,
		Misses:   cache.misses,
		Size:     len(cache.entries),
		Capacity: len(cache.order),
	}
}

// Close detaches the cache from its document.
func (cache *Cache[T]) Close() {
	cache.cancel()
}
