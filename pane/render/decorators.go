// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package render

import (
	"github.com/ergochat/textpane/pane/styliser"
)

// PassThrough forwards every call to the wrapped Sink. Embed it to
// post-process some calls of another sink.
type PassThrough struct {
	styliser.Sink
}

// FontLimiter caps the default font size passed to the wrapped sink.
type FontLimiter[T any] struct {
	PassThrough
	backend Backend[T]
	limit   int
}

// LimitFont wraps backend so that its font size never exceeds limit.
func LimitFont[T any](backend Backend[T], limit int) *FontLimiter[T] {
	return &FontLimiter[T]{PassThrough: PassThrough{Sink: backend}, backend: backend, limit: limit}
}

func (f *FontLimiter[T]) SetDefaultFont(name string, size int) {
	if f.limit > 0 && size > f.limit {
		size = f.limit
	}
	f.Sink.SetDefaultFont(name, size)
}

func (f *FontLimiter[T]) MaximumFontSize() int {
	return f.limit
}

func (f *FontLimiter[T]) Result() T {
	return f.backend.Result()
}
