// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package document

import (
	"github.com/ergochat/textpane/pane/colours"
)

// Key identifies a display property whose values have type T.
type Key[T any] struct {
	name string
}

// NewKey returns a key for a property called name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) String() string {
	return k.name
}

var (
	// Foreground and Background override the default colours of a line.
	Foreground = NewKey[colours.Colour]("foreground")
	Background = NewKey[colours.Colour]("background")
	// NoDisplay marks lines that are kept (e.g. for logging) but not shown.
	NoDisplay = NewKey[bool]("no-display")
	// Location is a display-location hint, such as "notices".
	Location = NewKey[string]("location")
)

// Properties is an immutable, sparse map of display properties. The zero
// value has no properties.
type Properties struct {
	values map[string]any
}

// Get returns the value of key in p.
func Get[T any](p Properties, key Key[T]) (value T, ok bool) {
	raw, present := p.values[key.name]
	if !present {
		return
	}
	value, ok = raw.(T)
	return
}

// With returns a copy of p with key set to value.
func With[T any](p Properties, key Key[T], value T) Properties {
	values := make(map[string]any, len(p.values)+1)
	for k, v := range p.values {
		values[k] = v
	}
	values[key.name] = value
	return Properties{values: values}
}

// Has reports whether a property called name is set.
func (p Properties) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

func (p Properties) Len() int {
	return len(p.values)
}
