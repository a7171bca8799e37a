// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

// Package colours resolves IRC colour specifications (palette indices and
// six-digit hex strings) into RGB values.
package colours

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ergochat/textpane/pane/logger"
)

// PaletteSize is the number of numbered IRC colours.
const PaletteSize = 16

// Colour is an RGB triple. The zero value represents "no colour", i.e. an
// unresolved or default colour; use IsSet to distinguish it from black.
type Colour struct {
	IsSet   bool
	R, G, B uint8
}

// RGB returns a set colour with the given components.
func RGB(r, g, b uint8) Colour {
	return Colour{IsSet: true, R: r, G: g, B: b}
}

var (
	White     = RGB(255, 255, 255)
	Black     = RGB(0, 0, 0)
	Red       = RGB(255, 0, 0)
	Blue      = RGB(0, 0, 255)
	Yellow    = RGB(255, 255, 0)
	Gray      = RGB(128, 128, 128)
	LightGray = RGB(192, 192, 192)
)

// DefaultPalette holds the built-in colours for the 16 numbered slots.
var DefaultPalette = [PaletteSize]Colour{
	White, Black, RGB(0, 0, 127), RGB(0, 141, 0),
	Red, RGB(127, 0, 0), RGB(160, 15, 160), RGB(252, 127, 0),
	Yellow, RGB(0, 252, 0), RGB(0, 128, 128), RGB(0, 255, 255),
	Blue, RGB(255, 0, 255), Gray, LightGray,
}

// Hex returns the colour as six upper-case hex digits, or "" if unset.
func (c Colour) Hex() string {
	if !c.IsSet {
		return ""
	}
	col := colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
	return strings.ToUpper(strings.TrimPrefix(col.Hex(), "#"))
}

func (c Colour) String() string {
	if !c.IsSet {
		return "default"
	}
	return "#" + c.Hex()
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// IsHexString reports whether s is exactly six hex digits.
func IsHexString(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// ParseHex parses six hex digits into a colour.
func ParseHex(hex string) (result Colour, err error) {
	if !IsHexString(hex) {
		return result, fmt.Errorf("%w: #%s", ErrInvalidColour, hex)
	}
	col, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return result, fmt.Errorf("%w: #%s", ErrInvalidColour, hex)
	}
	r, g, b := col.RGB255()
	return RGB(r, g, b), nil
}

// Resolver maps colour specifications to colours. It keeps a cache keyed by
// the exact spec string, and a palette whose slots can be overridden by
// configuration. It is safe for concurrent use.
type Resolver struct {
	sync.RWMutex

	palette [PaletteSize]Colour
	cache   map[string]Colour
	logger  *logger.Manager
}

// NewResolver returns a resolver using the default palette.
func NewResolver(logger *logger.Manager) *Resolver {
	return &Resolver{
		palette: DefaultPalette,
		cache:   make(map[string]Colour),
		logger:  logger,
	}
}

// FromIndex returns palette slot i. Out-of-range indices log a warning and
// resolve to white.
func (r *Resolver) FromIndex(i int) Colour {
	if i < 0 || PaletteSize <= i {
		r.logger.Warning("colours", "Invalid colour", strconv.Itoa(i))
		return White
	}
	r.RLock()
	defer r.RUnlock()
	return r.palette[i]
}

// FromHex parses a six-digit hex colour. Malformed input logs a warning and
// resolves to white; successful results are cached by their exact string.
func (r *Resolver) FromHex(hex string) Colour {
	r.RLock()
	colour, ok := r.cache[hex]
	r.RUnlock()
	if ok {
		return colour
	}

	colour, err := ParseHex(hex)
	if err != nil {
		r.logger.Warning("colours", err.Error())
		return White
	}

	r.Lock()
	r.cache[hex] = colour
	r.Unlock()
	return colour
}

// FromSpec resolves either a one or two digit palette index or a six-digit
// hex string. If the spec can't be parsed, a warning is logged and fallback
// is returned; fallback may be the zero Colour, meaning "no resolution".
func (r *Resolver) FromSpec(spec string, fallback Colour) Colour {
	r.RLock()
	colour, ok := r.cache[spec]
	r.RUnlock()
	if ok {
		return colour
	}

	if len(spec) < 3 {
		if num, err := strconv.Atoi(spec); err == nil && 0 <= num && num < PaletteSize {
			// read and cached together, so SetPalette can't slip in between
			r.Lock()
			colour = r.palette[num]
			r.cache[spec] = colour
			r.Unlock()
			return colour
		}
	} else if len(spec) == 6 {
		colour = r.FromHex(spec)
		r.Lock()
		r.cache[spec] = colour
		r.Unlock()
		return colour
	}

	r.logger.Warning("colours", "Invalid colour format", spec)
	return fallback
}

// SetPalette replaces the palette overrides. Keys are slot numbers and
// values six-digit hex colours; slots without a (valid) override revert to
// the built-in default. Cached index specs are invalidated, hex specs are not.
func (r *Resolver) SetPalette(overrides map[int]string) {
	var palette [PaletteSize]Colour
	palette = DefaultPalette
	for slot, hex := range overrides {
		if slot < 0 || PaletteSize <= slot {
			r.logger.Warning("colours", "Ignoring override for invalid palette slot", strconv.Itoa(slot))
			continue
		}
		colour, err := ParseHex(hex)
		if err != nil {
			r.logger.Warning("colours", "Ignoring palette override", strconv.Itoa(slot), err.Error())
			continue
		}
		palette[slot] = colour
	}

	r.Lock()
	defer r.Unlock()
	if palette == r.palette {
		return
	}
	r.palette = palette
	for spec := range r.cache {
		if len(spec) < 3 {
			delete(r.cache, spec)
		}
	}
}

// Palette returns a copy of the active palette.
func (r *Resolver) Palette() [PaletteSize]Colour {
	r.RLock()
	defer r.RUnlock()
	return r.palette
}
