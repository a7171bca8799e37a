// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import "errors"

// Config errors
var (
	ErrFrameBufferSize      = errors.New("ui.frame-buffer-size must not be negative")
	ErrFontSize             = errors.New("ui.font-size and ui.max-font-size must not be negative")
	ErrRenderCacheSize      = errors.New("ui.render-cache-size must not be negative")
	ErrInvalidColourSpec    = errors.New("Colour must be a palette index from 0 to 15 or six hex digits")
	ErrPaletteIndex         = errors.New("Palette overrides must be keyed 0 through 15")
	ErrPaletteColour        = errors.New("Palette overrides must be six hex digits")
	ErrChannelPrefixes      = errors.New("channel-prefixes must not contain whitespace")
	ErrWebviewListenMissing = errors.New("Webview is enabled but has no listen address")
)

// Runtime errors
var (
	errInvalidWindowName = errors.New("Invalid window name")
	errNotEnoughParams   = errors.New("Not enough parameters")
)
