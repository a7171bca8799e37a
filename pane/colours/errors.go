// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package colours

import "errors"

var (
	ErrInvalidColour = errors.New("Invalid colour")
)
