// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package archive

import (
	"errors"

	"github.com/gofrs/flock"
)

var (
	ErrLocked = errors.New("Couldn't acquire archive lock (is another textpane using it?)")
)

// Flocker is the part of *flock.Flock we need; its Unlock returns an
// error, so it is not a sync.Locker.
type Flocker interface {
	Unlock() error
}

// tryAcquireFlock takes an exclusive lock on path without blocking.
func tryAcquireFlock(path string) (Flocker, error) {
	f := flock.New(path)
	success, err := f.TryLock()
	if err != nil {
		return nil, err
	} else if !success {
		return nil, ErrLocked
	}
	return f, nil
}
