//go:build !plan9
// +build !plan9

// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package utils

import (
	"os"
	"syscall"
)

var (
	// ServerExitSignals are the signals the live view will exit on.
	ServerExitSignals = []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}

	// ServerRehashSignals trigger a configuration reload.
	ServerRehashSignals = []os.Signal{
		syscall.SIGHUP,
	}
)
