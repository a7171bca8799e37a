//go:build plan9
// +build plan9

// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package utils

import (
	"os"
	"syscall"
)

var (
	ServerExitSignals = []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
	}

	ServerRehashSignals = []os.Signal{}
)
