// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import "fmt"

const (
	// SemVer is the semantic version of textpane.
	SemVer = "0.1.0-unreleased"
)

var (
	// Ver is the full version of textpane.
	Ver = fmt.Sprintf("textpane-%s", SemVer)
	// Commit is the full git hash, if available
	Commit string
)

// initialize version strings (these are set in package main via linker flags)
func SetVersionString(version, commit string) {
	Commit = commit
	if version != "" {
		Ver = fmt.Sprintf("textpane-%s", version)
	} else if len(Commit) == 40 {
		Ver = fmt.Sprintf("textpane-%s-%s", SemVer, Commit[:16])
	}
}
