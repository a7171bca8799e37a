// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

// Package archive persists scrollback lines per window, so that a window
// can be backfilled after a restart.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ergochat/textpane/pane/format"
	"github.com/ergochat/textpane/pane/logger"
)

var (
	ErrInvalidWindow  = errors.New("invalid window name")
	ErrUnknownBackend = errors.New("unknown archive backend")
	ErrClosed         = errors.New("archive is closed")
)

const (
	// maximum length in bytes of a window name
	MaxWindowLength = 64

	BackendBuntdb = "buntdb"
	BackendMySQL  = "mysql"
)

// Entry is one archived line. Text keeps the formatting, Plain is the
// stripped copy used by log readers and search.
type Entry struct {
	Time  time.Time   `json:"time"`
	Text  format.Text `json:"text"`
	Plain string      `json:"plain"`
}

// NewEntry builds an entry, filling in the plain copy.
func NewEntry(t time.Time, text format.Text) Entry {
	return Entry{
		Time:  t.UTC(),
		Text:  text,
		Plain: text.Plain(),
	}
}

func marshalEntry(entry *Entry) ([]byte, error) {
	return json.Marshal(entry)
}

func unmarshalEntry(data []byte, result *Entry) error {
	return json.Unmarshal(data, result)
}

// Store is an archive backend.
type Store interface {
	// Append stores entries for a window, in order.
	Append(window string, entries ...Entry) error
	// Recent returns up to limit of the newest entries for a window, oldest
	// first.
	Recent(window string, limit int) ([]Entry, error)
	Close() error
}

// Config is the `archive` section of the config file.
type Config struct {
	Enabled    bool
	Backend    string
	Path       string
	ExpireTime time.Duration `yaml:"expire-time"`
	// Backfill is how many archived lines a new window starts with.
	Backfill   int
	MySQL      MySQLConfig `yaml:"mysql"`
}

// Postprocess validates the section and fills in defaults.
func (config *Config) Postprocess() error {
	if !config.Enabled {
		return nil
	}
	config.Backend = strings.ToLower(config.Backend)
	switch config.Backend {
	case "", BackendBuntdb:
		config.Backend = BackendBuntdb
		if config.Path == "" {
			return fmt.Errorf("archive: buntdb backend requires a path")
		}
	case BackendMySQL:
		if config.MySQL.Database == "" {
			return fmt.Errorf("archive: mysql backend requires a database")
		}
		if config.MySQL.Timeout == 0 {
			config.MySQL.Timeout = 3 * time.Second
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, config.Backend)
	}
	if config.ExpireTime < 0 {
		return fmt.Errorf("archive: expire-time must not be negative")
	}
	if config.Backfill < 0 {
		config.Backfill = 0
	}
	return nil
}

// Open opens the configured backend. A disabled archive yields a Store that
// stores nothing.
func Open(config Config, logger *logger.Manager) (Store, error) {
	if !config.Enabled {
		return noopStore{}, nil
	}
	switch config.Backend {
	case "", BackendBuntdb:
		return OpenBuntdb(config.Path, config.ExpireTime, logger)
	case BackendMySQL:
		config.MySQL.ExpireTime = config.ExpireTime
		return OpenMySQL(config.MySQL, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, config.Backend)
	}
}

// ValidWindow reports whether name can be used as a window key: non-empty,
// bounded, and free of whitespace and control characters.
func ValidWindow(name string) bool {
	if name == "" || len(name) > MaxWindowLength {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}
	return true
}

type noopStore struct{}

func (noopStore) Append(window string, entries ...Entry) error {
	return nil
}

func (noopStore) Recent(window string, limit int) ([]Entry, error) {
	return nil, nil
}

func (noopStore) Close() error {
	return nil
}
