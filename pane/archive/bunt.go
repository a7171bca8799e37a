// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package archive

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/utils"
)

const (
	keySchemaVersion = "db.version"
	latestDbSchema   = "1"

	// keySequence is the last sequence number used for a window
	keySequence = "seq %s"
	// keyLine is one entry; sequence numbers are zero-padded so that key
	// order is append order
	keyLine = "line %s %020d"
)

// buntdbStore implements Store on a local buntdb file.
type buntdbStore struct {
	sync.Mutex // tier 1
	db         *buntdb.DB
	lock       Flocker
	expireTime time.Duration
	logger     *logger.Manager
}

// OpenBuntdb opens (creating if necessary) the archive at path. The file
// is locked for the lifetime of the store; ":memory:" is not locked.
func OpenBuntdb(path string, expireTime time.Duration, logger *logger.Manager) (result Store, err error) {
	var lock Flocker
	if path != ":memory:" {
		lock, err = tryAcquireFlock(path + ".lock")
		if err != nil {
			return
		}
	}

	db, err := buntdb.Open(path)
	if err != nil {
		if lock != nil {
			lock.Unlock()
		}
		return
	}

	store := &buntdbStore{
		db:         db,
		lock:       lock,
		expireTime: expireTime,
		logger:     logger,
	}
	if err = store.checkSchema(); err != nil {
		store.Close()
		return
	}
	logger.Info("archive", "Opened buntdb archive", path)
	return store, nil
}

func (store *buntdbStore) checkSchema() error {
	return store.db.Update(func(tx *buntdb.Tx) error {
		version, err := tx.Get(keySchemaVersion)
		if err == buntdb.ErrNotFound {
			_, _, err = tx.Set(keySchemaVersion, latestDbSchema, nil)
			return err
		} else if err != nil {
			return err
		}
		if version != latestDbSchema {
			return &utils.IncompatibleSchemaError{CurrentVersion: version, RequiredVersion: latestDbSchema}
		}
		return nil
	})
}

func (store *buntdbStore) setOptions() *buntdb.SetOptions {
	if store.expireTime == 0 {
		return nil
	}
	return &buntdb.SetOptions{Expires: true, TTL: store.expireTime}
}

func (store *buntdbStore) Append(window string, entries ...Entry) (err error) {
	if !ValidWindow(window) {
		return ErrInvalidWindow
	}
	if len(entries) == 0 {
		return nil
	}

	values := make([]string, len(entries))
	for i := range entries {
		data, err := marshalEntry(&entries[i])
		if err != nil {
			return err
		}
		values[i] = string(data)
	}

	store.Lock()
	defer store.Unlock()
	if store.db == nil {
		return ErrClosed
	}

	seqKey := fmt.Sprintf(keySequence, window)
	opts := store.setOptions()
	return store.db.Update(func(tx *buntdb.Tx) error {
		var seq uint64
		if value, err := tx.Get(seqKey); err == nil {
			seq, err = strconv.ParseUint(value, 10, 64)
			if err != nil {
				return err
			}
		} else if err != buntdb.ErrNotFound {
			return err
		}
		for _, value := range values {
			seq++
			if _, _, err := tx.Set(fmt.Sprintf(keyLine, window, seq), value, opts); err != nil {
				return err
			}
		}
		_, _, err := tx.Set(seqKey, strconv.FormatUint(seq, 10), nil)
		return err
	})
}

func (store *buntdbStore) Recent(window string, limit int) (results []Entry, err error) {
	if !ValidWindow(window) {
		return nil, ErrInvalidWindow
	}
	if limit <= 0 {
		return nil, nil
	}

	store.Lock()
	defer store.Unlock()
	if store.db == nil {
		return nil, ErrClosed
	}

	prefix := fmt.Sprintf("line %s ", window)
	// '~' sorts after every digit, so the pivot is above all of the
	// window's keys and below those of any longer window name
	pivot := prefix + "~"
	err = store.db.View(func(tx *buntdb.Tx) error {
		return tx.DescendLessOrEqual("", pivot, func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return false
			}
			var entry Entry
			if err := unmarshalEntry([]byte(value), &entry); err != nil {
				store.logger.Error("archive", "could not unmarshal entry", key, err.Error())
				return true
			}
			results = append(results, entry)
			return len(results) < limit
		})
	})
	slices.Reverse(results)
	return
}

func (store *buntdbStore) Close() (err error) {
	store.Lock()
	defer store.Unlock()
	if store.db == nil {
		return nil
	}
	err = store.db.Close()
	store.db = nil
	if store.lock != nil {
		if unlockErr := store.lock.Unlock(); err == nil {
			err = unlockErr
		}
		store.lock = nil
	}
	return
}
