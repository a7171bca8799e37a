// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/ergochat/textpane/pane/format"
	"github.com/ergochat/textpane/pane/utils"
)

func assertEqual(supplied, expected interface{}, t *testing.T) {
	t.Helper()
	if !reflect.DeepEqual(supplied, expected) {
		t.Errorf("expected %v but got %v", expected, supplied)
	}
}

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func entry(i int) Entry {
	return NewEntry(epoch.Add(time.Duration(i)*time.Second), format.Parse(fmt.Sprintf("\x02line\x02 %d", i)))
}

func plains(entries []Entry) (result []string) {
	for _, e := range entries {
		result = append(result, e.Plain)
	}
	return
}

func openTemp(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := OpenBuntdb(path, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return store, path
}

func TestNewEntry(t *testing.T) {
	e := entry(1)
	assertEqual(e.Plain, "line 1", t)
	assertEqual(e.Text.Raw(), "\x02line\x02 1", t)
	assertEqual(e.Time.Location(), time.UTC, t)
}

func TestBuntdbRecent(t *testing.T) {
	store, _ := openTemp(t)
	defer store.Close()

	for i := 0; i < 5; i++ {
		if err := store.Append("#chan", entry(i)); err != nil {
			t.Fatal(err)
		}
	}
	store.Append("#chan2", entry(100), entry(101))
	store.Append("#cha", entry(200))

	recent, err := store.Recent("#chan", 3)
	assertEqual(err, nil, t)
	assertEqual(plains(recent), []string{"line 2", "line 3", "line 4"}, t)

	recent, _ = store.Recent("#chan", 50)
	assertEqual(len(recent), 5, t)
	assertEqual(recent[0].Time, epoch, t)
	assertEqual(recent[0].Text, entry(0).Text, t)

	recent, _ = store.Recent("#chan2", 50)
	assertEqual(plains(recent), []string{"line 100", "line 101"}, t)
	recent, _ = store.Recent("#cha", 50)
	assertEqual(plains(recent), []string{"line 200"}, t)

	recent, _ = store.Recent("#empty", 10)
	assertEqual(len(recent), 0, t)
	recent, _ = store.Recent("#chan", 0)
	assertEqual(len(recent), 0, t)
}

func TestBuntdbOrderingPastNine(t *testing.T) {
	store, _ := openTemp(t)
	defer store.Close()

	var batch []Entry
	for i := 0; i < 12; i++ {
		batch = append(batch, entry(i))
	}
	store.Append("#big", batch...)
	recent, _ := store.Recent("#big", 3)
	assertEqual(plains(recent), []string{"line 9", "line 10", "line 11"}, t)
}

func TestBuntdbReopen(t *testing.T) {
	store, path := openTemp(t)
	store.Append("#chan", entry(1), entry(2))
	assertEqual(store.Close(), nil, t)
	// closing twice is harmless
	assertEqual(store.Close(), nil, t)

	store, err := OpenBuntdb(path, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	store.Append("#chan", entry(3))
	recent, _ := store.Recent("#chan", 10)
	assertEqual(plains(recent), []string{"line 1", "line 2", "line 3"}, t)
}

func TestBuntdbLocked(t *testing.T) {
	store, path := openTemp(t)
	defer store.Close()

	_, err := OpenBuntdb(path, 0, nil)
	assertEqual(err, ErrLocked, t)
}

func TestBuntdbClosed(t *testing.T) {
	store, _ := openTemp(t)
	store.Close()
	assertEqual(store.Append("#chan", entry(1)), ErrClosed, t)
	_, err := store.Recent("#chan", 1)
	assertEqual(err, ErrClosed, t)
}

func TestBuntdbExpiry(t *testing.T) {
	store, err := OpenBuntdb(":memory:", time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	store.Append("#chan", entry(1))
	recent, _ := store.Recent("#chan", 10)
	assertEqual(plains(recent), []string{"line 1"}, t)
}

func TestInvalidWindow(t *testing.T) {
	store, _ := openTemp(t)
	defer store.Close()

	for _, name := range []string{"", "#has space", "#ctl\x01", string(make([]byte, MaxWindowLength+1))} {
		assertEqual(store.Append(name, entry(1)), ErrInvalidWindow, t)
		_, err := store.Recent(name, 1)
		assertEqual(err, ErrInvalidWindow, t)
	}
	assertEqual(ValidWindow("#chan~x"), true, t)
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := OpenBuntdb(path, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	bunt := store.(*buntdbStore)
	bunt.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(keySchemaVersion, "0", nil)
		return err
	})
	store.Close()

	_, err = OpenBuntdb(path, 0, nil)
	var schemaErr *utils.IncompatibleSchemaError
	assertEqual(errors.As(err, &schemaErr), true, t)
}

func TestConfig(t *testing.T) {
	config := Config{Enabled: true, Path: "archive.db"}
	assertEqual(config.Postprocess(), nil, t)
	assertEqual(config.Backend, BackendBuntdb, t)

	config = Config{Enabled: true, Backend: "MySQL", MySQL: MySQLConfig{Database: "textpane"}}
	assertEqual(config.Postprocess(), nil, t)
	assertEqual(config.Backend, BackendMySQL, t)
	assertEqual(config.MySQL.Timeout, 3*time.Second, t)

	config = Config{Enabled: true, Backend: "postgres"}
	assertEqual(errors.Is(config.Postprocess(), ErrUnknownBackend), true, t)

	config = Config{Enabled: true}
	if config.Postprocess() == nil {
		t.Error("buntdb without a path should be rejected")
	}

	config = Config{}
	assertEqual(config.Postprocess(), nil, t)
	store, err := Open(config, nil)
	assertEqual(err, nil, t)
	assertEqual(store.Append("#chan", entry(1)), nil, t)
	recent, _ := store.Recent("#chan", 1)
	assertEqual(len(recent), 0, t)
}

func TestMySQLDSN(t *testing.T) {
	config := MySQLConfig{Host: "db.example", Port: 3306, User: "pane", Password: "hunter2", Database: "textpane"}
	assertEqual(config.DSN(), "pane:hunter2@tcp(db.example:3306)/textpane", t)

	config.SocketPath = "/run/mysqld/mysqld.sock"
	assertEqual(config.DSN(), "pane:hunter2@unix(/run/mysqld/mysqld.sock)/textpane", t)
}
