// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/utils"
)

const (
	cleanupRowLimit  = 50
	cleanupPauseTime = 10 * time.Minute
)

// MySQLConfig is the `archive.mysql` section of the config file.
type MySQLConfig struct {
	Host       string
	Port       int
	SocketPath string `yaml:"socket-path"`
	User       string
	Password   string
	Database   string
	Timeout    time.Duration

	// copied from the enclosing section:
	ExpireTime time.Duration `yaml:"-"`
}

// DSN returns the go-sql-driver data source name for the config.
func (config *MySQLConfig) DSN() string {
	var address string
	if config.SocketPath != "" {
		address = fmt.Sprintf("unix(%s)", config.SocketPath)
	} else if config.Port != 0 {
		address = fmt.Sprintf("tcp(%s:%d)", config.Host, config.Port)
	}
	return fmt.Sprintf("%s:%s@%s/%s", config.User, config.Password, address, config.Database)
}

type mysqlStore struct {
	db     *sql.DB
	config MySQLConfig
	logger *logger.Manager

	insertLine *sql.Stmt

	stateMutex sync.Mutex
	closed     bool
	quit       chan struct{}
}

// OpenMySQL connects to the configured database, creating the tables if
// needed, and starts the expiry goroutine when entries expire.
func OpenMySQL(config MySQLConfig, logger *logger.Manager) (result Store, err error) {
	db, err := sql.Open("mysql", config.DSN())
	if err != nil {
		return
	}

	store := &mysqlStore{
		db:     db,
		config: config,
		logger: logger,
		quit:   make(chan struct{}),
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	if err = store.fixSchemas(); err != nil {
		return
	}
	store.insertLine, err = db.Prepare(`INSERT INTO archive_lines (window_name, nanotime, data) VALUES (?, ?, ?);`)
	if err != nil {
		return
	}

	if config.ExpireTime != 0 {
		go store.cleanupLoop()
	}
	logger.Info("archive", "Opened mysql archive", config.Database)
	return store, nil
}

func (mysql *mysqlStore) fixSchemas() (err error) {
	_, err = mysql.db.Exec(`CREATE TABLE IF NOT EXISTS metadata (
		key_name VARCHAR(32) primary key,
		value VARCHAR(32) NOT NULL
	) CHARSET=ascii COLLATE=ascii_bin;`)
	if err != nil {
		return err
	}

	var schema string
	err = mysql.db.QueryRow(`select value from metadata where key_name = ?;`, keySchemaVersion).Scan(&schema)
	if err == sql.ErrNoRows {
		_, err = mysql.db.Exec(fmt.Sprintf(`CREATE TABLE archive_lines (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			window_name VARBINARY(%[1]d) NOT NULL,
			nanotime BIGINT UNSIGNED NOT NULL,
			data BLOB NOT NULL,
			KEY (window_name, id),
			KEY (nanotime)
		) CHARSET=ascii COLLATE=ascii_bin;`, MaxWindowLength))
		if err != nil {
			return
		}
		_, err = mysql.db.Exec(`insert into metadata (key_name, value) values (?, ?);`, keySchemaVersion, latestDbSchema)
		return
	} else if err == nil && schema != latestDbSchema {
		return &utils.IncompatibleSchemaError{CurrentVersion: schema, RequiredVersion: latestDbSchema}
	}
	return
}

func (mysql *mysqlStore) logError(context string, err error) (quit bool) {
	if err != nil {
		mysql.logger.Error("archive", context, err.Error())
		return true
	}
	return false
}

func (mysql *mysqlStore) timeoutContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), mysql.config.Timeout)
}

func (mysql *mysqlStore) Append(window string, entries ...Entry) (err error) {
	if !ValidWindow(window) {
		return ErrInvalidWindow
	}

	ctx, cancel := mysql.timeoutContext()
	defer cancel()

	for i := range entries {
		data, err := marshalEntry(&entries[i])
		if mysql.logError("could not marshal entry", err) {
			return err
		}
		_, err = mysql.insertLine.ExecContext(ctx, window, entries[i].Time.UnixNano(), data)
		if mysql.logError("could not insert entry", err) {
			return err
		}
	}
	return nil
}

func (mysql *mysqlStore) Recent(window string, limit int) (results []Entry, err error) {
	if !ValidWindow(window) {
		return nil, ErrInvalidWindow
	}
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := mysql.timeoutContext()
	defer cancel()

	rows, err := mysql.db.QueryContext(ctx,
		`SELECT data FROM archive_lines WHERE window_name = ? ORDER BY id DESC LIMIT ?;`, window, limit)
	if mysql.logError("could not select entries", err) {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var blob []byte
		var entry Entry
		err = rows.Scan(&blob)
		if mysql.logError("could not scan entry", err) {
			return
		}
		if mysql.logError("could not unmarshal entry", unmarshalEntry(blob, &entry)) {
			continue
		}
		results = append(results, entry)
	}
	err = rows.Err()
	slices.Reverse(results)
	return
}

func (mysql *mysqlStore) cleanupLoop() {
	defer func() {
		if r := recover(); r != nil {
			mysql.logger.Error("archive",
				fmt.Sprintf("Panic in cleanup routine: %v\n%s", r, debug.Stack()))
			time.Sleep(cleanupPauseTime)
			go mysql.cleanupLoop()
		}
	}()

	for {
		for {
			startTime := time.Now()
			rowsDeleted, err := mysql.doCleanup(mysql.config.ExpireTime)
			elapsed := time.Since(startTime)
			mysql.logError("error during row cleanup", err)
			// keep going only while there is significant work
			if rowsDeleted < cleanupRowLimit/10 {
				break
			}
			time.Sleep(elapsed)
		}
		select {
		case <-mysql.quit:
			return
		case <-time.After(cleanupPauseTime):
		}
	}
}

func (mysql *mysqlStore) doCleanup(age time.Duration) (count int64, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupPauseTime)
	defer cancel()

	cutoff := time.Now().Add(-age).UnixNano()
	result, err := mysql.db.ExecContext(ctx, `DELETE FROM archive_lines WHERE nanotime < ? LIMIT ?;`, cutoff, cleanupRowLimit)
	if err != nil {
		return
	}
	count, err = result.RowsAffected()
	if count != 0 {
		mysql.logger.Debug("archive", fmt.Sprintf("deleted %d archived lines older than %s", count, utils.NanoToTimestamp(cutoff)))
	}
	return
}

func (mysql *mysqlStore) Close() error {
	mysql.stateMutex.Lock()
	defer mysql.stateMutex.Unlock()
	if mysql.closed {
		return nil
	}
	mysql.closed = true
	close(mysql.quit)
	// closing the database closes the prepared statements as well
	return mysql.db.Close()
}
