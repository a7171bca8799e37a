// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/utils"
)

const (
	// editors tend to write a file in several steps; wait for them to finish
	rehashDebounce = 200 * time.Millisecond
)

// ConfigManager holds the active configuration and tells subscribers when
// a rehash replaces it.
type ConfigManager struct {
	config utils.ConfigStore[Config]
	logger *logger.Manager

	rehashMutex sync.Mutex // tier 0

	subscribersMutex sync.Mutex // tier 1
	subscribers      map[uint64]func(old, new *Config)
	nextID           uint64
}

// NewConfigManager returns a manager holding config. If config came from a
// file, Rehash reloads that file.
func NewConfigManager(config *Config, logger *logger.Manager) *ConfigManager {
	cm := &ConfigManager{
		logger:      logger,
		subscribers: make(map[uint64]func(old, new *Config)),
	}
	cm.config.Set(config)
	return cm
}

// Config returns the active configuration. It must not be modified.
func (cm *ConfigManager) Config() *Config {
	return cm.config.Get()
}

// Subscribe registers fn to be called after every successful rehash.
func (cm *ConfigManager) Subscribe(fn func(old, new *Config)) (cancel func()) {
	cm.subscribersMutex.Lock()
	id := cm.nextID
	cm.nextID++
	cm.subscribers[id] = fn
	cm.subscribersMutex.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			cm.subscribersMutex.Lock()
			delete(cm.subscribers, id)
			cm.subscribersMutex.Unlock()
		})
	}
}

// Rehash reloads the config file. On failure the active config is kept.
func (cm *ConfigManager) Rehash() error {
	filename := cm.Config().Filename
	if filename == "" {
		return fmt.Errorf("Config was not loaded from a file")
	}
	config, err := LoadConfig(filename)
	if err != nil {
		cm.logger.Error("config", "Rehash failed, keeping the old config", err.Error())
		return err
	}
	cm.Apply(config)
	return nil
}

// Apply installs config and notifies subscribers.
func (cm *ConfigManager) Apply(config *Config) {
	cm.rehashMutex.Lock()
	defer cm.rehashMutex.Unlock()

	if cm.logger != nil {
		if err := cm.logger.ApplyConfig(config.Logging); err != nil {
			cm.logger.Error("config", "Could not apply logging config", err.Error())
		}
	}

	old := cm.config.Swap(config)

	cm.subscribersMutex.Lock()
	subscribers := make([]func(old, new *Config), 0, len(cm.subscribers))
	for _, fn := range cm.subscribers {
		subscribers = append(subscribers, fn)
	}
	cm.subscribersMutex.Unlock()

	for _, fn := range subscribers {
		fn(old, config)
	}
	cm.logger.Info("config", "Applied config", config.Filename)
}

// Watch rehashes whenever the config file changes, until ctx is done. The
// containing directory is watched, since editors often replace the file
// rather than write to it.
func (cm *ConfigManager) Watch(ctx context.Context) error {
	filename := cm.Config().Filename
	if filename == "" {
		return fmt.Errorf("Config was not loaded from a file")
	}
	filename = filepath.Clean(filename)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = watcher.Add(filepath.Dir(filename)); err != nil {
		watcher.Close()
		return err
	}

	go cm.watchLoop(ctx, watcher, filename)
	return nil
}

func (cm *ConfigManager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, filename string) {
	defer func() {
		if r := recover(); r != nil {
			cm.logger.Error("config",
				fmt.Sprintf("Panic in config watcher: %v\n%s", r, debug.Stack()))
		}
	}()
	defer watcher.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(rehashDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Warning("config", "Config watcher error", err.Error())
		case <-pending:
			pending = nil
			cm.logger.Info("config", "Config file changed, rehashing", filename)
			cm.Rehash()
		}
	}
}
