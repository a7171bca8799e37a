// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ergochat/textpane/pane/archive"
)

func assertEqual(supplied, expected interface{}, t *testing.T) {
	t.Helper()
	if !reflect.DeepEqual(supplied, expected) {
		t.Errorf("expected %v but got %v", expected, supplied)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assertEqual(config.UI.FrameBufferSize, 1000, t)
	assertEqual(config.UI.FontName, "monospace", t)
	assertEqual(config.UI.MaxFontSize, 24, t)
	assertEqual(config.UI.RenderCacheSize, 50, t)
	assertEqual(config.ChannelPrefixes, "#&", t)
	assertEqual(config.Archive.Enabled, false, t)
	assertEqual(config.Archive.Backfill, 200, t)
	assertEqual(config.Webview.MaxRead, int64(4096), t)
	assertEqual(config.Webview.WriteTimeout, 10*time.Second, t)
	assertEqual(len(config.Webview.allowedOriginRegexps), 0, t)
	assertEqual(len(config.Palette()), 0, t)

	docConfig := config.DocumentConfig()
	assertEqual(docConfig.FrameBufferSize, 1000, t)
	assertEqual(docConfig.TimestampFormat, "15:04:05", t)

	opts := config.StyliserOptions()
	assertEqual(opts.StyleLinks, true, t)
	assertEqual(opts.LinkColour, "2", t)
	assertEqual(opts.Smilies, []string{":)", ":(", ":D", ";)", ":P"}, t)
}

func TestIsChannel(t *testing.T) {
	config := DefaultConfig()
	assertEqual(config.IsChannel("#ergo"), true, t)
	assertEqual(config.IsChannel("&local"), true, t)
	assertEqual(config.IsChannel("dan"), false, t)
	assertEqual(config.IsChannel(""), false, t)
}

func TestParseConfigDefaults(t *testing.T) {
	config, err := ParseConfig([]byte("ui:\n    frame-buffer-size: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(config.UI.FrameBufferSize, 10, t)
	assertEqual(config.UI.FontName, "monospace", t)
	assertEqual(config.UI.FontSize, 12, t)
	assertEqual(config.UI.RenderCacheSize, 50, t)
	assertEqual(config.Webview.MaxRead, int64(4096), t)

	// an empty document is a valid config
	config, err = ParseConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(config.UI.FontSize, 12, t)
}

func TestParseConfigPalette(t *testing.T) {
	config, err := ParseConfig([]byte("colours:\n    \"4\": \"FF3030\"\n    \" 12\": \"00ff00\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(config.Palette(), map[int]string{4: "FF3030", 12: "00ff00"}, t)

	// the returned palette is a copy
	config.Palette()[4] = "000000"
	assertEqual(config.Palette()[4], "FF3030", t)
}

func TestParseConfigErrors(t *testing.T) {
	cases := []struct {
		yaml     string
		expected error
	}{
		{"ui:\n    frame-buffer-size: -1\n", ErrFrameBufferSize},
		{"ui:\n    font-size: -2\n", ErrFontSize},
		{"ui:\n    max-font-size: -2\n", ErrFontSize},
		{"ui:\n    render-cache-size: -5\n", ErrRenderCacheSize},
		{"ui:\n    link-colour: \"16\"\n", ErrInvalidColourSpec},
		{"ui:\n    channel-colour: \"red\"\n", ErrInvalidColourSpec},
		{"colours:\n    \"16\": \"FF3030\"\n", ErrPaletteIndex},
		{"colours:\n    \"x\": \"FF3030\"\n", ErrPaletteIndex},
		{"colours:\n    \"3\": \"FF30\"\n", ErrPaletteColour},
		{"channel-prefixes: \"# \"\n", ErrChannelPrefixes},
		{"webview:\n    enabled: true\n", ErrWebviewListenMissing},
		{"archive:\n    enabled: true\n    backend: redis\n", archive.ErrUnknownBackend},
	}
	for _, c := range cases {
		_, err := ParseConfig([]byte(c.yaml))
		if !errors.Is(err, c.expected) {
			t.Errorf("%q: expected %v but got %v", c.yaml, c.expected, err)
		}
	}

	for _, bad := range []string{
		"archive:\n    enabled: true\n    path: \"\"\n",
		"webview:\n    max-read: \"lots\"\n",
		"logging:\n    - method: carrier-pigeon\n      level: info\n",
		"ui: [\n",
	} {
		if _, err := ParseConfig([]byte(bad)); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestParseConfigWebview(t *testing.T) {
	config, err := ParseConfig([]byte(`
webview:
    enabled: true
    listen: "127.0.0.1:0"
    allowed-origins:
        - "https://*.example.com"
    max-read: "1k"
    write-timeout: 3s
    backfill: -4
`))
	if err != nil {
		t.Fatal(err)
	}
	webview := config.Webview
	assertEqual(webview.MaxRead, int64(1024), t)
	assertEqual(webview.WriteTimeout, 3*time.Second, t)
	assertEqual(webview.Backfill, 0, t)
	assertEqual(len(webview.allowedOriginRegexps), 1, t)
	assertEqual(webview.allowedOriginRegexps[0].MatchString("https://irc.example.com"), true, t)
	assertEqual(webview.allowedOriginRegexps[0].MatchString("https://example.org"), false, t)
}

func writeConfig(t *testing.T, filename, contents string) {
	t.Helper()
	if err := os.WriteFile(filename, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestConfigManagerRehash(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "textpane.yaml")
	writeConfig(t, filename, "ui:\n    frame-buffer-size: 10\n")
	config, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(config.Filename, filename, t)

	cm := NewConfigManager(config, nil)
	var calls []int
	cancel := cm.Subscribe(func(oldConfig, newConfig *Config) {
		calls = append(calls, oldConfig.UI.FrameBufferSize, newConfig.UI.FrameBufferSize)
	})

	writeConfig(t, filename, "ui:\n    frame-buffer-size: 20\n")
	if err := cm.Rehash(); err != nil {
		t.Fatal(err)
	}
	assertEqual(cm.Config().UI.FrameBufferSize, 20, t)
	assertEqual(calls, []int{10, 20}, t)

	// a broken file leaves the active config alone
	writeConfig(t, filename, "ui:\n    frame-buffer-size: -1\n")
	if err := cm.Rehash(); err == nil {
		t.Error("expected an error from an invalid config")
	}
	assertEqual(cm.Config().UI.FrameBufferSize, 20, t)
	assertEqual(len(calls), 2, t)

	cancel()
	cancel()
	writeConfig(t, filename, "ui:\n    frame-buffer-size: 30\n")
	if err := cm.Rehash(); err != nil {
		t.Fatal(err)
	}
	assertEqual(cm.Config().UI.FrameBufferSize, 30, t)
	assertEqual(len(calls), 2, t)
}

func TestConfigManagerRehashWithoutFile(t *testing.T) {
	cm := NewConfigManager(DefaultConfig(), nil)
	if err := cm.Rehash(); err == nil {
		t.Error("expected an error rehashing a config with no file")
	}
}

func TestConfigManagerWatch(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "textpane.yaml")
	writeConfig(t, filename, "ui:\n    frame-buffer-size: 10\n")
	config, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	cm := NewConfigManager(config, nil)

	var once sync.Once
	rehashed := make(chan int, 1)
	cm.Subscribe(func(oldConfig, newConfig *Config) {
		once.Do(func() { rehashed <- newConfig.UI.FrameBufferSize })
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := cm.Watch(ctx); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, filename, "ui:\n    frame-buffer-size: 15\n")
	select {
	case size := <-rehashed:
		assertEqual(size, 15, t)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not noticed")
	}
}
