// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v2"

	"github.com/ergochat/textpane/pane/archive"
	"github.com/ergochat/textpane/pane/colours"
	"github.com/ergochat/textpane/pane/document"
	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/render"
	"github.com/ergochat/textpane/pane/styliser"
	"github.com/ergochat/textpane/pane/utils"
)

// DefaultConfigYAML is the commented default configuration file.
//
//go:embed default.yaml
var DefaultConfigYAML string

// UIConfig is the `ui` section: how lines are styled and kept.
type UIConfig struct {
	FrameBufferSize int    `yaml:"frame-buffer-size"`
	FontName        string `yaml:"font-name"`
	FontSize        int    `yaml:"font-size"`
	MaxFontSize     int    `yaml:"max-font-size"`
	TimestampFormat string `yaml:"timestamp-format"`
	StyleLinks      bool   `yaml:"style-links"`
	StyleChannels   bool   `yaml:"style-channels"`
	LinkColour      string `yaml:"link-colour"`
	ChannelColour   string `yaml:"channel-colour"`
	RenderCacheSize int    `yaml:"render-cache-size"`
	WrapWidth       int    `yaml:"wrap-width"`
}

// WebviewConfig is the `webview` section.
type WebviewConfig struct {
	Enabled              bool
	Listen               string
	AllowedOrigins       []string `yaml:"allowed-origins"`
	allowedOriginRegexps []*regexp.Regexp
	Backfill             int
	MaxReadString        string        `yaml:"max-read"`
	MaxRead              int64         `yaml:"-"`
	WriteTimeout         time.Duration `yaml:"write-timeout"`
}

// Config is the whole configuration file.
type Config struct {
	UI              UIConfig `yaml:"ui"`
	Colours         map[string]string
	palette         map[int]string
	ChannelPrefixes string `yaml:"channel-prefixes"`
	Smilies         []string
	Archive         archive.Config
	Webview         WebviewConfig
	Logging         []logger.LoggingConfig

	Filename string `yaml:"-"`
}

// validColourSpec mirrors what colours.Resolver.FromSpec accepts.
func validColourSpec(spec string) bool {
	if spec == "" || colours.IsHexString(spec) {
		return true
	}
	if len(spec) < 3 {
		index, err := strconv.Atoi(spec)
		return err == nil && 0 <= index && index < colours.PaletteSize
	}
	return false
}

// LoadRawConfig reads and decodes a config file without validating it.
func LoadRawConfig(filename string) (config *Config, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config, err = decodeConfig(data)
	if err != nil {
		return nil, err
	}
	config.Filename = filename
	return config, nil
}

func decodeConfig(data []byte) (config *Config, err error) {
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = new(Config)
	}
	return config, nil
}

// LoadConfig loads and validates the given YAML configuration file.
func LoadConfig(filename string) (config *Config, err error) {
	config, err = LoadRawConfig(filename)
	if err != nil {
		return nil, err
	}
	if err = config.postprocess(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseConfig decodes and validates configuration from memory.
func ParseConfig(data []byte) (config *Config, err error) {
	config, err = decodeConfig(data)
	if err != nil {
		return nil, err
	}
	if err = config.postprocess(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	config, err := ParseConfig([]byte(DefaultConfigYAML))
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return config
}

func (config *Config) postprocess() (err error) {
	ui := &config.UI
	if ui.FrameBufferSize < 0 {
		return ErrFrameBufferSize
	}
	if ui.FontSize < 0 || ui.MaxFontSize < 0 {
		return ErrFontSize
	}
	if ui.FontName == "" {
		ui.FontName = document.DefaultFontName
	}
	if ui.FontSize == 0 {
		ui.FontSize = document.DefaultFontSize
	}
	if ui.TimestampFormat == "" {
		ui.TimestampFormat = document.DefaultTimestampFormat
	}
	if ui.RenderCacheSize < 0 {
		return ErrRenderCacheSize
	} else if ui.RenderCacheSize == 0 {
		ui.RenderCacheSize = render.DefaultCacheSize
	}
	if ui.WrapWidth < 0 {
		ui.WrapWidth = 0
	}
	for _, spec := range []string{ui.LinkColour, ui.ChannelColour} {
		if !validColourSpec(spec) {
			return fmt.Errorf("%w: %s", ErrInvalidColourSpec, spec)
		}
	}

	config.palette = make(map[int]string, len(config.Colours))
	for key, value := range config.Colours {
		index, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || index < 0 || index >= colours.PaletteSize {
			return fmt.Errorf("%w: %s", ErrPaletteIndex, key)
		}
		if !colours.IsHexString(value) {
			return fmt.Errorf("%w: %s", ErrPaletteColour, value)
		}
		config.palette[index] = value
	}

	if strings.IndexFunc(config.ChannelPrefixes, func(r rune) bool { return r <= ' ' }) != -1 {
		return ErrChannelPrefixes
	}

	if err = config.Archive.Postprocess(); err != nil {
		return err
	}

	webview := &config.Webview
	if webview.Enabled && webview.Listen == "" {
		return ErrWebviewListenMissing
	}
	webview.allowedOriginRegexps, err = utils.CompileGlobs(webview.AllowedOrigins)
	if err != nil {
		return fmt.Errorf("Could not compile allowed-origins: %w", err)
	}
	if webview.MaxReadString == "" {
		webview.MaxRead = 4096
	} else {
		maxRead, err := bytefmt.ToBytes(webview.MaxReadString)
		if err != nil {
			return fmt.Errorf("Could not parse webview max-read: %w", err)
		}
		webview.MaxRead = int64(maxRead)
	}
	if webview.WriteTimeout <= 0 {
		webview.WriteTimeout = 10 * time.Second
	}
	if webview.Backfill < 0 {
		webview.Backfill = 0
	}

	for i := range config.Logging {
		if err = config.Logging[i].Postprocess(); err != nil {
			return err
		}
	}
	return nil
}

// Palette returns the palette overrides keyed by slot.
func (config *Config) Palette() map[int]string {
	return utils.CopyMap(config.palette)
}

// DocumentConfig returns the settings for a window's scrollback.
func (config *Config) DocumentConfig() document.Config {
	return document.Config{
		FrameBufferSize: config.UI.FrameBufferSize,
		FontName:        config.UI.FontName,
		FontSize:        config.UI.FontSize,
		TimestampFormat: config.UI.TimestampFormat,
	}
}

// StyliserOptions returns the link and smilie settings.
func (config *Config) StyliserOptions() styliser.Options {
	return styliser.Options{
		StyleLinks:      config.UI.StyleLinks,
		StyleChannels:   config.UI.StyleChannels,
		LinkColour:      config.UI.LinkColour,
		ChannelColour:   config.UI.ChannelColour,
		ChannelPrefixes: config.ChannelPrefixes,
		Smilies:         config.Smilies,
	}
}

// IsChannel reports whether name starts with one of the channel prefixes.
func (config *Config) IsChannel(name string) bool {
	return name != "" && strings.IndexByte(config.ChannelPrefixes, name[0]) != -1
}
