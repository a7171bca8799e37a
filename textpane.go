// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/ergochat/irc-go/ircfmt"
	"github.com/muesli/termenv"
	"github.com/okzk/sdnotify"

	"github.com/ergochat/textpane/pane"
	"github.com/ergochat/textpane/pane/archive"
	"github.com/ergochat/textpane/pane/document"
	"github.com/ergochat/textpane/pane/format"
	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/render"
	"github.com/ergochat/textpane/pane/utils"
)

// set via linker flags, either by make or by goreleaser:
var commit = ""  // git hash
var version = "" // tagged version

// loadConfig loads the named file, or the built-in config if there is none.
func loadConfig(arguments docopt.Opts) *pane.Config {
	filename, _ := arguments["--conf"].(string)
	if filename == "" {
		return pane.DefaultConfig()
	}
	config, err := pane.LoadConfig(filename)
	if err != nil {
		log.Fatal("Config file did not load successfully: ", err.Error())
	}
	return config
}

func wrapWidth(arguments docopt.Opts, config *pane.Config) int {
	if value, ok := arguments["--width"].(string); ok {
		width, err := strconv.Atoi(value)
		if err != nil || width < 0 {
			log.Fatal("--width must be a number of columns")
		}
		return width
	}
	return config.UI.WrapWidth
}

// printWindow writes every displayed line of window to stdout, styled with
// terminal escapes or as plain text wrapped to width columns.
func printWindow(window *pane.Window, config *pane.Config, ansi bool, width int) {
	doc := window.Document()
	lines := doc.All()
	if ansi {
		profile := termenv.EnvColorProfile()
		cache := render.NewCache(doc, window.Styliser(), func() render.Backend[string] {
			return render.NewANSI(profile)
		}, config.UI.RenderCacheSize)
		defer cache.Close()
		for _, line := range lines {
			if noDisplay, _ := document.Get(line.Properties(), document.NoDisplay); !noDisplay {
				fmt.Printf("%s %s\n", line.Timestamp(), cache.RenderLine(line))
			}
		}
		return
	}

	cache := render.NewCache(doc, window.Styliser(), func() render.Backend[[]string] {
		return render.NewWrapped(width)
	}, config.UI.RenderCacheSize)
	defer cache.Close()
	for _, line := range lines {
		if noDisplay, _ := document.Get(line.Properties(), document.NoDisplay); noDisplay {
			continue
		}
		for i, part := range cache.RenderLine(line) {
			if i == 0 {
				fmt.Printf("%s %s\n", line.Timestamp(), part)
			} else {
				fmt.Printf("%*s %s\n", utils.DisplayWidth(line.Timestamp()), "", part)
			}
		}
	}
}

// implements the `textpane render` command
func doRender(arguments docopt.Opts) {
	config := loadConfig(arguments)
	config.UI.FrameBufferSize = 0
	window := pane.NewWindow("render", config, nil, nil)
	for _, text := range arguments["<text>"].([]string) {
		if escaped, _ := arguments["--escaped"].(bool); escaped {
			text = ircfmt.Unescape(text)
		}
		window.AddLine(time.Time{}, document.Properties{}, text)
	}
	ansi, _ := arguments["--ansi"].(bool)
	printWindow(window, config, ansi, wrapWidth(arguments, config))
}

// implements the `textpane strip` command
func doStrip(arguments docopt.Opts) {
	escape, _ := arguments["--escape"].(bool)
	for _, text := range arguments["<text>"].([]string) {
		if escape {
			fmt.Println(ircfmt.Escape(text))
		} else {
			fmt.Println(format.Strip(text))
		}
	}
}

// ingest feeds every line of r to the session.
func ingest(session *pane.Session, r io.Reader) (count, failed int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 8192), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		count++
		if session.Ingest(line) != nil {
			failed++
		}
	}
	return count, failed, scanner.Err()
}

func openLogfile(filename string) *os.File {
	if filename == "-" {
		return os.Stdin
	}
	file, err := os.Open(filename)
	if err != nil {
		log.Fatal("Could not open log file: ", err.Error())
	}
	return file
}

// implements the `textpane replay` command
func doReplay(arguments docopt.Opts) {
	config := loadConfig(arguments)
	config.UI.FrameBufferSize = 0
	cm := pane.NewConfigManager(config, nil)
	session := pane.NewSession(cm, nil, nil)
	defer session.Close()

	file := openLogfile(arguments["<logfile>"].(string))
	count, failed, err := ingest(session, file)
	file.Close()
	if err != nil {
		log.Fatal("Could not read log file: ", err.Error())
	}
	if failed != 0 {
		log.Printf("%d of %d lines could not be parsed", failed, count)
	}

	name, _ := arguments["--window"].(string)
	if name == "" {
		for _, window := range session.Windows() {
			fmt.Printf("%s: %s\n", window.Name(), window.Stats())
		}
		return
	}
	window, err := session.Window(name)
	if err != nil {
		log.Fatal("Invalid window name: ", name)
	}

	if phrase, _ := arguments["--search"].(string); phrase != "" {
		ignoreCase, _ := arguments["--ignore-case"].(bool)
		printMatches(window, phrase, !ignoreCase)
	} else if stats, _ := arguments["--stats"].(bool); stats {
		fmt.Printf("%s: %s\n", window.Name(), window.Stats())
	} else {
		ansi, _ := arguments["--ansi"].(bool)
		printWindow(window, config, ansi, wrapWidth(arguments, config))
	}
}

// printMatches lists every match of phrase in the window, oldest first.
func printMatches(window *pane.Window, phrase string, caseSensitive bool) {
	searcher, cancel := window.Search(phrase, caseSensitive)
	defer cancel()
	doc := window.Document()

	// the searcher starts at the end and wraps, so the first match found
	// going down is the oldest one
	first, found := searcher.SearchDown()
	for position := first; found; {
		text := doc.LineText(position.StartLine)
		fmt.Printf("%s: %s\n", position, text)
		position, found = searcher.SearchDown()
		if position == first {
			break
		}
	}
}

// implements the `textpane serve` command
func doServe(arguments docopt.Opts) {
	config := loadConfig(arguments)
	logman, err := logger.NewManager(config.Logging)
	if err != nil {
		log.Fatal("Logger did not load successfully:", err.Error())
	}
	defer logman.Close()
	logman.Info("server", fmt.Sprintf("%s starting", pane.Ver))

	store, err := archive.Open(config.Archive, logman)
	if err != nil {
		logman.Error("archive", "Could not open archive", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	cm := pane.NewConfigManager(config, logman)
	session := pane.NewSession(cm, store, logman)
	defer session.Close()

	name, _ := arguments["--window"].(string)
	if name == "" {
		name = pane.StatusWindow
	}
	window, err := session.Window(name)
	if err != nil {
		logman.Error("server", "Invalid window name", name)
		os.Exit(1)
	}

	var webview *pane.Webview
	if config.Webview.Enabled {
		webview = pane.NewWebview(window, cm, logman)
		if err := webview.Listen(); err != nil {
			logman.Error("webview", "Could not listen", err.Error())
			os.Exit(1)
		}
		defer webview.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if config.Filename != "" {
		if err := cm.Watch(ctx); err != nil {
			logman.Warning("config", "Could not watch config file", err.Error())
		}
	}

	filename, _ := arguments["<logfile>"].(string)
	if filename == "" {
		filename = "-"
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		file := openLogfile(filename)
		defer file.Close()
		count, failed, err := ingest(session, file)
		if err != nil {
			logman.Error("ingest", "Could not read input", err.Error())
		}
		logman.Info("ingest", "Input finished", fmt.Sprintf("%d lines, %d unparsed", count, failed))
	}()

	signals := make(chan os.Signal, len(utils.ServerExitSignals))
	signal.Notify(signals, utils.ServerExitSignals...)
	rehashSignals := make(chan os.Signal, 1)
	signal.Notify(rehashSignals, utils.ServerRehashSignals...)

	sdnotify.Ready()
	for {
		select {
		case <-signals:
			logman.Info("server", "Shutting down")
			sdnotify.Stopping()
			return
		case <-rehashSignals:
			sdnotify.Reloading()
			cm.Rehash()
			sdnotify.Ready()
		case <-done:
			// keep serving what was read until told to stop
			done = nil
		}
	}
}

func main() {
	pane.SetVersionString(version, commit)
	usage := `textpane.
Usage:
	textpane render [--conf <filename>] [--escaped] [--ansi] [--width <columns>] <text>...
	textpane strip [--escape] <text>...
	textpane replay <logfile> [--conf <filename>] [--window <name>] [--search <phrase>] [--ignore-case] [--stats] [--ansi] [--width <columns>]
	textpane serve [--conf <filename>] [--window <name>] [<logfile>]
	textpane mkconfig
	textpane -h | --help
	textpane --version
Options:
	--conf <filename>   Configuration file to use; the built-in defaults otherwise.
	--escaped           Text uses $b-style escapes rather than raw control codes.
	--escape            Print text with control codes escaped instead of stripped.
	--ansi              Style output with terminal escape codes.
	--width <columns>   Wrap plain output at this many columns.
	--window <name>     Window to show or serve.
	--search <phrase>   List the lines in the window that contain phrase.
	--ignore-case       Search case-insensitively.
	--stats             Show line and size counts.
	-h --help           Show this screen.
	--version           Show version.`

	arguments, _ := docopt.ParseArgs(usage, nil, pane.Ver)

	if arguments["mkconfig"].(bool) {
		fmt.Print(pane.DefaultConfigYAML)
	} else if arguments["strip"].(bool) {
		doStrip(arguments)
	} else if arguments["render"].(bool) {
		doRender(arguments)
	} else if arguments["replay"].(bool) {
		doReplay(arguments)
	} else if arguments["serve"].(bool) {
		doServe(arguments)
	}
}
