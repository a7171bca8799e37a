// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package pane

import (
	"encoding/json"
	"fmt"
	"html"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ergochat/textpane/pane/document"
	"github.com/ergochat/textpane/pane/logger"
	"github.com/ergochat/textpane/pane/render"
)

const (
	// messages queued for a viewer before it is considered too slow
	viewerQueueLength = 64
)

// viewMessage is what the live view page receives. Lines are HTML; every
// displayed line is numbered, and First is the number of the first line
// sent, or for a trim, of the first line that remains.
type viewMessage struct {
	Type  string   `json:"type"`
	Lines []string `json:"lines,omitempty"`
	First int      `json:"first"`
	// Count is the number of displayed lines a trim removed.
	Count int `json:"count,omitempty"`
}

// shownLine is a line of the window as the live view knows it; id is its
// number if it is displayed, or -1.
type shownLine struct {
	line *document.Line
	id   int
}

// Webview serves one window to browsers: a page that receives new lines
// over a websocket as they are added.
type Webview struct {
	document.NopListener

	window *Window
	config *ConfigManager
	logger *logger.Manager
	cache  *render.Cache[string]

	server   *http.Server
	listener net.Listener
	cancel   func()

	// stateMutex guards the view of the window and the viewers, so that a
	// viewer's backfill and the changes that follow it line up
	stateMutex sync.Mutex
	shown      []shownLine
	nextID     int
	viewers    map[*viewer]struct{}
}

type viewer struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (v *viewer) close() {
	v.closeOnce.Do(func() {
		close(v.send)
	})
}

// NewWebview returns a live view of window. It starts following the window
// immediately; call Listen to accept viewers.
func NewWebview(window *Window, config *ConfigManager, logger *logger.Manager) *Webview {
	wv := &Webview{
		window:  window,
		config:  config,
		logger:  logger,
		viewers: make(map[*viewer]struct{}),
	}
	wv.cache = render.NewCache(window.Document(), window.Styliser(), func() render.Backend[string] {
		return render.LimitFont[string](render.NewHTML(), wv.config.Config().UI.MaxFontSize)
	}, config.Config().UI.RenderCacheSize)
	// changes wait for the snapshot to be taken in
	wv.stateMutex.Lock()
	lines, cancel := window.Document().Follow(wv)
	wv.cancel = cancel
	wv.showLocked(lines)
	wv.stateMutex.Unlock()
	return wv
}

// Handler serves the page at / and the websocket at /ws.
func (wv *Webview) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", wv.servePage)
	mux.HandleFunc("/ws", wv.serveSocket)
	return mux
}

// Listen starts serving on the configured address.
func (wv *Webview) Listen() (err error) {
	wv.listener, err = net.Listen("tcp", wv.config.Config().Webview.Listen)
	if err != nil {
		return err
	}
	wv.server = &http.Server{
		Handler:           wv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go wv.server.Serve(wv.listener)
	wv.logger.Info("webview", "Live view listening", wv.listener.Addr().String(), wv.window.Name())
	return nil
}

// Addr returns the address being served, or nil before Listen.
func (wv *Webview) Addr() net.Addr {
	if wv.listener == nil {
		return nil
	}
	return wv.listener.Addr()
}

// Close stops serving and disconnects every viewer.
func (wv *Webview) Close() (err error) {
	wv.cancel()
	wv.cache.Close()
	if wv.server != nil {
		err = wv.server.Close()
	}
	wv.stateMutex.Lock()
	for v := range wv.viewers {
		v.close()
		delete(wv.viewers, v)
	}
	wv.shown = nil
	wv.stateMutex.Unlock()
	return
}

func (wv *Webview) servePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, viewPage, html.EscapeString(wv.window.Name()))
}

func (wv *Webview) checkOrigin(r *http.Request) bool {
	regexps := wv.config.Config().Webview.allowedOriginRegexps
	if len(regexps) == 0 {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if len(origin) == 0 {
		return false
	}
	for _, re := range regexps {
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}

func (wv *Webview) serveSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: wv.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		wv.logger.Info("webview", "websocket upgrade error", r.RemoteAddr, err.Error())
		return
	}
	config := wv.config.Config().Webview
	// viewers only ever send control frames; don't buffer anything large
	conn.SetReadLimit(config.MaxRead)

	v := &viewer{
		conn: conn,
		send: make(chan []byte, viewerQueueLength),
	}
	wv.stateMutex.Lock()
	initial, err := json.Marshal(wv.repaintLocked(config.Backfill))
	if err == nil {
		v.send <- initial
		wv.viewers[v] = struct{}{}
	}
	wv.stateMutex.Unlock()
	if err != nil {
		wv.logger.Error("webview", "could not encode message", err.Error())
		conn.Close()
		return
	}
	wv.logger.Debug("webview", "viewer connected", r.RemoteAddr)

	go wv.writeLoop(v, config.WriteTimeout)
	go wv.readLoop(v)
}

func (wv *Webview) writeLoop(v *viewer, timeout time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			wv.logger.Error("webview",
				fmt.Sprintf("Panic in viewer writer: %v\n%s", r, debug.Stack()))
		}
		v.conn.Close()
	}()

	for message := range v.send {
		v.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := v.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			wv.drop(v)
			return
		}
	}
	v.conn.SetWriteDeadline(time.Now().Add(timeout))
	v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop discards whatever the viewer sends, so that control frames are
// processed, and notices when it goes away.
func (wv *Webview) readLoop(v *viewer) {
	for {
		if _, _, err := v.conn.NextReader(); err != nil {
			wv.drop(v)
			return
		}
	}
}

func (wv *Webview) drop(v *viewer) {
	wv.stateMutex.Lock()
	_, present := wv.viewers[v]
	delete(wv.viewers, v)
	wv.stateMutex.Unlock()
	v.close()
	if present {
		wv.logger.Debug("webview", "viewer disconnected", v.conn.RemoteAddr().String())
	}
}

// ViewerCount returns the number of connected viewers.
func (wv *Webview) ViewerCount() int {
	wv.stateMutex.Lock()
	defer wv.stateMutex.Unlock()
	return len(wv.viewers)
}

// broadcastLocked queues message for every viewer, returning the viewers
// that have fallen too far behind. stateMutex must be held.
func (wv *Webview) broadcastLocked(message viewMessage) (slow []*viewer) {
	data, err := json.Marshal(message)
	if err != nil {
		wv.logger.Error("webview", "could not encode message", err.Error())
		return
	}
	for v := range wv.viewers {
		select {
		case v.send <- data:
		default:
			slow = append(slow, v)
		}
	}
	return
}

func (wv *Webview) dropSlow(slow []*viewer) {
	for _, v := range slow {
		wv.logger.Info("webview", "dropping slow viewer", v.conn.RemoteAddr().String())
		wv.drop(v)
	}
}

// showLocked adds lines to the end of the view, numbering the ones for
// display. stateMutex must be held.
func (wv *Webview) showLocked(lines []*document.Line) (first int, displayed []*document.Line) {
	first = wv.nextID
	for _, line := range lines {
		id := -1
		if noDisplay, _ := document.Get(line.Properties(), document.NoDisplay); !noDisplay {
			id = wv.nextID
			wv.nextID++
			displayed = append(displayed, line)
		}
		wv.shown = append(wv.shown, shownLine{line: line, id: id})
	}
	return
}

// repaintLocked renders up to limit of the most recent displayed lines.
// stateMutex must be held.
func (wv *Webview) repaintLocked(limit int) viewMessage {
	var recent []shownLine
	for i := len(wv.shown) - 1; i >= 0 && len(recent) < limit; i-- {
		if wv.shown[i].id >= 0 {
			recent = append(recent, wv.shown[i])
		}
	}
	message := viewMessage{Type: "repaint", First: wv.nextID}
	if len(recent) != 0 {
		message.First = recent[len(recent)-1].id
	}
	for i := len(recent) - 1; i >= 0; i-- {
		message.Lines = append(message.Lines, wv.cache.RenderLine(recent[i].line))
	}
	return message
}

// LinesAdded implements document.Listener.
func (wv *Webview) LinesAdded(start int, lines []*document.Line, size int) {
	wv.stateMutex.Lock()
	var slow []*viewer
	if first, displayed := wv.showLocked(lines); len(displayed) != 0 {
		rendered := make([]string, len(displayed))
		for i, line := range displayed {
			rendered[i] = wv.cache.RenderLine(line)
		}
		slow = wv.broadcastLocked(viewMessage{Type: "lines", Lines: rendered, First: first})
	}
	wv.stateMutex.Unlock()
	wv.dropSlow(slow)
}

// Trimmed implements document.Listener.
func (wv *Webview) Trimmed(size, evicted int) {
	wv.stateMutex.Lock()
	if evicted > len(wv.shown) {
		evicted = len(wv.shown)
	}
	displayed, last := 0, -1
	for i := 0; i < evicted; i++ {
		if wv.shown[i].id >= 0 {
			displayed++
			last = wv.shown[i].id
		}
		wv.shown[i] = shownLine{}
	}
	wv.shown = wv.shown[evicted:]
	var slow []*viewer
	if displayed != 0 {
		// numbers are consecutive, so the next one is the first that remains
		slow = wv.broadcastLocked(viewMessage{Type: "trim", First: last + 1, Count: displayed})
	}
	wv.stateMutex.Unlock()
	wv.dropSlow(slow)
}

// Cleared implements document.Listener.
func (wv *Webview) Cleared() {
	wv.stateMutex.Lock()
	wv.shown = nil
	slow := wv.broadcastLocked(viewMessage{Type: "clear", First: wv.nextID})
	wv.stateMutex.Unlock()
	wv.dropSlow(slow)
}

// RepaintNeeded implements document.Listener.
func (wv *Webview) RepaintNeeded() {
	// the cache may not have heard about this yet
	wv.cache.Invalidate()
	backfill := wv.config.Config().Webview.Backfill
	wv.stateMutex.Lock()
	slow := wv.broadcastLocked(wv.repaintLocked(backfill))
	wv.stateMutex.Unlock()
	wv.dropSlow(slow)
}

const viewPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%[1]s</title>
<style>
body { background: #fff; color: #000; margin: 0.5em; }
#lines div { white-space: pre-wrap; }
a.hyperlink, span.channel { cursor: pointer; }
</style>
</head>
<body>
<div id="lines"></div>
<script>
(function() {
	var lines = document.getElementById("lines");
	function addAll(message) {
		(message.lines || []).forEach(function(html, i) {
			var div = document.createElement("div");
			div.dataset.id = message.first + i;
			div.innerHTML = html;
			lines.appendChild(div);
		});
	}
	var scheme = location.protocol === "https:" ? "wss://" : "ws://";
	var socket = new WebSocket(scheme + location.host + "/ws");
	socket.onmessage = function(event) {
		var message = JSON.parse(event.data);
		switch (message.type) {
		case "repaint":
			lines.innerHTML = "";
			addAll(message);
			break;
		case "lines":
			addAll(message);
			break;
		case "trim":
			while (lines.firstChild && Number(lines.firstChild.dataset.id) < message.first) {
				lines.removeChild(lines.firstChild);
			}
			break;
		case "clear":
			lines.innerHTML = "";
			break;
		}
		window.scrollTo(0, document.body.scrollHeight);
	};
})();
</script>
</body>
</html>
`
