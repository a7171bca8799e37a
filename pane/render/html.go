// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package render

import (
	"fmt"
	"html"
	"strings"
)

type element struct {
	span Spans
	open string
}

// HTML renders a line as an HTML fragment. Span elements are kept properly
// nested even when spans end out of order.
type HTML struct {
	attributes
	buf   strings.Builder
	stack []element
}

func NewHTML() *HTML {
	return new(HTML)
}

func (h *HTML) css() string {
	style := h.effective()
	var parts []string
	if style.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if style.Italic {
		parts = append(parts, "font-style:italic")
	}
	if style.Underline {
		parts = append(parts, "text-decoration:underline")
	}
	if style.Fixed {
		parts = append(parts, "font-family:monospace")
	}
	if style.Foreground.IsSet {
		parts = append(parts, "color:#"+style.Foreground.Hex())
	}
	if style.Background.IsSet {
		parts = append(parts, "background-color:#"+style.Background.Hex())
	}
	return strings.Join(parts, ";")
}

func (h *HTML) AppendString(text string) {
	if text == "" {
		return
	}
	if css := h.css(); css != "" {
		fmt.Fprintf(&h.buf, `<span style="%s">%s</span>`, css, html.EscapeString(text))
	} else {
		h.buf.WriteString(html.EscapeString(text))
	}
}

func (h *HTML) push(which Spans, open string) {
	h.stack = append(h.stack, element{span: which, open: open})
	h.buf.WriteString(open)
}

// pop closes the innermost element matching which, closing and reopening
// any elements nested inside it.
func (h *HTML) pop(which Spans) {
	for i := len(h.stack) - 1; i >= 0; i-- {
		if h.stack[i].span != which {
			continue
		}
		nested := append([]element(nil), h.stack[i+1:]...)
		for j := len(h.stack) - 1; j >= i; j-- {
			h.buf.WriteString(closingTag(h.stack[j].open))
		}
		h.stack = h.stack[:i]
		for _, e := range nested {
			h.push(e.span, e.open)
		}
		return
	}
}

func closingTag(open string) string {
	if strings.HasPrefix(open, "<a ") {
		return "</a>"
	}
	return "</span>"
}

// schemes that may become an href; anything else in chat text is shown as a
// link but not made clickable
var linkSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"ftp":    true,
	"irc":    true,
	"ircs":   true,
	"mailto": true,
}

// linkTarget returns the href for a hyperlink payload, if it may have one.
func linkTarget(url string) (target string, ok bool) {
	if len(url) >= 4 && strings.EqualFold(url[:4], "www.") {
		return "http://" + url, true
	}
	scheme, _, found := strings.Cut(url, ":")
	if !found {
		return "", false
	}
	return url, linkSchemes[strings.ToLower(scheme)]
}

func (h *HTML) StartHyperlink(url string) {
	h.attributes.StartHyperlink(url)
	if target, ok := linkTarget(url); ok {
		h.push(Spans{Hyperlink: "*"}, fmt.Sprintf(`<a class="hyperlink" href="%s">`, html.EscapeString(target)))
	} else {
		h.push(Spans{Hyperlink: "*"}, `<span class="hyperlink">`)
	}
}

func (h *HTML) EndHyperlink() {
	h.attributes.EndHyperlink()
	h.pop(Spans{Hyperlink: "*"})
}

func (h *HTML) StartChannelLink(name string) {
	h.attributes.StartChannelLink(name)
	h.push(Spans{Channel: "*"}, fmt.Sprintf(`<span class="channel" data-channel="%s">`, html.EscapeString(name)))
}

func (h *HTML) EndChannelLink() {
	h.attributes.EndChannelLink()
	h.pop(Spans{Channel: "*"})
}

func (h *HTML) StartNicknameLink(nick string) {
	h.attributes.StartNicknameLink(nick)
	h.push(Spans{Nickname: "*"}, fmt.Sprintf(`<span class="nickname" data-nick="%s">`, html.EscapeString(nick)))
}

func (h *HTML) EndNicknameLink() {
	h.attributes.EndNicknameLink()
	h.pop(Spans{Nickname: "*"})
}

func (h *HTML) StartSmilie(name string) {
	h.attributes.StartSmilie(name)
	h.push(Spans{Smilie: "*"}, fmt.Sprintf(`<span class="smilie" data-smilie="%s">`, html.EscapeString(name)))
}

func (h *HTML) EndSmilie() {
	h.attributes.EndSmilie()
	h.pop(Spans{Smilie: "*"})
}

func (h *HTML) StartToolTip(text string) {
	h.attributes.StartToolTip(text)
	h.push(Spans{ToolTip: "*"}, fmt.Sprintf(`<span class="tooltip" title="%s">`, html.EscapeString(text)))
}

func (h *HTML) EndToolTip() {
	h.attributes.EndToolTip()
	h.pop(Spans{ToolTip: "*"})
}

func (h *HTML) Clear() {
	h.clearAttributes()
	h.buf.Reset()
	h.stack = nil
}

// Result closes any open elements and wraps the fragment in a line element
// carrying the default font.
func (h *HTML) Result() string {
	for len(h.stack) != 0 {
		h.pop(h.stack[len(h.stack)-1].span)
	}
	var out strings.Builder
	out.WriteString(`<span class="line"`)
	if h.fontName != "" || h.fontSize != 0 {
		out.WriteString(` style="`)
		if h.fontName != "" {
			fmt.Fprintf(&out, "font-family:%s;", html.EscapeString(h.fontName))
		}
		if h.fontSize != 0 {
			fmt.Fprintf(&out, "font-size:%dpx", h.fontSize)
		}
		out.WriteString(`"`)
	}
	out.WriteString(">")
	out.WriteString(h.buf.String())
	out.WriteString("</span>")
	return out.String()
}
