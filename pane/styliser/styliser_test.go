// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package styliser

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/ergochat/textpane/pane/colours"
	"github.com/ergochat/textpane/pane/format"
)

func assertEqual(supplied, expected interface{}, t *testing.T) {
	t.Helper()
	if !reflect.DeepEqual(supplied, expected) {
		t.Errorf("expected %#v but got %#v", expected, supplied)
	}
}

// recorder is a Sink that logs every call it receives.
type recorder struct {
	calls []string
}

func (r *recorder) record(call string, args ...interface{}) {
	if len(args) != 0 {
		call = fmt.Sprintf("%s(%s)", call, fmt.Sprint(args...))
	}
	r.calls = append(r.calls, call)
}

func (r *recorder) AppendString(text string)                   { r.record("append", text) }
func (r *recorder) ResetAllStyles()                            { r.record("resetAllStyles") }
func (r *recorder) ResetColours()                              { r.record("resetColours") }
func (r *recorder) ToggleBold()                                { r.record("toggleBold") }
func (r *recorder) ToggleUnderline()                           { r.record("toggleUnderline") }
func (r *recorder) ToggleItalic()                              { r.record("toggleItalic") }
func (r *recorder) ToggleFixedWidth()                          { r.record("toggleFixedWidth") }
func (r *recorder) SetForeground(c colours.Colour)             { r.record("setForeground", c) }
func (r *recorder) SetBackground(c colours.Colour)             { r.record("setBackground", c) }
func (r *recorder) SetDefaultForeground(c colours.Colour)      { r.record("setDefaultForeground", c) }
func (r *recorder) SetDefaultBackground(c colours.Colour)      { r.record("setDefaultBackground", c) }
func (r *recorder) StartHyperlink(url string)                  { r.record("startHyperlink", url) }
func (r *recorder) EndHyperlink()                              { r.record("endHyperlink") }
func (r *recorder) ToggleHyperlinkStyle(c colours.Colour)      { r.record("toggleHyperlinkStyle", c) }
func (r *recorder) StartChannelLink(name string)               { r.record("startChannelLink", name) }
func (r *recorder) EndChannelLink()                            { r.record("endChannelLink") }
func (r *recorder) ToggleChannelLinkStyle(c colours.Colour)    { r.record("toggleChannelLinkStyle", c) }
func (r *recorder) StartNicknameLink(nick string)              { r.record("startNicknameLink", nick) }
func (r *recorder) EndNicknameLink()                           { r.record("endNicknameLink") }
func (r *recorder) StartSmilie(name string)                    { r.record("startSmilie", name) }
func (r *recorder) EndSmilie()                                 { r.record("endSmilie") }
func (r *recorder) StartToolTip(text string)                   { r.record("startToolTip", text) }
func (r *recorder) EndToolTip()                                { r.record("endToolTip") }
func (r *recorder) SetDefaultFont(name string, size int)       { r.record("setDefaultFont", name, size) }
func (r *recorder) MaximumFontSize() int                       { return 0 }
func (r *recorder) Clear()                                     { r.calls = nil }

func (r *recorder) appended() string {
	var buf strings.Builder
	for _, call := range r.calls {
		if strings.HasPrefix(call, "append(") {
			buf.WriteString(strings.TrimSuffix(strings.TrimPrefix(call, "append("), ")"))
		}
	}
	return buf.String()
}

func styled(s *Styliser, raw ...string) []string {
	var r recorder
	s.Style(&r, raw...)
	return r.calls
}

func newStyliser(opts Options) *Styliser {
	return New(opts, colours.NewResolver(nil), nil)
}

func TestStyleScenario(t *testing.T) {
	s := newStyliser(Options{})
	assertEqual(
		styled(s, "\x022plain\x02 and \x034red\x03"),
		[]string{
			"resetAllStyles",
			"toggleBold", "append(2plain)", "toggleBold", "append( and )",
			"setForeground(#FF0000)", "append(red)", "resetColours",
		},
		t,
	)
}

func TestStyleCodes(t *testing.T) {
	s := newStyliser(Options{})
	assertEqual(
		styled(s, "\x1di\x1fu\x11f\x0fs"),
		[]string{"resetAllStyles", "toggleItalic", "append(i)", "toggleUnderline", "append(u)",
			"toggleFixedWidth", "append(f)", "resetAllStyles", "append(s)"},
		t,
	)
	// each string starts from a clean slate
	assertEqual(
		styled(s, "a", "b"),
		[]string{"resetAllStyles", "append(a)", "resetAllStyles", "append(b)"},
		t,
	)
}

func TestStyleColours(t *testing.T) {
	s := newStyliser(Options{})
	assertEqual(
		styled(s, "\x0304,12x\x0318y\x0399z"),
		[]string{"resetAllStyles",
			"setForeground(#FF0000)", "setBackground(#0000FF)", "append(x)",
			"setForeground(#00007F)", "append(y)",
			"setForeground(#008D00)", "append(z)"},
		t,
	)
	assertEqual(
		styled(s, "\x04ff8000,000000o\x04ff80"),
		[]string{"resetAllStyles",
			"setForeground(#FF8000)", "setBackground(#000000)", "append(o)",
			"resetColours", "append(ff80)"},
		t,
	)
}

func TestStyleNegation(t *testing.T) {
	s := newStyliser(Options{})
	assertEqual(
		styled(s, "\x12\x02x\x034y\x0f\x03\x12\x02z"),
		[]string{"resetAllStyles", "append(x)", "append(y)", "toggleBold", "append(z)"},
		t,
	)
}

func TestStyleLinks(t *testing.T) {
	s := newStyliser(Options{StyleLinks: true, LinkColour: "12"})
	assertEqual(
		styled(s, "see http://x.org now"),
		[]string{"resetAllStyles", "append(see )",
			"toggleHyperlinkStyle(#0000FF)", "startHyperlink(http://x.org)", "append(http://x.org)",
			"toggleHyperlinkStyle(#0000FF)", "endHyperlink", "append( now)"},
		t,
	)

	s.SetOptions(Options{StyleChannels: false, ChannelPrefixes: "#"})
	assertEqual(
		styled(s, "\x02join #go\x02"),
		[]string{"resetAllStyles", "toggleBold", "append(join )",
			"startChannelLink(#go)", "append(#go)", "endChannelLink", "toggleBold"},
		t,
	)
}

func TestStyleSmilies(t *testing.T) {
	s := newStyliser(Options{Smilies: []string{":)", "<3"}})
	assertEqual(
		styled(s, "hi :) x:) <3"),
		[]string{"resetAllStyles", "append(hi )",
			"startSmilie(smilie-:))", "append(:))", "endSmilie",
			"append( x:) )",
			"startSmilie(smilie-<3)", "append(<3)", "endSmilie"},
		t,
	)
}

func TestStyleMarked(t *testing.T) {
	s := newStyliser(Options{StyleLinks: true})
	var r recorder
	s.StyleText(&r, format.ParseMarked("<\x10dan\x10dan\x10> \x13tip\x13shown\x13 and \x13broken"))
	assertEqual(
		r.calls,
		[]string{"resetAllStyles", "append(<)", "startNicknameLink(dan)", "append(dan)", "endNicknameLink",
			"append(> )", "startToolTip(tip)", "append(shown)", "endToolTip", "append( and broken)"},
		t,
	)
}

func TestSpanPolicy(t *testing.T) {
	s := newStyliser(Options{StyleLinks: true})

	// a link inside a nickname span is ignored, as is its close
	var r recorder
	s.StyleText(&r, format.Text{
		format.Open(format.Nickname, "dan"), format.Open(format.Hyperlink, "http://x"),
		format.Lit("a"), format.Close(format.Hyperlink), format.Lit("b"),
	})
	assertEqual(
		r.calls,
		[]string{"resetAllStyles", "startNicknameLink(dan)", "append(a)", "append(b)", "endNicknameLink"},
		t,
	)

	// unclosed spans are closed in reverse order
	r.Clear()
	s.StyleText(&r, format.Text{
		format.Open(format.Tooltip, "tip"), format.Open(format.Hyperlink, "u"), format.Lit("u"),
	})
	assertEqual(
		r.calls,
		[]string{"resetAllStyles", "startToolTip(tip)", "toggleHyperlinkStyle(default)", "startHyperlink(u)",
			"append(u)", "toggleHyperlinkStyle(default)", "endHyperlink", "endToolTip"},
		t,
	)

	// the link style is only undone if it was applied
	r.Clear()
	s.StyleText(&r, format.Text{
		format.Code(format.Negate), format.Open(format.Hyperlink, "u"), format.Lit("u"),
		format.Code(format.Negate), format.Close(format.Hyperlink),
	})
	assertEqual(
		r.calls,
		[]string{"resetAllStyles", "startHyperlink(u)", "append(u)", "endHyperlink"},
		t,
	)
}

func TestStyleRoundTrip(t *testing.T) {
	s := newStyliser(Options{StyleLinks: true, StyleChannels: true, ChannelPrefixes: "#&", Smilies: []string{":)"}})
	inputs := []string{
		"\x022plain\x02 and \x034red\x03",
		"(see http://example.com/a).",
		"join #go, &local or 'www.example.org'!",
		"\x04FF0000,00FF00x\x12\x1f:) y\x0f",
		"\x0312,4 \x03,5",
	}
	for _, input := range inputs {
		var r recorder
		s.Style(&r, input)
		assertEqual(format.Strip(r.appended()), format.Strip(input), t)
	}
}
