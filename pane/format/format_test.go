// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package format

import (
	"fmt"
	"reflect"
	"testing"
)

func assertEqual(supplied, expected interface{}, t *testing.T) {
	t.Helper()
	if !reflect.DeepEqual(supplied, expected) {
		t.Errorf("expected %#v but got %#v", expected, supplied)
	}
}

func TestReadUntilControl(t *testing.T) {
	assertEqual(ReadUntilControl("no codes at all"), "no codes at all", t)
	assertEqual(ReadUntilControl(""), "", t)
	assertEqual(ReadUntilControl("bold\x02here"), "bold", t)
	assertEqual(ReadUntilControl("link\x05here"), "link", t)
	assertEqual(ReadUntilControl("\x1fx"), "", t)
}

func TestParse(t *testing.T) {
	assertEqual(
		Parse("\x022plain\x02 and \x034red\x03"),
		Text{Code(Bold), Lit("2plain"), Code(Bold), Lit(" and "), {Kind: Colour, Fg: "4"}, Lit("red"), {Kind: Colour}},
		t,
	)
	assertEqual(
		Parse("\x0312,04on blue\x03,5"),
		Text{{Kind: Colour, Fg: "12", Bg: "04"}, Lit("on blue"), {Kind: Colour}, Lit(",5")},
		t,
	)
	// at most two digits are colour arguments
	assertEqual(
		Parse("\x031234"),
		Text{{Kind: Colour, Fg: "12"}, Lit("34")},
		t,
	)
	assertEqual(
		Parse("\x1d\x1f\x11\x0f\x12"),
		Text{Code(Italic), Code(Underline), Code(Fixed), Code(Stop), Code(Negate)},
		t,
	)
}

func TestParseHex(t *testing.T) {
	assertEqual(
		Parse("\x04FF00ffpink"),
		Text{{Kind: ColourHex, Fg: "FF00ff"}, Lit("pink")},
		t,
	)
	assertEqual(
		Parse("\x04FF0000,00FF00x"),
		Text{{Kind: ColourHex, Fg: "FF0000", Bg: "00FF00"}, Lit("x")},
		t,
	)
	// incomplete background is left as text
	assertEqual(
		Parse("\x04FF0000,00FFx"),
		Text{{Kind: ColourHex, Fg: "FF0000"}, Lit(",00FFx")},
		t,
	)
	// malformed foreground resets colours and consumes only the code
	assertEqual(
		Parse("\x04FF00"),
		Text{{Kind: ColourHex}, Lit("FF00")},
		t,
	)
	assertEqual(Parse("\x04"), Text{{Kind: ColourHex}}, t)
}

func TestParseDropsMarkers(t *testing.T) {
	assertEqual(Parse("a\x05b\x10c\x13d\x14e\x15f"), Text{Lit("abcdef")}, t)
	assertEqual(Parse("bad \uFFFD char"), Text{Lit("bad ? char")}, t)
	assertEqual(Parse("bad \xff byte"), Text{Lit("bad ? byte")}, t)
}

func TestParseMarked(t *testing.T) {
	assertEqual(
		ParseMarked("see \x05http://x.org\x05 now"),
		Text{Lit("see "), Open(Hyperlink, "http://x.org"), Lit("http://x.org"), Close(Hyperlink), Lit(" now")},
		t,
	)
	assertEqual(
		ParseMarked("<\x10dan\x10Dan\x10> hi"),
		Text{Lit("<"), Open(Nickname, "dan"), Lit("Dan"), Close(Nickname), Lit("> hi")},
		t,
	)
	assertEqual(
		ParseMarked("\x13a tip\x13shown\x13 rest"),
		Text{Open(Tooltip, "a tip"), Lit("shown"), Close(Tooltip), Lit(" rest")},
		t,
	)
	assertEqual(
		ParseMarked("join \x14#go\x14 and smile \x15:)\x15"),
		Text{Lit("join "), Open(Channel, "#go"), Lit("#go"), Close(Channel), Lit(" and smile "), Open(Smilie, ":)"), Lit(":)"), Close(Smilie)},
		t,
	)
}

func TestParseMarkedUnterminated(t *testing.T) {
	// a tooltip opener with no closing marker is inert
	assertEqual(ParseMarked("a\x13b"), Text{Lit("ab")}, t)
	assertEqual(ParseMarked("a\x10b"), Text{Lit("ab")}, t)
}

func TestStrip(t *testing.T) {
	assertEqual(Strip("\x022plain\x02 and \x034red\x03"), "2plain and red", t)
	assertEqual(Strip("\x04AABBCC,DDEEFFhex\x0f"), "hex", t)
	assertEqual(StripMarked("\x13a tip\x13shown\x13"), "shown", t)
	assertEqual(StripMarked("<\x10dan\x10dan\x10>"), "<dan>", t)
}

func TestRawRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"\x022plain\x02 and \x034red\x03",
		"\x0312,04blue\x03,5",
		"\x04FF0000,00FFx",
		"\x1d\x1fboth\x0f done \x12\x02negated\x12",
	}
	for _, input := range inputs {
		assertEqual(Parse(input).Raw(), input, t)
	}
}

func TestRawPadsColours(t *testing.T) {
	text := Text{{Kind: Colour, Fg: "4"}, Lit("2 red")}
	raw := text.Raw()
	assertEqual(raw, "\x03042 red", t)
	assertEqual(Parse(raw), Text{{Kind: Colour, Fg: "04"}, Lit("2 red")}, t)
	assertEqual(Strip(raw), "2 red", t)
}

func TestLines(t *testing.T) {
	assertEqual(Parse("one\ntwo").Lines(), []Text{{Lit("one")}, {Lit("two")}}, t)
	assertEqual(Parse("one\n").Lines(), []Text{{Lit("one")}}, t)
	assertEqual(Parse("").Lines(), []Text{nil}, t)
	assertEqual(
		Parse("\x02a\n\nb").Lines(),
		[]Text{{Code(Bold), Lit("a")}, nil, {Lit("b")}},
		t,
	)

	text := ParseMarked("\x13tip\x13first\nsecond\x13")
	assertEqual(
		text.Lines(),
		[]Text{
			{Open(Tooltip, "tip"), Lit("first"), Close(Tooltip)},
			{Open(Tooltip, "tip"), Lit("second"), Close(Tooltip)},
		},
		t,
	)
}

func TestBuilder(t *testing.T) {
	var b Builder
	b.Literal("<").Nickname("dan", "\x02dan\x02").Literal("> see ").
		Hyperlink("http://x.org", "here").Literal(" in ").Channel("#go")
	b.Literal("\x03ignored codes")
	assertEqual(
		b.Text(),
		Text{
			Lit("<"), Open(Nickname, "dan"), Code(Bold), Lit("dan"), Code(Bold), Close(Nickname),
			Lit("> see "), Open(Hyperlink, "http://x.org"), Lit("here"), Close(Hyperlink),
			Lit(" in "), Open(Channel, "#go"), Lit("#go"), Close(Channel), Lit("ignored codes"),
		},
		t,
	)
	assertEqual(b.Text().Plain(), "<dan> see here in #goignored codes", t)
	assertEqual(b.Text().Raw(), "<\x02dan\x02> see here in #goignored codes", t)
}

func TestKindString(t *testing.T) {
	assertEqual(fmt.Sprint(ColourHex), "ColourHex", t)
	assertEqual(Hyperlink.IsSpan(), true, t)
	assertEqual(Colour.IsSpan(), false, t)
}
