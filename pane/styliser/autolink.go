// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package styliser

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"

	"github.com/ergochat/textpane/pane/format"
)

const (
	// how many rounds of boundary correction are applied to detected links
	maxCorrectionPasses = 5
	// bound on the time spent on any one regex match
	matchTimeout = 250 * time.Millisecond

	// trailing punctuation that is legal inside URLs
	urlPunctLegal = `';:!,\.\?`
	// all characters treated as trailing punctuation
	urlPunct = `"';:!,.?`
	// characters allowed in URLs that are never trailing punctuation
	urlNoPunct = `a-z0-9$\-_@&\+\*\(\)=/#%~\|`
	urlChars   = `[` + urlPunctLegal + urlNoPunct + `]*[` + urlNoPunct + `]+[` + urlPunctLegal + urlNoPunct + `]*`

	urlPattern = `(?i)(?:[a-z+]+://` + urlChars + `|(?<![a-z0-9:/])www\.` + urlChars + `)`
	// %s is the escaped set of channel prefixes
	channelPattern = `(?i)(?<![^\s+@\-<>("',])([%s][^\s",]+)`

	// characters that may follow a link's closing parenthesis
	closingParenTrail = `)'";:!,.`
)

var urlMatcher = &matcher{re: mustCompile(urlPattern)}

func mustCompile(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.None)
	re.MatchTimeout = matchTimeout
	return re
}

// matcher finds non-overlapping matches of a regex over rune slices. If
// group is non-zero, the span reported is that capture group's.
type matcher struct {
	re    *regexp2.Regexp
	group int
}

type span struct {
	kind       format.Kind
	start, end int
}

func (m *matcher) findAll(runes []rune, kind format.Kind) (spans []span, err error) {
	if m == nil {
		return nil, nil
	}
	match, err := m.re.FindRunesMatch(runes)
	for match != nil && err == nil {
		capture := &match.Group
		if m.group != 0 {
			capture = match.GroupByNumber(m.group)
		}
		if capture != nil && capture.Length != 0 {
			spans = append(spans, span{kind: kind, start: capture.Index, end: capture.Index + capture.Length})
		}
		match, err = m.re.FindNextMatch(match)
	}
	return spans, err
}

func compileChannelMatcher(prefixes string) (*matcher, error) {
	if prefixes == "" {
		return nil, nil
	}
	var class strings.Builder
	for _, r := range prefixes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			class.WriteByte('\\')
		}
		class.WriteRune(r)
	}
	re, err := regexp2.Compile(strings.Replace(channelPattern, "%s", class.String(), 1), regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return &matcher{re: re, group: 1}, nil
}

func compileSmilieMatcher(smilies []string) (*matcher, error) {
	var alternatives []string
	for _, smilie := range smilies {
		if smilie != "" {
			alternatives = append(alternatives, regexp2.Escape(smilie))
		}
	}
	if len(alternatives) == 0 {
		return nil, nil
	}
	re, err := regexp2.Compile(`(?:\s|^)(`+strings.Join(alternatives, "|")+`)(?=\s|$)`, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return &matcher{re: re, group: 1}, nil
}

// autolink tags URLs, channel names and smilies found in the literal runs of
// text that are not already inside a span.
func (s *Styliser) autolink(config *settings, text format.Text) format.Text {
	var result format.Text
	depth := 0
	for _, tok := range text {
		switch {
		case tok.Kind.IsSpan() && tok.Close:
			if depth > 0 {
				depth--
			}
		case tok.Kind.IsSpan():
			depth++
		case tok.Kind == format.Literal && depth == 0:
			result = append(result, s.linkLiteral(config, tok.Text)...)
			continue
		}
		result = append(result, tok)
	}
	return result
}

// Autolink returns text with hyperlinks, channel names and smilies in its
// untagged literal runs wrapped in spans, as Style would see it.
func (s *Styliser) Autolink(text format.Text) format.Text {
	return s.autolink(s.settings.Load(), text)
}

func (s *Styliser) linkLiteral(config *settings, text string) format.Text {
	runes := []rune(text)

	links, err := urlMatcher.findAll(runes, format.Hyperlink)
	if err != nil {
		s.logger.Warning("styliser", "Hyperlink detection failed", err.Error())
		return format.Text{format.Lit(text)}
	}
	channels, err := config.channels.findAll(runes, format.Channel)
	if err != nil {
		s.logger.Warning("styliser", "Channel detection failed", err.Error())
		channels = nil
	}
	links = mergeSpans(links, channels)
	if len(links) != 0 {
		correctSpans(runes, links)
	}

	smilies, err := config.smilies.findAll(runes, format.Smilie)
	if err != nil {
		s.logger.Warning("styliser", "Smilie detection failed", err.Error())
		smilies = nil
	}
	all := mergeSpans(links, smilies)

	if len(all) == 0 {
		return format.Text{format.Lit(text)}
	}
	var result format.Text
	pos := 0
	for _, sp := range all {
		if pos < sp.start {
			result = append(result, format.Lit(string(runes[pos:sp.start])))
		}
		body := string(runes[sp.start:sp.end])
		result = append(result, format.Open(sp.kind, body), format.Lit(body), format.Close(sp.kind))
		pos = sp.end
	}
	if pos < len(runes) {
		result = append(result, format.Lit(string(runes[pos:])))
	}
	return result
}

// mergeSpans adds the extra spans that don't overlap any of the primary
// spans, and returns the union in order.
func mergeSpans(primary, extra []span) []span {
	if len(extra) == 0 {
		return primary
	}
	result := primary
	for _, candidate := range extra {
		overlaps := false
		for _, existing := range primary {
			if candidate.start < existing.end && existing.start < candidate.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			result = append(result, candidate)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].start < result[j].start })
	return result
}

// correctSpans moves the ends of link spans so that surrounding punctuation
// is not swallowed. The passes are repeated until nothing changes, but at
// most maxCorrectionPasses times.
func correctSpans(runes []rune, spans []span) {
	for pass := 0; pass < maxCorrectionPasses; pass++ {
		changed := excludeClosingParens(runes, spans)
		changed = excludeTrailingQuotes(runes, spans) || changed
		changed = excludeSurroundingQuotes(runes, spans) || changed
		changed = excludeTrailingPunct(runes, spans) || changed
		if !changed {
			return
		}
	}
}

// excludeClosingParens handles "(see http://example.com/a)." by ending the
// link before the parenthesis that closes the one opened before the link.
func excludeClosingParens(runes []rune, spans []span) (changed bool) {
	consumed := 0
	for i := range spans {
		if openParenBefore(runes, spans, i, consumed) == -1 {
			continue
		}
		cut := -1
		for j := spans[i].end - 1; j > spans[i].start; j-- {
			if runes[j] == ')' {
				cut = j
				break
			}
			if !strings.ContainsRune(closingParenTrail, runes[j]) {
				break
			}
		}
		if cut == -1 {
			continue
		}
		consumed = spans[i].end
		spans[i].end = cut
		changed = true
	}
	return
}

// openParenBefore finds an unclosed '(' before spans[i], searching no
// further back than lower. At most one earlier span may lie in between.
func openParenBefore(runes []rune, spans []span, i, lower int) int {
	skipped := false
	prev := i - 1
	for pos := spans[i].start - 1; pos >= lower; pos-- {
		if prev >= 0 && pos < spans[prev].end {
			if skipped {
				return -1
			}
			skipped = true
			pos = spans[prev].start
			prev--
			continue
		}
		switch runes[pos] {
		case ')':
			return -1
		case '(':
			return pos
		}
	}
	return -1
}

// excludeTrailingQuotes handles `he said "see http://x.org/".` for the first
// link on the line: a quote opened before the link is closed inside it.
func excludeTrailingQuotes(runes []rune, spans []span) bool {
	first := &spans[0]
	for q := first.start - 1; q >= 1; q-- {
		quote := runes[q]
		if quote != '"' && quote != '\'' {
			continue
		}
		for j := first.end - 1; j > first.start; j-- {
			if runes[j] == quote {
				first.end = j
				return true
			}
			if !strings.ContainsRune(urlPunct, runes[j]) {
				break
			}
		}
	}
	return false
}

// excludeSurroundingQuotes handles 'http://x.org/'s' by ending a link that
// directly follows a quote at the first matching quote inside it.
func excludeSurroundingQuotes(runes []rune, spans []span) (changed bool) {
	for i := range spans {
		q := spans[i].start - 1
		if q < 0 || (i > 0 && q < spans[i-1].end) {
			continue
		}
		quote := runes[q]
		if quote != '"' && quote != '\'' {
			continue
		}
		for j := spans[i].start + 1; j < spans[i].end; j++ {
			if runes[j] == quote {
				spans[i].end = j
				changed = true
				break
			}
		}
	}
	return
}

// excludeTrailingPunct drops one trailing punctuation character, so that a
// link ending a sentence doesn't include the full stop.
func excludeTrailingPunct(runes []rune, spans []span) (changed bool) {
	for i := range spans {
		if spans[i].end-spans[i].start >= 2 && strings.ContainsRune(urlPunct, runes[spans[i].end-1]) {
			spans[i].end--
			changed = true
		}
	}
	return
}
