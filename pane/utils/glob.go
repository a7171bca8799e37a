// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package utils

import (
	"bytes"
	"regexp"
	"regexp/syntax"
)

// CompileGlob turns a glob with `*` and `?` wildcards into an anchored
// regular expression. Used for websocket origin allowlists.
func CompileGlob(glob string) (result *regexp.Regexp, err error) {
	var buf bytes.Buffer
	buf.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			buf.WriteString("(.*)")
		case '?':
			buf.WriteString("(.)")
		case 0xFFFD:
			return nil, &syntax.Error{Code: syntax.ErrInvalidUTF8, Expr: glob}
		default:
			buf.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	buf.WriteByte('$')
	return regexp.Compile(buf.String())
}

// CompileGlobs compiles every glob in the list, failing on the first error.
func CompileGlobs(globs []string) (result []*regexp.Regexp, err error) {
	result = make([]*regexp.Regexp, 0, len(globs))
	for _, glob := range globs {
		re, err := CompileGlob(glob)
		if err != nil {
			return nil, err
		}
		result = append(result, re)
	}
	return
}
