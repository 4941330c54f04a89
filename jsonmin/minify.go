// Package jsonmin implements the minifier: a single-pass strip of
// insignificant whitespace (and, as a documented extension, comments) from
// already-valid JSON text. It writes into a new slice and does not modify
// its input in place.
package jsonmin

import "github.com/corvid-labs/jsontree/jsonerr"

// Minify strips insignificant whitespace from data and returns the result.
// It operates on a copy of data; the input is never modified. Minify does
// not re-validate JSON grammar beyond what is needed to track string and
// comment boundaries: feeding it malformed input produces unspecified (but
// never out-of-bounds) output.
//
// As an extension beyond strict RFC 8259 minification, Minify also strips
// "//" line comments and "/* */" block comments that appear outside string
// literals. This mirrors a common pre-processing convenience found in
// hand-authored JSON configuration files; callers that need byte-exact
// RFC 8259 minification of data already free of comments are unaffected,
// since no comment markers occur inside valid JSON to begin with.
func Minify(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	i := 0
	n := len(data)

	for i < n {
		c := data[i]
		switch {
		case c == '"':
			start := i
			i++
			for i < n {
				if data[i] == '\\' && i+1 < n {
					i += 2
					continue
				}
				if data[i] == '"' {
					i++
					break
				}
				i++
			}
			if i > n {
				i = n
			}
			out = append(out, data[start:i]...)

		case c == '/' && i+1 < n && data[i+1] == '/':
			i += 2
			for i < n && data[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && data[i+1] == '*':
			i += 2
			for i+1 < n && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			if i+1 >= n {
				return nil, jsonerr.New(jsonerr.SyntaxError, i, "unterminated block comment")
			}
			i += 2

		case isJSONWhitespace(c):
			i++

		default:
			out = append(out, c)
			i++
		}
	}

	return out, nil
}

func isJSONWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
