// Package jsonptr implements RFC 6901 JSON Pointer parsing and evaluation
// against jsonval.Value trees, plus a reverse PathTo operation that locates
// a descendant node and reconstructs the pointer that reaches it.
package jsonptr

import (
	"strconv"
	"strings"

	"github.com/corvid-labs/jsontree/jsonerr"
	"github.com/corvid-labs/jsontree/jsonval"
)

const (
	separator        = "/"
	escapedSeparator = "~1"
	tilde            = "~"
	escapedTilde     = "~0"
)

// Pointer is a parsed JSON Pointer: a sequence of unescaped reference
// tokens. An empty Pointer refers to the document root.
type Pointer []string

// Parse decodes str per RFC 6901 section 3. The empty string denotes the
// whole document. A non-empty pointer must begin with "/".
//
// Unescaping replaces "~1" with "/" and then "~0" with "~", in that order,
// so that "~01" decodes to "~1" rather than "/".
func Parse(str string) (Pointer, error) {
	if len(str) == 0 {
		return Pointer{}, nil
	}
	if str[0] != '/' {
		return nil, jsonerr.New(jsonerr.SyntaxError, -1, "json pointer must start with '/' or be empty")
	}
	tokens := strings.Split(str[1:], separator)
	out := make(Pointer, len(tokens))
	for i, tok := range tokens {
		out[i] = unescapeToken(tok)
	}
	return out, nil
}

func unescapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, escapedSeparator, separator)
	return strings.ReplaceAll(tok, escapedTilde, tilde)
}

func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, tilde, escapedTilde)
	return strings.ReplaceAll(tok, separator, escapedSeparator)
}

// String renders p back into RFC 6901 pointer syntax.
func (p Pointer) String() string {
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(escapeToken(tok))
	}
	return b.String()
}

// Resolve evaluates p against root, returning the referenced node.
// Object lookup is exact-key (case-sensitive); array indices must be
// canonical decimal with no leading zero, or the literal "-", which
// Resolve rejects since "-" denotes a nonexistent past-the-end element
// usable only as an insertion target, never something to read.
func Resolve(root *jsonval.Value, p Pointer) (*jsonval.Value, error) {
	return resolve(root, p, false)
}

// ResolveFold is Resolve, except object member lookup is ASCII
// case-insensitive (ties broken by the last matching member, matching
// jsonval.Value.GetFold).
func ResolveFold(root *jsonval.Value, p Pointer) (*jsonval.Value, error) {
	return resolve(root, p, true)
}

func resolve(root *jsonval.Value, p Pointer, fold bool) (*jsonval.Value, error) {
	cur := root
	for i, tok := range p {
		if cur == nil {
			return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "path segment %d: nil node", i)
		}
		switch cur.Kind {
		case jsonval.KindObject:
			var v *jsonval.Value
			var ok bool
			if fold {
				v, ok = cur.GetFold(tok)
			} else {
				v, ok = cur.Get(tok)
			}
			if !ok {
				return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "no member %q", tok)
			}
			cur = v
		case jsonval.KindArray:
			if tok == "-" {
				return nil, jsonerr.New(jsonerr.MissingPath, -1, "'-' does not reference an existing array element")
			}
			idx, err := parseArrayIndex(tok)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(cur.Elems) {
				return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "array index %d out of range (len %d)", idx, len(cur.Elems))
			}
			cur = cur.Elems[idx]
		default:
			return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "cannot index into a %v with token %q", cur.Kind, tok)
		}
	}
	return cur, nil
}

// parseArrayIndex rejects "", leading '+', leading zero with more digits,
// and any non-digit content, matching the canonical-index rule RFC 6901
// borrows from RFC 6902.
func parseArrayIndex(tok string) (int, error) {
	if tok == "" {
		return 0, jsonerr.New(jsonerr.SyntaxError, -1, "empty array index")
	}
	if tok == "0" {
		return 0, nil
	}
	if tok[0] == '0' || tok[0] == '+' || tok[0] == '-' {
		return 0, jsonerr.Newf(jsonerr.SyntaxError, -1, "non-canonical array index %q", tok)
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, jsonerr.Newf(jsonerr.SyntaxError, -1, "invalid array index %q", tok)
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, jsonerr.Newf(jsonerr.SyntaxError, -1, "invalid array index %q", tok)
	}
	return n, nil
}

// PathTo searches root for target by identity (pointer equality) and
// returns the pointer that resolves to it. ok is false if target is not
// reachable from root. This is the reverse of Resolve, grounded on the
// same reference-token vocabulary; it exists because this module's tree
// carries no parent links, so recovering "where did this node come from"
// requires a search instead of a pointer chase.
func PathTo(root, target *jsonval.Value) (p Pointer, ok bool) {
	if root == target {
		return Pointer{}, true
	}
	switch root.Kind {
	case jsonval.KindObject:
		for _, member := range root.Elems {
			if sub, found := PathTo(member, target); found {
				return append(Pointer{member.Key}, sub...), true
			}
		}
	case jsonval.KindArray:
		for i, elem := range root.Elems {
			if sub, found := PathTo(elem, target); found {
				return append(Pointer{strconv.Itoa(i)}, sub...), true
			}
		}
	}
	return nil, false
}
