// Package jsonpatch implements RFC 6902 JSON Patch: applying an ordered
// sequence of add/remove/replace/move/copy/test operations to a
// jsonval.Value tree, and generating a patch that transforms one tree into
// another.
package jsonpatch

import (
	"errors"
	"fmt"

	"github.com/corvid-labs/jsontree/jsonerr"
	"github.com/corvid-labs/jsontree/jsoncmp"
	"github.com/corvid-labs/jsontree/jsonptr"
	"github.com/corvid-labs/jsontree/jsonval"
)

// OpKind names one of the six RFC 6902 operation verbs.
type OpKind string

const (
	OpAdd     OpKind = "add"
	OpRemove  OpKind = "remove"
	OpReplace OpKind = "replace"
	OpMove    OpKind = "move"
	OpCopy    OpKind = "copy"
	OpTest    OpKind = "test"
)

// Op is a single patch operation. From is only meaningful for move and
// copy; Value is only meaningful for add, replace, and test.
type Op struct {
	Kind  OpKind
	Path  string
	From  string
	Value *jsonval.Value
}

// Patch is an ordered list of operations, applied left to right.
type Patch []Op

// Apply applies patch to doc and returns the resulting tree. doc is not
// mutated; Apply clones affected subtrees as needed. Operations are applied
// in order and the batch stops at the first failing operation, per RFC 6902
// section 5 ("Ignoring unrecognized... is not allowed" and the
// all-or-nothing requirement in section 3 paragraph 3): no prefix of a
// failed patch is returned, only the error. The error's FailureClass is
// the failing operation's own (MissingPath, MissingOperand, FailedTest,
// ...), or InvalidOp when that error carries no class.
func Apply(doc *jsonval.Value, patch Patch) (*jsonval.Value, error) {
	cur, err := jsonval.Clone(doc, jsonval.CloneOptions{})
	if err != nil {
		return nil, err
	}
	for i, op := range patch {
		cur, err = applyOp(cur, op)
		if err != nil {
			msg := fmt.Sprintf("operation %d (%s %s) failed", i, op.Kind, op.Path)
			class := jsonerr.InvalidOp
			var cause *jsonerr.Error
			if errors.As(err, &cause) {
				class = cause.Class
			}
			return nil, jsonerr.Wrap(class, -1, msg, err)
		}
	}
	return cur, nil
}

func applyOp(doc *jsonval.Value, op Op) (*jsonval.Value, error) {
	switch op.Kind {
	case OpAdd:
		return opAdd(doc, op.Path, op.Value)
	case OpRemove:
		return opRemove(doc, op.Path)
	case OpReplace:
		return opReplace(doc, op.Path, op.Value)
	case OpMove:
		return opMove(doc, op.From, op.Path)
	case OpCopy:
		return opCopy(doc, op.From, op.Path)
	case OpTest:
		return opTest(doc, op.Path, op.Value)
	default:
		return nil, jsonerr.Newf(jsonerr.InvalidOp, -1, "unknown operation %q", op.Kind)
	}
}

// splitParent parses path and separates its final token (the target
// location within the parent) from the pointer to the parent container.
// The root path "" has no parent and is reported via hasParent=false.
func splitParent(path string) (parent jsonptr.Pointer, lastToken string, hasParent bool, err error) {
	p, err := jsonptr.Parse(path)
	if err != nil {
		return nil, "", false, err
	}
	if len(p) == 0 {
		return nil, "", false, nil
	}
	return p[:len(p)-1], p[len(p)-1], true, nil
}

func opAdd(doc *jsonval.Value, path string, val *jsonval.Value) (*jsonval.Value, error) {
	if val == nil {
		return nil, jsonerr.New(jsonerr.MissingOperand, -1, "add requires a value")
	}
	parentPtr, token, hasParent, err := splitParent(path)
	if err != nil {
		return nil, err
	}
	if !hasParent {
		return cloneValue(val)
	}
	parent, err := jsonptr.Resolve(doc, parentPtr)
	if err != nil {
		return nil, err
	}
	added, err := cloneValue(val)
	if err != nil {
		return nil, err
	}
	switch parent.Kind {
	case jsonval.KindObject:
		added.Key = token
		if _, exists := parent.Get(token); exists {
			replaceMember(parent, token, added)
		} else {
			parent.AppendChild(added)
		}
	case jsonval.KindArray:
		idx, err := arrayInsertIndex(parent, token)
		if err != nil {
			return nil, err
		}
		parent.InsertChildAt(idx, added)
	default:
		return nil, jsonerr.Newf(jsonerr.InvalidOp, -1, "cannot add into a %v", parent.Kind)
	}
	return doc, nil
}

func replaceMember(parent *jsonval.Value, key string, newChild *jsonval.Value) {
	for i, m := range parent.Elems {
		if m.Key == key {
			newChild.Key = key
			parent.ReplaceChildAt(i, newChild)
			return
		}
	}
}

// arrayInsertIndex resolves an array path token to an insertion index,
// accepting "-" as an alias for len(parent.Elems) (append past the end).
func arrayInsertIndex(parent *jsonval.Value, token string) (int, error) {
	if token == "-" {
		return len(parent.Elems), nil
	}
	idx, err := parseCanonicalIndex(token)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx > len(parent.Elems) {
		return 0, jsonerr.Newf(jsonerr.InvalidOp, -1, "array index %d out of range for insertion (len %d)", idx, len(parent.Elems))
	}
	return idx, nil
}

func parseCanonicalIndex(token string) (int, error) {
	if token == "0" {
		return 0, nil
	}
	if token == "" || token[0] == '0' || token[0] == '+' || token[0] == '-' {
		return 0, jsonerr.Newf(jsonerr.SyntaxError, -1, "non-canonical array index %q", token)
	}
	n := 0
	for _, c := range token {
		if c < '0' || c > '9' {
			return 0, jsonerr.Newf(jsonerr.SyntaxError, -1, "invalid array index %q", token)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func opRemove(doc *jsonval.Value, path string) (*jsonval.Value, error) {
	parentPtr, token, hasParent, err := splitParent(path)
	if err != nil {
		return nil, err
	}
	if !hasParent {
		return nil, jsonerr.New(jsonerr.InvalidOp, -1, "remove cannot target the document root")
	}
	parent, err := jsonptr.Resolve(doc, parentPtr)
	if err != nil {
		return nil, err
	}
	switch parent.Kind {
	case jsonval.KindObject:
		for i, m := range parent.Elems {
			if m.Key == token {
				parent.DetachChildAt(i)
				return doc, nil
			}
		}
		return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "no member %q to remove", token)
	case jsonval.KindArray:
		idx, err := parseCanonicalIndex(token)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(parent.Elems) {
			return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "array index %d out of range (len %d)", idx, len(parent.Elems))
		}
		parent.DetachChildAt(idx)
		return doc, nil
	default:
		return nil, jsonerr.Newf(jsonerr.InvalidOp, -1, "cannot remove from a %v", parent.Kind)
	}
}

func opReplace(doc *jsonval.Value, path string, val *jsonval.Value) (*jsonval.Value, error) {
	if val == nil {
		return nil, jsonerr.New(jsonerr.MissingOperand, -1, "replace requires a value")
	}
	parentPtr, token, hasParent, err := splitParent(path)
	if err != nil {
		return nil, err
	}
	if !hasParent {
		return cloneValue(val)
	}
	parent, err := jsonptr.Resolve(doc, parentPtr)
	if err != nil {
		return nil, err
	}
	replacement, err := cloneValue(val)
	if err != nil {
		return nil, err
	}
	switch parent.Kind {
	case jsonval.KindObject:
		for i, m := range parent.Elems {
			if m.Key == token {
				replacement.Key = token
				parent.ReplaceChildAt(i, replacement)
				return doc, nil
			}
		}
		return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "no member %q to replace", token)
	case jsonval.KindArray:
		idx, err := parseCanonicalIndex(token)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(parent.Elems) {
			return nil, jsonerr.Newf(jsonerr.MissingPath, -1, "array index %d out of range (len %d)", idx, len(parent.Elems))
		}
		parent.ReplaceChildAt(idx, replacement)
		return doc, nil
	default:
		return nil, jsonerr.Newf(jsonerr.InvalidOp, -1, "cannot replace within a %v", parent.Kind)
	}
}

func opMove(doc *jsonval.Value, from, path string) (*jsonval.Value, error) {
	fromPtr := mustParsePtr(from)
	toPtr := mustParsePtr(path)
	if isPrefixOf(fromPtr, toPtr) {
		return nil, jsonerr.New(jsonerr.InvalidOp, -1, "move destination cannot be a descendant of its source")
	}
	node, err := jsonptr.Resolve(doc, fromPtr)
	if err != nil {
		return nil, err
	}
	moved, err := cloneValue(node)
	if err != nil {
		return nil, err
	}
	doc, err = opRemove(doc, from)
	if err != nil {
		return nil, err
	}
	return opAdd(doc, path, moved)
}

func opCopy(doc *jsonval.Value, from, path string) (*jsonval.Value, error) {
	node, err := jsonptr.Resolve(doc, mustParsePtr(from))
	if err != nil {
		return nil, err
	}
	return opAdd(doc, path, node)
}

func opTest(doc *jsonval.Value, path string, val *jsonval.Value) (*jsonval.Value, error) {
	if val == nil {
		return nil, jsonerr.New(jsonerr.MissingOperand, -1, "test requires a value")
	}
	node, err := jsonptr.Resolve(doc, mustParsePtr(path))
	if err != nil {
		return nil, err
	}
	if !jsoncmp.Equal(node, val) {
		return nil, jsonerr.Newf(jsonerr.FailedTest, -1, "test failed at %q", path)
	}
	return doc, nil
}

func mustParsePtr(path string) jsonptr.Pointer {
	p, err := jsonptr.Parse(path)
	if err != nil {
		return jsonptr.Pointer{path}
	}
	return p
}

func isPrefixOf(prefix, full jsonptr.Pointer) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if prefix[i] != full[i] {
			return false
		}
	}
	return true
}

func cloneValue(v *jsonval.Value) (*jsonval.Value, error) {
	return jsonval.Clone(v, jsonval.CloneOptions{})
}
