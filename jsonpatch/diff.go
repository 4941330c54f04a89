package jsonpatch

import (
	"strconv"

	"github.com/corvid-labs/jsontree/jsoncmp"
	"github.com/corvid-labs/jsontree/jsonptr"
	"github.com/corvid-labs/jsontree/jsonval"
)

// Diff computes a Patch that transforms a into b when applied via Apply.
// Diff never emits "test", "move", or "copy" operations: it is a
// structural differ, not an editor-motion inferrer, so it only ever
// produces add/remove/replace. Object members are diffed key-by-key
// (removed keys first, then replaced common keys, then added keys, each
// group in the source's own member order). Arrays are diffed pairwise over
// their common prefix length, with a tail of remove operations (when a is
// longer) or append operations (when b is longer) — this catches the
// common "elements changed in place, list grew or shrank at the end" case
// without the cost of a full LCS alignment.
func Diff(a, b *jsonval.Value) Patch {
	var out Patch
	diffAt(jsonptr.Pointer{}, a, b, &out)
	return out
}

func diffAt(path jsonptr.Pointer, a, b *jsonval.Value, out *Patch) {
	if a == nil || b == nil {
		if a != b {
			appendReplace(out, path, b)
		}
		return
	}
	if a.Kind != b.Kind {
		appendReplace(out, path, b)
		return
	}
	switch a.Kind {
	case jsonval.KindObject:
		diffObjectAt(path, a, b, out)
	case jsonval.KindArray:
		diffArrayAt(path, a, b, out)
	default:
		if !jsoncmp.Equal(a, b) {
			appendReplace(out, path, b)
		}
	}
}

func diffObjectAt(path jsonptr.Pointer, a, b *jsonval.Value, out *Patch) {
	for _, m := range a.Elems {
		if _, ok := b.Get(m.Key); !ok {
			*out = append(*out, Op{Kind: OpRemove, Path: childPath(path, m.Key).String()})
		}
	}
	for _, m := range a.Elems {
		if bv, ok := b.Get(m.Key); ok {
			diffAt(childPath(path, m.Key), m, bv, out)
		}
	}
	for _, m := range b.Elems {
		if _, ok := a.Get(m.Key); !ok {
			*out = append(*out, Op{Kind: OpAdd, Path: childPath(path, m.Key).String(), Value: m})
		}
	}
}

func diffArrayAt(path jsonptr.Pointer, a, b *jsonval.Value, out *Patch) {
	common := len(a.Elems)
	if len(b.Elems) < common {
		common = len(b.Elems)
	}
	for i := 0; i < common; i++ {
		diffAt(childPath(path, strconv.Itoa(i)), a.Elems[i], b.Elems[i], out)
	}
	switch {
	case len(a.Elems) > len(b.Elems):
		for i := len(a.Elems) - 1; i >= common; i-- {
			*out = append(*out, Op{Kind: OpRemove, Path: childPath(path, strconv.Itoa(i)).String()})
		}
	case len(b.Elems) > len(a.Elems):
		for i := common; i < len(b.Elems); i++ {
			*out = append(*out, Op{Kind: OpAdd, Path: childPath(path, "-").String(), Value: b.Elems[i]})
		}
	}
}

func childPath(path jsonptr.Pointer, token string) jsonptr.Pointer {
	out := make(jsonptr.Pointer, len(path)+1)
	copy(out, path)
	out[len(path)] = token
	return out
}

func appendReplace(out *Patch, path jsonptr.Pointer, v *jsonval.Value) {
	*out = append(*out, Op{Kind: OpReplace, Path: path.String(), Value: v})
}
