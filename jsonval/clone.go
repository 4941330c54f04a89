package jsonval

import "github.com/corvid-labs/jsontree/jsonerr"

// DefaultMaxCloneDepth is the default circular-reference defense limit for
// Clone: deep duplication of a hand-built cyclic graph fails rather than
// recursing forever.
const DefaultMaxCloneDepth = 10000

// CloneOptions controls Clone's behavior.
type CloneOptions struct {
	// MaxDepth bounds recursion depth. Zero means DefaultMaxCloneDepth.
	MaxDepth int
}

func (o *CloneOptions) maxDepth() int {
	if o != nil && o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxCloneDepth
}

// Clone returns a deep duplicate of v: every descendant is copied, and the
// IsReference/IsConstantKey flags are cleared on the copy since it owns its
// own payload and children. Clone fails past opts.MaxDepth levels of
// recursion, defending against hand-built cyclic graphs (a Value tree
// produced by this module's own parser is always acyclic, but callers can
// construct one by hand).
func Clone(v *Value, opts CloneOptions) (*Value, error) {
	return cloneAt(v, 0, opts.maxDepth())
}

func cloneAt(v *Value, depth, maxDepth int) (*Value, error) {
	if v == nil {
		return nil, nil
	}
	if depth > maxDepth {
		return nil, jsonerr.Newf(jsonerr.DepthExceeded, -1,
			"clone recursion depth %d exceeds maximum %d", depth, maxDepth)
	}

	out := &Value{
		Kind: v.Kind,
		Num:  v.Num,
		Int:  v.Int,
		Str:  v.Str,
		Key:  v.Key,
	}
	if len(v.Elems) > 0 {
		out.Elems = make([]*Value, len(v.Elems))
		for i, child := range v.Elems {
			cloned, err := cloneAt(child, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out.Elems[i] = cloned
		}
	}
	return out, nil
}
