// Package jsonmerge implements RFC 7386 JSON Merge Patch: applying a patch
// document by recursive object union (with null members deleting), and
// generating a merge patch that transforms one document into another.
package jsonmerge

import "github.com/corvid-labs/jsontree/jsonval"

// Apply applies patch to target per RFC 7386 section 2. target is not
// mutated. If patch is not an object, it replaces target wholesale (the
// RFC's base case of the recursion). Within an object, a null-valued
// member in patch deletes the corresponding member of target; any other
// value replaces it (recursively, if both sides are objects); members
// present only in target are left untouched.
func Apply(target, patch *jsonval.Value) *jsonval.Value {
	if patch == nil {
		return cloneOrNull(target)
	}
	if patch.Kind != jsonval.KindObject {
		return cloneOrNull(patch)
	}
	var base *jsonval.Value
	if target != nil && target.Kind == jsonval.KindObject {
		base = cloneOrNull(target)
	} else {
		base = jsonval.NewObject()
	}

	for _, m := range patch.Elems {
		if m.Kind == jsonval.KindNull {
			removeMember(base, m.Key)
			continue
		}
		existing, ok := base.Get(m.Key)
		var merged *jsonval.Value
		if ok {
			merged = Apply(existing, m)
		} else {
			merged = Apply(nil, m)
		}
		merged.Key = m.Key
		setMember(base, m.Key, merged)
	}
	return base
}

func removeMember(obj *jsonval.Value, key string) {
	for i, m := range obj.Elems {
		if m.Key == key {
			obj.DetachChildAt(i)
			return
		}
	}
}

func setMember(obj *jsonval.Value, key string, val *jsonval.Value) {
	for i, m := range obj.Elems {
		if m.Key == key {
			obj.ReplaceChildAt(i, val)
			return
		}
	}
	obj.AppendChild(val)
}

func cloneOrNull(v *jsonval.Value) *jsonval.Value {
	if v == nil {
		return jsonval.NewNull()
	}
	cloned, err := jsonval.Clone(v, jsonval.CloneOptions{})
	if err != nil {
		return jsonval.NewNull()
	}
	return cloned
}

// Diff computes a merge patch that, applied to a via Apply, produces a
// document equivalent to b, per RFC 7386 section 3's "IfMatchesUseless"
// appendix algorithm: recurse into members common to both objects, add
// members only in b, and null out members only in a. If a and b are not
// both objects, the whole of b is the patch (mirroring Apply's non-object
// base case). An empty resulting patch is dropped: ok is false and the
// returned value is nil, rather than emitting {} for equal documents.
func Diff(a, b *jsonval.Value) (*jsonval.Value, bool) {
	patch := diffValue(a, b)
	if patch.Kind == jsonval.KindObject && len(patch.Elems) == 0 {
		return nil, false
	}
	return patch, true
}

// diffValue is Diff's recursive worker. Unlike Diff, it always returns a
// patch value (possibly an empty object for equal sub-objects), since the
// caller needs to tell "no changes here" apart from "delete this member".
func diffValue(a, b *jsonval.Value) *jsonval.Value {
	if a == nil || a.Kind != jsonval.KindObject || b == nil || b.Kind != jsonval.KindObject {
		return cloneOrNull(b)
	}

	patch := jsonval.NewObject()
	for _, am := range a.Elems {
		if _, ok := b.Get(am.Key); !ok {
			nullMember := jsonval.NewNull()
			nullMember.Key = am.Key
			patch.AppendChild(nullMember)
		}
	}
	for _, bm := range b.Elems {
		av, ok := a.Get(bm.Key)
		if !ok {
			added := cloneOrNull(bm)
			added.Key = bm.Key
			patch.AppendChild(added)
			continue
		}
		if av.Kind == jsonval.KindObject && bm.Kind == jsonval.KindObject {
			sub := diffValue(av, bm)
			if sub.Kind == jsonval.KindObject && len(sub.Elems) == 0 {
				continue
			}
			sub.Key = bm.Key
			patch.AppendChild(sub)
			continue
		}
		if !valuesEqual(av, bm) {
			changed := cloneOrNull(bm)
			changed.Key = bm.Key
			patch.AppendChild(changed)
		}
	}
	return patch
}

// valuesEqual is a local structural equality check kept independent of
// jsoncmp so this package has no dependency beyond jsonval; merge-patch
// diffing only ever needs to ask "did this leaf change", not the richer
// epsilon/sorted-member semantics jsoncmp offers for patch-engine use.
func valuesEqual(a, b *jsonval.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case jsonval.KindNull, jsonval.KindFalse, jsonval.KindTrue:
		return true
	case jsonval.KindNumber:
		return a.Num == b.Num
	case jsonval.KindString, jsonval.KindRaw:
		return a.Str == b.Str
	case jsonval.KindArray:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !valuesEqual(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case jsonval.KindObject:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for _, am := range a.Elems {
			bv, ok := b.Get(am.Key)
			if !ok || !valuesEqual(am, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
