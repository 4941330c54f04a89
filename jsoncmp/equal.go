// Package jsoncmp implements structural equality and stable key sorting over
// jsonval.Value trees.
//
// Two comparators share one number rule (epsilon-equal doubles and equal
// integer projections) and differ only in how they treat object member
// order: Equal walks members in stored order, and EqualUnordered sorts
// members by key before the walk so member order is ignored.
package jsoncmp

import (
	"math"

	"github.com/corvid-labs/jsontree/jsonval"
)

// Equal reports whether a and b are structurally equal, walking object
// members in stored order (so {"a":1,"b":2} != {"b":2,"a":1} under Equal,
// even though both encode the same JSON object). Use EqualUnordered to
// ignore member order.
func Equal(a, b *jsonval.Value) bool {
	return equal(a, b, false)
}

// EqualUnordered reports whether a and b are structurally equal, sorting
// object members by key before comparing so member order is ignored.
func EqualUnordered(a, b *jsonval.Value) bool {
	return equal(a, b, true)
}

func equal(a, b *jsonval.Value, unordered bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case jsonval.KindNull, jsonval.KindFalse, jsonval.KindTrue:
		return true
	case jsonval.KindNumber:
		return numbersEqual(a.Num, b.Num) && a.Int == b.Int
	case jsonval.KindString, jsonval.KindRaw:
		return a.Str == b.Str
	case jsonval.KindArray:
		return equalArray(a, b, unordered)
	case jsonval.KindObject:
		return equalObject(a, b, unordered)
	default:
		return false
	}
}

func numbersEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= scale*epsilon
}

// epsilon mirrors the platform DBL_EPSILON used by the original library's
// number comparator.
const epsilon = 2.220446049250313e-16

func equalArray(a, b *jsonval.Value, unordered bool) bool {
	if len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !equal(a.Elems[i], b.Elems[i], unordered) {
			return false
		}
	}
	return true
}

func equalObject(a, b *jsonval.Value, unordered bool) bool {
	if len(a.Elems) != len(b.Elems) {
		return false
	}
	if !unordered {
		for i := range a.Elems {
			if a.Elems[i].Key != b.Elems[i].Key {
				return false
			}
			if !equal(a.Elems[i], b.Elems[i], unordered) {
				return false
			}
		}
		return true
	}

	sortedA := sortedMembers(a)
	sortedB := sortedMembers(b)
	for i := range sortedA {
		if sortedA[i].Key != sortedB[i].Key {
			return false
		}
		if !equal(sortedA[i], sortedB[i], unordered) {
			return false
		}
	}
	return true
}
