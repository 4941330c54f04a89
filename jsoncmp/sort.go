package jsoncmp

import "github.com/corvid-labs/jsontree/jsonval"

// Sort reorders v's object members in place by key, using a stable top-down
// merge sort. foldCase selects ASCII case-insensitive comparison; arrays and
// scalars are left untouched (Sort is a no-op on anything but KindObject).
//
// Sort does not recurse into nested values; call it on each object you want
// ordered (typically via a tree walk) if you need a fully key-sorted tree.
func Sort(v *jsonval.Value, foldCase bool) {
	if v == nil || v.Kind != jsonval.KindObject || len(v.Elems) < 2 {
		return
	}
	less := keyLess
	if foldCase {
		less = keyLessFold
	}
	v.Elems = mergeSort(v.Elems, less)
}

// SortTree recursively sorts every object in the tree rooted at v.
func SortTree(v *jsonval.Value, foldCase bool) {
	if v == nil {
		return
	}
	switch v.Kind {
	case jsonval.KindObject:
		Sort(v, foldCase)
		for _, m := range v.Elems {
			SortTree(m, foldCase)
		}
	case jsonval.KindArray:
		for _, e := range v.Elems {
			SortTree(e, foldCase)
		}
	}
}

// sortedMembers returns a new slice holding v's object members sorted by key
// (byte order), leaving v itself untouched. Used internally by the unordered
// comparator.
func sortedMembers(v *jsonval.Value) []*jsonval.Value {
	cp := make([]*jsonval.Value, len(v.Elems))
	copy(cp, v.Elems)
	return mergeSort(cp, keyLess)
}

func keyLess(a, b *jsonval.Value) bool {
	return a.Key < b.Key
}

func keyLessFold(a, b *jsonval.Value) bool {
	n := len(a.Key)
	if len(b.Key) < n {
		n = len(b.Key)
	}
	for i := 0; i < n; i++ {
		la, lb := asciiLower(a.Key[i]), asciiLower(b.Key[i])
		if la != lb {
			return la < lb
		}
	}
	return len(a.Key) < len(b.Key)
}

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

func mergeSort(items []*jsonval.Value, less func(a, b *jsonval.Value) bool) []*jsonval.Value {
	if len(items) < 2 {
		return items
	}
	mid := len(items) / 2
	left := mergeSort(append([]*jsonval.Value(nil), items[:mid]...), less)
	right := mergeSort(append([]*jsonval.Value(nil), items[mid:]...), less)
	return merge(left, right, less)
}

func merge(left, right []*jsonval.Value, less func(a, b *jsonval.Value) bool) []*jsonval.Value {
	out := make([]*jsonval.Value, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		// <= keeps the sort stable: ties keep the left (earlier) element first.
		if less(right[j], left[i]) {
			out = append(out, right[j])
			j++
		} else {
			out = append(out, left[i])
			i++
		}
	}
	out = append(out, left[i:]...)
	out = append(out, right[j:]...)
	return out
}
