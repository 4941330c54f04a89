package jsonval

import (
	"strconv"
	"strings"
)

// AppendChild appends child to v's array or object children. For an object
// parent, child.Key must already be set.
func (v *Value) AppendChild(child *Value) {
	v.Elems = append(v.Elems, child)
}

// InsertChildAt inserts child at index i. If i is out of range (i >=
// len(v.Elems)), it falls back to append, matching the original library's
// index-overflow behavior. Negative i is treated as 0.
func (v *Value) InsertChildAt(i int, child *Value) {
	if i < 0 {
		i = 0
	}
	if i >= len(v.Elems) {
		v.AppendChild(child)
		return
	}
	v.Elems = append(v.Elems, nil)
	copy(v.Elems[i+1:], v.Elems[i:])
	v.Elems[i] = child
}

// DetachChildAt removes and returns the child at index i. Returns (nil,
// false) if i is out of range.
func (v *Value) DetachChildAt(i int) (*Value, bool) {
	if i < 0 || i >= len(v.Elems) {
		return nil, false
	}
	child := v.Elems[i]
	v.Elems = append(v.Elems[:i], v.Elems[i+1:]...)
	return child, true
}

// ReplaceChildAt splices replacement into the slot occupied by the child at
// index i, returning the value that was removed. Returns (nil, false) if i
// is out of range.
func (v *Value) ReplaceChildAt(i int, replacement *Value) (*Value, bool) {
	if i < 0 || i >= len(v.Elems) {
		return nil, false
	}
	old := v.Elems[i]
	v.Elems[i] = replacement
	return old, true
}

// Reference returns a shallow, header-only clone of v marked IsReference:
// the clone shares v's Elems slice and Str payload rather than duplicating
// them. jsonpatch.MarshalPatch uses it to place an operation's value into
// the rendered patch document without a deep copy.
func (v *Value) Reference() *Value {
	clone := *v
	clone.IsReference = true
	return &clone
}

// Get returns the object child whose key matches name exactly, and
// whether one was found. If name is bound more than once (the parser does
// not reject duplicate keys), Get returns the last binding, matching the
// original library's "last wins on lookup" rule.
func (v *Value) Get(name string) (*Value, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	var found *Value
	for _, m := range v.Elems {
		if m.Key == name {
			found = m
		}
	}
	return found, found != nil
}

// GetFold is like Get but matches keys using ASCII case-folding (tolower),
// not a Unicode-aware fold.
func (v *Value) GetFold(name string) (*Value, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	var found *Value
	for _, m := range v.Elems {
		if asciiEqualFold(m.Key, name) {
			found = m
		}
	}
	return found, found != nil
}

// IndexOf returns the index of child within v.Elems, or -1.
func (v *Value) IndexOf(child *Value) int {
	for i, c := range v.Elems {
		if c == child {
			return i
		}
	}
	return -1
}

func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if asciiLower(a[i]) != asciiLower(b[i]) {
			return false
		}
	}
	return true
}

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// Keys returns the ordered keys of an object value, in insertion order.
func (v *Value) Keys() []string {
	if v.Kind != KindObject {
		return nil
	}
	keys := make([]string, len(v.Elems))
	for i, m := range v.Elems {
		keys[i] = m.Key
	}
	return keys
}

// String returns a short debug representation; it is not valid JSON output
// (use jsonwrite for that).
func (v *Value) String() string {
	var b strings.Builder
	v.debugString(&b)
	return b.String()
}

func (v *Value) debugString(b *strings.Builder) {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindFalse:
		b.WriteString("false")
	case KindTrue:
		b.WriteString("true")
	case KindNumber:
		b.WriteString(strconv.FormatFloat(v.Num, 'g', -1, 64))
	case KindString:
		b.WriteByte('"')
		b.WriteString(v.Str)
		b.WriteByte('"')
	case KindRaw:
		b.WriteString(v.Str)
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.debugString(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, m := range v.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('"')
			b.WriteString(m.Key)
			b.WriteString("\": ")
			m.debugString(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString("<invalid>")
	}
}
