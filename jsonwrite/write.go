// Package jsonwrite implements the serializer: jsonval.Value trees to JSON
// text, in compact or indented form, with correct number and string
// formatting.
package jsonwrite

import (
	"fmt"
	"math"
	"strconv"

	"github.com/corvid-labs/jsontree/jsonalloc"
	"github.com/corvid-labs/jsontree/jsonerr"
	"github.com/corvid-labs/jsontree/jsonval"
)

// Format selects compact or indented output.
type Format int

const (
	// Compact emits no insignificant whitespace.
	Compact Format = iota
	// Indented breaks objects and arrays across lines, indenting each
	// level by its depth in horizontal tabs, with a tab after ':' and
	// ", " between array items (vs "," in Compact).
	Indented
)

// Write serializes v and returns the resulting UTF-8 text.
func Write(v *jsonval.Value, format Format) ([]byte, error) {
	return WriteWithAllocator(v, format, nil)
}

// WriteWithAllocator is like Write but draws its initial growable buffer
// from alloc instead of the platform allocator (nil selects jsonalloc.Default).
func WriteWithAllocator(v *jsonval.Value, format Format, alloc jsonalloc.Allocator) ([]byte, error) {
	if v == nil {
		return nil, jsonerr.New(jsonerr.InternalError, -1, "jsonwrite: nil value")
	}
	buf := jsonalloc.Resolve(alloc).Allocate(0)
	buf, err := writeValue(buf, v, format, 0)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteInto serializes v into a caller-supplied fixed-capacity buffer,
// returning (output, true) on success or (nil, false) if the output does
// not fit in cap(buf). The returned slice never exceeds buf's capacity;
// output that does not fit is still built in a grown scratch slice before
// it is rejected, so memory use is not bounded by cap(buf).
func WriteInto(v *jsonval.Value, format Format, buf []byte) ([]byte, bool) {
	out := buf[:0]
	grown, err := writeValue(out, v, format, 0)
	if err != nil {
		return nil, false
	}
	if cap(grown) > cap(buf) {
		return nil, false
	}
	return grown, true
}

func writeValue(buf []byte, v *jsonval.Value, format Format, depth int) ([]byte, error) {
	switch v.Kind {
	case jsonval.KindNull:
		return append(buf, "null"...), nil
	case jsonval.KindFalse:
		return append(buf, "false"...), nil
	case jsonval.KindTrue:
		return append(buf, "true"...), nil
	case jsonval.KindNumber:
		return writeNumber(buf, v.Num), nil
	case jsonval.KindString:
		return writeString(buf, v.Str), nil
	case jsonval.KindRaw:
		return append(buf, v.Str...), nil
	case jsonval.KindArray:
		return writeArray(buf, v, format, depth)
	case jsonval.KindObject:
		return writeObject(buf, v, format, depth)
	default:
		return nil, jsonerr.Newf(jsonerr.InternalError, -1, "jsonwrite: unserializable kind %v", v.Kind)
	}
}

// writeNumber implements the exact formatting scheme spec section 4.2
// describes: "null" for non-finite, the integer projection via %d when the
// double equals its integer projection exactly, else %1.15g re-parsed and
// compared against the original double, promoted to %1.17g on mismatch.
func writeNumber(buf []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(buf, "null"...)
	}
	if i := int64(f); float64(i) == f {
		return strconv.AppendInt(buf, i, 10)
	}

	s := strconv.FormatFloat(f, 'g', 15, 64)
	if roundTrips(s, f) {
		return append(buf, s...)
	}
	s = strconv.FormatFloat(f, 'g', 17, 64)
	return append(buf, s...)
}

func roundTrips(s string, f float64) bool {
	parsed, err := strconv.ParseFloat(s, 64)
	return err == nil && parsed == f
}

// writeString escapes the required control characters and the quote and
// backslash, leaving everything else including the solidus untouched.
func writeString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if b < 0x20 {
				buf = append(buf, '\\', 'u', '0', '0', hexDigit(b>>4), hexDigit(b&0x0F))
				continue
			}
			buf = append(buf, b)
		}
	}
	return append(buf, '"')
}

func hexDigit(b byte) byte {
	if b < 10 {
		return '0' + b
	}
	return 'a' + (b - 10)
}

func writeArray(buf []byte, v *jsonval.Value, format Format, depth int) ([]byte, error) {
	buf = append(buf, '[')
	for i, elem := range v.Elems {
		if i > 0 {
			buf = itemSeparator(buf, format)
		}
		if format == Indented && i == 0 {
			buf = newlineIndent(buf, depth+1)
		}
		var err error
		buf, err = writeValue(buf, elem, format, depth+1)
		if err != nil {
			return nil, err
		}
	}
	if format == Indented && len(v.Elems) > 0 {
		buf = newlineIndent(buf, depth)
	}
	return append(buf, ']'), nil
}

func writeObject(buf []byte, v *jsonval.Value, format Format, depth int) ([]byte, error) {
	buf = append(buf, '{')
	for i, member := range v.Elems {
		if i > 0 {
			buf = append(buf, ',')
		}
		if format == Indented {
			buf = newlineIndent(buf, depth+1)
		}
		buf = writeString(buf, member.Key)
		buf = append(buf, ':')
		if format == Indented {
			buf = append(buf, '\t')
		}
		var err error
		buf, err = writeValue(buf, member, format, depth+1)
		if err != nil {
			return nil, err
		}
	}
	if format == Indented && len(v.Elems) > 0 {
		buf = newlineIndent(buf, depth)
	}
	return append(buf, '}'), nil
}

// itemSeparator separates array items: ", " in indented mode, "," in
// compact mode. Object members are always separated by a bare ",", with
// newline+indentation supplying the visual break in indented mode.
func itemSeparator(buf []byte, format Format) []byte {
	if format == Indented {
		return append(buf, ',', ' ')
	}
	return append(buf, ',')
}

func newlineIndent(buf []byte, depth int) []byte {
	buf = append(buf, '\n')
	for i := 0; i < depth; i++ {
		buf = append(buf, '\t')
	}
	return buf
}

// MustWrite is a convenience for call sites (tests, CLI) that treat a
// serialize failure as a programmer error.
func MustWrite(v *jsonval.Value, format Format) []byte {
	out, err := Write(v, format)
	if err != nil {
		panic(fmt.Sprintf("jsonwrite: %v", err))
	}
	return out
}
