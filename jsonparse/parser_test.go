package jsonparse

import (
	"testing"

	"github.com/corvid-labs/jsontree/jsonval"
)

func TestParseScalarArray(t *testing.T) {
	v, err := Parse([]byte(`  [1, 2.5, true, null, "x"]  `))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Kind != jsonval.KindArray || len(v.Elems) != 5 {
		t.Fatalf("got %v with %d elems, want array of 5", v.Kind, len(v.Elems))
	}

	kinds := []jsonval.Kind{jsonval.KindNumber, jsonval.KindNumber, jsonval.KindTrue, jsonval.KindNull, jsonval.KindString}
	for i, want := range kinds {
		if v.Elems[i].Kind != want {
			t.Errorf("Elems[%d].Kind = %v, want %v", i, v.Elems[i].Kind, want)
		}
	}
	if v.Elems[0].Num != 1 {
		t.Errorf("Elems[0].Num = %v, want 1", v.Elems[0].Num)
	}
	if v.Elems[1].Num != 2.5 {
		t.Errorf("Elems[1].Num = %v, want 2.5", v.Elems[1].Num)
	}
	if v.Elems[4].Str != "x" {
		t.Errorf("Elems[4].Str = %q, want x", v.Elems[4].Str)
	}
}

func TestParseObjectPreservesOrderAndDuplicates(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(v.Elems) != 3 {
		t.Fatalf("len = %d, want 3 (duplicates preserved in parse order)", len(v.Elems))
	}
	got, ok := v.Get("a")
	if !ok || got.Num != 3 {
		t.Fatalf("Get(a) = %v, %v, want last binding 3", got, ok)
	}
}

func TestParseTrailingCommaFails(t *testing.T) {
	if _, err := Parse([]byte(`[1,2,]`)); err == nil {
		t.Fatal("trailing comma in array should fail")
	}
	if _, err := Parse([]byte(`{"a":1,}`)); err == nil {
		t.Fatal("trailing comma in object should fail")
	}
}

func TestParseBOMDiscarded(t *testing.T) {
	v, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, []byte(`1`)...))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Num != 1 {
		t.Fatalf("Num = %v, want 1", v.Num)
	}
}

func TestParseSurrogatePair(t *testing.T) {
	v, err := Parse([]byte(`"\uD834\uDD1E"`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "\U0001D11E"
	if v.Str != want {
		t.Fatalf("Str = %q, want %q", v.Str, want)
	}
}

func TestParseLoneHighSurrogateFails(t *testing.T) {
	if _, err := Parse([]byte(`"\uD800"`)); err == nil {
		t.Fatal("lone high surrogate should fail")
	}
}

func TestParseLoneLowSurrogateFails(t *testing.T) {
	if _, err := Parse([]byte(`"\uDC00"`)); err == nil {
		t.Fatal("lone low surrogate should fail")
	}
}

func TestParseNullEscapeFails(t *testing.T) {
	if _, err := Parse([]byte(`"\u0000"`)); err == nil {
		t.Fatal("\\u0000 should fail to parse")
	}
}

func TestParseLeadingZeroFails(t *testing.T) {
	if _, err := Parse([]byte(`01`)); err == nil {
		t.Fatal("leading zero should fail")
	}
	if _, err := Parse([]byte(`0`)); err != nil {
		t.Fatal("bare zero should parse")
	}
	if _, err := Parse([]byte(`0.5`)); err != nil {
		t.Fatal("0.5 should parse")
	}
}

func TestParsePlusPrefixedNumberAccepted(t *testing.T) {
	v, err := Parse([]byte(`+1`))
	if err != nil {
		t.Fatalf("Parse(+1): %v", err)
	}
	if v.Num != 1 {
		t.Fatalf("Num = %v, want 1", v.Num)
	}
}

func TestParseDepthLimit(t *testing.T) {
	opts := &Options{MaxDepth: 3}
	ok := "[[[1]]]"
	tooDeep := "[[[[1]]]]"

	if _, err := ParseWithOptions([]byte(ok), opts); err != nil {
		t.Fatalf("depth-3 input at limit should parse: %v", err)
	}
	if _, err := ParseWithOptions([]byte(tooDeep), opts); err == nil {
		t.Fatal("depth-4 input should exceed a limit of 3")
	}
}

func TestParseTrailingContentFails(t *testing.T) {
	if _, err := Parse([]byte(`1 2`)); err == nil {
		t.Fatal("trailing content after value should fail")
	}
}

func TestParsePrefixStopsAtFirstValue(t *testing.T) {
	v, consumed, err := ParsePrefix([]byte(`1 garbage`), nil)
	if err != nil {
		t.Fatalf("ParsePrefix: %v", err)
	}
	if v.Num != 1 {
		t.Fatalf("Num = %v, want 1", v.Num)
	}
	if consumed != 1 {
		t.Fatalf("consumed = %d, want 1", consumed)
	}
}

func TestParseErrorOffset(t *testing.T) {
	_, err := Parse([]byte(`{"a": }`))
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	offset, ok := LastError(err)
	if !ok {
		t.Fatal("LastError should recognize a jsonerr.Error")
	}
	if offset != 6 {
		t.Fatalf("offset = %d, want 6", offset)
	}
}

func TestParseEmptyContainers(t *testing.T) {
	v, err := Parse([]byte(`{}`))
	if err != nil || v.Kind != jsonval.KindObject || len(v.Elems) != 0 {
		t.Fatalf("Parse({}) = %v, %v", v, err)
	}
	v, err = Parse([]byte(`[]`))
	if err != nil || v.Kind != jsonval.KindArray || len(v.Elems) != 0 {
		t.Fatalf("Parse([]) = %v, %v", v, err)
	}
}

func TestParseUnescapedControlCharFails(t *testing.T) {
	if _, err := Parse([]byte("\"a\nb\"")); err == nil {
		t.Fatal("unescaped control character should fail")
	}
}

func TestParseInvalidLiteralFails(t *testing.T) {
	for _, in := range []string{"tru", "nul", "fals", "truee"} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("%q should fail to parse", in)
		}
	}
}

type countingAllocator struct {
	allocs, reallocs int
}

func (c *countingAllocator) Allocate(n int) []byte {
	c.allocs++
	return make([]byte, n)
}

func (c *countingAllocator) Free([]byte) {}

func (c *countingAllocator) Reallocate(buf []byte, n int) []byte {
	c.reallocs++
	out := make([]byte, n)
	copy(out, buf)
	return out
}

func TestParseWithOptionsUsesSuppliedAllocator(t *testing.T) {
	alloc := &countingAllocator{}
	// A string long enough to force at least one buffer growth past the
	// zero-length initial allocation.
	v, err := ParseWithOptions([]byte(`"`+string(bytesFill(200, 'a'))+`"`), &Options{Allocator: alloc})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(v.Str) != 200 {
		t.Fatalf("got string of length %d", len(v.Str))
	}
	if alloc.allocs == 0 {
		t.Fatal("expected the supplied allocator's Allocate to be used")
	}
	if alloc.reallocs == 0 {
		t.Fatal("expected the supplied allocator's Reallocate to be used for buffer growth")
	}
}

func bytesFill(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
