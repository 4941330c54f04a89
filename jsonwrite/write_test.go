package jsonwrite

import (
	"strings"
	"testing"

	"github.com/corvid-labs/jsontree/jsonparse"
	"github.com/corvid-labs/jsontree/jsonval"
)

func parse(t *testing.T, s string) *jsonval.Value {
	t.Helper()
	v, err := jsonparse.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestWriteScalarArrayCompact(t *testing.T) {
	v := parse(t, `[1, 2.5, true, null, "x"]`)
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `[1,2.5,true,null,"x"]`
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestWriteObjectPreservesOrderAndDuplicates(t *testing.T) {
	v := parse(t, `{"a":1,"b":2,"a":3}`)
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `{"a":1,"b":2,"a":3}`
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestWriteIndented(t *testing.T) {
	v := parse(t, `{"a":[1,2]}`)
	out, err := Write(v, Indented)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "{\n\t\"a\":\t[\n\t\t1, 2\n\t]\n}"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestWriteEmptyContainers(t *testing.T) {
	v := parse(t, `{"a":{},"b":[]}`)
	out, err := Write(v, Indented)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(string(out), "\n\t\t") {
		t.Fatalf("empty containers should not introduce nested indentation: %q", out)
	}
}

func TestWriteStringEscapes(t *testing.T) {
	v := jsonval.NewString("a\"b\\c\n\t\x01")
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `"a\"b\\c\n\t\u0001"`
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestWriteNumberIntegerProjection(t *testing.T) {
	v := jsonval.NewNumber(42)
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(out) != "42" {
		t.Fatalf("got %q, want 42", out)
	}
}

func TestWriteNumberFractional(t *testing.T) {
	v := jsonval.NewNumber(0.1)
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(out) != "0.1" {
		t.Fatalf("got %q, want 0.1", out)
	}
}

func TestWriteNumberNonFinite(t *testing.T) {
	v := jsonval.NewNumber(1)
	v.Num = v.Num / 0 // +Inf without invoking math directly in the test
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("non-finite should serialize as null, got %q", out)
	}
}

func TestWriteRawVerbatim(t *testing.T) {
	v := jsonval.NewRaw(`{"already":"json"}`)
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(out) != `{"already":"json"}` {
		t.Fatalf("got %q", out)
	}
}

func TestWriteIntoFitsExactCapacity(t *testing.T) {
	v := parse(t, `[1,2,3]`)
	buf := make([]byte, 0, 16)
	out, ok := WriteInto(v, Compact, buf)
	if !ok {
		t.Fatal("WriteInto should succeed with enough capacity")
	}
	if string(out) != "[1,2,3]" {
		t.Fatalf("got %q", out)
	}
}

func TestRoundTripParseWrite(t *testing.T) {
	src := `{"name":"test","values":[1,2,3],"nested":{"ok":true},"empty":null}`
	v := parse(t, src)
	out, err := Write(v, Compact)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(out) != src {
		t.Fatalf("round trip mismatch: got %q, want %q", out, src)
	}
}

type countingAllocator struct{ allocs int }

func (c *countingAllocator) Allocate(n int) []byte { c.allocs++; return make([]byte, n) }
func (c *countingAllocator) Free([]byte)           {}
func (c *countingAllocator) Reallocate(buf []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, buf)
	return out
}

func TestWriteWithAllocatorUsesSuppliedAllocator(t *testing.T) {
	alloc := &countingAllocator{}
	v := jsonval.NewString("hi")
	out, err := WriteWithAllocator(v, Compact, alloc)
	if err != nil {
		t.Fatalf("WriteWithAllocator: %v", err)
	}
	if string(out) != `"hi"` {
		t.Fatalf("got %q", out)
	}
	if alloc.allocs == 0 {
		t.Fatal("expected the supplied allocator to be used")
	}
}
