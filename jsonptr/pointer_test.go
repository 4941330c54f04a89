package jsonptr

import (
	"testing"

	"github.com/corvid-labs/jsontree/jsonparse"
	"github.com/corvid-labs/jsontree/jsonval"
)

func parseValue(t *testing.T, s string) *jsonval.Value {
	t.Helper()
	v, err := jsonparse.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestParsePointerTokens(t *testing.T) {
	p, err := Parse("/foo/0/bar~1baz/qu~0x")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"foo", "0", "bar/baz", "qu~x"}
	if len(p) != len(want) {
		t.Fatalf("got %v tokens, want %v", p, want)
	}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, p[i], want[i])
		}
	}
}

func TestParseEmptyPointerIsRoot(t *testing.T) {
	p, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p) != 0 {
		t.Fatalf("got %v, want empty", p)
	}
}

func TestParseMissingLeadingSlashFails(t *testing.T) {
	if _, err := Parse("foo/bar"); err == nil {
		t.Fatal("pointer without leading slash should fail")
	}
}

func TestPointerStringRoundTrips(t *testing.T) {
	p, err := Parse("/a~1b/c~0d")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := p.String(); got != "/a~1b/c~0d" {
		t.Fatalf("String() = %q, want /a~1b/c~0d", got)
	}
}

func TestResolveNestedObjectAndArray(t *testing.T) {
	doc := parseValue(t, `{"a":{"b":[10,20,30]}}`)
	p, err := Parse("/a/b/1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := Resolve(doc, p)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Num != 20 {
		t.Fatalf("got %v, want 20", v.Num)
	}
}

func TestResolveRootPointer(t *testing.T) {
	doc := parseValue(t, `{"a":1}`)
	v, err := Resolve(doc, Pointer{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v != doc {
		t.Fatal("empty pointer should resolve to the document root itself")
	}
}

func TestResolveMissingMemberFails(t *testing.T) {
	doc := parseValue(t, `{"a":1}`)
	p, _ := Parse("/b")
	if _, err := Resolve(doc, p); err == nil {
		t.Fatal("missing member should fail")
	}
}

func TestResolveDashTokenFails(t *testing.T) {
	doc := parseValue(t, `[1,2,3]`)
	p, _ := Parse("/-")
	if _, err := Resolve(doc, p); err == nil {
		t.Fatal("'-' should not resolve to an existing element")
	}
}

func TestResolveNonCanonicalIndexFails(t *testing.T) {
	doc := parseValue(t, `[1,2,3]`)
	for _, tok := range []string{"/01", "/+1", "/-1", "/x"} {
		p, _ := Parse(tok)
		if _, err := Resolve(doc, p); err == nil {
			t.Errorf("index token %q should fail", tok)
		}
	}
}

func TestResolveOutOfRangeIndexFails(t *testing.T) {
	doc := parseValue(t, `[1,2,3]`)
	p, _ := Parse("/3")
	if _, err := Resolve(doc, p); err == nil {
		t.Fatal("out-of-range index should fail")
	}
}

func TestResolveFoldCaseInsensitive(t *testing.T) {
	doc := parseValue(t, `{"Name":"x"}`)
	p, _ := Parse("/name")
	if _, err := Resolve(doc, p); err == nil {
		t.Fatal("Resolve should be case-sensitive and miss here")
	}
	v, err := ResolveFold(doc, p)
	if err != nil {
		t.Fatalf("ResolveFold: %v", err)
	}
	if v.Str != "x" {
		t.Fatalf("got %q, want x", v.Str)
	}
}

func TestPathToFindsNestedNode(t *testing.T) {
	doc := parseValue(t, `{"a":{"b":[10,20,30]}}`)
	a, _ := doc.Get("a")
	b, _ := a.Get("b")
	target := b.Elems[2]

	p, ok := PathTo(doc, target)
	if !ok {
		t.Fatal("PathTo should find the target node")
	}
	if got := p.String(); got != "/a/b/2" {
		t.Fatalf("PathTo = %q, want /a/b/2", got)
	}

	resolved, err := Resolve(doc, p)
	if err != nil {
		t.Fatalf("Resolve(PathTo result): %v", err)
	}
	if resolved != target {
		t.Fatal("resolving PathTo's pointer should return the same node")
	}
}

func TestPathToRootIsEmptyPointer(t *testing.T) {
	doc := parseValue(t, `{"a":1}`)
	p, ok := PathTo(doc, doc)
	if !ok || len(p) != 0 {
		t.Fatalf("PathTo(root, root) = %v, %v, want empty pointer", p, ok)
	}
}

func TestPathToUnreachableNodeFails(t *testing.T) {
	doc := parseValue(t, `{"a":1}`)
	other := parseValue(t, `{"b":2}`)
	if _, ok := PathTo(doc, other); ok {
		t.Fatal("PathTo should not find a node from an unrelated tree")
	}
}
