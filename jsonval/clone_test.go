package jsonval

import "testing"

func TestCloneDeep(t *testing.T) {
	src := NewObject()
	inner := NewArray()
	inner.AppendChild(NewInt(1))
	inner.AppendChild(NewString("x"))
	inner.Key = "inner"
	src.AppendChild(inner)

	clone, err := Clone(src, CloneOptions{})
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone == src {
		t.Fatal("Clone returned the same pointer")
	}
	if clone.Elems[0] == src.Elems[0] {
		t.Fatal("Clone shared a child pointer with the source")
	}
	if clone.Elems[0].Elems[1].Str != "x" {
		t.Fatalf("cloned payload mismatch: %q", clone.Elems[0].Elems[1].Str)
	}

	// Mutating the clone must not affect the source.
	clone.Elems[0].Elems[0].Int = 99
	if src.Elems[0].Elems[0].Int != 1 {
		t.Fatal("mutating clone affected source")
	}
}

func TestCloneClearsReferenceFlags(t *testing.T) {
	base := NewArray()
	base.AppendChild(NewInt(1))
	ref := base.Reference()

	clone, err := Clone(ref, CloneOptions{})
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.IsReference {
		t.Fatal("Clone should produce an owning copy, not a reference")
	}
}

func TestCloneDepthLimit(t *testing.T) {
	// Build a chain of nested single-element arrays deeper than a tiny limit.
	root := NewArray()
	cur := root
	for i := 0; i < 10; i++ {
		next := NewArray()
		cur.AppendChild(next)
		cur = next
	}

	if _, err := Clone(root, CloneOptions{MaxDepth: 3}); err == nil {
		t.Fatal("expected depth-exceeded error")
	}
	if _, err := Clone(root, CloneOptions{MaxDepth: 20}); err != nil {
		t.Fatalf("Clone within depth limit failed: %v", err)
	}
}
