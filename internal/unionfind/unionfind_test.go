package unionfind

import "testing"

func TestUnionFindBasic(t *testing.T) {
	uf := New(10)
	for i := 0; i < 10; i++ {
		if uf.Find(i) != i {
			t.Fatalf("singleton Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}
	uf.Union(0, 1)
	uf.Union(1, 2)
	if !uf.Connected(0, 2) {
		t.Errorf("expected 0 and 2 to be connected")
	}
	if uf.Connected(0, 5) {
		t.Errorf("expected 0 and 5 to be disconnected")
	}
	if uf.Size(0) != 3 {
		t.Errorf("Size(0) = %d, want 3", uf.Size(0))
	}
}

func TestUnionFindSameSetReturnsNegativeOne(t *testing.T) {
	uf := New(4)
	uf.Union(0, 1)
	if got := uf.Union(0, 1); got != -1 {
		t.Errorf("re-union of connected elements = %d, want -1", got)
	}
}

func TestUnionFindReset(t *testing.T) {
	uf := New(5)
	uf.Union(0, 1)
	uf.Reset()
	if uf.Connected(0, 1) {
		t.Errorf("expected sets to be disjoint after Reset")
	}
}
