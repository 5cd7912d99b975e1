// Package unionfind implements a disjoint-set structure over image pixels,
// used by the gradient-clustering segmentation variant to group edge
// samples into clusters. A parallel detect() shares one UnionFind across
// its stripes, each stripe only ever touching the slots of its own rows,
// and the stripe boundaries are merged in a single-threaded combine phase
// (grounded on the local-collection-then-merge pattern used for parallel
// clustering in the retrieval pack's Geek0x0/pdf text-block clusterer,
// adapted here without its lock-free CAS machinery since no two stripes
// write the same slot).
package unionfind

// UnionFind is a disjoint-set over n elements with path compression and
// union by size.
type UnionFind struct {
	parent []int32
	size   []int32
}

// New creates a UnionFind over n singleton sets.
func New(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int32, n),
		size:   make([]int32, n),
	}
	uf.Reset()
	return uf
}

// Reset restores every element to its own singleton set, so one UnionFind
// can be reused for another image of the same size. The detection
// pipeline does not call it; it allocates a fresh UnionFind per call.
func (uf *UnionFind) Reset() {
	for i := range uf.parent {
		uf.parent[i] = int32(i)
		uf.size[i] = 1
	}
}

// Len returns the number of elements.
func (uf *UnionFind) Len() int { return len(uf.parent) }

// Find returns the representative of x's set, compressing the path.
func (uf *UnionFind) Find(x int) int {
	root := int32(x)
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for int32(x) != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = int(next)
	}
	return int(root)
}

// Union merges the sets containing x and y, attaching the smaller set to
// the larger one's root. Returns the resulting root, or -1 if x and y were
// already in the same set.
func (uf *UnionFind) Union(x, y int) int {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return -1
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = int32(rx)
	uf.size[rx] += uf.size[ry]
	return rx
}

// Size returns the size of the set containing x.
func (uf *UnionFind) Size(x int) int {
	return int(uf.size[uf.Find(x)])
}

// Connected reports whether x and y are in the same set.
func (uf *UnionFind) Connected(x, y int) bool {
	return uf.Find(x) == uf.Find(y)
}
