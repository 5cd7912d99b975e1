// Package segment implements the gradient-clustering connected-components
// and line-segment-fitting variant of spec.md §4.2: edge pixels between
// DARK and LIGHT regions are clustered by union-find on the pair of
// regions they separate, then each cluster is fit to one or more line
// segments.
package segment

import (
	"math"

	"github.com/go-apriltag/apriltag/internal/threshold"
	"github.com/go-apriltag/apriltag/internal/unionfind"
)

// EdgeSample is one DARK/LIGHT pixel-pair boundary observation.
type EdgeSample struct {
	X, Y     float64 // midpoint between the two pixel centers
	Gx, Gy   float64 // unit direction from dark side to light side
	Weight   float64 // line-fit weight; ComponentLabeler sets 1 for every sample
	RootPair int64   // packed (rootDark, rootLight) cluster key
}

// Cluster aggregates the edge samples that belong to one dark/light region
// boundary fragment.
type Cluster struct {
	Samples  []EdgeSample
	SumW     float64
	SumX     float64
	SumY     float64
	SumXX    float64
	SumYY    float64
	SumXY    float64
	GradSum  float64
	MinX     float64
	MinY     float64
	MaxX     float64
	MaxY     float64
}

func (c *Cluster) add(s EdgeSample) {
	if len(c.Samples) == 0 {
		c.MinX, c.MaxX = s.X, s.X
		c.MinY, c.MaxY = s.Y, s.Y
	} else {
		if s.X < c.MinX {
			c.MinX = s.X
		}
		if s.X > c.MaxX {
			c.MaxX = s.X
		}
		if s.Y < c.MinY {
			c.MinY = s.Y
		}
		if s.Y > c.MaxY {
			c.MaxY = s.Y
		}
	}
	c.Samples = append(c.Samples, s)
	w := s.Weight
	c.SumW += w
	c.SumX += w * s.X
	c.SumY += w * s.Y
	c.SumXX += w * s.X * s.X
	c.SumYY += w * s.Y * s.Y
	c.SumXY += w * s.X * s.Y
	c.GradSum += w
}

// pairKey packs two int32 roots into a canonical order-independent key.
func pairKey(a, b int) int64 {
	if a > b {
		a, b = b, a
	}
	return int64(a)<<32 | int64(uint32(b))
}

// ComponentLabeler unions 4-connected same-label pixels and collects
// DARK/LIGHT boundary edge samples, grouping them by the pair of regions
// they separate. SKIP pixels participate in neither union nor edge
// detection (spec.md §4.1: "skipped pixels act as wildcards").
type ComponentLabeler struct {
	uf *unionfind.UnionFind
	t  *threshold.Image
}

// NewComponentLabeler builds 4-connected same-label unions over t.
func NewComponentLabeler(t *threshold.Image) *ComponentLabeler {
	uf := unionfind.New(t.Width * t.Height)
	UnionRows(t, uf, 0, t.Height)
	return &ComponentLabeler{uf: uf, t: t}
}

// NewComponentLabelerFromUnionFind wraps an already-populated UnionFind
// (e.g. one built by internal/pool's stripe-parallel dispatch, merged at
// stripe boundaries) for the Clusters() edge-sample collection pass,
// without redoing the union step.
func NewComponentLabelerFromUnionFind(t *threshold.Image, uf *unionfind.UnionFind) *ComponentLabeler {
	return &ComponentLabeler{uf: uf, t: t}
}

// UnionRows unions 4-connected same-label pixel pairs for rows
// [yStart, yEnd) of t: each row's horizontal neighbour, and the vertical
// neighbour to the next row when that row is also within [yStart, yEnd).
// Restricting the vertical union this way lets callers run UnionRows over
// disjoint, non-overlapping row ranges concurrently (each goroutine only
// ever writes uf slots belonging to its own rows) and merge the deferred
// row-boundary links afterward in a single-threaded pass (spec.md §5).
func UnionRows(t *threshold.Image, uf *unionfind.UnionFind, yStart, yEnd int) {
	w := t.Width
	for y := yStart; y < yEnd; y++ {
		for x := 0; x < w; x++ {
			lbl := t.Labels[y*w+x]
			if lbl == threshold.Skip {
				continue
			}
			if x+1 < w {
				r := t.Labels[y*w+x+1]
				if r == lbl {
					uf.Union(y*w+x, y*w+x+1)
				}
			}
			if y+1 < yEnd {
				b := t.Labels[(y+1)*w+x]
				if b == lbl {
					uf.Union(y*w+x, (y+1)*w+x)
				}
			}
		}
	}
}

// MergeRowBoundary unions the deferred vertical links across row boundary
// (boundary-1, boundary) that UnionRows skips when boundary marks the edge
// between two independently processed stripes.
func MergeRowBoundary(t *threshold.Image, uf *unionfind.UnionFind, boundary int) {
	if boundary <= 0 || boundary >= t.Height {
		return
	}
	w := t.Width
	above := boundary - 1
	for x := 0; x < w; x++ {
		lbl := t.Labels[above*w+x]
		if lbl == threshold.Skip {
			continue
		}
		b := t.Labels[boundary*w+x]
		if b == lbl {
			uf.Union(above*w+x, boundary*w+x)
		}
	}
}

// Clusters scans 4-connected neighbour pairs for DARK/LIGHT boundaries and
// returns one Cluster per distinct (darkRegion, lightRegion) pair.
func (cl *ComponentLabeler) Clusters() []*Cluster {
	w := cl.t.Width
	h := cl.t.Height
	byKey := make(map[int64]*Cluster)
	order := make([]int64, 0, 64)

	emit := func(darkX, darkY, lightX, lightY int) {
		darkRoot := cl.uf.Find(darkY*w + darkX)
		lightRoot := cl.uf.Find(lightY*w + lightX)
		key := pairKey(darkRoot, lightRoot)
		c, ok := byKey[key]
		if !ok {
			c = &Cluster{}
			byKey[key] = c
			order = append(order, key)
		}
		mx := (float64(darkX) + float64(lightX)) / 2
		my := (float64(darkY) + float64(lightY)) / 2
		dx := float64(lightX - darkX)
		dy := float64(lightY - darkY)
		norm := dx*dx + dy*dy
		if norm > 0 {
			inv := 1.0 / math.Sqrt(norm)
			dx *= inv
			dy *= inv
		}
		c.add(EdgeSample{X: mx, Y: my, Gx: dx, Gy: dy, Weight: 1, RootPair: key})
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lbl := cl.t.Labels[y*w+x]
			if lbl == threshold.Skip {
				continue
			}
			if x+1 < w {
				r := cl.t.Labels[y*w+x+1]
				if r != threshold.Skip && r != lbl {
					if lbl == threshold.Dark {
						emit(x, y, x+1, y)
					} else {
						emit(x+1, y, x, y)
					}
				}
			}
			if y+1 < h {
				b := cl.t.Labels[(y+1)*w+x]
				if b != threshold.Skip && b != lbl {
					if lbl == threshold.Dark {
						emit(x, y, x, y+1)
					} else {
						emit(x, y+1, x, y)
					}
				}
			}
		}
	}

	out := make([]*Cluster, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}
