package quad

import (
	"errors"
	"math"

	"github.com/go-apriltag/apriltag/internal/segment"
)

// Errors returned by this package.
var (
	ErrDegenerateQuad    = errors.New("quad: degenerate or non-convex candidate")
	ErrSingularHomography = errors.New("quad: homography is not invertible")
)

// Quad is a candidate quadrilateral (spec.md §3): four corners in CCW
// order plus the homography mapping the canonical unit square to image
// pixels.
type Quad struct {
	Corners        [4][2]float64
	H              [9]float64 // row-major 3x3
	ReversedBorder bool
}

// lineIntersect finds the intersection of the infinite lines through
// segments a and b, returning ok=false if they are (nearly) parallel.
func lineIntersect(a, b segment.Segment) (x, y float64, ok bool) {
	x1, y1, x2, y2 := a.X0, a.Y0, a.X1, a.Y1
	x3, y3, x4, y4 := b.X0, b.Y0, b.X1, b.Y1
	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-9 {
		return 0, 0, false
	}
	px := ((x1*y2-y1*x2)*(x3-x4) - (x1-x2)*(x3*y4-y3*x4)) / denom
	py := ((x1*y2-y1*x2)*(y3-y4) - (y1-y2)*(x3*y4-y3*x4)) / denom
	return px, py, true
}

// signedArea returns the signed area of the polygon; positive for CCW.
func signedArea(corners [4][2]float64) float64 {
	sum := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += corners[i][0]*corners[j][1] - corners[j][0]*corners[i][1]
	}
	return sum / 2
}

// FromCycle builds a Quad from 4 segments forming a cycle found by
// FindCycles, intersecting each pair of consecutive segment lines to get
// sub-pixel corners (spec.md §4.4), and fits the corresponding homography.
func FromCycle(segs []segment.Segment, cycle [4]int) (*Quad, error) {
	var corners [4][2]float64
	for i := 0; i < 4; i++ {
		prev := segs[cycle[(i+3)%4]]
		cur := segs[cycle[i]]
		x, y, ok := lineIntersect(prev, cur)
		if !ok {
			return nil, ErrDegenerateQuad
		}
		corners[i] = [2]float64{x, y}
	}
	if signedArea(corners) < 0 {
		// Reverse to enforce CCW.
		corners[1], corners[3] = corners[3], corners[1]
	}
	if signedArea(corners) <= 0 {
		return nil, ErrDegenerateQuad
	}

	h, err := FitHomography(corners)
	if err != nil {
		return nil, err
	}
	return &Quad{Corners: corners, H: h}, nil
}

// Center returns the mean of the four corners.
func (q *Quad) Center() (cx, cy float64) {
	for _, c := range q.Corners {
		cx += c[0]
		cy += c[1]
	}
	return cx / 4, cy / 4
}

// Perimeter returns the sum of edge lengths.
func (q *Quad) Perimeter() float64 {
	p := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		dx := q.Corners[j][0] - q.Corners[i][0]
		dy := q.Corners[j][1] - q.Corners[i][1]
		p += math.Hypot(dx, dy)
	}
	return p
}

// Area returns the (positive, since corners are CCW) polygon area.
func (q *Quad) Area() float64 {
	return signedArea(q.Corners)
}

// Project maps a canonical coordinate in [-1,1]^2 to image space via H.
func (q *Quad) Project(ux, uy float64) (x, y float64) {
	h := q.H
	w := h[6]*ux + h[7]*uy + h[8]
	x = (h[0]*ux + h[1]*uy + h[2]) / w
	y = (h[3]*ux + h[4]*uy + h[5]) / w
	return
}

// RotateCorners cyclically shifts the corner and homography basis by k
// quarter turns (0-3), used by the decoder to canonicalise a quad's
// orientation once the winning codeword rotation is known (spec.md §4.6:
// "rotate the corner order accordingly so that corner[0] is the tag's
// canonical top-left").
func (q *Quad) RotateCorners(k int) {
	k = ((k % 4) + 4) % 4
	for i := 0; i < k; i++ {
		q.Corners = [4][2]float64{q.Corners[1], q.Corners[2], q.Corners[3], q.Corners[0]}
		// Rotating the canonical basis by 90 degrees CCW before mapping
		// through H is equivalent to re-deriving H from the rotated
		// corners; since corners now start from a different physical
		// corner, recompute H directly.
	}
	if k != 0 {
		if h, err := FitHomography(q.Corners); err == nil {
			q.H = h
		}
	}
}
