// Package refine implements the optional post-assembly refinement passes
// (spec.md §4.7): refine_edges re-fits each quad edge against a 1D
// gradient search along its normal, refine_decode perturbs the sampling
// grid by up to a pixel looking for a lower Hamming distance. refine_pose
// lives alongside the pose solver in internal/pose, since it operates on
// (R, t) rather than on image pixels.
package refine

import (
	"math"

	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/decode"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

// samplesPerEdge is the spec.md §4.7 "~10 points" per edge.
const samplesPerEdge = 10

// searchRadius and searchStep bound the 1D gradient search along each
// sample's edge normal, in pixels.
const (
	searchRadius = 3.0
	searchStep   = 0.5
)

// Edges re-fits each of q's 4 edges by sampling the image gradient along
// the edge normal at samplesPerEdge points and locating the sub-pixel
// gradient-magnitude peak (spec.md §4.7), then refitting a line through
// the located points and re-intersecting adjacent edges for new corners.
// On any degenerate fit, Edges returns q unchanged.
func Edges(q *quad.Quad, img *imagebuf.Image8) *quad.Quad {
	lines := make([][3]float64, 4) // a,b,c with a*x+b*y+c=0, normalized
	for e := 0; e < 4; e++ {
		x0, y0 := q.Corners[e][0], q.Corners[e][1]
		x1, y1 := q.Corners[(e+1)%4][0], q.Corners[(e+1)%4][1]
		pts := sampleEdgeCrossings(img, x0, y0, x1, y1)
		line, ok := fitLine(pts)
		if !ok {
			return q
		}
		lines[e] = line
	}

	var corners [4][2]float64
	for i := 0; i < 4; i++ {
		prev := lines[(i+3)%4]
		cur := lines[i]
		x, y, ok := intersectLines(prev, cur)
		if !ok {
			return q
		}
		corners[i] = [2]float64{x, y}
	}

	h, err := quad.FitHomography(corners)
	if err != nil {
		return q
	}
	return &quad.Quad{Corners: corners, H: h, ReversedBorder: q.ReversedBorder}
}

// sampleEdgeCrossings walks samplesPerEdge points along the edge from
// (x0,y0) to (x1,y1) and, at each, searches along the edge normal for the
// sub-pixel location of maximum gradient magnitude (the dark/light
// transition the edge sits on).
func sampleEdgeCrossings(img *imagebuf.Image8, x0, y0, x1, y1 float64) [][2]float64 {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		return nil
	}
	dx, dy = dx/length, dy/length
	nx, ny := -dy, dx // unit normal

	pts := make([][2]float64, 0, samplesPerEdge)
	for i := 0; i < samplesPerEdge; i++ {
		t := (float64(i) + 0.5) / float64(samplesPerEdge)
		px := x0 + t*(x1-x0)
		py := y0 + t*(y1-y0)

		offset, ok := peakGradientOffset(img, px, py, nx, ny)
		if !ok {
			continue
		}
		pts = append(pts, [2]float64{px + offset*nx, py + offset*ny})
	}
	return pts
}

// peakGradientOffset scans the normal direction (nx,ny) around (px,py) in
// [-searchRadius, searchRadius] and returns the sub-pixel offset of the
// steepest intensity change, found by a parabolic fit around the sample
// of maximum |central difference|. ok is false when the intensity does not
// change anywhere in the scanned range.
func peakGradientOffset(img *imagebuf.Image8, px, py, nx, ny float64) (float64, bool) {
	var offsets []float64
	var grads []float64
	for off := -searchRadius; off <= searchRadius; off += searchStep {
		offsets = append(offsets, off)
		x := px + off*nx
		y := py + off*ny
		plus := img.BilinearSample(x+nx*searchStep, y+ny*searchStep)
		minus := img.BilinearSample(x-nx*searchStep, y-ny*searchStep)
		grads = append(grads, math.Abs(plus-minus))
	}

	best := 0
	for i, g := range grads {
		if g > grads[best] {
			best = i
		}
	}
	if grads[best] == 0 {
		return 0, false // no intensity change along the normal
	}
	if best == 0 || best == len(grads)-1 {
		return offsets[best], true
	}

	// Parabolic sub-sample refinement around the peak.
	y0, y1, y2 := grads[best-1], grads[best], grads[best+1]
	denom := y0 - 2*y1 + y2
	if math.Abs(denom) < 1e-9 {
		return offsets[best], true
	}
	delta := 0.5 * (y0 - y2) / denom
	return offsets[best] + delta*searchStep, true
}

// fitLine performs an unweighted total-least-squares fit (principal
// eigenvector of the point covariance, mirroring internal/segment's
// FitLine) and returns the line in a*x+b*y+c=0 form with (a,b) unit
// length. ok is false for fewer than 2 points or a degenerate spread.
func fitLine(pts [][2]float64) (line [3]float64, ok bool) {
	if len(pts) < 2 {
		return line, false
	}
	var cx, cy float64
	for _, p := range pts {
		cx += p[0]
		cy += p[1]
	}
	n := float64(len(pts))
	cx /= n
	cy /= n

	var exx, eyy, exy float64
	for _, p := range pts {
		dx, dy := p[0]-cx, p[1]-cy
		exx += dx * dx
		eyy += dy * dy
		exy += dx * dy
	}
	exx /= n
	eyy /= n
	exy /= n

	theta := 0.5 * math.Atan2(2*exy, exx-eyy)
	dirX, dirY := math.Cos(theta), math.Sin(theta)
	// Normal to the direction is the line's (a,b).
	a, b := -dirY, dirX
	norm := math.Hypot(a, b)
	if norm < 1e-9 {
		return line, false
	}
	a, b = a/norm, b/norm
	c := -(a*cx + b*cy)
	return [3]float64{a, b, c}, true
}

// intersectLines solves the 2x2 system for two lines in a*x+b*y+c=0 form.
func intersectLines(l1, l2 [3]float64) (x, y float64, ok bool) {
	a1, b1, c1 := l1[0], l1[1], l1[2]
	a2, b2, c2 := l2[0], l2[1], l2[2]
	det := a1*b2 - a2*b1
	if math.Abs(det) < 1e-9 {
		return 0, 0, false
	}
	x = (-c1*b2 + c2*b1) / det
	y = (-a1*c2 + a2*c1) / det
	return x, y, true
}

// decodePerturbations are the grid-shift candidates refine_decode tries,
// spec.md §4.7's "perturb each bit's sample center by ±1 pixel" applied as
// a single shared shift over the whole sampling grid per candidate.
var decodePerturbations = [][2]float64{
	{0, 0},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// Decode re-attempts decoding q against f at a handful of sampling-grid
// offsets and returns the result with the lowest Hamming distance,
// breaking ties in favor of the zero offset (spec.md §4.7: only invoked
// when the initial decode's hamming is > 0).
func Decode(q *quad.Quad, f *family.TagFamily, img *imagebuf.Image8, th *threshold.Image, original *decode.Result) *decode.Result {
	if original == nil || original.Hamming == 0 {
		return original
	}
	best := original
	for _, off := range decodePerturbations[1:] {
		res, err := decode.DecodeOffset(q, f, img, th, off[0], off[1])
		if err != nil {
			continue
		}
		if res.Hamming < best.Hamming {
			best = res
		}
	}
	return best
}
