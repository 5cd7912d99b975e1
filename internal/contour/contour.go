// Package contour implements the alternate quad-extraction variant
// selected by Config.UseContours (spec.md §4.3): Moore-neighbourhood
// boundary tracing of connected DARK regions, simplified to exactly 4
// corners by the iterative farthest-point algorithm.
package contour

import (
	"math"

	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

// MaxResidualFraction bounds the simplification's acceptable max
// perpendicular residual, expressed as a fraction of the quad's diameter
// (spec.md §4.3: "Quads accepted if max perpendicular residual is below a
// fraction of the quad diameter").
const MaxResidualFraction = 0.05

type point struct{ X, Y int }

// clockwise offsets to the 8 neighbours, starting at West, used by the
// Moore-neighbour boundary tracer.
var offsets = [8]point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

func isDark(th *threshold.Image, x, y int) bool {
	if x < 0 || y < 0 || x >= th.Width || y >= th.Height {
		return false
	}
	return th.At(x, y) == threshold.Dark
}

// FindQuads scans th for connected DARK regions, traces each region's
// outer boundary, and simplifies it to a candidate Quad. Regions whose
// boundary cannot be reduced to 4 corners within MaxResidualFraction are
// dropped.
func FindQuads(th *threshold.Image) []*quad.Quad {
	visited := make([]bool, th.Width*th.Height)
	var quads []*quad.Quad

	for y := 0; y < th.Height; y++ {
		for x := 0; x < th.Width; x++ {
			idx := y*th.Width + x
			if visited[idx] || !isDark(th, x, y) {
				continue
			}
			if isDark(th, x-1, y) {
				continue // not a region's leftmost boundary pixel
			}
			boundary := traceBoundary(th, point{x, y})
			// Mark the whole 8-connected region visited so its inner
			// edges are never traced again as a separate region.
			visited[idx] = true
			stack := []point{{x, y}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, o := range offsets {
					nx, ny := p.X+o.X, p.Y+o.Y
					if isDark(th, nx, ny) && !visited[ny*th.Width+nx] {
						visited[ny*th.Width+nx] = true
						stack = append(stack, point{nx, ny})
					}
				}
			}
			if len(boundary) < 8 {
				continue // too small to plausibly be a tag border
			}
			corners, ok := simplifyToQuad(boundary)
			if !ok {
				continue
			}
			q, err := quad.FitHomography(corners)
			if err != nil {
				continue
			}
			quads = append(quads, &quad.Quad{Corners: corners, H: q})
		}
	}
	return quads
}

// traceBoundary walks the outer boundary of the dark region containing
// start via Moore-neighbour tracing, returning the ordered closed loop of
// pixel coordinates. start must be the topmost-then-leftmost pixel of its
// region (guaranteed by FindQuads' raster scan, which marks each traced
// region visited in full).
func traceBoundary(th *threshold.Image, start point) []point {
	maxSteps := 4 * (th.Width + th.Height)
	boundary := []point{start}
	p := start
	cDir := 0 // West, since start's west neighbour is guaranteed background

	for step := 0; step < maxSteps; step++ {
		found := -1
		for k := 1; k <= 8; k++ {
			dir := (cDir + k) % 8
			nb := point{p.X + offsets[dir].X, p.Y + offsets[dir].Y}
			if isDark(th, nb.X, nb.Y) {
				found = dir
				break
			}
		}
		if found == -1 {
			break // isolated pixel, no closed boundary
		}
		next := point{p.X + offsets[found].X, p.Y + offsets[found].Y}
		cDir = (found + 4) % 8
		p = next
		if p == start {
			break
		}
		boundary = append(boundary, p)
	}
	return boundary
}

// simplifyToQuad reduces a closed boundary to 4 corners via the iterative
// farthest-point algorithm (spec.md §4.3): start from the boundary's
// diameter pair, then repeatedly insert whichever remaining boundary
// point is farthest from its enclosing chord until 4 vertices remain.
func simplifyToQuad(boundary []point) ([4][2]float64, bool) {
	var corners [4][2]float64
	n := len(boundary)
	if n < 4 {
		return corners, false
	}

	a := farthestFrom(boundary, 0)
	b := farthestFrom(boundary, a)
	breakpoints := []int{a, b}
	if breakpoints[0] > breakpoints[1] {
		breakpoints[0], breakpoints[1] = breakpoints[1], breakpoints[0]
	}

	for len(breakpoints) < 4 {
		bestDist := -1.0
		bestIdx := -1
		bestSeg := -1
		for s := 0; s < len(breakpoints); s++ {
			i0 := breakpoints[s]
			i1 := breakpoints[(s+1)%len(breakpoints)]
			p0, p1 := boundary[i0], boundary[i1]
			for idx := (i0 + 1) % n; idx != i1; idx = (idx + 1) % n {
				d := perpDist(boundary[idx], p0, p1)
				if d > bestDist {
					bestDist = d
					bestIdx = idx
					bestSeg = s
				}
			}
		}
		if bestIdx == -1 {
			return corners, false
		}
		inserted := make([]int, 0, len(breakpoints)+1)
		inserted = append(inserted, breakpoints[:bestSeg+1]...)
		inserted = append(inserted, bestIdx)
		inserted = append(inserted, breakpoints[bestSeg+1:]...)
		breakpoints = inserted
	}

	diameter := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			d := math.Hypot(float64(boundary[breakpoints[j]].X-boundary[breakpoints[i]].X),
				float64(boundary[breakpoints[j]].Y-boundary[breakpoints[i]].Y))
			if d > diameter {
				diameter = d
			}
		}
	}
	maxResidual := maxPerpResidual(boundary, breakpoints)
	if diameter == 0 || maxResidual > MaxResidualFraction*diameter {
		return corners, false
	}

	for i, bp := range breakpoints {
		corners[i] = [2]float64{float64(boundary[bp].X), float64(boundary[bp].Y)}
	}
	if signedArea(corners) < 0 {
		corners[1], corners[3] = corners[3], corners[1]
	}
	if signedArea(corners) <= 0 {
		return corners, false
	}
	return corners, true
}

func maxPerpResidual(boundary []point, breakpoints []int) float64 {
	n := len(boundary)
	max := 0.0
	for s := 0; s < len(breakpoints); s++ {
		i0 := breakpoints[s]
		i1 := breakpoints[(s+1)%len(breakpoints)]
		p0, p1 := boundary[i0], boundary[i1]
		for idx := (i0 + 1) % n; idx != i1; idx = (idx + 1) % n {
			if d := perpDist(boundary[idx], p0, p1); d > max {
				max = d
			}
		}
	}
	return max
}

func farthestFrom(boundary []point, from int) int {
	best := from
	bestDist := -1.0
	p0 := boundary[from]
	for i, p := range boundary {
		d := math.Hypot(float64(p.X-p0.X), float64(p.Y-p0.Y))
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func perpDist(p, a, b point) float64 {
	abx := float64(b.X - a.X)
	aby := float64(b.Y - a.Y)
	length := math.Hypot(abx, aby)
	if length == 0 {
		return math.Hypot(float64(p.X-a.X), float64(p.Y-a.Y))
	}
	apx := float64(p.X - a.X)
	apy := float64(p.Y - a.Y)
	return math.Abs(apx*aby-apy*abx) / length
}

func signedArea(corners [4][2]float64) float64 {
	sum := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += corners[i][0]*corners[j][1] - corners[j][0]*corners[i][1]
	}
	return sum / 2
}
