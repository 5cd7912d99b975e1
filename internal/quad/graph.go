// Package quad assembles candidate quadrilaterals from fitted line
// segments by directed graph search (spec.md §4.4), fits each candidate's
// homography via normalized DLT (§4.5), and deduplicates near-identical
// quads.
package quad

import (
	"math"

	"github.com/go-apriltag/apriltag/internal/segment"
)

// GraphConfig controls the segment-to-segment join tolerance and turn
// angle band used to connect segments into a candidate quad cycle.
type GraphConfig struct {
	EpsJoin      float64 // max distance between A's end and B's start
	ThetaMinDeg  float64
	ThetaMaxDeg  float64
}

// DefaultGraphConfig matches spec.md §4.4's "roughly 45°-135°" turn band.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{EpsJoin: 8, ThetaMinDeg: 40, ThetaMaxDeg: 140}
}

// direction returns the unit vector along a segment from (x0,y0) to (x1,y1).
func direction(s segment.Segment) (dx, dy float64) {
	dx, dy = s.X1-s.X0, s.Y1-s.Y0
	n := math.Hypot(dx, dy)
	if n > 0 {
		dx /= n
		dy /= n
	}
	return
}

// canJoin reports whether segment b may directly follow segment a in a CCW
// quad cycle: b's start lies near a's end, and the left turn from a to b
// falls within the configured angle band.
func canJoin(a, b segment.Segment, cfg GraphConfig) bool {
	ddx := b.X0 - a.X1
	ddy := b.Y0 - a.Y1
	if math.Hypot(ddx, ddy) > cfg.EpsJoin {
		return false
	}
	adx, ady := direction(a)
	bdx, bdy := direction(b)
	cross := adx*bdy - ady*bdx
	dot := adx*bdx + ady*bdy
	if cross <= 0 {
		return false // must be a CCW (left) turn
	}
	angle := math.Atan2(cross, dot) * 180 / math.Pi
	return angle >= cfg.ThetaMinDeg && angle <= cfg.ThetaMaxDeg
}

// buildAdjacency returns, for each segment index, the indices of segments
// that may directly follow it.
func buildAdjacency(segs []segment.Segment, cfg GraphConfig) [][]int {
	adj := make([][]int, len(segs))
	for i := range segs {
		for j := range segs {
			if i == j {
				continue
			}
			if canJoin(segs[i], segs[j], cfg) {
				adj[i] = append(adj[i], j)
			}
		}
	}
	return adj
}

// FindCycles performs a bounded depth-4 DFS from every segment looking for
// 4-cycles that close back to the start (spec.md §4.4). Each cycle is
// returned as the ordered list of 4 segment indices.
func FindCycles(segs []segment.Segment, cfg GraphConfig) [][4]int {
	adj := buildAdjacency(segs, cfg)
	var cycles [][4]int
	for start := range segs {
		for _, b := range adj[start] {
			for _, c := range adj[b] {
				if c == start {
					continue
				}
				for _, d := range adj[c] {
					if d == start || d == b {
						continue
					}
					for _, back := range adj[d] {
						if back == start {
							cycles = append(cycles, [4]int{start, b, c, d})
						}
					}
				}
			}
		}
	}
	return cycles
}
