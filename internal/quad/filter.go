package quad

import "math"

// FilterConfig holds the post-assembly geometric plausibility thresholds
// from spec.md §4.4.
type FilterConfig struct {
	MinArea      float64
	MinPerimeter float64
	MaxPerimeter float64
	MaxAspect    float64
}

// DefaultFilterConfig returns permissive defaults suitable for a
// post-decimation image; callers typically scale these with image size.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinArea:      16,
		MinPerimeter: 16,
		MaxPerimeter: 1e7,
		MaxAspect:    8,
	}
}

// Accept applies the area/perimeter/convexity/aspect-ratio filters
// (spec.md §4.4). It assumes q.Corners is already CCW (positive area).
func Accept(q *Quad, cfg FilterConfig) bool {
	area := q.Area()
	if area < cfg.MinArea {
		return false
	}
	perim := q.Perimeter()
	if perim < cfg.MinPerimeter || perim > cfg.MaxPerimeter {
		return false
	}
	if !isConvex(q.Corners) {
		return false
	}
	if aspectRatio(q.Corners) > cfg.MaxAspect {
		return false
	}
	return true
}

// isConvex reports whether all 4 interior turns have the same sign.
func isConvex(c [4][2]float64) bool {
	sign := 0
	for i := 0; i < 4; i++ {
		a := c[i]
		b := c[(i+1)%4]
		d := c[(i+2)%4]
		cross := (b[0]-a[0])*(d[1]-b[1]) - (b[1]-a[1])*(d[0]-b[0])
		if cross == 0 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if sign != s {
			return false
		}
	}
	return true
}

// aspectRatio returns the ratio of the longest to shortest edge.
func aspectRatio(c [4][2]float64) float64 {
	minLen, maxLen := math.Inf(1), 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		l := math.Hypot(c[j][0]-c[i][0], c[j][1]-c[i][1])
		if l < minLen {
			minLen = l
		}
		if l > maxLen {
			maxLen = l
		}
	}
	if minLen == 0 {
		return math.Inf(1)
	}
	return maxLen / minLen
}
