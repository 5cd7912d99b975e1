package quad

import "math"

// DedupAssembly removes quads whose four corners all lie within 1 pixel of
// another quad already kept (spec.md §4.4): "Deduplicate quads whose
// corner sets are within a pixel of each other." This runs before
// decoding; detection-level dedup by decision margin happens later.
func DedupAssembly(quads []*Quad) []*Quad {
	const eps = 1.0
	kept := make([]*Quad, 0, len(quads))
	for _, q := range quads {
		dup := false
		for _, k := range kept {
			if cornersClose(q.Corners, k.Corners, eps) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, q)
		}
	}
	return kept
}

func cornersClose(a, b [4][2]float64, eps float64) bool {
	for i := 0; i < 4; i++ {
		dx := a[i][0] - b[i][0]
		dy := a[i][1] - b[i][1]
		if math.Hypot(dx, dy) > eps {
			return false
		}
	}
	return true
}
