package segment

import "math"

// Segment is a fitted line segment (spec.md §3): two endpoints, the
// dark-to-light gradient side, and bookkeeping linking it back to its
// parent cluster. Children is left empty: neither this package nor the
// quad assembler fills it, and quad.FindCycles keeps its own adjacency
// lists instead.
type Segment struct {
	X0, Y0, X1, Y1 float64
	Gx, Gy         float64 // dark-to-light direction, averaged over the fit
	ParentCluster  int
	Index          int
	MSE            float64
	Children       []int // indices into the same segment slice; not filled
}

// LineFit is a weighted total-least-squares fit of a 2-D point set: a
// point on the line and a unit direction, found via the principal
// eigenvector of the weighted covariance matrix (closed form for 2x2).
type LineFit struct {
	Cx, Cy float64 // centroid
	Dx, Dy float64 // unit direction
	MSE    float64 // mean squared perpendicular residual
}

// FitLine performs a weighted least-squares line fit over a cluster's edge
// samples (spec.md §4.2).
func FitLine(c *Cluster) LineFit {
	if c.SumW == 0 {
		return LineFit{}
	}
	cx := c.SumX / c.SumW
	cy := c.SumY / c.SumW
	// Weighted covariance (assuming per-sample weight 1 after centering,
	// since SumXX etc. were accumulated with weights already applied).
	exx := c.SumXX/c.SumW - cx*cx
	eyy := c.SumYY/c.SumW - cy*cy
	exy := c.SumXY/c.SumW - cx*cy

	// Principal eigenvector of [[exx, exy], [exy, eyy]].
	theta := 0.5 * math.Atan2(2*exy, exx-eyy)
	dx, dy := math.Cos(theta), math.Sin(theta)

	// Mean squared perpendicular residual: project centered samples onto
	// the normal (-dy, dx).
	nx, ny := -dy, dx
	var sumSq, sumW float64
	for _, s := range c.Samples {
		px := s.X - cx
		py := s.Y - cy
		r := px*nx + py*ny
		sumSq += s.Weight * r * r
		sumW += s.Weight
	}
	mse := 0.0
	if sumW > 0 {
		mse = sumSq / sumW
	}
	return LineFit{Cx: cx, Cy: cy, Dx: dx, Dy: dy, MSE: mse}
}

// Endpoints projects a cluster's samples onto the fitted line and returns
// the two extreme projections as segment endpoints.
func Endpoints(c *Cluster, fit LineFit) (x0, y0, x1, y1 float64) {
	minT, maxT := math.Inf(1), math.Inf(-1)
	var minPt, maxPt [2]float64
	for _, s := range c.Samples {
		t := (s.X-fit.Cx)*fit.Dx + (s.Y-fit.Cy)*fit.Dy
		if t < minT {
			minT = t
			minPt = [2]float64{fit.Cx + t*fit.Dx, fit.Cy + t*fit.Dy}
		}
		if t > maxT {
			maxT = t
			maxPt = [2]float64{fit.Cx + t*fit.Dx, fit.Cy + t*fit.Dy}
		}
	}
	return minPt[0], minPt[1], maxPt[0], maxPt[1]
}

// averageGradient returns the mean dark-to-light direction over a cluster,
// used to record a segment's polarity (which side is dark).
func averageGradient(c *Cluster) (gx, gy float64) {
	for _, s := range c.Samples {
		gx += s.Gx * s.Weight
		gy += s.Gy * s.Weight
	}
	n := math.Hypot(gx, gy)
	if n > 0 {
		gx /= n
		gy /= n
	}
	return
}
