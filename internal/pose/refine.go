package pose

import "math"

const (
	maxRefineIterations = 50
	refineConvergeEps   = 1e-10
	jacobianStep        = 1e-6
)

// canonicalCorners3D returns the 4 physical tag corners at z=0, in the
// same CCW order as quad.FitHomography's canonical unit square, scaled to
// tagSize.
func canonicalCorners3D(tagSize float64) [4][3]float64 {
	h := tagSize / 2
	return [4][3]float64{
		{-h, -h, 0}, {h, -h, 0}, {h, h, 0}, {-h, h, 0},
	}
}

// project applies R, t, then the pinhole intrinsics to a 3D point.
func project(r [9]float64, t [3]float64, intr Intrinsics, p [3]float64) (x, y float64) {
	cx := r[0]*p[0] + r[1]*p[1] + r[2]*p[2] + t[0]
	cy := r[3]*p[0] + r[4]*p[1] + r[5]*p[2] + t[1]
	cz := r[6]*p[0] + r[7]*p[1] + r[8]*p[2] + t[2]
	if cz == 0 {
		cz = 1e-9
	}
	x = intr.Fx*cx/cz + intr.Cx
	y = intr.Fy*cy/cz + intr.Cy
	return
}

// applyDelta applies a small-angle rotation update w (Rodrigues
// first-order approximation: R' = (I + skew(w)) * R) and a translation
// update dt to (r, t).
func applyDelta(r [9]float64, t [3]float64, w, dt [3]float64) ([9]float64, [3]float64) {
	skew := [9]float64{
		0, -w[2], w[1],
		w[2], 0, -w[0],
		-w[1], w[0], 0,
	}
	update := addMat3([9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, skew)
	rNew := matMul3(update, r)
	tNew := [3]float64{t[0] + dt[0], t[1] + dt[1], t[2] + dt[2]}
	return rNew, tNew
}

// residuals computes the stacked (observed - projected) vector for the 4
// tag corners under the current (r, t).
func residuals(r [9]float64, t [3]float64, intr Intrinsics, corners3D [4][3]float64, observed [4][2]float64) [8]float64 {
	var res [8]float64
	for i := 0; i < 4; i++ {
		px, py := project(r, t, intr, corners3D[i])
		res[2*i] = observed[i][0] - px
		res[2*i+1] = observed[i][1] - py
	}
	return res
}

// RefinePose runs Gauss-Newton on a 6-parameter (rotation, translation)
// update to minimise reprojection error between the tag's canonical 3D
// corners (projected via the current pose) and the quad's detected
// image-space corners (spec.md §4.7's refine_pose).
func RefinePose(initial *Transform, observed [4][2]float64, intr Intrinsics, tagSize float64) *Transform {
	r := [9]float64{
		initial.Mat[0], initial.Mat[1], initial.Mat[2],
		initial.Mat[4], initial.Mat[5], initial.Mat[6],
		initial.Mat[8], initial.Mat[9], initial.Mat[10],
	}
	t := [3]float64{initial.Mat[3], initial.Mat[7], initial.Mat[11]}
	corners3D := canonicalCorners3D(tagSize)

	converged := false
	iter := 0
	for ; iter < maxRefineIterations; iter++ {
		res0 := residuals(r, t, intr, corners3D, observed)

		var jac [8][6]float64
		for p := 0; p < 6; p++ {
			var w, dt [3]float64
			if p < 3 {
				w[p] = jacobianStep
			} else {
				dt[p-3] = jacobianStep
			}
			rPert, tPert := applyDelta(r, t, w, dt)
			resPert := residuals(rPert, tPert, intr, corners3D, observed)
			for row := 0; row < 8; row++ {
				// Jacobian of the projection (the negated residual), so
				// that (J^T J) delta = J^T r gives the descent step.
				jac[row][p] = (res0[row] - resPert[row]) / jacobianStep
			}
		}

		delta, ok := solveNormalEquations(jac, res0)
		if !ok {
			break
		}
		w := [3]float64{delta[0], delta[1], delta[2]}
		dt := [3]float64{delta[3], delta[4], delta[5]}
		r, t = applyDelta(r, t, w, dt)

		if vecNorm6(delta) < refineConvergeEps {
			converged = true
			iter++
			break
		}
	}

	r, _, _ = orthogonalize(r)
	finalResidual := vecNorm8(residuals(r, t, intr, corners3D, observed))

	return &Transform{
		Mat: [16]float64{
			r[0], r[1], r[2], t[0],
			r[3], r[4], r[5], t[1],
			r[6], r[7], r[8], t[2],
			0, 0, 0, 1,
		},
		Converged:  converged,
		Iterations: iter,
		Residual:   finalResidual,
	}
}

// solveNormalEquations solves the Gauss-Newton step (J^T J) delta = J^T r
// for the 6x6 system via Gaussian elimination with partial pivoting,
// mirroring internal/quad/homography.go's solveLinear.
func solveNormalEquations(jac [8][6]float64, res [8]float64) ([6]float64, bool) {
	var jtj [6][6]float64
	var jtr [6]float64
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			var sum float64
			for row := 0; row < 8; row++ {
				sum += jac[row][i] * jac[row][j]
			}
			jtj[i][j] = sum
		}
		var sum float64
		for row := 0; row < 8; row++ {
			sum += jac[row][i] * res[row]
		}
		jtr[i] = sum
	}

	m := make([][7]float64, 6)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] = jtj[i][j]
		}
		m[i][6] = jtr[i]
	}

	for col := 0; col < 6; col++ {
		pivot := col
		best := math.Abs(m[col][col])
		for r := col + 1; r < 6; r++ {
			if v := math.Abs(m[r][col]); v > best {
				best = v
				pivot = r
			}
		}
		if best < 1e-14 {
			return [6]float64{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := 0; r < 6; r++ {
			if r == col {
				continue
			}
			factor := m[r][col] / m[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < 7; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	var out [6]float64
	for i := 0; i < 6; i++ {
		out[i] = m[i][6] / m[i][i]
	}
	return out, true
}

func vecNorm8(v [8]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func vecNorm6(v [6]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
