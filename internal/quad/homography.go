package quad

import "math"

// FitHomography solves for the 3x3 homography H mapping the canonical unit
// square corners (-1,-1),(1,-1),(1,1),(-1,1) to the given image-space
// corners (same CCW order), via the normalized direct linear transform
// specialised to the exact 4-point case (spec.md §4.5). The returned H is
// row-major with H[8] normalised to 1.
func FitHomography(corners [4][2]float64) ([9]float64, error) {
	var h [9]float64
	canonical := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	// Normalize both point sets (zero mean, average distance sqrt(2) from
	// origin) before solving, then denormalize: standard DLT conditioning.
	srcT, srcPts := normalize(canonical[:])
	dstT, dstPts := normalize(corners[:])

	a := make([][]float64, 8)
	for i := range a {
		a[i] = make([]float64, 8)
	}
	b := make([]float64, 8)

	for i := 0; i < 4; i++ {
		x, y := srcPts[i][0], srcPts[i][1]
		X, Y := dstPts[i][0], dstPts[i][1]
		r0 := 2 * i
		r1 := 2*i + 1
		a[r0][0], a[r0][1], a[r0][2] = x, y, 1
		a[r0][6], a[r0][7] = -x*X, -y*X
		b[r0] = X

		a[r1][3], a[r1][4], a[r1][5] = x, y, 1
		a[r1][6], a[r1][7] = -x*Y, -y*Y
		b[r1] = Y
	}

	sol, err := solveLinear(a, b)
	if err != nil {
		return h, ErrSingularHomography
	}
	hn := [9]float64{sol[0], sol[1], sol[2], sol[3], sol[4], sol[5], sol[6], sol[7], 1}

	// Denormalize: H = dstT^-1 * Hn * srcT.
	denorm := matMul(invert3(dstT), matMul(hn, srcT))
	return denorm, nil
}

// normalize translates points to centroid zero and scales so the average
// distance from the origin is sqrt(2), returning the transform T (such
// that normalized = T * [x y 1]^T) and the normalized points.
func normalize(pts []([2]float64)) ([9]float64, [][2]float64) {
	n := len(pts)
	var cx, cy float64
	for _, p := range pts {
		cx += p[0]
		cy += p[1]
	}
	cx /= float64(n)
	cy /= float64(n)

	var meanDist float64
	for _, p := range pts {
		dx := p[0] - cx
		dy := p[1] - cy
		meanDist += math.Sqrt(dx*dx + dy*dy)
	}
	meanDist /= float64(n)
	if meanDist == 0 {
		meanDist = 1
	}
	scale := sqrt2 / meanDist

	t := [9]float64{
		scale, 0, -scale * cx,
		0, scale, -scale * cy,
		0, 0, 1,
	}
	out := make([][2]float64, n)
	for i, p := range pts {
		out[i] = [2]float64{scale * (p[0] - cx), scale * (p[1] - cy)}
	}
	return t, out
}

const sqrt2 = 1.4142135623730951

// matMul multiplies two row-major 3x3 matrices.
func matMul(a, b [9]float64) [9]float64 {
	var c [9]float64
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[r*3+k] * b[k*3+col]
			}
			c[r*3+col] = sum
		}
	}
	return c
}

// invert3 inverts a row-major 3x3 matrix via the adjugate/determinant.
func invert3(m [9]float64) [9]float64 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	A := e*i - f*h
	B := -(d*i - f*g)
	C := d*h - e*g
	D := -(b*i - c*h)
	E := a*i - c*g
	F := -(a*h - b*g)
	G := b*f - c*e
	H := -(a*f - c*d)
	I := a*e - b*d

	det := a*A + b*B + c*C
	if det == 0 {
		det = 1e-12
	}
	inv := 1 / det
	return [9]float64{
		A * inv, D * inv, G * inv,
		B * inv, E * inv, H * inv,
		C * inv, F * inv, I * inv,
	}
}

// solveLinear solves the square linear system a*x = b via Gaussian
// elimination with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	// Augment.
	m := make([][]float64, n)
	for i := range a {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		best := absF(m[col][col])
		for r := col + 1; r < n; r++ {
			if v := absF(m[r][col]); v > best {
				best = v
				pivot = r
			}
		}
		if best < 1e-14 {
			return nil, ErrSingularHomography
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := m[r][col] / m[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = m[i][n] / m[i][i]
	}
	return x, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
