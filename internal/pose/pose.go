// Package pose implements closed-form homography-to-pose decomposition,
// with the rotation projected onto the nearest orthogonal matrix by a
// polar-decomposition iteration, and the refine_pose Gauss-Newton
// reprojection refinement (spec.md §4.9, §4.7). It does not run
// Lu-Hager-Mjolsness orthogonal iteration on the object-space error.
package pose

import (
	"errors"
	"math"
)

// ErrSingularHomography is returned when the homography cannot be
// decomposed into a rotation (degenerate column norms).
var ErrSingularHomography = errors.New("pose: homography columns are degenerate")

// Intrinsics holds a pinhole camera's focal lengths and principal point.
type Intrinsics struct {
	Fx, Fy, Cx, Cy float64
}

// Transform is a 4x4 row-major homogeneous rigid transform (rotation in
// the top-left 3x3, translation in the rightmost column), plus solver
// diagnostics. Spec §7: "Pose solver reports non-convergence as a status
// flag on the transform; the transform is still returned (best iterate)."
type Transform struct {
	Mat        [16]float64
	Converged  bool
	Iterations int
	Residual   float64
}

const (
	maxOrthoIterations = 50
	orthoConvergeEps   = 1e-9
)

// FromHomography decomposes a quad's homography H (mapping the canonical
// [-1,1]^2 square to image pixels) into a rigid pose given the camera
// intrinsics and the physical tag edge length (spec.md §4.9).
func FromHomography(h [9]float64, intr Intrinsics, tagSize float64) (*Transform, error) {
	kinv := [9]float64{
		1 / intr.Fx, 0, -intr.Cx / intr.Fx,
		0, 1 / intr.Fy, -intr.Cy / intr.Fy,
		0, 0, 1,
	}
	m := matMul3(kinv, h)

	// Columns of m: m1 (coeff of ux), m2 (coeff of uy), m3 (constant term).
	m1 := [3]float64{m[0], m[3], m[6]}
	m2 := [3]float64{m[1], m[4], m[7]}
	m3 := [3]float64{m[2], m[5], m[8]}

	n1 := norm3(m1)
	n2 := norm3(m2)
	if n1 < 1e-12 || n2 < 1e-12 {
		return nil, ErrSingularHomography
	}

	r1 := scale3(m1, 1/n1)
	r2 := scale3(m2, 1/n2)
	r3 := cross3(r1, r2)

	rawR := [9]float64{
		r1[0], r2[0], r3[0],
		r1[1], r2[1], r3[1],
		r1[2], r2[2], r3[2],
	}

	r, iters, converged := orthogonalize(rawR)

	normAvg := (n1 + n2) / 2
	lambda := normAvg / (tagSize / 2)
	t := scale3(m3, 1/lambda)

	// A right-handed rotation must have det(R) > 0; the image may
	// present a tag facing away, flipping the sign of the z column and
	// translation.
	if det3(r) < 0 {
		for i := 6; i < 9; i++ {
			r[i] = -r[i]
		}
		t[2] = -t[2]
	}

	mat := [16]float64{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}

	return &Transform{Mat: mat, Converged: converged, Iterations: iters}, nil
}

// orthogonalize projects r onto the nearest orthogonal matrix via the
// Newton polar-decomposition iteration R_{k+1} = (R_k + R_k^-T)/2,
// which avoids needing a general SVD (spec.md §4.9: "iterate refining R
// by singular-value projection"; this is the closed-form equivalent for a
// square matrix). Terminates when ||ΔR|| < 1e-9 or after 50 iterations.
func orthogonalize(r [9]float64) (out [9]float64, iterations int, converged bool) {
	cur := r
	for iterations = 1; iterations <= maxOrthoIterations; iterations++ {
		invT := transpose3(invert3(cur))
		next := scaleMat3(addMat3(cur, invT), 0.5)
		delta := frobeniusDist(next, cur)
		cur = next
		if delta < orthoConvergeEps {
			return cur, iterations, true
		}
	}
	return cur, iterations, false
}

func matMul3(a, b [9]float64) [9]float64 {
	var c [9]float64
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[row*3+k] * b[k*3+col]
			}
			c[row*3+col] = sum
		}
	}
	return c
}

func transpose3(m [9]float64) [9]float64 {
	return [9]float64{m[0], m[3], m[6], m[1], m[4], m[7], m[2], m[5], m[8]}
}

func addMat3(a, b [9]float64) [9]float64 {
	var c [9]float64
	for i := range c {
		c[i] = a[i] + b[i]
	}
	return c
}

func scaleMat3(a [9]float64, s float64) [9]float64 {
	var c [9]float64
	for i := range c {
		c[i] = a[i] * s
	}
	return c
}

func frobeniusDist(a, b [9]float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func det3(m [9]float64) float64 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

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

func norm3(v [3]float64) float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }

func scale3(v [3]float64, s float64) [3]float64 { return [3]float64{v[0] * s, v[1] * s, v[2] * s} }

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
