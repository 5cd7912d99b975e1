package pose

import (
	"math"
	"testing"

	"github.com/go-apriltag/apriltag/internal/quad"
)

func frontalCorners(intr Intrinsics, tagSize, depth float64) [4][2]float64 {
	h := tagSize / 2
	corners3D := [4][3]float64{{-h, -h, depth}, {h, -h, depth}, {h, h, depth}, {-h, h, depth}}
	var out [4][2]float64
	for i, p := range corners3D {
		out[i][0] = intr.Fx*p[0]/p[2] + intr.Cx
		out[i][1] = intr.Fy*p[1]/p[2] + intr.Cy
	}
	return out
}

func TestFromHomographyFrontalPose(t *testing.T) {
	intr := Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}
	tagSize := 0.1
	depth := 1.0

	corners := frontalCorners(intr, tagSize, depth)
	h, err := quad.FitHomography(corners)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}

	tr, err := FromHomography(h, intr, tagSize)
	if err != nil {
		t.Fatalf("FromHomography failed: %v", err)
	}

	wantR := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	gotR := [9]float64{tr.Mat[0], tr.Mat[1], tr.Mat[2], tr.Mat[4], tr.Mat[5], tr.Mat[6], tr.Mat[8], tr.Mat[9], tr.Mat[10]}
	for i := range wantR {
		if math.Abs(gotR[i]-wantR[i]) > 1e-6 {
			t.Errorf("R[%d] = %f, want %f", i, gotR[i], wantR[i])
		}
	}

	gotT := [3]float64{tr.Mat[3], tr.Mat[7], tr.Mat[11]}
	wantT := [3]float64{0, 0, depth}
	for i := range wantT {
		if math.Abs(gotT[i]-wantT[i]) > 1e-6 {
			t.Errorf("t[%d] = %f, want %f", i, gotT[i], wantT[i])
		}
	}

	if !tr.Converged {
		t.Errorf("expected orthogonalization to converge on an already-orthogonal R")
	}
}

func TestRefinePoseReducesResidual(t *testing.T) {
	intr := Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}
	tagSize := 0.1
	depth := 1.0
	corners := frontalCorners(intr, tagSize, depth)

	// Start from a deliberately offset initial guess.
	initial := &Transform{Mat: [16]float64{
		1, 0, 0, 0.02,
		0, 1, 0, -0.01,
		0, 0, 1, 1.2,
		0, 0, 0, 1,
	}}

	refined := RefinePose(initial, corners, intr, tagSize)

	initialRes := residuals(
		[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		[3]float64{0.02, -0.01, 1.2},
		intr, canonicalCorners3D(tagSize), corners,
	)
	if refined.Residual >= vecNorm8(initialRes) {
		t.Errorf("refined residual %f should be smaller than initial %f", refined.Residual, vecNorm8(initialRes))
	}
	if refined.Residual > 1e-3 {
		t.Errorf("refined residual %f, want near 0", refined.Residual)
	}
}
