package refine

import (
	"testing"

	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

// solidQuad builds a size x size image that is dark inside [x0,x1]x[y0,y1]
// and light outside, plus the quad bounding that square.
func solidQuad(t *testing.T, size, x0, y0, x1, y1 int) (*imagebuf.Image8, *quad.Quad) {
	t.Helper()
	img, err := imagebuf.NewImage8(size, size)
	if err != nil {
		t.Fatalf("NewImage8 failed: %v", err)
	}
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := y0; y < y1; y++ {
		row := img.Row(y)
		for x := x0; x < x1; x++ {
			row[x] = 0
		}
	}
	corners := [4][2]float64{
		{float64(x0), float64(y0)}, {float64(x1), float64(y0)},
		{float64(x1), float64(y1)}, {float64(x0), float64(y1)},
	}
	h, err := quad.FitHomography(corners)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}
	return img, &quad.Quad{Corners: corners, H: h}
}

func TestEdgesRecoversPerturbedCorners(t *testing.T) {
	img, trueQuad := solidQuad(t, 80, 20, 20, 60, 60)

	// Perturb the corners slightly before refining.
	perturbed := &quad.Quad{Corners: trueQuad.Corners}
	perturbed.Corners[0][0] -= 1.5
	perturbed.Corners[1][1] += 1.2
	h, err := quad.FitHomography(perturbed.Corners)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}
	perturbed.H = h

	refined := Edges(perturbed, img)

	for i, want := range trueQuad.Corners {
		got := refined.Corners[i]
		dx := got[0] - want[0]
		dy := got[1] - want[1]
		if dx*dx+dy*dy > 4*4 {
			t.Errorf("corner %d = (%.2f,%.2f), want near (%.2f,%.2f)", i, got[0], got[1], want[0], want[1])
		}
	}
}

func TestEdgesReturnsOriginalOnFlatImage(t *testing.T) {
	img, err := imagebuf.NewImage8(40, 40)
	if err != nil {
		t.Fatalf("NewImage8 failed: %v", err)
	}
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	corners := [4][2]float64{{5, 5}, {35, 5}, {35, 35}, {5, 35}}
	h, err := quad.FitHomography(corners)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}
	q := &quad.Quad{Corners: corners, H: h}

	refined := Edges(q, img)
	if refined.Corners != q.Corners {
		t.Errorf("expected unchanged corners on a flat image, got %v", refined.Corners)
	}
}

func TestDecodeNilOriginalPassesThrough(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}
	img, q := solidQuad(t, 64, 0, 0, 64, 64)
	th := threshold.Adaptive(img, threshold.DefaultTileSize, threshold.DefaultMinContrast)

	if res := Decode(q, f, img, th, nil); res != nil {
		t.Errorf("expected nil passthrough for nil original, got %+v", res)
	}
}
