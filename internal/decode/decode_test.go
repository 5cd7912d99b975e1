package decode

import (
	"testing"

	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

// renderTag draws family f's codeword at index id into a size x size
// grayscale image, axis-aligned, filling the full frame with the tag
// (border ring dark, payload bits black=1/white=0), and returns the image
// plus the quad describing its extent.
func renderTag(t *testing.T, f *family.TagFamily, id, size int) (*imagebuf.Image8, *quad.Quad) {
	t.Helper()
	img, err := imagebuf.NewImage8(size, size)
	if err != nil {
		t.Fatalf("NewImage8 failed: %v", err)
	}
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	d := f.D
	border := f.Border
	n := d + 2*border
	cell := float64(size) / float64(n)

	// gx, gy mirror Decode's cellCenter convention: the first index maps
	// to x (image columns), the second to y (image rows), and the bit
	// index is gx*d+gy (matching Decode's idx := i*d+j).
	code := f.Codes[id]
	for gx := 0; gx < n; gx++ {
		for gy := 0; gy < n; gy++ {
			dark := f.BorderPolarity == family.BorderBlack // default: border dark
			if gx >= border && gx < d+border && gy >= border && gy < d+border {
				pi := gx - border
				pj := gy - border
				idx := pi*d + pj
				dark = (code>>uint(idx))&1 == 1
			}
			if !dark {
				continue
			}
			x0 := int(float64(gx) * cell)
			y0 := int(float64(gy) * cell)
			x1 := int(float64(gx+1) * cell)
			y1 := int(float64(gy+1) * cell)
			for y := y0; y < y1 && y < size; y++ {
				row := img.Row(y)
				for x := x0; x < x1 && x < size; x++ {
					row[x] = 0
				}
			}
		}
	}

	corners := [4][2]float64{
		{0, 0}, {float64(size), 0}, {float64(size), float64(size)}, {0, float64(size)},
	}
	h, err := quad.FitHomography(corners)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}
	return img, &quad.Quad{Corners: corners, H: h}
}

func TestDecodeExactMatch(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}
	img, q := renderTag(t, f, 3, 64)
	th := threshold.Adaptive(img, threshold.DefaultTileSize, threshold.DefaultMinContrast)

	res, err := Decode(q, f, img, th)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.ID != 3 {
		t.Errorf("ID = %d, want 3", res.ID)
	}
	if res.Hamming != 0 {
		t.Errorf("Hamming = %d, want 0", res.Hamming)
	}
	if res.DecisionMargin <= 0 {
		t.Errorf("DecisionMargin = %f, want > 0", res.DecisionMargin)
	}
}

func TestDecodeRejectsPlainQuad(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}
	img, _ := imagebuf.NewImage8(64, 64)
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	corners := [4][2]float64{{0, 0}, {64, 0}, {64, 64}, {0, 64}}
	h, _ := quad.FitHomography(corners)
	q := &quad.Quad{Corners: corners, H: h}
	th := threshold.Adaptive(img, threshold.DefaultTileSize, threshold.DefaultMinContrast)

	if _, err := Decode(q, f, img, th); err == nil {
		t.Errorf("expected decode of a flat quad to fail")
	}
}
