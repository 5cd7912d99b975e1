package threshold

import (
	"testing"

	"github.com/go-apriltag/apriltag/internal/imagebuf"
)

func TestAdaptiveFlatRegionIsSkip(t *testing.T) {
	src, _ := imagebuf.NewImage8(16, 16)
	for i := range src.Pix {
		src.Pix[i] = 128
	}
	out := Adaptive(src, DefaultTileSize, DefaultMinContrast)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if out.At(x, y) != Skip {
				t.Fatalf("flat region at (%d,%d) = %v, want Skip", x, y, out.At(x, y))
			}
		}
	}
}

func TestAdaptiveHighContrastSplit(t *testing.T) {
	src, _ := imagebuf.NewImage8(16, 16)
	for y := 0; y < 16; y++ {
		row := src.Row(y)
		for x := 0; x < 16; x++ {
			if x < 8 {
				row[x] = 0
			} else {
				row[x] = 255
			}
		}
	}
	out := Adaptive(src, DefaultTileSize, DefaultMinContrast)
	// Only tiles whose 3x3 neighbourhood spans the split have contrast;
	// tiles two or more away see a flat neighbourhood and are Skip.
	if out.At(7, 0) != Dark {
		t.Errorf("left side of the split should classify Dark, got %v", out.At(7, 0))
	}
	if out.At(8, 0) != Light {
		t.Errorf("right side of the split should classify Light, got %v", out.At(8, 0))
	}
}

func TestTileBounds(t *testing.T) {
	src, _ := imagebuf.NewImage8(8, 8)
	for y := 0; y < 8; y++ {
		row := src.Row(y)
		for x := 0; x < 8; x++ {
			row[x] = byte(x * 30)
		}
	}
	out := Adaptive(src, 4, DefaultMinContrast)
	mn, mx := out.TileBounds(0, 0)
	if mn > mx {
		t.Errorf("TileBounds min %d > max %d", mn, mx)
	}
}
