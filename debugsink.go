package apriltag

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

// DebugSink receives intermediate pipeline images when Config.Debug is
// set (spec.md §3: "Owns: ... debug image sink"). Detect calls EmitImage
// at stage boundaries with the named stage ("decimate", "blur",
// "threshold") and the image at that point.
type DebugSink interface {
	EmitImage(stage string, img *imagebuf.Image8)
}

// NullSink discards every image; it is the default DebugSink.
type NullSink struct{}

// EmitImage does nothing.
func (NullSink) EmitImage(string, *imagebuf.Image8) {}

// DirSink writes each emitted image as a PGM file (P5, 8-bit grayscale)
// under Dir, named "<stage>-<n>.pgm" where n increments on every emitted
// image so successive Detect calls don't overwrite each other's debug
// output. PGM has a four-field ASCII header and a raw pixel body; it
// needs no decoder/encoder library of its own, unlike the JPEG/PNM
// formats spec.md §1 places out of scope.
type DirSink struct {
	Dir string
	n   int
}

// NewDirSink returns a DirSink writing into dir, creating it if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirSink{Dir: dir}, nil
}

// EmitImage writes img to "<stage>-<n>.pgm" under Dir. Write failures are
// swallowed: a debug sink must never fail detection.
func (s *DirSink) EmitImage(stage string, img *imagebuf.Image8) {
	if img == nil {
		return
	}
	s.n++
	path := filepath.Join(s.Dir, fmt.Sprintf("%s-%04d.pgm", stage, s.n))
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "P5\n%d %d\n255\n", img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		f.Write(img.Row(y)[:img.Width])
	}
}

// thresholdDebugImage renders a threshold.Image as a viewable Image8:
// DARK->0, LIGHT->255, SKIP->128, for DirSink/NullSink consumers that only
// understand Image8 (spec.md §3's debug image sink has no notion of the
// internal 3-valued label type).
func thresholdDebugImage(t *threshold.Image) *imagebuf.Image8 {
	img, err := imagebuf.NewImage8(t.Width, t.Height)
	if err != nil {
		return nil
	}
	for i, lbl := range t.Labels {
		switch lbl {
		case threshold.Dark:
			img.Pix[i] = 0
		case threshold.Light:
			img.Pix[i] = 255
		default:
			img.Pix[i] = 128
		}
	}
	return img
}
