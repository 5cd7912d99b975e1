package apriltag

import (
	"testing"

	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
)

// renderTagWithMargin draws family f's codeword id into a (size-2*margin)
// square centered in a size x size white image, mirroring
// internal/decode's renderTag fixture but leaving a white margin so the
// outer border ring has a boundary to segment against, the way
// internal/segment's synthSquare fixture does.
func renderTagWithMargin(t *testing.T, f *family.TagFamily, id, size, margin int) *imagebuf.Image8 {
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
	tagSize := size - 2*margin
	cell := float64(tagSize) / float64(n)

	code := f.Codes[id]
	for gx := 0; gx < n; gx++ {
		for gy := 0; gy < n; gy++ {
			dark := f.BorderPolarity == family.BorderBlack
			if gx >= border && gx < d+border && gy >= border && gy < d+border {
				pi := gx - border
				pj := gy - border
				idx := pi*d + pj
				dark = (code>>uint(idx))&1 == 1
			}
			if !dark {
				continue
			}
			x0 := margin + int(float64(gx)*cell)
			y0 := margin + int(float64(gy)*cell)
			x1 := margin + int(float64(gx+1)*cell)
			y1 := margin + int(float64(gy+1)*cell)
			for y := y0; y < y1 && y < size; y++ {
				row := img.Row(y)
				for x := x0; x < x1 && x < size; x++ {
					row[x] = 0
				}
			}
		}
	}
	return img
}

func TestDetectFindsSyntheticTag(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}
	img := renderTagWithMargin(t, f, 5, 200, 50)

	det, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	defer det.Close()
	if err := det.AddFamily(f); err != nil {
		t.Fatalf("AddFamily failed: %v", err)
	}

	result, err := det.Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	defer result.Release()

	if len(result.Detections) != 1 {
		t.Fatalf("len(Detections) = %d, want 1", len(result.Detections))
	}
	got := result.Detections[0]
	if got.ID != 5 {
		t.Errorf("ID = %d, want 5", got.ID)
	}
	if got.Family == nil || got.Family.Name != "tag16h5" {
		t.Errorf("Family = %+v, want tag16h5", got.Family)
	}
}

func TestDetectRejectsUndersizedImage(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}
	det, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	defer det.Close()
	if err := det.AddFamily(f); err != nil {
		t.Fatalf("AddFamily failed: %v", err)
	}

	tiny, _ := imagebuf.NewImage8(4, 4)
	result, err := det.Detect(tiny)
	if err == nil {
		t.Fatalf("expected an *InputError for an undersized image")
	}
	if _, ok := err.(*InputError); !ok {
		t.Errorf("err = %T, want *InputError", err)
	}
	if result == nil || len(result.Detections) != 0 {
		t.Errorf("result = %+v, want a non-nil empty list", result)
	}
}

func TestDetectRejectsNilImage(t *testing.T) {
	det, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	defer det.Close()

	_, err = det.Detect(nil)
	if _, ok := err.(*InputError); !ok {
		t.Errorf("err = %T, want *InputError", err)
	}
}

func TestNewDetectorRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"decimate below one", func(c *Config) { c.QuadDecimate = 0 }},
		{"zero threads", func(c *Config) { c.NThreads = 0 }},
		{"negative border", func(c *Config) { c.Border = -1 }},
		{"negative dedup epsilon", func(c *Config) { c.DedupEpsilon = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			if _, err := NewDetector(cfg); err == nil {
				t.Fatalf("expected an error for invalid config")
			} else if _, ok := err.(*ConfigError); !ok {
				t.Errorf("err = %T, want *ConfigError", err)
			}
		})
	}
}

func TestAddFamilyAppliesConfiguredBorder(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Border = 2
	det, err := NewDetector(cfg)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	defer det.Close()
	if err := det.AddFamily(f); err != nil {
		t.Fatalf("AddFamily failed: %v", err)
	}
	got := det.Families()
	if len(got) != 1 || got[0].Border != 2 {
		t.Fatalf("Families() = %+v, want one family with border 2", got)
	}
}

func TestStatsReflectsMostRecentDetect(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}
	img := renderTagWithMargin(t, f, 1, 200, 50)

	det, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	defer det.Close()
	if err := det.AddFamily(f); err != nil {
		t.Fatalf("AddFamily failed: %v", err)
	}
	if _, err := det.Detect(img); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	stats := det.Stats()
	for _, stage := range []string{"threshold", "segment", "quad", "decode", "refine"} {
		if _, ok := stats.StageDurations[stage]; !ok {
			t.Errorf("StageDurations missing stage %q: %+v", stage, stats.StageDurations)
		}
	}
}
