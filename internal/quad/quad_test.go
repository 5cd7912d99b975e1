package quad

import (
	"math"
	"testing"

	"github.com/go-apriltag/apriltag/internal/segment"
)

func squareSegments() []segment.Segment {
	// A CCW square with corners (0,0),(10,0),(10,10),(0,10).
	return []segment.Segment{
		{X0: 0, Y0: 0, X1: 10, Y1: 0},
		{X0: 10, Y0: 0, X1: 10, Y1: 10},
		{X0: 10, Y0: 10, X1: 0, Y1: 10},
		{X0: 0, Y0: 10, X1: 0, Y1: 0},
	}
}

func TestCanJoinAndFindCycles(t *testing.T) {
	segs := squareSegments()
	cfg := DefaultGraphConfig()
	cycles := FindCycles(segs, cfg)
	if len(cycles) == 0 {
		t.Fatalf("expected at least one 4-cycle from a square's 4 segments")
	}
}

func TestFromCycleProducesCCWQuad(t *testing.T) {
	segs := squareSegments()
	q, err := FromCycle(segs, [4]int{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("FromCycle failed: %v", err)
	}
	if q.Area() <= 0 {
		t.Errorf("expected positive (CCW) area, got %f", q.Area())
	}
}

func TestFitHomographyRoundTrip(t *testing.T) {
	corners := [4][2]float64{{100, 100}, {200, 110}, {210, 210}, {90, 200}}
	h, err := FitHomography(corners)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}
	q := &Quad{Corners: corners, H: h}
	canon := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i, c := range canon {
		x, y := q.Project(c[0], c[1])
		dx := x - corners[i][0]
		dy := y - corners[i][1]
		if math.Hypot(dx, dy) > 1e-6 {
			t.Errorf("corner %d: projected (%f,%f), want (%f,%f)", i, x, y, corners[i][0], corners[i][1])
		}
	}
}

func TestAcceptRejectsDegenerateQuad(t *testing.T) {
	cfg := DefaultFilterConfig()
	tiny := &Quad{Corners: [4][2]float64{{0, 0}, {0.1, 0}, {0.1, 0.1}, {0, 0.1}}}
	if Accept(tiny, cfg) {
		t.Errorf("expected tiny quad to be rejected by min area")
	}
}

func TestDedupAssemblyRemovesNearDuplicates(t *testing.T) {
	a := &Quad{Corners: [4][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
	b := &Quad{Corners: [4][2]float64{{0.2, 0}, {10, 0}, {10, 10}, {0, 10}}}
	c := &Quad{Corners: [4][2]float64{{50, 50}, {60, 50}, {60, 60}, {50, 60}}}
	kept := DedupAssembly([]*Quad{a, b, c})
	if len(kept) != 2 {
		t.Fatalf("expected 2 quads after dedup, got %d", len(kept))
	}
}
