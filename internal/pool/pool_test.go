package pool

import (
	"sync/atomic"
	"testing"

	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/segment"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

func TestPoolRunExecutesAllTasks(t *testing.T) {
	p := New(4)
	defer p.Close()

	var counter int64
	tasks := make([]func(), 100)
	for i := range tasks {
		tasks[i] = func() { atomic.AddInt64(&counter, 1) }
	}
	p.Run(tasks)

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestPoolSizeClampedToOne(t *testing.T) {
	p := New(0)
	defer p.Close()
	if p.Size() != 1 {
		t.Errorf("Size() = %d, want 1", p.Size())
	}
}

func solidSquareThreshold(t *testing.T, size, x0, y0, x1, y1 int) *threshold.Image {
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
	return threshold.Adaptive(img, threshold.DefaultTileSize, threshold.DefaultMinContrast)
}

func TestClusterStripesMatchesSequential(t *testing.T) {
	th := solidSquareThreshold(t, 64, 10, 10, 50, 50)

	sequential := segment.NewComponentLabeler(th).Clusters()

	p := New(4)
	defer p.Close()
	parallel := ClusterStripes(th, p)

	if len(parallel) != len(sequential) {
		t.Fatalf("parallel produced %d clusters, sequential produced %d", len(parallel), len(sequential))
	}

	totalSeq, totalPar := 0, 0
	for _, c := range sequential {
		totalSeq += len(c.Samples)
	}
	for _, c := range parallel {
		totalPar += len(c.Samples)
	}
	if totalSeq != totalPar {
		t.Errorf("parallel collected %d edge samples, sequential collected %d", totalPar, totalSeq)
	}
}

func TestParallelDecodeFindsRegisteredFamily(t *testing.T) {
	f, err := family.New("tag16h5")
	if err != nil {
		t.Fatalf("family.New failed: %v", err)
	}

	img, err := imagebuf.NewImage8(64, 64)
	if err != nil {
		t.Fatalf("NewImage8 failed: %v", err)
	}
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	corners := [4][2]float64{{0, 0}, {64, 0}, {64, 64}, {0, 64}}
	h, err := quad.FitHomography(corners)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}
	q := &quad.Quad{Corners: corners, H: h}
	th := threshold.Adaptive(img, threshold.DefaultTileSize, threshold.DefaultMinContrast)

	p := New(2)
	defer p.Close()

	jobs := ParallelDecode([]*quad.Quad{q}, []*family.TagFamily{f}, img, th, p)
	// A blank white quad never decodes against any family; this exercises
	// the "no family matches" path without asserting a spurious decode.
	if len(jobs) != 0 {
		t.Errorf("got %d successful decodes on a blank quad, want 0", len(jobs))
	}
}
