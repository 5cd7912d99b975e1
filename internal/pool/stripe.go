package pool

import (
	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/decode"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/segment"
	"github.com/go-apriltag/apriltag/internal/threshold"
	"github.com/go-apriltag/apriltag/internal/unionfind"
)

// stripeBounds splits [0, height) into at most n roughly-equal row ranges.
func stripeBounds(height, n int) []int {
	if n > height {
		n = height
	}
	if n < 1 {
		n = 1
	}
	bounds := make([]int, n+1)
	for i := 0; i <= n; i++ {
		bounds[i] = i * height / n
	}
	return bounds
}

// ClusterStripes dispatches the component-labeling union-find pass across
// p's workers by horizontal stripe, merges the deferred stripe-boundary
// links single-threadedly, then runs the edge-sample collection pass over
// the merged structure (spec.md §5: "dispatch 4.2 ... across nthreads
// workers by horizontal stripe, with per-stripe union-finds merged at
// stripe boundaries").
func ClusterStripes(t *threshold.Image, p *Pool) []*segment.Cluster {
	bounds := stripeBounds(t.Height, p.Size())
	uf := unionfind.New(t.Width * t.Height)

	tasks := make([]func(), len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		y0, y1 := bounds[i], bounds[i+1]
		tasks[i] = func() { segment.UnionRows(t, uf, y0, y1) }
	}
	p.Run(tasks)

	for i := 1; i < len(bounds)-1; i++ {
		segment.MergeRowBoundary(t, uf, bounds[i])
	}

	return segment.NewComponentLabelerFromUnionFind(t, uf).Clusters()
}

// DecodeJob pairs a candidate quad with the outcome of decoding it against
// every registered family.
type DecodeJob struct {
	Quad   *quad.Quad
	Result *decode.Result
}

// ParallelDecode decodes each candidate quad against every family in
// families concurrently across p's workers, keeping (for each quad) the
// first family that decodes successfully in family registration order,
// matching spec.md §6's "detection attempts each in order" and §5's
// "Decoding is embarrassingly parallel per quad". Quads that fail to
// decode against any family are omitted. Results preserve the input quad
// order (not completion order), matching the deterministic ordering
// invariant (spec.md §8 property 5) independent of worker count.
func ParallelDecode(quads []*quad.Quad, families []*family.TagFamily, img *imagebuf.Image8, th *threshold.Image, p *Pool) []DecodeJob {
	jobs := make([]DecodeJob, len(quads))
	tasks := make([]func(), len(quads))
	for i, q := range quads {
		i, q := i, q
		tasks[i] = func() {
			for _, f := range families {
				res, err := decode.Decode(q, f, img, th)
				if err == nil {
					jobs[i] = DecodeJob{Quad: q, Result: res}
					return
				}
			}
		}
	}
	p.Run(tasks)

	out := make([]DecodeJob, 0, len(jobs))
	for _, j := range jobs {
		if j.Result != nil {
			out = append(out, j)
		}
	}
	return out
}
