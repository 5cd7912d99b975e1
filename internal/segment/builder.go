package segment

import (
	"math"

	"github.com/go-apriltag/apriltag/internal/threshold"
)

// Config controls cluster acceptance and splitting thresholds (spec.md §4.2).
type Config struct {
	MinClusterPixels int
	MaxLineMSE       float64
	MaxSplitDepth    int // producing at most 2^MaxSplitDepth segments per cluster
}

// DefaultConfig returns the spec.md defaults: min_cluster_pixels=24, a
// generous MSE ceiling, and a split depth of 2 (up to 4 segments/cluster).
func DefaultConfig() Config {
	return Config{
		MinClusterPixels: 24,
		MaxLineMSE:       4.0,
		MaxSplitDepth:    2,
	}
}

// Build runs component labeling, clustering, and recursive line-segment
// splitting over a thresholded image, returning the flat list of fitted
// segments (spec.md §4.2).
func Build(t *threshold.Image, cfg Config) []Segment {
	clusters := NewComponentLabeler(t).Clusters()
	return BuildFromClusters(clusters, cfg)
}

// BuildFromClusters runs cluster acceptance and recursive line-segment
// splitting over an already-computed cluster list, letting callers (e.g.
// internal/pool's stripe-parallel dispatch) supply clusters built from a
// merged, concurrently-constructed UnionFind instead of Build's
// single-threaded NewComponentLabeler pass.
func BuildFromClusters(clusters []*Cluster, cfg Config) []Segment {
	var segments []Segment
	for clusterIdx, c := range clusters {
		if len(c.Samples) < cfg.MinClusterPixels {
			continue
		}
		splitCluster(c, clusterIdx, cfg, 0, &segments)
	}
	return segments
}

// splitCluster fits a line to c; if the residual exceeds the MSE ceiling
// and the depth budget allows, it finds the point of maximum deviation and
// recursively splits the cluster there (Douglas-Peucker-like), otherwise it
// emits one segment.
func splitCluster(c *Cluster, clusterIdx int, cfg Config, depth int, out *[]Segment) {
	fit := FitLine(c)
	if fit.MSE <= cfg.MaxLineMSE || depth >= cfg.MaxSplitDepth || len(c.Samples) < 2*cfg.MinClusterPixels/3 {
		emitSegment(c, clusterIdx, fit, out)
		return
	}

	nx, ny := -fit.Dy, fit.Dx
	worstIdx := -1
	worstDev := 0.0
	for i, s := range c.Samples {
		px := s.X - fit.Cx
		py := s.Y - fit.Cy
		r := math.Abs(px*nx + py*ny)
		if r > worstDev {
			worstDev = r
			worstIdx = i
		}
	}
	if worstIdx < 0 {
		emitSegment(c, clusterIdx, fit, out)
		return
	}
	splitT := (c.Samples[worstIdx].X-fit.Cx)*fit.Dx + (c.Samples[worstIdx].Y-fit.Cy)*fit.Dy

	var left, right Cluster
	for _, s := range c.Samples {
		t := (s.X-fit.Cx)*fit.Dx + (s.Y-fit.Cy)*fit.Dy
		if t <= splitT {
			left.add(s)
		} else {
			right.add(s)
		}
	}
	if len(left.Samples) < cfg.MinClusterPixels || len(right.Samples) < cfg.MinClusterPixels {
		emitSegment(c, clusterIdx, fit, out)
		return
	}
	splitCluster(&left, clusterIdx, cfg, depth+1, out)
	splitCluster(&right, clusterIdx, cfg, depth+1, out)
}

func emitSegment(c *Cluster, clusterIdx int, fit LineFit, out *[]Segment) {
	x0, y0, x1, y1 := Endpoints(c, fit)
	if x0 == x1 && y0 == y1 {
		return
	}
	gx, gy := averageGradient(c)
	*out = append(*out, Segment{
		X0: x0, Y0: y0, X1: x1, Y1: y1,
		Gx: gx, Gy: gy,
		ParentCluster: clusterIdx,
		Index:         len(*out),
		MSE:           fit.MSE,
	})
}
