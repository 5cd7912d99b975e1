package apriltag

import (
	"io"
	"log"

	"github.com/go-apriltag/apriltag/internal/pose"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/segment"
)

// Intrinsics is a pinhole camera's focal lengths and principal point, the
// external input to the optional pose-solving stage (spec.md §4.9, §8).
type Intrinsics = pose.Intrinsics

// Transform is a 4x4 homogeneous rigid pose with solver diagnostics
// (spec.md §7: "Pose solver reports non-convergence as a status flag on
// the transform").
type Transform = pose.Transform

// Config holds a Detector's tunables, following the teacher's
// BaseOptions/JPEGBaselineParameters shape: a plain struct with documented
// defaults and a Validate method, rather than a builder or functional
// options (spec.md §3, §6).
type Config struct {
	// QuadDecimate is the integer downsampling factor applied before
	// segmentation; 1 disables decimation. Must be >= 1.
	QuadDecimate float64
	// QuadSigma is the Gaussian blur sigma in pixels; negative sharpens
	// (unsharp mask) instead.
	QuadSigma float64
	// NThreads sizes the worker pool dispatching stripe-parallel
	// component labeling and per-quad decode. Must be >= 1.
	NThreads int

	RefineEdges  bool
	RefineDecode bool
	RefinePose   bool
	UseContours  bool
	Debug        bool

	// Border overrides each added family's border width; every family's
	// WithBorder is applied with this value when AddFamily runs.
	Border int

	MinClusterPixels int
	MaxLineMSE       float64
	MaxSplitDepth    int

	MinArea      float64
	MinPerimeter float64
	MaxPerimeter float64
	MaxAspect    float64

	EpsJoin     float64
	ThetaMinDeg float64
	ThetaMaxDeg float64

	// DedupEpsilon is the pixel radius within which two same-id detection
	// centers are considered the same physical tag (spec.md §4.8's
	// "ε_dedup"); the lower-decision-margin one is discarded.
	DedupEpsilon float64

	// Intrinsics and TagSize, when both set, make Detect compute a Pose
	// for every detection in addition to the standalone PoseFromDetection
	// call (spec.md §4.9 "optional, external input: intrinsics, tag size").
	Intrinsics *Intrinsics
	TagSize    float64

	// Logger receives stage-boundary and rejection messages when Debug is
	// set; defaults to a discard logger, matching the teacher's sparing
	// use of the standard log package.
	Logger *log.Logger
	// DebugSink receives per-stage debug images when Debug is set;
	// defaults to NullSink.
	DebugSink DebugSink
}

// DefaultConfig returns the spec.md §6 defaults.
func DefaultConfig() Config {
	filter := quad.DefaultFilterConfig()
	graph := quad.DefaultGraphConfig()
	seg := segment.DefaultConfig()
	return Config{
		QuadDecimate: 1.0,
		QuadSigma:    0.0,
		NThreads:     1,
		RefineEdges:  true,
		RefineDecode: false,
		RefinePose:   false,
		UseContours:  false,
		Debug:        false,
		Border:       1,

		MinClusterPixels: seg.MinClusterPixels,
		MaxLineMSE:       seg.MaxLineMSE,
		MaxSplitDepth:    seg.MaxSplitDepth,

		MinArea:      filter.MinArea,
		MinPerimeter: filter.MinPerimeter,
		MaxPerimeter: filter.MaxPerimeter,
		MaxAspect:    filter.MaxAspect,

		EpsJoin:     graph.EpsJoin,
		ThetaMinDeg: graph.ThetaMinDeg,
		ThetaMaxDeg: graph.ThetaMaxDeg,

		DedupEpsilon: 5.0,
	}
}

// Validate checks the ConfigError conditions spec.md §7 names explicitly.
func (c *Config) Validate() error {
	if c.QuadDecimate < 1 {
		return &ConfigError{Err: ErrInvalidDecimate}
	}
	if c.NThreads < 1 {
		return &ConfigError{Err: ErrNegativeThreads}
	}
	if c.Border < 0 {
		return &ConfigError{Err: ErrInvalidBorder}
	}
	if c.DedupEpsilon < 0 {
		return &ConfigError{Err: ErrInvalidDedupEps}
	}
	return nil
}

func (c *Config) segmentConfig() segment.Config {
	return segment.Config{
		MinClusterPixels: c.MinClusterPixels,
		MaxLineMSE:       c.MaxLineMSE,
		MaxSplitDepth:    c.MaxSplitDepth,
	}
}

func (c *Config) filterConfig() quad.FilterConfig {
	return quad.FilterConfig{
		MinArea:      c.MinArea,
		MinPerimeter: c.MinPerimeter,
		MaxPerimeter: c.MaxPerimeter,
		MaxAspect:    c.MaxAspect,
	}
}

func (c *Config) graphConfig() quad.GraphConfig {
	return quad.GraphConfig{
		EpsJoin:     c.EpsJoin,
		ThetaMinDeg: c.ThetaMinDeg,
		ThetaMaxDeg: c.ThetaMaxDeg,
	}
}

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }
