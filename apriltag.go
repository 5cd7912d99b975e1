package apriltag

import (
	"log"

	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/contour"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/pool"
	"github.com/go-apriltag/apriltag/internal/pose"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/refine"
	"github.com/go-apriltag/apriltag/internal/segment"
	"github.com/go-apriltag/apriltag/internal/telemetry"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

// Detector owns a pipeline configuration, a worker pool, a set of
// registered families, and per-call scratch (spec.md §3): "a Detector owns
// its configuration, pool, and family registrations (borrowed, not
// copied)."
type Detector struct {
	Config Config

	pool     *pool.Pool
	families []*family.TagFamily
	profiler *telemetry.Profiler
	logger   *log.Logger
	sink     DebugSink
}

// NewDetector builds a Detector from cfg, starting its worker pool and
// profiler. Returns a *ConfigError if cfg fails Validate.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}
	sink := cfg.DebugSink
	if sink == nil {
		sink = NullSink{}
	}
	return &Detector{
		Config:   cfg,
		pool:     pool.New(cfg.NThreads),
		profiler: telemetry.NewProfiler(),
		logger:   logger,
		sink:     sink,
	}, nil
}

// AddFamily registers f for decoding, applying Config.Border as a
// per-family override (spec.md §6: detector_add_family; "multiple
// families supported; detection attempts each in order").
func (d *Detector) AddFamily(f *family.TagFamily) error {
	withBorder, err := f.WithBorder(d.Config.Border)
	if err != nil {
		return &ConfigError{Err: err}
	}
	d.families = append(d.families, withBorder)
	return nil
}

// Families returns the families currently registered on d, in
// detection-attempt order.
func (d *Detector) Families() []*family.TagFamily {
	out := make([]*family.TagFamily, len(d.families))
	copy(out, d.families)
	return out
}

// Stats summarises the most recent Detect call (SPEC_FULL.md's
// supplemented apriltag.Stats accessor for spec.md §7's "counted into the
// profiler when debug is set").
type Stats struct {
	StageDurations map[string]float64 // seconds, by stage name
	Rejections     map[string]int     // by RejectReason
}

// Stats returns the profiler snapshot from the most recent Detect call.
func (d *Detector) Stats() Stats {
	durations := make(map[string]float64)
	for stage, elapsed := range d.profiler.StageDurations() {
		durations[stage] = elapsed.Seconds()
	}
	return Stats{StageDurations: durations, Rejections: d.profiler.RejectCounts()}
}

// Close stops the worker pool. The Detector must not be used after Close.
func (d *Detector) Close() { d.pool.Close() }

// minImageSize returns the smallest side length any registered family can
// be decoded within (spec.md §6: "width and height >= 2*(d+2*border)+8"),
// taking the minimum across families so a caller isn't rejected by a
// larger family's requirement when a smaller one would do. Falls back to
// the 36-bit families' geometry (d=6) when no family is registered yet.
func (d *Detector) minImageSize() int {
	best := -1
	for _, f := range d.families {
		need := 2*(f.D+2*f.Border) + 8
		if best < 0 || need < best {
			best = need
		}
	}
	if best < 0 {
		best = 2*(6+2*1) + 8
	}
	return best
}

// Detect runs the full pipeline (spec.md §4.10) and returns the caller-
// owned DetectionList. The returned list is always non-nil; on an
// *InputError it is empty.
func (d *Detector) Detect(img *imagebuf.Image8) (*DetectionList, error) {
	if img == nil {
		return &DetectionList{}, &InputError{Err: ErrNilImage}
	}
	minSize := d.minImageSize()
	if img.Width < minSize || img.Height < minSize {
		return &DetectionList{}, &InputError{Err: ErrImageTooSmall}
	}

	d.profiler.Reset()

	decimateFactor := int(d.Config.QuadDecimate)

	working := img
	if decimateFactor > 1 {
		dec, err := imagebuf.Decimate(img, decimateFactor)
		if err != nil {
			return &DetectionList{}, &ResourceError{Err: err}
		}
		working = dec
		if d.Config.Debug {
			d.sink.EmitImage("decimate", working)
		}
	}
	if d.Config.QuadSigma != 0 {
		blurred, err := imagebuf.Blur(working, d.Config.QuadSigma)
		if err != nil {
			return &DetectionList{}, &ResourceError{Err: err}
		}
		working = blurred
		if d.Config.Debug {
			d.sink.EmitImage("blur", working)
		}
	}

	thDone := d.profiler.StageTimer(telemetry.StageThreshold)
	th := threshold.Adaptive(working, threshold.DefaultTileSize, threshold.DefaultMinContrast)
	thDone()
	if d.Config.Debug {
		d.sink.EmitImage("threshold", thresholdDebugImage(th))
	}

	quads := d.buildQuads(th)
	if d.Config.Debug {
		d.logger.Printf("apriltag: %d candidate quads after assembly", len(quads))
	}

	decodeDone := d.profiler.StageTimer(telemetry.StageDecode)
	jobs := pool.ParallelDecode(quads, d.families, working, th, d.pool)
	decodeDone()
	if rejected := len(quads) - len(jobs); rejected > 0 {
		for i := 0; i < rejected; i++ {
			d.profiler.RecordReject(string(RejectDecodeFailed))
		}
	}

	byName := make(map[string]*family.TagFamily, len(d.families))
	for _, f := range d.families {
		byName[f.Name] = f
	}

	refineDone := d.profiler.StageTimer(telemetry.StageRefine)
	detections := make([]Detection, 0, len(jobs))
	for _, job := range jobs {
		detections = append(detections, d.buildDetection(job, byName, working, th))
	}
	refineDone()

	if d.Config.Intrinsics != nil && d.Config.TagSize > 0 {
		poseDone := d.profiler.StageTimer(telemetry.StagePose)
		for i := range detections {
			detections[i].Pose = d.computePose(&detections[i])
		}
		poseDone()
	}

	detections = dedupDetections(detections, d.Config.DedupEpsilon)
	sortDetections(detections)

	if d.Config.Debug {
		for reason, n := range d.profiler.RejectCounts() {
			d.logger.Printf("apriltag: rejected %d candidates: %s", n, reason)
		}
	}

	return &DetectionList{Detections: detections}, nil
}

// buildQuads runs either the gradient-clustering or contour variant
// (spec.md §4.2-§4.4), selected by Config.UseContours, dispatching
// component labeling across the worker pool by horizontal stripe when it
// has more than one worker (spec.md §5).
func (d *Detector) buildQuads(th *threshold.Image) []*quad.Quad {
	if d.Config.UseContours {
		quadDone := d.profiler.StageTimer(telemetry.StageQuad)
		defer quadDone()
		return contour.FindQuads(th)
	}

	segDone := d.profiler.StageTimer(telemetry.StageSegment)
	var clusters []*segment.Cluster
	if d.pool.Size() > 1 {
		clusters = pool.ClusterStripes(th, d.pool)
	} else {
		clusters = segment.NewComponentLabeler(th).Clusters()
	}
	segs := segment.BuildFromClusters(clusters, d.Config.segmentConfig())
	segDone()

	quadDone := d.profiler.StageTimer(telemetry.StageQuad)
	defer quadDone()

	cycles := quad.FindCycles(segs, d.Config.graphConfig())
	var quads []*quad.Quad
	for _, cyc := range cycles {
		q, err := quad.FromCycle(segs, cyc)
		if err != nil {
			d.profiler.RecordReject(string(RejectDegenerateQuad))
			continue
		}
		if !quad.Accept(q, d.Config.filterConfig()) {
			d.profiler.RecordReject(string(RejectQuadFilter))
			continue
		}
		quads = append(quads, q)
	}
	return quad.DedupAssembly(quads)
}

// buildDetection applies refine_decode (against the quad's original
// homography, so the perturbation search samples the same grid the
// decode did) then canonicalises the corner order to the winning
// rotation, then applies refine_edges to the now-canonical quad, and
// finally maps corners back through decimation (spec.md §4.7, §4.10 step
// 6: "Refine, dedupe, map corners back through any decimation, emit").
func (d *Detector) buildDetection(job pool.DecodeJob, byName map[string]*family.TagFamily, working *imagebuf.Image8, th *threshold.Image) Detection {
	f := byName[job.Result.FamilyName]
	res := job.Result
	if d.Config.RefineDecode {
		res = refine.Decode(job.Quad, f, working, th, res)
	}

	job.Quad.RotateCorners(res.Rotation)
	geom := job.Quad
	if d.Config.RefineEdges {
		geom = refine.Edges(job.Quad, working)
	}

	cx, cy := geom.Center()
	det := Detection{
		Family:         f,
		ID:             res.ID,
		Hamming:        res.Hamming,
		Goodness:       goodness(geom),
		DecisionMargin: res.DecisionMargin,
		H:              geom.H,
		Center:         [2]float64{cx, cy},
		Corners:        geom.Corners,
	}

	if decimateFactor := int(d.Config.QuadDecimate); decimateFactor > 1 {
		// Must match the integer factor imagebuf.Decimate actually applied
		// in Detect (Decimate truncates QuadDecimate to an int and is a
		// no-op below 2), not the raw float config value, or a
		// non-integer QuadDecimate would scale corners by a factor the
		// image was never decimated by.
		factor := float64(decimateFactor)
		for i := range det.Corners {
			det.Corners[i][0] *= factor
			det.Corners[i][1] *= factor
		}
		det.Center[0] *= factor
		det.Center[1] *= factor
		det.H = scaleHomography(det.H, factor)
	}
	return det
}

func (d *Detector) computePose(det *Detection) *pose.Transform {
	tr, err := pose.FromHomography(det.H, *d.Config.Intrinsics, d.Config.TagSize)
	if err != nil {
		return nil
	}
	if d.Config.RefinePose {
		tr = pose.RefinePose(tr, det.Corners, *d.Config.Intrinsics, d.Config.TagSize)
	}
	return tr
}

// PoseFromDetection decomposes det's homography into a rigid pose given
// intrinsics and the physical tag edge length, applying refine_pose's
// Gauss-Newton reprojection refinement when Config.RefinePose is set
// (spec.md §6: "pose_from_detection(Detection, fx, fy, cx, cy, tag_size)
// -> Transform4x4").
func (d *Detector) PoseFromDetection(det Detection, intr Intrinsics, tagSize float64) (*Transform, error) {
	tr, err := pose.FromHomography(det.H, intr, tagSize)
	if err != nil {
		return nil, err
	}
	if d.Config.RefinePose {
		tr = pose.RefinePose(tr, det.Corners, intr, tagSize)
	}
	return tr, nil
}

func goodness(q *quad.Quad) float64 {
	perim := q.Perimeter()
	if perim == 0 {
		return 0
	}
	// Normalised so a perfect square scores 1.0: area/perimeter^2 peaks at
	// 1/16 for a square, 0 for a degenerate sliver (spec.md §9: "goodness
	// ... an opaque non-negative monotonic quality measure whose relative
	// ordering tests can assert, not its absolute values").
	return 16 * q.Area() / (perim * perim)
}

func scaleHomography(h [9]float64, factor float64) [9]float64 {
	out := h
	out[0] *= factor
	out[1] *= factor
	out[2] *= factor
	out[3] *= factor
	out[4] *= factor
	out[5] *= factor
	return out
}
