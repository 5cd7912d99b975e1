// Package telemetry implements the per-detector time profiler and rejection
// counters described in spec.md §5 and §9 ("time profiler is effectively
// global per detector; thread-local accumulation merged at stage
// boundaries"), backed by github.com/prometheus/client_golang the way the
// retrieval pack's MeKo-Tech/pogo manifest backs its own per-stage timing
// and rejection counting. A Profiler registers its own private
// prometheus.Registry rather than prometheus.DefaultRegisterer, so library
// consumers who never construct one pay nothing and multiple Detectors in
// the same process never collide over metric names.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names for the per-pipeline-stage duration histogram (spec.md §5).
const (
	StageThreshold = "threshold"
	StageSegment   = "segment"
	StageQuad      = "quad"
	StageDecode    = "decode"
	StageRefine    = "refine"
	StagePose      = "pose"
)

// Profiler accumulates per-stage timing and per-reason rejection counts for
// one Detector, both as prometheus series (cumulative across every Detect
// call, for export) and as a plain snapshot scoped to the most recent call
// (for apriltag.Stats).
type Profiler struct {
	Registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	rejections    *prometheus.CounterVec

	mu           sync.Mutex
	stageElapsed map[string]time.Duration
	rejectCounts map[string]int
}

// NewProfiler builds a Profiler with its own registry and registers its
// collectors into it. Registration happens here, not at package init, so a
// program that never calls NewProfiler never touches prometheus at all.
func NewProfiler() *Profiler {
	reg := prometheus.NewRegistry()
	p := &Profiler{
		Registry: reg,
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "apriltag",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each detection pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apriltag",
			Name:      "candidate_rejections_total",
			Help:      "Count of rejected candidate quads, by reason.",
		}, []string{"reason"}),
		stageElapsed: make(map[string]time.Duration),
		rejectCounts: make(map[string]int),
	}
	reg.MustRegister(p.stageDuration, p.rejections)
	return p
}

// StageTimer starts timing stage and returns a function to call when the
// stage completes. The elapsed time is observed into the stage's histogram
// and folded into the call-scoped snapshot returned by StageDurations.
func (p *Profiler) StageTimer(stage string) func() {
	start := time.Now()
	return func() {
		elapsed := time.Since(start)
		p.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
		p.mu.Lock()
		p.stageElapsed[stage] += elapsed
		p.mu.Unlock()
	}
}

// RecordReject increments the rejection counter for reason, both as a
// prometheus series and in the call-scoped snapshot.
func (p *Profiler) RecordReject(reason string) {
	p.rejections.WithLabelValues(reason).Inc()
	p.mu.Lock()
	p.rejectCounts[reason]++
	p.mu.Unlock()
}

// StageDurations returns a copy of the accumulated per-stage time since the
// last Reset.
func (p *Profiler) StageDurations() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.stageElapsed))
	for k, v := range p.stageElapsed {
		out[k] = v
	}
	return out
}

// RejectCounts returns a copy of the accumulated rejection counts since the
// last Reset.
func (p *Profiler) RejectCounts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.rejectCounts))
	for k, v := range p.rejectCounts {
		out[k] = v
	}
	return out
}

// Reset clears the call-scoped snapshot at the start of a new Detect call.
// The underlying prometheus series are untouched; those stay cumulative
// across the process lifetime like any exporter metric.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.stageElapsed {
		delete(p.stageElapsed, k)
	}
	for k := range p.rejectCounts {
		delete(p.rejectCounts, k)
	}
}
