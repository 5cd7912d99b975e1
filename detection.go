package apriltag

import (
	"math"
	"sort"

	"github.com/go-apriltag/apriltag/family"
)

// Detection is one decoded tag (spec.md §3, §6's "bit-exact naming":
// family, id, hamming, goodness, decision_margin, H[3][3] row-major,
// c[2] center, p[4][2] corners). Immutable after Detect emits it.
type Detection struct {
	Family         *family.TagFamily
	ID             int
	Hamming        int
	Goodness       float64
	DecisionMargin float64
	H              [9]float64 // row-major 3x3
	Center         [2]float64
	Corners        [4][2]float64 // CCW, Corners[0] is the tag's canonical top-left

	// Pose is set only when Detect was called with Config.Intrinsics and
	// Config.TagSize both present (spec.md §4.9's "optional, external
	// input"); otherwise nil. Use Detector.PoseFromDetection to compute it
	// on demand with different intrinsics.
	Pose *Transform
}

// DetectionList is the caller-owned result of one Detect call (spec.md
// §3: "Each detect call produces a fresh detection list that the caller
// owns and must release").
type DetectionList struct {
	Detections []Detection
}

// Release returns the list's backing storage. It models the language-
// neutral API's explicit detections_destroy as a Go no-op-safe method:
// Go is garbage collected, so nothing here is required for correctness;
// it only drops the list's reference to its slice. There is no
// per-detector scratch arena: Detect allocates fresh scratch on every
// call. Safe to call more than once.
func (dl *DetectionList) Release() {
	if dl == nil {
		return
	}
	dl.Detections = nil
}

// sortDetections orders detections by (id ascending, center.y ascending,
// center.x ascending), spec.md §5's determinism guarantee: "the emitted
// detection list is sorted deterministically ... so results are stable
// under thread-count changes."
func sortDetections(ds []Detection) {
	sort.Slice(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Center[1] != b.Center[1] {
			return a.Center[1] < b.Center[1]
		}
		return a.Center[0] < b.Center[0]
	})
}

// dedupDetections implements spec.md §4.8: two detections with the same
// id and centers within eps of each other keep only the one with the
// higher decision margin.
func dedupDetections(ds []Detection, eps float64) []Detection {
	kept := make([]Detection, 0, len(ds))
	for _, d := range ds {
		dup := -1
		for i, k := range kept {
			if k.ID != d.ID {
				continue
			}
			if math.Hypot(k.Center[0]-d.Center[0], k.Center[1]-d.Center[1]) <= eps {
				dup = i
				break
			}
		}
		if dup < 0 {
			kept = append(kept, d)
			continue
		}
		if d.DecisionMargin > kept[dup].DecisionMargin {
			kept[dup] = d
		}
	}
	return kept
}
