package apriltag

import "testing"

func TestSortDetectionsOrdersByIDThenCenter(t *testing.T) {
	ds := []Detection{
		{ID: 2, Center: [2]float64{5, 5}},
		{ID: 1, Center: [2]float64{10, 1}},
		{ID: 1, Center: [2]float64{1, 1}},
	}
	sortDetections(ds)

	if ds[0].ID != 1 || ds[0].Center[0] != 1 {
		t.Errorf("ds[0] = %+v, want id 1, center.x 1", ds[0])
	}
	if ds[1].ID != 1 || ds[1].Center[0] != 10 {
		t.Errorf("ds[1] = %+v, want id 1, center.x 10", ds[1])
	}
	if ds[2].ID != 2 {
		t.Errorf("ds[2] = %+v, want id 2", ds[2])
	}
}

func TestDedupDetectionsKeepsHigherMargin(t *testing.T) {
	ds := []Detection{
		{ID: 7, Center: [2]float64{100, 100}, DecisionMargin: 3},
		{ID: 7, Center: [2]float64{101, 100}, DecisionMargin: 9},
		{ID: 7, Center: [2]float64{500, 500}, DecisionMargin: 1}, // far away, distinct
	}
	got := dedupDetections(ds, 5.0)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	var near *Detection
	for i := range got {
		if got[i].Center[0] < 200 {
			near = &got[i]
		}
	}
	if near == nil {
		t.Fatalf("expected one detection near (100,100)")
	}
	if near.DecisionMargin != 9 {
		t.Errorf("kept margin = %f, want 9 (the higher of the two duplicates)", near.DecisionMargin)
	}
}

func TestDedupDetectionsDifferentIDsNeverMerge(t *testing.T) {
	ds := []Detection{
		{ID: 1, Center: [2]float64{0, 0}, DecisionMargin: 1},
		{ID: 2, Center: [2]float64{0, 0}, DecisionMargin: 1},
	}
	got := dedupDetections(ds, 5.0)
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2 (same center, different ids)", len(got))
	}
}

func TestDetectionListReleaseClearsSlice(t *testing.T) {
	dl := &DetectionList{Detections: []Detection{{ID: 1}}}
	dl.Release()
	if dl.Detections != nil {
		t.Errorf("Detections = %v, want nil after Release", dl.Detections)
	}
	dl.Release() // must be safe to call twice
}

func TestDetectionListReleaseNilReceiver(t *testing.T) {
	var dl *DetectionList
	dl.Release() // must not panic
}
