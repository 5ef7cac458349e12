package ocr

import (
	"math"
	"testing"
)

func TestMergeOverlapping_Transitive(t *testing.T) {
	raw := []RawRegion{
		{Box: Box{0, 0, 10, 10}, Score: 0.5},
		{Box: Box{18, 0, 30, 10}, Score: 0.7},
		{Box: Box{8, 0, 20, 10}, Score: 0.9},
	}

	got := MergeOverlapping(raw)
	if len(got) != 1 {
		t.Fatalf("Expected one merged region, got %d: %+v", len(got), got)
	}
	if got[0].Box != (Box{0, 0, 30, 10}) {
		t.Errorf("Expected [0,0,30,10], got %v", got[0].Box)
	}
	if got[0].Score != 0.9 {
		t.Errorf("Expected max score 0.9, got %v", got[0].Score)
	}
	if got[0].Members != 3 {
		t.Errorf("Expected 3 members, got %d", got[0].Members)
	}
}

func TestMergeOverlapping_OrderIndependent(t *testing.T) {
	a := RawRegion{Box: Box{0, 0, 10, 10}, Score: 0.5}
	b := RawRegion{Box: Box{8, 0, 20, 10}, Score: 0.6}
	c := RawRegion{Box: Box{18, 0, 30, 10}, Score: 0.7}

	orders := [][]RawRegion{{a, b, c}, {a, c, b}, {c, a, b}, {b, c, a}}
	for _, order := range orders {
		got := MergeOverlapping(order)
		if len(got) != 1 || got[0].Box != (Box{0, 0, 30, 10}) {
			t.Errorf("Order %v merged to %+v", order, got)
		}
	}
}

func TestMergeOverlapping_DisjointStaySeparate(t *testing.T) {
	raw := []RawRegion{
		{Box: Box{0, 40, 50, 60}, Score: 0.4},
		{Box: Box{0, 0, 50, 20}, Score: 0.8},
		{Box: Box{60, 0, 90, 20}, Score: 0.6},
	}

	got := MergeOverlapping(raw)
	if len(got) != len(raw) {
		t.Fatalf("Expected %d regions, got %d", len(raw), len(got))
	}

	// Top to bottom, then left to right.
	expected := []Box{{0, 0, 50, 20}, {60, 0, 90, 20}, {0, 40, 50, 60}}
	for i, b := range expected {
		if got[i].Box != b {
			t.Errorf("Region %d: expected %v, got %v", i, b, got[i].Box)
		}
	}
}

func TestMergeOverlapping_Empty(t *testing.T) {
	got := MergeOverlapping(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
}

func TestDetectionReducer_FilterRescaleClamp(t *testing.T) {
	r := DetectionReducer{MinConfidence: DefaultDetectConfidence}
	out := &DetectionOutput{
		Boxes: []float32{
			10, 10, 50, 20, // kept
			0, 40, 20, 50, // below threshold
			-4, 60, 220, 70, // clamped to frame
		},
		Scores: []float32{0.9, 0.2, 0.3},
	}

	got := r.Reduce(out, 2, 100, 50)
	if len(got) != 2 {
		t.Fatalf("Expected 2 regions, got %d: %+v", len(got), got)
	}
	if got[0].Box != (Box{5, 5, 25, 10}) {
		t.Errorf("Expected rescaled [5,5,25,10], got %v", got[0].Box)
	}
	if got[1].Box != (Box{0, 30, 100, 35}) {
		t.Errorf("Expected clamped [0,30,100,35], got %v", got[1].Box)
	}
}

func TestDetectionReducer_Malformed(t *testing.T) {
	r := DetectionReducer{MinConfidence: DefaultDetectConfidence}
	nan := float32(math.NaN())

	tests := []struct {
		name  string
		out   *DetectionOutput
		scale float64
	}{
		{"nil output", nil, 1},
		{"empty output", &DetectionOutput{}, 1},
		{"box count mismatch", &DetectionOutput{Boxes: []float32{0, 0, 1}, Scores: []float32{0.9}}, 1},
		{"zero scale", &DetectionOutput{Boxes: []float32{0, 0, 10, 10}, Scores: []float32{0.9}}, 0},
		{"nan coordinates", &DetectionOutput{Boxes: []float32{nan, 0, 10, 10}, Scores: []float32{0.9}}, 1},
		{"nan score", &DetectionOutput{Boxes: []float32{0, 0, 10, 10}, Scores: []float32{nan}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Reduce(tt.out, tt.scale, 100, 100)
			if len(got) != 0 {
				t.Errorf("Expected no regions, got %+v", got)
			}
		})
	}
}

func TestDetectionReducer_SwappedCorners(t *testing.T) {
	r := DetectionReducer{MinConfidence: DefaultDetectConfidence}
	out := &DetectionOutput{Boxes: []float32{50, 20, 10, 10}, Scores: []float32{0.9}}

	got := r.Reduce(out, 1, 100, 100)
	if len(got) != 1 || got[0].Box != (Box{10, 10, 50, 20}) {
		t.Errorf("Expected normalized box, got %+v", got)
	}
}

func TestMergeOverlapping_SpanAbsorbsCoveredRegion(t *testing.T) {
	// Top bar and right bar form an L; the third box touches neither bar
	// but lies inside their combined span.
	raw := []RawRegion{
		{Box: Box{0, 0, 100, 10}, Score: 0.5},
		{Box: Box{90, 0, 100, 100}, Score: 0.6},
		{Box: Box{20, 40, 60, 60}, Score: 0.8},
	}

	got := MergeOverlapping(raw)
	if len(got) != 1 {
		t.Fatalf("Expected one region, got %d: %+v", len(got), got)
	}
	if got[0].Box != (Box{0, 0, 100, 100}) {
		t.Errorf("Expected [0,0,100,100], got %v", got[0].Box)
	}
	if got[0].Score != 0.8 || got[0].Members != 3 {
		t.Errorf("Expected score 0.8 and 3 members, got %v and %d", got[0].Score, got[0].Members)
	}

	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if got[i].Box.Overlaps(got[j].Box) {
				t.Errorf("Regions %v and %v overlap", got[i].Box, got[j].Box)
			}
		}
	}
}

func TestDetectionReducer_DropsBoxesOutsideFrame(t *testing.T) {
	r := DetectionReducer{MinConfidence: DefaultDetectConfidence}
	out := &DetectionOutput{
		Boxes: []float32{
			10, 10, 50, 20, // inside
			150, 10, 200, 20, // right of the frame
			10, -30, 50, -10, // above the frame
		},
		Scores: []float32{0.9, 0.9, 0.9},
	}

	got := r.Reduce(out, 1, 100, 100)
	if len(got) != 1 {
		t.Fatalf("Expected only the in-frame region, got %+v", got)
	}
	if got[0].Box != (Box{10, 10, 50, 20}) {
		t.Errorf("Unexpected region %v", got[0].Box)
	}
}
