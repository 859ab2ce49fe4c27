package highlight

import (
	"math"
	"testing"

	"github.com/scenedeck/scenedeck/internal/timeline"
)

func testTimeline(t *testing.T, duration float64) timeline.Timeline {
	t.Helper()
	tl, err := timeline.New("v1", []timeline.Scene{
		{ID: "s1", StartTime: 0, EndTime: 10},
		{ID: "s2", StartTime: 10, EndTime: 25, Tags: []string{"kiss"}},
		{ID: "s3", StartTime: 25, EndTime: 40},
	}, duration)
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

// Scenario: 3 scenes [(0,10),(10,25),(25,40)], duration 40, no criteria.
func TestResolve_NoCriteria(t *testing.T) {
	segments := Resolve(testTimeline(t, 40), nil)

	if len(segments) != 3 {
		t.Fatalf("len(segments) = %d, want 3", len(segments))
	}

	wantWidths := []float64{0.25, 0.375, 0.375}
	for i, seg := range segments {
		if !seg.Highlighted {
			t.Errorf("segment %d highlighted = false, want true", i)
		}
		if math.Abs(seg.Width-wantWidths[i]) > 1e-9 {
			t.Errorf("segment %d width = %f, want %f", i, seg.Width, wantWidths[i])
		}
		if seg.ColorIndex != i%PaletteSize {
			t.Errorf("segment %d color = %d, want %d", i, seg.ColorIndex, i%PaletteSize)
		}
	}
}

func TestResolve_WidthSum(t *testing.T) {
	sum := func(segments []Segment) float64 {
		total := 0.0
		for _, s := range segments {
			total += s.Width
		}
		return total
	}

	// Duration equals the last scene's end: widths sum to exactly 1.
	if got := sum(Resolve(testTimeline(t, 40), nil)); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("width sum = %f, want 1.0", got)
	}

	// Trailing unanalyzed tail: the sum stays below 1.
	if got := sum(Resolve(testTimeline(t, 50), nil)); got >= 1.0 {
		t.Errorf("width sum with tail = %f, want < 1.0", got)
	}
}

func TestResolve_TagMode(t *testing.T) {
	tl := testTimeline(t, 40)
	c := ByTag("kiss")

	for i := 0; i < 2; i++ { // repeated resolution is stable
		segments := Resolve(tl, c)
		for _, seg := range segments {
			want := seg.Scene.ID == "s2"
			if seg.Highlighted != want {
				t.Errorf("scene %s highlighted = %v, want %v", seg.Scene.ID, seg.Highlighted, want)
			}
		}
		if len(segments) != 3 {
			t.Fatalf("dimmed scenes must not be removed, got %d segments", len(segments))
		}
	}
}

func TestResolve_SceneIDMode(t *testing.T) {
	segments := Resolve(testTimeline(t, 40), BySceneIDs([]string{"s1", "s3"}))

	want := map[string]bool{"s1": true, "s2": false, "s3": true}
	for _, seg := range segments {
		if seg.Highlighted != want[seg.Scene.ID] {
			t.Errorf("scene %s highlighted = %v, want %v", seg.Scene.ID, seg.Highlighted, want[seg.Scene.ID])
		}
	}
}

// Scenario: empty scene list, duration 0 renders nothing without panicking.
func TestResolve_EmptyTimeline(t *testing.T) {
	if got := Resolve(timeline.Empty("v1"), nil); got != nil {
		t.Errorf("Resolve(empty) = %v, want nil", got)
	}
	if got := Resolve(timeline.Empty("v1"), ByTag("kiss")); got != nil {
		t.Errorf("Resolve(empty, tag) = %v, want nil", got)
	}
}

func TestNavigable(t *testing.T) {
	tl := testTimeline(t, 40)

	if got := Navigable(tl, nil); len(got) != 3 {
		t.Errorf("Navigable(nil) = %d scenes, want 3 (full list)", len(got))
	}

	got := Navigable(tl, ByTag("kiss"))
	if len(got) != 1 || got[0].ID != "s2" {
		t.Errorf("Navigable(tag=kiss) = %v, want [s2]", got)
	}

	if got := Navigable(tl, ByTag("missing")); len(got) != 0 {
		t.Errorf("Navigable(tag=missing) = %d scenes, want 0", len(got))
	}
}

func TestCriteriaMatches_NilCriteria(t *testing.T) {
	var c *Criteria
	if !c.Matches(timeline.Scene{ID: "s1"}) {
		t.Error("nil criteria must match every scene")
	}
}
