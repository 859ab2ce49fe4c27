package player

import (
	"math"
	"testing"

	"github.com/scenedeck/scenedeck/internal/highlight"
	"github.com/scenedeck/scenedeck/internal/timeline"
)

func testTimeline(t *testing.T) timeline.Timeline {
	t.Helper()
	tl, err := timeline.New("v1", []timeline.Scene{
		{ID: "s1", StartTime: 0, EndTime: 10},
		{ID: "s2", StartTime: 10, EndTime: 25, Tags: []string{"kiss"}},
		{ID: "s3", StartTime: 25, EndTime: 40},
	}, 40)
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

func TestFraction(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		duration float64
		want     float64
		wantOK   bool
	}{
		{"midpoint", 20, 40, 0.5, true},
		{"start", 0, 40, 0, true},
		{"end", 40, 40, 1, true},
		{"beyond end clamped", 45, 40, 1, true},
		{"negative clamped", -1, 40, 0, true},
		{"zero duration suppressed", 10, 0, 0, false},
		{"negative duration suppressed", 10, -5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Fraction(tt.current, tt.duration)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Fraction(%f, %f) = (%f, %v), want (%f, %v)",
					tt.current, tt.duration, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// Round-trip law: seeking to fraction f then ticking at the seek target
// yields cursor fraction f again.
func TestSeekTickRoundTrip(t *testing.T) {
	s := NewSession("id", "f", "v.mp4", testTimeline(t), nil)
	s.SetDuration(40)

	for _, f := range []float64{0, 0.25, 0.5, 0.733, 1} {
		eff := s.Seek(f)
		if eff.SeekTo == nil {
			t.Fatalf("Seek(%f) issued no seek", f)
		}
		if eff.Autoplay {
			t.Errorf("passive seek must not force playback")
		}
		cur := s.Tick(*eff.SeekTo)
		if math.Abs(cur.Fraction-f) > 1e-9 {
			t.Errorf("round trip fraction = %f, want %f", cur.Fraction, f)
		}
	}
}

func TestSeek_ZeroDuration(t *testing.T) {
	s := NewSession("id", "f", "v.mp4", timeline.Empty("v1"), nil)
	if eff := s.Seek(0.5); eff.SeekTo != nil {
		t.Errorf("Seek on duration 0 = %+v, want no-op", eff)
	}
	if cur := s.Tick(3); cur.Visible {
		t.Error("cursor visible with duration 0")
	}
}

func TestNextScene_TimeBasedSearch(t *testing.T) {
	scenes := testTimeline(t).Scenes

	tests := []struct {
		name    string
		at      float64
		wantID  string
	}{
		{"from start", 0, "s2"},
		{"epsilon guards current start", 9.95, "s2"},
		{"mid second scene", 12, "s3"},
		{"past last start wraps to first", 30, "s1"},
		{"at end wraps to first", 40, "s1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextScene(scenes, tt.at)
			if !ok || got.ID != tt.wantID {
				t.Errorf("NextScene(%f) = (%s, %v), want %s", tt.at, got.ID, ok, tt.wantID)
			}
		})
	}

	if _, ok := NextScene(nil, 0); ok {
		t.Error("NextScene on empty subsequence must report no target")
	}
}

func TestPrevScene(t *testing.T) {
	scenes := testTimeline(t).Scenes

	if got, ok := PrevScene(scenes, 2); !ok || got.ID != "s2" {
		t.Errorf("PrevScene(2) = (%s, %v), want s2", got.ID, ok)
	}
	if _, ok := PrevScene(scenes, 0); ok {
		t.Error("PrevScene at index 0 must be a no-op")
	}
	if _, ok := PrevScene(scenes, -1); ok {
		t.Error("PrevScene with unknown index must be a no-op")
	}
}

func TestSession_PreviousNoopAtFirstScene(t *testing.T) {
	s := NewSession("id", "f", "v.mp4", testTimeline(t), nil)
	s.SetDuration(40)
	s.Tick(5) // inside the first scene

	if eff := s.Previous(); eff.SeekTo != nil {
		t.Errorf("Previous at first scene = %+v, want no seek", eff)
	}
}

func TestSession_NextResumesPlayback(t *testing.T) {
	s := NewSession("id", "f", "v.mp4", testTimeline(t), nil)
	s.SetDuration(40)
	s.Tick(2)

	eff := s.Next()
	if eff.SeekTo == nil || *eff.SeekTo != 10 || !eff.Autoplay {
		t.Errorf("Next = %+v, want seek to 10 with autoplay", eff)
	}
}

// Scenario: tag-mode criteria with one match; next from an unmatched
// position goes to the matching scene.
func TestSession_TagCriteriaNavigation(t *testing.T) {
	s := NewSession("id", "f", "v.mp4", testTimeline(t), highlight.ByTag("kiss"))

	eff := s.SetDuration(40)
	if eff.SeekTo == nil || *eff.SeekTo != 10 || !eff.Autoplay {
		t.Fatalf("auto-jump on metadata = %+v, want seek to 10 with autoplay", eff)
	}

	// A second duration report must not re-jump.
	if eff := s.SetDuration(40); eff.SeekTo != nil {
		t.Errorf("repeated SetDuration jumped again: %+v", eff)
	}

	s.Tick(30) // past the only match
	eff = s.Next()
	if eff.SeekTo == nil || *eff.SeekTo != 10 {
		t.Errorf("Next wraps to the only matching scene, got %+v", eff)
	}
}

func TestSession_MatchIndex(t *testing.T) {
	s := NewSession("id", "f", "v.mp4", testTimeline(t), highlight.ByTag("kiss"))
	s.SetDuration(40)

	if cur := s.Tick(12); cur.MatchIndex != 0 {
		t.Errorf("MatchIndex inside matching scene = %d, want 0", cur.MatchIndex)
	}
	if cur := s.Tick(30); cur.MatchIndex != -1 {
		t.Errorf("MatchIndex outside matches = %d, want -1", cur.MatchIndex)
	}
}

func TestSession_ToggleTag(t *testing.T) {
	s := NewSession("id", "f", "v.mp4", testTimeline(t), nil)
	s.SetDuration(40)

	s.ToggleTag("kiss")
	st := s.State()
	if st.ActiveTag != "kiss" {
		t.Fatalf("ActiveTag = %q, want kiss", st.ActiveTag)
	}
	highlighted := 0
	for _, seg := range st.Segments {
		if seg.Highlighted {
			highlighted++
		}
	}
	if highlighted != 1 {
		t.Errorf("highlighted segments = %d, want 1", highlighted)
	}

	s.ToggleTag("kiss") // same tag clears the filter
	st = s.State()
	if st.ActiveTag != "" {
		t.Errorf("ActiveTag after clearing = %q, want empty", st.ActiveTag)
	}
	for _, seg := range st.Segments {
		if !seg.Highlighted {
			t.Error("all segments highlighted after clearing filter")
			break
		}
	}
}

func TestStore(t *testing.T) {
	st := NewStore()
	s := st.Open("f", "v.mp4", testTimeline(t), nil)

	if st.Get(s.ID) != s {
		t.Fatal("Get did not return the opened session")
	}
	if st.Count() != 1 {
		t.Errorf("Count = %d, want 1", st.Count())
	}

	st.Close(s.ID)
	if st.Get(s.ID) != nil {
		t.Error("session still present after Close")
	}
	st.Close("unknown") // harmless
}
