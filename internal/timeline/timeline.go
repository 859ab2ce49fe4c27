// Package timeline holds the canonical scene/timeline model for one video:
// an ordered, non-overlapping partition of the playback clock into tagged
// segments, as produced by the analysis backend.
package timeline

import (
	"fmt"
	"sort"
)

// Scene is a contiguous time interval within a video. This is the one
// canonical shape; responses from the backend are normalized into it at the
// client boundary.
type Scene struct {
	ID        string   `json:"scene_id"`
	Index     int      `json:"index"`
	StartTime float64  `json:"start_time"`
	EndTime   float64  `json:"end_time"`
	Tags      []string `json:"tags"`
}

// Duration returns the scene length in seconds.
func (s Scene) Duration() float64 {
	return s.EndTime - s.StartTime
}

// HasTag reports whether the scene carries the given tag.
func (s Scene) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Timeline is the ordered set of scenes for one video plus its total
// duration. Duration may come from scene data initially and is replaced by
// the media element's native duration once the display reports it.
type Timeline struct {
	VideoID  string  `json:"video_id"`
	Scenes   []Scene `json:"scenes"`
	Duration float64 `json:"duration"`
}

// Empty returns a timeline with no scenes and duration 0. A video without
// scene data renders no progress bar; it is not an error condition.
func Empty(videoID string) Timeline {
	return Timeline{VideoID: videoID}
}

// IsEmpty reports whether the timeline has no scenes.
func (t Timeline) IsEmpty() bool {
	return len(t.Scenes) == 0
}

// New builds a validated timeline. Scenes are sorted by start time and
// re-indexed; duration falls back to the last scene's end time when the
// supplied value is smaller.
func New(videoID string, scenes []Scene, duration float64) (Timeline, error) {
	sorted := make([]Scene, len(scenes))
	copy(sorted, scenes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	for i := range sorted {
		sorted[i].Index = i
	}

	if err := validate(sorted); err != nil {
		return Timeline{}, err
	}

	if n := len(sorted); n > 0 && duration < sorted[n-1].EndTime {
		duration = sorted[n-1].EndTime
	}

	return Timeline{VideoID: videoID, Scenes: sorted, Duration: duration}, nil
}

func validate(scenes []Scene) error {
	for i, s := range scenes {
		if s.StartTime < 0 {
			return fmt.Errorf("scene %s: negative start time %f", s.ID, s.StartTime)
		}
		if s.EndTime <= s.StartTime {
			return fmt.Errorf("scene %s: end time %f not after start time %f", s.ID, s.EndTime, s.StartTime)
		}
		if i > 0 && scenes[i-1].EndTime > s.StartTime {
			return fmt.Errorf("scene %s overlaps previous scene %s", s.ID, scenes[i-1].ID)
		}
	}
	return nil
}

// WithDuration returns a copy of the timeline with the authoritative duration
// from the media element. Values smaller than the last scene's end are
// ignored so rounding disagreements never truncate the bar.
func (t Timeline) WithDuration(d float64) Timeline {
	if n := len(t.Scenes); n > 0 && d < t.Scenes[n-1].EndTime {
		return t
	}
	if d <= 0 {
		return t
	}
	out := t
	out.Duration = d
	return out
}

// SceneAt returns the index of the scene containing the given playback time,
// or -1 when the time falls outside every scene. The end bound is exclusive
// so abutting scenes resolve to the later one.
func (t Timeline) SceneAt(at float64) int {
	lo, hi := 0, len(t.Scenes)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		s := t.Scenes[mid]
		switch {
		case at < s.StartTime:
			hi = mid - 1
		case at >= s.EndTime:
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}
