package player

import (
	"github.com/scenedeck/scenedeck/internal/timeline"
)

// jumpEpsilon keeps "next scene" from re-selecting the scene whose start the
// playhead is already sitting on.
const jumpEpsilon = 0.1

// NextScene picks the jump target for "next scene": the first navigable
// scene starting after the current playback time (plus epsilon), wrapping to
// the first navigable scene when none lies ahead. Returns false only when
// the subsequence is empty.
func NextScene(navigable []timeline.Scene, currentTime float64) (timeline.Scene, bool) {
	if len(navigable) == 0 {
		return timeline.Scene{}, false
	}
	for _, s := range navigable {
		if s.StartTime > currentTime+jumpEpsilon {
			return s, true
		}
	}
	return navigable[0], true
}

// PrevScene picks the jump target for "previous scene" by decrementing the
// current index within the navigable subsequence. At index 0, or when the
// playhead is not inside a navigable scene, it is a no-op.
func PrevScene(navigable []timeline.Scene, currentIndex int) (timeline.Scene, bool) {
	if currentIndex <= 0 || currentIndex >= len(navigable) {
		return timeline.Scene{}, false
	}
	return navigable[currentIndex-1], true
}

// MatchIndex locates the playhead within the navigable subsequence: the
// index of the navigable scene containing the current time, or -1 when the
// playhead is outside every navigable scene.
func MatchIndex(navigable []timeline.Scene, currentTime float64) int {
	for i, s := range navigable {
		if currentTime >= s.StartTime && currentTime < s.EndTime {
			return i
		}
	}
	return -1
}
