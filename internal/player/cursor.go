// Package player keeps one open video's playback state in sync with its
// scene timeline: the bar cursor, the active filter, and scene-jump
// navigation. The media element itself lives in the display; the session
// answers with seek effects for the display to execute.
package player

// Effect is a command for the display's media element. A nil SeekTo means no
// seek was issued. Autoplay distinguishes an explicit "seek + play" (scene
// jump) from a passive seek, which leaves the play state alone.
type Effect struct {
	SeekTo   *float64 `json:"seek_to,omitempty"`
	Autoplay bool     `json:"autoplay"`
}

func seekEffect(target float64, autoplay bool) Effect {
	return Effect{SeekTo: &target, Autoplay: autoplay}
}

// Fraction maps a playback clock position to a bar cursor fraction, clamped
// to [0,1]. ok is false when the duration is unknown or zero; the cursor is
// then suppressed entirely rather than rendered from a NaN.
func Fraction(current, duration float64) (float64, bool) {
	if duration <= 0 {
		return 0, false
	}
	f := current / duration
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f, true
}

// SeekTarget maps a click fraction back to a playback time. The fraction
// comes from the pointer's physical offset within the bar, not from any
// logical segment unit, so variable-width segments still seek accurately.
func SeekTarget(fraction, duration float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fraction * duration
}
