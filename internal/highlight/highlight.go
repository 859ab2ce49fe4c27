// Package highlight derives the render-ready segment list for a timeline
// from an optional search/filter context, and the navigable subsequence used
// by scene-jump navigation.
package highlight

import (
	"github.com/scenedeck/scenedeck/internal/timeline"
)

// PaletteSize is the number of rotating segment colors. Segment colors are
// keyed by scene ordinal modulo this value; the display maps the index to an
// actual color.
const PaletteSize = 8

// Criteria selects which scenes are highlighted. At most one mode is active:
// a single tag, or an explicit scene-id set (search results). A nil Criteria
// means plain playback with every scene rendered normally.
type Criteria struct {
	Tag      string
	SceneIDs []string
}

// ByTag returns tag-mode criteria.
func ByTag(tag string) *Criteria {
	return &Criteria{Tag: tag}
}

// BySceneIDs returns explicit-id-mode criteria.
func BySceneIDs(ids []string) *Criteria {
	return &Criteria{SceneIDs: ids}
}

// Matches reports whether a scene satisfies the criteria. Nil criteria match
// everything.
func (c *Criteria) Matches(s timeline.Scene) bool {
	if c == nil {
		return true
	}
	if c.Tag != "" {
		return s.HasTag(c.Tag)
	}
	for _, id := range c.SceneIDs {
		if id == s.ID {
			return true
		}
	}
	return false
}

// Segment is one rendered slice of the progress bar. Dimmed segments keep
// their width and stay clickable for seeking; only the visual emphasis
// changes.
type Segment struct {
	Scene       timeline.Scene `json:"scene"`
	Highlighted bool           `json:"highlighted"`
	ColorIndex  int            `json:"color_index"`
	Width       float64        `json:"width"`
}

// Resolve computes the segment list for a timeline under the given criteria.
// Widths are fractions of the full bar; they sum to 1.0 exactly when the
// duration equals the last scene's end time, and to less when a trailing
// unanalyzed tail exists (that tail is dead space, not a segment). A timeline
// with no scenes or no positive duration resolves to nothing.
func Resolve(tl timeline.Timeline, c *Criteria) []Segment {
	if tl.IsEmpty() || tl.Duration <= 0 {
		return nil
	}

	segments := make([]Segment, len(tl.Scenes))
	for i, s := range tl.Scenes {
		segments[i] = Segment{
			Scene:       s,
			Highlighted: c.Matches(s),
			ColorIndex:  i % PaletteSize,
			Width:       s.Duration() / tl.Duration,
		}
	}
	return segments
}

// Navigable returns the ordered subsequence of scenes matching the criteria.
// With nil criteria it is the full scene list, so plain "next scene"
// navigation works without a filter.
func Navigable(tl timeline.Timeline, c *Criteria) []timeline.Scene {
	if c == nil {
		return tl.Scenes
	}
	var out []timeline.Scene
	for _, s := range tl.Scenes {
		if c.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}
