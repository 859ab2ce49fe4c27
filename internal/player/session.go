package player

import (
	"sync"

	"github.com/scenedeck/scenedeck/internal/highlight"
	"github.com/scenedeck/scenedeck/internal/timeline"
)

// Cursor is the bar cursor derived from the playback clock. Visible is false
// while the duration is unknown, in which case Fraction is meaningless and
// the display draws no playhead.
type Cursor struct {
	CurrentTime float64 `json:"current_time"`
	Fraction    float64 `json:"fraction"`
	Visible     bool    `json:"visible"`
	MatchIndex  int     `json:"match_index"`
}

// Session owns the playback state for one open video: its timeline, the
// active match criteria, and the cursor. It is replaced wholesale when a
// different video is opened.
type Session struct {
	ID       string
	Folder   string
	Filename string

	mu           sync.Mutex
	tl           timeline.Timeline
	criteria     *highlight.Criteria
	currentTime  float64
	durationSeen bool
	autoJump     bool
}

// NewSession opens a session over a loaded timeline. When criteria are
// present (the video was opened from a search result) the first reported
// media duration triggers an automatic jump to the first matching scene.
func NewSession(id, folder, filename string, tl timeline.Timeline, criteria *highlight.Criteria) *Session {
	return &Session{
		ID:       id,
		Folder:   folder,
		Filename: filename,
		tl:       tl,
		criteria: criteria,
		autoJump: criteria != nil,
	}
}

// SetDuration records the media element's native duration, which is
// authoritative over the data-supplied one. The first call may return an
// auto-jump effect for search-originated sessions.
func (s *Session) SetDuration(d float64) Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tl = s.tl.WithDuration(d)
	first := !s.durationSeen
	s.durationSeen = true

	if first && s.autoJump {
		s.autoJump = false
		navigable := highlight.Navigable(s.tl, s.criteria)
		if len(navigable) > 0 {
			s.currentTime = navigable[0].StartTime
			return seekEffect(navigable[0].StartTime, true)
		}
	}
	return Effect{}
}

// Tick advances the cursor from a media clock update.
func (s *Session) Tick(currentTime float64) Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentTime = currentTime
	return s.cursorLocked()
}

// Seek maps a click fraction on the bar to a passive seek. With an unknown
// duration the click is ignored.
func (s *Session) Seek(fraction float64) Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tl.Duration <= 0 {
		return Effect{}
	}
	target := SeekTarget(fraction, s.tl.Duration)
	s.currentTime = target
	return seekEffect(target, false)
}

// Next jumps to the next navigable scene and resumes playback.
func (s *Session) Next() Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := NextScene(highlight.Navigable(s.tl, s.criteria), s.currentTime)
	if !ok {
		return Effect{}
	}
	s.currentTime = target.StartTime
	return seekEffect(target.StartTime, true)
}

// Previous jumps to the preceding navigable scene. At the first scene, or
// with the playhead outside every navigable scene, nothing happens.
func (s *Session) Previous() Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	navigable := highlight.Navigable(s.tl, s.criteria)
	target, ok := PrevScene(navigable, MatchIndex(navigable, s.currentTime))
	if !ok {
		return Effect{}
	}
	s.currentTime = target.StartTime
	return seekEffect(target.StartTime, true)
}

// ToggleTag switches the active tag filter: selecting the current tag clears
// it, any other tag replaces the criteria (including search-supplied
// scene-id criteria).
func (s *Session) ToggleTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.criteria != nil && s.criteria.Tag == tag {
		s.criteria = nil
		return
	}
	s.criteria = highlight.ByTag(tag)
}

// State is the render-ready snapshot handed to the display.
type State struct {
	VideoID  string              `json:"video_id"`
	Folder   string              `json:"folder"`
	Filename string              `json:"filename"`
	Duration float64             `json:"duration"`
	Cursor   Cursor              `json:"cursor"`
	Segments []highlight.Segment `json:"segments"`
	ActiveTag string             `json:"active_tag,omitempty"`
}

// State returns a consistent snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		VideoID:  s.tl.VideoID,
		Folder:   s.Folder,
		Filename: s.Filename,
		Duration: s.tl.Duration,
		Cursor:   s.cursorLocked(),
		Segments: highlight.Resolve(s.tl, s.criteria),
	}
	if s.criteria != nil {
		st.ActiveTag = s.criteria.Tag
	}
	return st
}

func (s *Session) cursorLocked() Cursor {
	fraction, visible := Fraction(s.currentTime, s.tl.Duration)
	return Cursor{
		CurrentTime: s.currentTime,
		Fraction:    fraction,
		Visible:     visible,
		MatchIndex:  MatchIndex(highlight.Navigable(s.tl, s.criteria), s.currentTime),
	}
}
