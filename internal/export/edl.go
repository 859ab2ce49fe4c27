// Package export renders a session's highlighted scenes as a CMX 3600 edit
// decision list, so a cut assembled by tag filtering can move into an NLE.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/scenedeck/scenedeck/internal/highlight"
	"github.com/scenedeck/scenedeck/internal/timeline"
)

// Clip is one cut in the output list, in source seconds.
type Clip struct {
	Name      string
	MediaPath string
	Start     float64
	End       float64
}

// FromTimeline builds the clip list from the scenes matching the criteria, in
// timeline order. A nil criteria exports every scene.
func FromTimeline(tl timeline.Timeline, criteria *highlight.Criteria, mediaPath string) []Clip {
	scenes := highlight.Navigable(tl, criteria)
	clips := make([]Clip, 0, len(scenes))
	for _, sc := range scenes {
		name := fmt.Sprintf("Scene %d", sc.Index+1)
		if len(sc.Tags) > 0 {
			name = fmt.Sprintf("%s (%s)", name, strings.Join(sc.Tags, ", "))
		}
		clips = append(clips, Clip{
			Name:      SanitizeName(name, 64),
			MediaPath: mediaPath,
			Start:     sc.StartTime,
			End:       sc.EndTime,
		})
	}
	return clips
}

// GenerateEDL renders the clips as a CMX 3600 list. Record timecodes pack the
// clips back to back starting at zero.
func GenerateEDL(clips []Clip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}
	dropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	if dropFrame {
		b.WriteString("FCM: DROP FRAME\n")
	} else {
		b.WriteString("FCM: NON-DROP FRAME\n")
	}
	b.WriteString("\n")

	var recordOffset float64
	for i, clip := range clips {
		duration := clip.End - clip.Start
		fmt.Fprintf(&b, "%03d  AX       V     C        %s %s %s %s\n",
			i+1,
			timecode(clip.Start, fps),
			timecode(clip.End, fps),
			timecode(recordOffset, fps),
			timecode(recordOffset+duration, fps))
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", clip.Name)
		fmt.Fprintf(&b, "* MEDIA PATH:  %s\n", clip.MediaPath)
		recordOffset += duration
	}

	b.WriteString("\n")
	return b.String()
}

func timecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d",
		totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, frames)
}
