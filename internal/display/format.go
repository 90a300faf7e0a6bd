package display

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tracknote/internal/model"
)

const rowTextWidth = 80

// rowTitle is the first line of an annotation row: reaction, stars and the
// relative age.
func rowTitle(a model.Annotation, now time.Time) string {
	parts := make([]string, 0, 3)
	if a.Reaction != nil && *a.Reaction != "" {
		parts = append(parts, *a.Reaction)
	}
	if stars := a.Stars(); stars != "" {
		parts = append(parts, stars)
	}
	parts = append(parts, humanize.RelTime(a.Timestamp, now, "ago", "from now"))
	return strings.Join(parts, "  ")
}

// rowBody is the annotation text, flattened and truncated.
func rowBody(a model.Annotation) string {
	return a.TextTruncated(rowTextWidth)
}

// countLabel summarises how many annotations a track has.
func countLabel(n int) string {
	switch n {
	case 0:
		return "No comments yet"
	case 1:
		return "1 comment"
	}
	return humanize.Comma(int64(n)) + " comments"
}

// indicatorIcon picks the icon name for the collapsed indicator.
func indicatorIcon(info *model.PlaybackInfo, playing bool) string {
	switch {
	case info == nil:
		return "audio-x-generic-symbolic"
	case playing:
		return "media-playback-start-symbolic"
	}
	return "media-playback-pause-symbolic"
}

// entryHeading labels the entry window.
func entryHeading(info model.PlaybackInfo) string {
	return info.Title + " · " + info.Artist
}
