package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Reactions is the palette offered by the annotation entry surface.
var Reactions = []string{"😍", "🔥", "💖", "🎵", "👌", "🙌", "😊", "🤩"}

// Annotation is a user note attached to a (title, artist) pair.
// Annotations are never edited in place; an edit is a delete followed by an insert.
type Annotation struct {
	ID         int64     `json:"id" yaml:"id"` // 0 until inserted
	SongTitle  string    `json:"song_title" yaml:"song_title"`
	SongArtist string    `json:"song_artist" yaml:"song_artist"`
	ArtworkRef *string   `json:"artwork_ref,omitempty" yaml:"artwork_ref,omitempty"`
	Text       string    `json:"text" yaml:"text"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Rating     *int      `json:"rating,omitempty" yaml:"rating,omitempty"`     // 1-5
	Reaction   *string   `json:"reaction,omitempty" yaml:"reaction,omitempty"` // short string, usually an emoji
	SourceID   string    `json:"source_id" yaml:"source_id"`
}

// Validation errors.
var (
	ErrEmptyText      = errors.New("annotation text cannot be empty")
	ErrEmptySongTitle = errors.New("song title cannot be empty")
	ErrInvalidRating  = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
)

// TimestampPrecision is the resolution annotation times are stored at.
const TimestampPrecision = time.Millisecond

// NewAnnotation creates an annotation for the given track, stamped with the
// current time at TimestampPrecision.
func NewAnnotation(info PlaybackInfo, text string) Annotation {
	return Annotation{
		SongTitle:  info.Title,
		SongArtist: info.Artist,
		ArtworkRef: info.ArtworkRef(),
		Text:       text,
		Timestamp:  time.Now().Truncate(TimestampPrecision),
		SourceID:   info.SourceID,
	}
}

// Validate checks that the annotation can be stored.
func (a *Annotation) Validate() error {
	if strings.TrimSpace(a.Text) == "" {
		return ErrEmptyText
	}
	if a.SongTitle == "" {
		return ErrEmptySongTitle
	}
	if a.Rating != nil && (*a.Rating < MinRating || *a.Rating > MaxRating) {
		return ErrInvalidRating
	}
	return nil
}

// SetRating sets the rating. Zero clears it.
func (a *Annotation) SetRating(r int) {
	if r == 0 {
		a.Rating = nil
		return
	}
	a.Rating = &r
}

// SetReaction sets the reaction. An empty string clears it.
func (a *Annotation) SetReaction(r string) {
	if r == "" {
		a.Reaction = nil
		return
	}
	a.Reaction = &r
}

// IsFor reports whether the annotation belongs to the given track.
func (a *Annotation) IsFor(title, artist string) bool {
	return a.SongTitle == title && a.SongArtist == artist
}

// Stars renders the rating as a five-character star bar, or "" when unrated.
func (a *Annotation) Stars() string {
	if a.Rating == nil {
		return ""
	}
	r := min(max(*a.Rating, 0), MaxRating)
	return strings.Repeat("★", r) + strings.Repeat("☆", MaxRating-r)
}

// TextTruncated returns the text truncated to maxLen characters.
// If the text is longer, it is truncated and "..." is appended.
func (a *Annotation) TextTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	// Collapse whitespace and newlines to single spaces
	text := []rune(strings.Join(strings.Fields(a.Text), " "))

	if len(text) <= maxLen {
		return string(text)
	}
	if maxLen <= 3 {
		return string(text[:maxLen])
	}
	return string(text[:maxLen-3]) + "..."
}

// Clone creates a deep copy of the annotation.
func (a *Annotation) Clone() *Annotation {
	clone := *a
	if a.ArtworkRef != nil {
		ref := *a.ArtworkRef
		clone.ArtworkRef = &ref
	}
	if a.Rating != nil {
		r := *a.Rating
		clone.Rating = &r
	}
	if a.Reaction != nil {
		r := *a.Reaction
		clone.Reaction = &r
	}
	return &clone
}
