// Package model defines the core data structures for tracknote.
package model

import "image"

// Placeholders used when a notification omits a field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// Placeholder pair shown by the detail panel when nothing is playing.
const (
	NoSongTitle  = "No song playing"
	NoSongArtist = "Tap to add comment"
)

// Artwork is an optional image handle attached to a track.
type Artwork struct {
	Ref   string      // File path or URI the image was loaded from, if known
	Image image.Image // Decoded image, nil when only Ref is known
}

// PlaybackInfo describes what the external player reports as playing.
// Values are never mutated after construction; a new value replaces the old one.
type PlaybackInfo struct {
	Title     string   `json:"title"`
	Artist    string   `json:"artist"`
	Artwork   *Artwork `json:"-"`
	IsPlaying bool     `json:"is_playing"`
	SourceID  string   `json:"source_id"`
}

// SameTrack reports whether p and other refer to the same (title, artist) pair.
// The comparison is exact and case-sensitive.
func (p PlaybackInfo) SameTrack(other PlaybackInfo) bool {
	return p.Title == other.Title && p.Artist == other.Artist
}

// ArtworkRef returns the artwork reference, or nil when there is none.
func (p PlaybackInfo) ArtworkRef() *string {
	if p.Artwork == nil || p.Artwork.Ref == "" {
		return nil
	}
	ref := p.Artwork.Ref
	return &ref
}
