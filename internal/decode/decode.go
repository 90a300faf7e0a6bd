// Package decode turns raw "now playing" notification payloads into playback records.
package decode

import (
	"log/slog"

	"github.com/jmylchreest/tracknote/internal/model"
)

// IconSource lazily produces the artwork attached to a notification.
type IconSource interface {
	Load() (*model.Artwork, error)
}

// Payload is a notification as posted by some application.
type Payload struct {
	SourceID string     // Identifier of the posting application
	Title    string     // Notification summary, taken as the track title
	Text     string     // Notification body, taken as the artist
	Icon     IconSource // Optional
}

// Decoder accepts payloads from a single designated source.
type Decoder struct {
	Source string
	Logger *slog.Logger
}

// NewDecoder creates a decoder for the given source identifier.
func NewDecoder(source string, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{Source: source, Logger: logger}
}

// Matches reports whether sourceID is the designated source.
func (d *Decoder) Matches(sourceID string) bool {
	return sourceID == d.Source
}

// Decode converts p into a PlaybackInfo. It returns false, without logging or
// touching the icon, when p comes from another source.
func (d *Decoder) Decode(p Payload) (model.PlaybackInfo, bool) {
	if !d.Matches(p.SourceID) {
		return model.PlaybackInfo{}, false
	}

	info := model.PlaybackInfo{
		Title:     p.Title,
		Artist:    p.Text,
		IsPlaying: true,
		SourceID:  p.SourceID,
	}
	if info.Title == "" {
		info.Title = model.UnknownTitle
	}
	if info.Artist == "" {
		info.Artist = model.UnknownArtist
	}

	info.Artwork = d.artwork(p)
	return info, true
}

func (d *Decoder) artwork(p Payload) *model.Artwork {
	if p.Icon == nil {
		d.logger().Debug("notification has no icon", "source", p.SourceID, "title", p.Title)
		return nil
	}
	art, err := p.Icon.Load()
	if err != nil {
		d.logger().Warn("failed to load notification artwork", "source", p.SourceID, "error", err)
		return nil
	}
	return art
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
