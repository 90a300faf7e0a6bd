package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnnotation() Annotation {
	return Annotation{
		SongTitle:  "Song A",
		SongArtist: "Artist X",
		Text:       "great bridge",
		Timestamp:  time.Now(),
		SourceID:   "spotify",
	}
}

func TestNewAnnotation(t *testing.T) {
	info := PlaybackInfo{
		Title:    "Song A",
		Artist:   "Artist X",
		Artwork:  &Artwork{Ref: "/tmp/cover.png"},
		SourceID: "spotify",
	}

	before := time.Now()
	a := NewAnnotation(info, "nice")

	assert.Equal(t, int64(0), a.ID)
	assert.Equal(t, "Song A", a.SongTitle)
	assert.Equal(t, "Artist X", a.SongArtist)
	assert.Equal(t, "nice", a.Text)
	assert.Equal(t, "spotify", a.SourceID)
	require.NotNil(t, a.ArtworkRef)
	assert.Equal(t, "/tmp/cover.png", *a.ArtworkRef)
	assert.False(t, a.Timestamp.Before(before.Truncate(TimestampPrecision)))
	assert.Equal(t, a.Timestamp, a.Timestamp.Truncate(TimestampPrecision))
}

func TestAnnotation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Annotation)
		wantErr error
	}{
		{
			name:    "valid annotation",
			modify:  func(a *Annotation) {},
			wantErr: nil,
		},
		{
			name: "blank text",
			modify: func(a *Annotation) {
				a.Text = "   "
			},
			wantErr: ErrEmptyText,
		},
		{
			name: "empty title",
			modify: func(a *Annotation) {
				a.SongTitle = ""
			},
			wantErr: ErrEmptySongTitle,
		},
		{
			name: "rating too low",
			modify: func(a *Annotation) {
				r := 0
				a.Rating = &r
			},
			wantErr: ErrInvalidRating,
		},
		{
			name: "rating too high",
			modify: func(a *Annotation) {
				r := 6
				a.Rating = &r
			},
			wantErr: ErrInvalidRating,
		},
		{
			name: "rating in range",
			modify: func(a *Annotation) {
				a.SetRating(5)
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAnnotation()
			tt.modify(&a)
			err := a.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAnnotation_SetRatingAndReaction(t *testing.T) {
	a := testAnnotation()

	a.SetRating(3)
	require.NotNil(t, a.Rating)
	assert.Equal(t, 3, *a.Rating)
	a.SetRating(0)
	assert.Nil(t, a.Rating)

	a.SetReaction("🔥")
	require.NotNil(t, a.Reaction)
	assert.Equal(t, "🔥", *a.Reaction)
	a.SetReaction("")
	assert.Nil(t, a.Reaction)
}

func TestAnnotation_Stars(t *testing.T) {
	a := testAnnotation()
	assert.Equal(t, "", a.Stars())

	a.SetRating(3)
	assert.Equal(t, "★★★☆☆", a.Stars())
}

func TestAnnotation_TextTruncated(t *testing.T) {
	a := testAnnotation()
	a.Text = "this is\n a   fairly long note"

	assert.Equal(t, "this is a fairly long note", a.TextTruncated(100))
	assert.Equal(t, "this is...", a.TextTruncated(10))
	assert.Equal(t, "thi", a.TextTruncated(3))
	assert.Equal(t, "", a.TextTruncated(0))
}

func TestAnnotation_Clone(t *testing.T) {
	a := testAnnotation()
	a.SetRating(4)
	a.SetReaction("🎵")

	clone := a.Clone()
	*clone.Rating = 1
	*clone.Reaction = "x"

	assert.Equal(t, 4, *a.Rating)
	assert.Equal(t, "🎵", *a.Reaction)
}

func TestPlaybackInfo_SameTrack(t *testing.T) {
	a := PlaybackInfo{Title: "Song A", Artist: "Artist X"}

	assert.True(t, a.SameTrack(PlaybackInfo{Title: "Song A", Artist: "Artist X", IsPlaying: true}))
	assert.False(t, a.SameTrack(PlaybackInfo{Title: "song a", Artist: "Artist X"}))
	assert.False(t, a.SameTrack(PlaybackInfo{Title: "Song A", Artist: "Artist Y"}))
}

func TestPlaybackInfo_ArtworkRef(t *testing.T) {
	assert.Nil(t, PlaybackInfo{}.ArtworkRef())
	assert.Nil(t, PlaybackInfo{Artwork: &Artwork{}}.ArtworkRef())

	ref := PlaybackInfo{Artwork: &Artwork{Ref: "file:///a.png"}}.ArtworkRef()
	require.NotNil(t, ref)
	assert.Equal(t, "file:///a.png", *ref)
}
