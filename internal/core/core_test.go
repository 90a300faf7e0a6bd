package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tracknote/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func annotation(id int64, title, artist string, age time.Duration, rating int) model.Annotation {
	a := model.Annotation{
		ID:         id,
		SongTitle:  title,
		SongArtist: artist,
		Text:       "note",
		Timestamp:  testNow.Add(-age),
		SourceID:   "spotify",
	}
	a.SetRating(rating)
	return a
}

func testAnnotations() []model.Annotation {
	return []model.Annotation{
		annotation(1, "Windowlicker", "Aphex Twin", time.Hour, 5),
		annotation(2, "Teardrop", "Massive Attack", 3*24*time.Hour, 0),
		annotation(3, "Avril 14th", "Aphex Twin", 10*24*time.Hour, 3),
	}
}

func ids(annotations []model.Annotation) []int64 {
	out := make([]int64, len(annotations))
	for i, a := range annotations {
		out[i] = a.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
		want []int64
	}{
		{"zero value keeps all", FilterOptions{}, []int64{1, 2, 3}},
		{"since", FilterOptions{Since: 7 * 24 * time.Hour}, []int64{1, 2}},
		{"artist", FilterOptions{Artist: "Aphex Twin"}, []int64{1, 3}},
		{"source mismatch", FilterOptions{Source: "mpd"}, []int64{}},
		{"min rating skips unrated", FilterOptions{MinRating: 3}, []int64{1, 3}},
		{"min rating 5", FilterOptions{MinRating: 5}, []int64{1}},
		{"limit", FilterOptions{Limit: 2}, []int64{1, 2}},
		{"combined", FilterOptions{Artist: "Aphex Twin", Since: 2 * time.Hour}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Now = testNow
			assert.Equal(t, tt.want, ids(Filter(testAnnotations(), tt.opts)))
		})
	}
}

func TestOlderThan(t *testing.T) {
	got := OlderThan(testAnnotations(), 2*24*time.Hour, testNow)
	assert.Equal(t, []int64{2, 3}, ids(got))
	assert.Empty(t, OlderThan(testAnnotations(), 30*24*time.Hour, testNow))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"48h", 48 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"xd", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRating(t *testing.T) {
	for in, want := range map[string]int{"": 0, "1": 1, " 5 ": 5, "★★★": 3, "★★☆☆☆": 2} {
		got, err := ParseRating(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"0", "6", "five", "☆☆"} {
		_, err := ParseRating(in)
		assert.ErrorIs(t, err, model.ErrInvalidRating, in)
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		opts SortOptions
		want []int64
	}{
		{"timestamp desc", DefaultSortOptions(), []int64{1, 2, 3}},
		{"timestamp asc", SortOptions{SortByTimestamp, SortAsc}, []int64{3, 2, 1}},
		{"title asc", SortOptions{SortByTitle, SortAsc}, []int64{3, 2, 1}},
		{"artist asc stable", SortOptions{SortByArtist, SortAsc}, []int64{1, 3, 2}},
		{"rating desc unrated last", SortOptions{SortByRating, SortDesc}, []int64{1, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotations := testAnnotations()
			Sort(annotations, tt.opts)
			assert.Equal(t, tt.want, ids(annotations))
		})
	}

	var empty []model.Annotation
	Sort(empty, DefaultSortOptions())
	assert.Empty(t, empty)
}

func TestParseSort(t *testing.T) {
	f, err := ParseSortField("stars")
	require.NoError(t, err)
	assert.Equal(t, SortByRating, f)

	_, err = ParseSortField("urgency")
	assert.Error(t, err)

	o, err := ParseSortOrder("ascending")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, o)

	_, err = ParseSortOrder("sideways")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	annotations := testAnnotations()

	require.NotNil(t, LookupByID(annotations, 2))
	assert.Equal(t, "Teardrop", LookupByID(annotations, 2).SongTitle)
	assert.Nil(t, LookupByID(annotations, 9))

	require.NotNil(t, LookupByIndex(annotations, 1))
	assert.Equal(t, int64(1), LookupByIndex(annotations, 1).ID)
	assert.Nil(t, LookupByIndex(annotations, 0))
	assert.Nil(t, LookupByIndex(annotations, 4))
}

func TestParseID(t *testing.T) {
	tests := map[string]struct {
		id int64
		ok bool
	}{
		"12":                             {12, true},
		" 7 ":                            {7, true},
		"12 | 5 minutes ago | Song - Me": {12, true},
		"0":                              {0, false},
		"-3":                             {0, false},
		"abc":                            {0, false},
	}
	for in, want := range tests {
		id, ok := ParseID(in)
		assert.Equal(t, want.ok, ok, in)
		assert.Equal(t, want.id, id, in)
	}
}

func TestSongs(t *testing.T) {
	annotations := append(testAnnotations(), annotation(4, "Teardrop", "Massive Attack", time.Minute, 0))

	songs := Songs(annotations)
	require.Len(t, songs, 3)
	assert.Equal(t, Song{Title: "Teardrop", Artist: "Massive Attack", Count: 2}, songs[0])
	assert.Equal(t, "Avril 14th", songs[1].Title)
	assert.Equal(t, "Windowlicker", songs[2].Title)
}
