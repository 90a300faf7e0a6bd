package core

import (
	"slices"
	"strconv"
	"strings"

	"github.com/jmylchreest/tracknote/internal/model"
)

// LookupByID finds an annotation by its row id. Returns nil if not found.
func LookupByID(annotations []model.Annotation, id int64) *model.Annotation {
	for i := range annotations {
		if annotations[i].ID == id {
			return &annotations[i]
		}
	}
	return nil
}

// LookupByIndex finds an annotation by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(annotations []model.Annotation, index int) *model.Annotation {
	idx := index - 1
	if idx < 0 || idx >= len(annotations) {
		return nil
	}
	return &annotations[idx]
}

// ParseID extracts a row id from an argument, accepting a picked dmenu line
// ("12 | 5 minutes ago | ...") as well as a bare number.
func ParseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if head, _, found := strings.Cut(s, "|"); found {
		s = strings.TrimSpace(head)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Song is a distinct (title, artist) pair with its annotation count.
type Song struct {
	Title  string
	Artist string
	Count  int
}

// Songs groups annotations by track, ordered by count then title.
func Songs(annotations []model.Annotation) []Song {
	type key struct{ title, artist string }
	counts := make(map[key]int)
	var order []key
	for _, a := range annotations {
		k := key{a.SongTitle, a.SongArtist}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	songs := make([]Song, 0, len(order))
	for _, k := range order {
		songs = append(songs, Song{Title: k.title, Artist: k.artist, Count: counts[k]})
	}
	slices.SortStableFunc(songs, func(a, b Song) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Title, b.Title)
	})
	return songs
}
