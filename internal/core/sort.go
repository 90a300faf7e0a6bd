package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/tracknote/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByTimestamp SortField = "timestamp"
	SortByTitle     SortField = "title"
	SortByArtist    SortField = "artist"
	SortByRating    SortField = "rating"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions returns the store's own order (newest first).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByTimestamp,
		Order: SortDesc,
	}
}

// Sort sorts annotations in place. Ties keep their incoming order.
// Unrated annotations sort below every rating.
func Sort(annotations []model.Annotation, opts SortOptions) {
	if len(annotations) == 0 {
		return
	}

	sort.SliceStable(annotations, func(i, j int) bool {
		a, b := &annotations[i], &annotations[j]
		if opts.Order == SortDesc {
			a, b = b, a
		}

		switch opts.Field {
		case SortByTitle:
			return strings.ToLower(a.SongTitle) < strings.ToLower(b.SongTitle)
		case SortByArtist:
			return strings.ToLower(a.SongArtist) < strings.ToLower(b.SongArtist)
		case SortByRating:
			return rating(a) < rating(b)
		default:
			return a.Timestamp.Before(b.Timestamp)
		}
	})
}

func rating(a *model.Annotation) int {
	if a.Rating == nil {
		return 0
	}
	return *a.Rating
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timestamp", "time", "t", "":
		return SortByTimestamp, nil
	case "title", "song":
		return SortByTitle, nil
	case "artist", "a":
		return SortByArtist, nil
	case "rating", "stars", "r":
		return SortByRating, nil
	default:
		return "", fmt.Errorf("invalid sort field: %s (use timestamp, title, artist, or rating)", s)
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAsc, nil
	case "desc", "descending", "":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (use asc or desc)", s)
	}
}
