// Package core provides filtering, sorting, and lookup over annotation lists
// read from the store.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/tracknote/internal/model"
)

// FilterOptions specifies criteria applied after a store read.
type FilterOptions struct {
	Since     time.Duration // Keep annotations newer than now-since (0=all)
	Artist    string        // Exact artist match (""=any)
	Source    string        // Exact source id match (""=any)
	MinRating int           // Keep rated annotations at or above this (0=any)
	Limit     int           // Maximum results (0=unlimited)
	Now       time.Time     // Reference time; zero = time.Now()
}

// Filter returns the annotations matching opts, preserving order.
func Filter(annotations []model.Annotation, opts FilterOptions) []model.Annotation {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-opts.Since)

	result := make([]model.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if opts.Since > 0 && a.Timestamp.Before(cutoff) {
			continue
		}
		if opts.Artist != "" && a.SongArtist != opts.Artist {
			continue
		}
		if opts.Source != "" && a.SourceID != opts.Source {
			continue
		}
		if opts.MinRating > 0 && (a.Rating == nil || *a.Rating < opts.MinRating) {
			continue
		}
		result = append(result, a)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// OlderThan returns the annotations written before now-age.
func OlderThan(annotations []model.Annotation, age time.Duration, now time.Time) []model.Annotation {
	cutoff := now.Add(-age)
	var result []model.Annotation
	for _, a := range annotations {
		if a.Timestamp.Before(cutoff) {
			result = append(result, a)
		}
	}
	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

// ParseRating parses a 1-5 rating, accepting star strings such as "★★★".
func ParseRating(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n := strings.Count(s, "★"); n > 0 && strings.Trim(s, "★☆") == "" {
		s = strconv.Itoa(n)
	}
	r, err := strconv.Atoi(s)
	if err != nil || r < model.MinRating || r > model.MaxRating {
		return 0, fmt.Errorf("invalid rating %q: %w", s, model.ErrInvalidRating)
	}
	return r, nil
}
