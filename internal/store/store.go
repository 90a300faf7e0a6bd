// Package store persists song annotations and serves live queries over them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/tracknote/internal/model"
)

// InsertFailed is returned by Insert when the row could not be written.
const InsertFailed int64 = -1

// ErrAlreadyOpen is returned when a second Store is opened on the same file.
var ErrAlreadyOpen = errors.New("store already open for this file")

var (
	openMu    sync.Mutex
	openPaths = map[string]struct{}{}
)

// Store is the boundary over DB. It never returns storage errors to callers:
// writes report InsertFailed or log, reads return empty results.
type Store struct {
	db     *DB
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	queries map[*LiveQuery]struct{}
	closed  bool
}

// Open opens the database at path. Only one Store per file may be open in a process.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	openMu.Lock()
	defer openMu.Unlock()

	if _, ok := openPaths[abs]; ok {
		return nil, fmt.Errorf("%s: %w", abs, ErrAlreadyOpen)
	}

	db, err := OpenDB(abs)
	if err != nil {
		return nil, err
	}
	openPaths[abs] = struct{}{}

	logger.Debug("opened annotation store", "path", abs)
	return &Store{
		db:      db,
		path:    abs,
		logger:  logger,
		queries: make(map[*LiveQuery]struct{}),
	}, nil
}

// Path returns the absolute database path.
func (s *Store) Path() string {
	return s.path
}

// Insert validates and stores a and returns its new id, or InsertFailed.
func (s *Store) Insert(ctx context.Context, a model.Annotation) int64 {
	if err := a.Validate(); err != nil {
		s.logger.Error("refusing invalid annotation", "title", a.SongTitle, "error", err)
		return InsertFailed
	}
	id, err := s.db.Insert(ctx, a)
	if err != nil {
		s.logger.Error("failed to insert annotation", "title", a.SongTitle, "error", err)
		return InsertFailed
	}
	s.logger.Debug("inserted annotation", "id", id, "title", a.SongTitle, "artist", a.SongArtist)
	s.Changed()
	return id
}

// Delete removes a by id.
func (s *Store) Delete(ctx context.Context, a model.Annotation) {
	n, err := s.db.DeleteByID(ctx, a.ID)
	if err != nil {
		s.logger.Error("failed to delete annotation", "id", a.ID, "error", err)
		return
	}
	s.logger.Debug("deleted annotation", "id", a.ID, "rows", n)
	s.Changed()
}

// DeleteAllFor removes every annotation for a track.
func (s *Store) DeleteAllFor(ctx context.Context, title, artist string) {
	n, err := s.db.DeleteFor(ctx, title, artist)
	if err != nil {
		s.logger.Error("failed to delete annotations for song", "title", title, "artist", artist, "error", err)
		return
	}
	s.logger.Debug("deleted annotations for song", "title", title, "artist", artist, "rows", n)
	s.Changed()
}

// DeleteAll removes every annotation.
func (s *Store) DeleteAll(ctx context.Context) {
	n, err := s.db.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("failed to delete all annotations", "error", err)
		return
	}
	s.logger.Info("deleted all annotations", "rows", n)
	s.Changed()
}

// QueryAll returns a live list of every annotation.
func (s *Store) QueryAll(ctx context.Context) *LiveQuery {
	return s.live(ctx, "all", Filter{})
}

// QueryFor returns a live list of annotations for a track.
func (s *Store) QueryFor(ctx context.Context, title, artist string) *LiveQuery {
	return s.live(ctx, "song", Filter{Title: &title, Artist: &artist})
}

// Search returns a live list of annotations whose text contains text.
// Matching is case-sensitive.
func (s *Store) Search(ctx context.Context, text string) *LiveQuery {
	return s.live(ctx, "search", Filter{Contains: text})
}

// QueryWithReaction returns a live list of annotations carrying a reaction.
func (s *Store) QueryWithReaction(ctx context.Context) *LiveQuery {
	return s.live(ctx, "reaction", Filter{WithReaction: true})
}

// QueryWithRating returns a live list of rated annotations.
func (s *Store) QueryWithRating(ctx context.Context) *LiveQuery {
	return s.live(ctx, "rating", Filter{WithRating: true})
}

// Count returns the number of annotations, or 0 on error.
func (s *Store) Count(ctx context.Context) int {
	n, err := s.db.Count(ctx, Filter{})
	if err != nil {
		s.logger.Warn("failed to count annotations", "error", err)
		return 0
	}
	return n
}

// Latest returns the newest annotation, or nil.
func (s *Store) Latest(ctx context.Context) *model.Annotation {
	rows, err := s.db.Select(ctx, Filter{Limit: 1})
	if err != nil {
		s.logger.Warn("failed to read latest annotation", "error", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

// HasAnyFor reports whether a track has at least one annotation.
func (s *Store) HasAnyFor(ctx context.Context, title, artist string) bool {
	n, err := s.db.Count(ctx, Filter{Title: &title, Artist: &artist})
	if err != nil {
		s.logger.Warn("failed to check annotations for song", "title", title, "error", err)
		return false
	}
	return n > 0
}

// ListFor returns the current annotations for a track, newest first.
func (s *Store) ListFor(ctx context.Context, title, artist string) []model.Annotation {
	return s.list(ctx, Filter{Title: &title, Artist: &artist})
}

// List runs a one-shot query.
func (s *Store) List(ctx context.Context, f Filter) []model.Annotation {
	return s.list(ctx, f)
}

// HealthCheck reports whether the database handle is open.
func (s *Store) HealthCheck() bool {
	return s.db.IsOpen()
}

// Ping checks that the database file answers a round trip.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach %s: %w", s.path, err)
	}
	return nil
}

// Changed re-runs every live query. Mutations call it; the file watcher
// calls it when another process writes the database.
func (s *Store) Changed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for q := range s.queries {
		q.invalidate()
	}
}

// Close stops all live queries and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	queries := s.queries
	s.queries = make(map[*LiveQuery]struct{})
	s.mu.Unlock()

	for q := range queries {
		q.Close()
	}

	openMu.Lock()
	delete(openPaths, s.path)
	openMu.Unlock()

	return s.db.Close()
}

func (s *Store) list(ctx context.Context, f Filter) []model.Annotation {
	rows, err := s.db.Select(ctx, f)
	if err != nil {
		s.logger.Warn("failed to query annotations", "error", err)
		return []model.Annotation{}
	}
	return rows
}

func (s *Store) live(ctx context.Context, name string, f Filter) *LiveQuery {
	q := newLiveQuery(ctx, name, func(ctx context.Context) []model.Annotation {
		return s.list(ctx, f)
	}, s.remove, s.logger)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		q.Close()
		go q.run()
		return q
	}
	s.queries[q] = struct{}{}
	s.mu.Unlock()

	go q.run()
	return q
}

func (s *Store) remove(q *LiveQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queries, q)
}
