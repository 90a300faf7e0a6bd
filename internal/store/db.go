package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jmylchreest/tracknote/internal/model"
)

// SchemaVersion is the current database schema version, kept in PRAGMA user_version.
const SchemaVersion = 1

// ErrDBClosed is returned when operations are attempted on a closed database.
var ErrDBClosed = errors.New("database is closed")

const schema = `
CREATE TABLE IF NOT EXISTS annotations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	song_title  TEXT    NOT NULL,
	song_artist TEXT    NOT NULL,
	artwork_ref TEXT,
	text        TEXT    NOT NULL,
	timestamp   INTEGER NOT NULL,
	rating      INTEGER CHECK (rating BETWEEN 1 AND 5),
	reaction    TEXT,
	source_id   TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_annotations_song ON annotations (song_title, song_artist);
`

const selectColumns = `id, song_title, song_artist, artwork_ref, text, timestamp, rating, reaction, source_id`

// Filter restricts a Select. The zero value selects everything.
type Filter struct {
	Title, Artist *string // Both set: rows for exactly that track
	Contains      string  // Case-sensitive substring of the text
	WithReaction  bool
	WithRating    bool
	Limit         int // 0 = unlimited
}

// DB is the SQLite table of annotations. Methods return plain errors.
type DB struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// OpenDB opens or creates the database at path.
func OpenDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// One connection so the per-connection pragmas below always apply.
	db.SetMaxOpenConns(1)

	// WAL lets the CLI write while the daemon holds the file open.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set schema version: %w", err)
	}

	return &DB{db: db, path: path}, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Insert writes a and returns the assigned id. a.ID is ignored.
func (d *DB) Insert(ctx context.Context, a model.Annotation) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrDBClosed
	}

	ts := a.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO annotations (song_title, song_artist, artwork_ref, text, timestamp, rating, reaction, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SongTitle, a.SongArtist, nullString(a.ArtworkRef), a.Text, ts.UnixMilli(),
		nullInt(a.Rating), nullString(a.Reaction), a.SourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert annotation: %w", err)
	}
	return res.LastInsertId()
}

// DeleteByID removes one row. Missing rows are not an error.
func (d *DB) DeleteByID(ctx context.Context, id int64) (int64, error) {
	return d.exec(ctx, `DELETE FROM annotations WHERE id = ?`, id)
}

// DeleteFor removes every row for a track.
func (d *DB) DeleteFor(ctx context.Context, title, artist string) (int64, error) {
	return d.exec(ctx, `DELETE FROM annotations WHERE song_title = ? AND song_artist = ?`, title, artist)
}

// DeleteAll empties the table.
func (d *DB) DeleteAll(ctx context.Context) (int64, error) {
	return d.exec(ctx, `DELETE FROM annotations`)
}

// Select returns matching rows, newest first. Ties are broken by id so the
// order is stable for rows written in the same millisecond.
func (d *DB) Select(ctx context.Context, f Filter) ([]model.Annotation, error) {
	where, args := f.clause()
	q := `SELECT ` + selectColumns + ` FROM annotations` + where + ` ORDER BY timestamp DESC, id DESC`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, ErrDBClosed
	}

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	result := make([]model.Annotation, 0)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// Count returns the number of matching rows.
func (d *DB) Count(ctx context.Context, f Filter) (int, error) {
	where, args := f.clause()

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return 0, ErrDBClosed
	}

	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM annotations`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count annotations: %w", err)
	}
	return n, nil
}

// Ping reports whether the handle is open and the file reachable.
func (d *DB) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDBClosed
	}
	return d.db.PingContext(ctx)
}

// IsOpen reports whether Close has not yet been called.
func (d *DB) IsOpen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.closed
}

// Close releases the database handle.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func (d *DB) exec(ctx context.Context, q string, args ...any) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrDBClosed
	}

	res, err := d.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete annotations: %w", err)
	}
	return res.RowsAffected()
}

// clause builds the WHERE part of a query. instr is used instead of LIKE
// because LIKE folds ASCII case.
func (f Filter) clause() (string, []any) {
	var conds []string
	var args []any

	if f.Title != nil && f.Artist != nil {
		conds = append(conds, "song_title = ? AND song_artist = ?")
		args = append(args, *f.Title, *f.Artist)
	}
	if f.Contains != "" {
		conds = append(conds, "instr(text, ?) > 0")
		args = append(args, f.Contains)
	}
	if f.WithReaction {
		conds = append(conds, "reaction IS NOT NULL")
	}
	if f.WithRating {
		conds = append(conds, "rating IS NOT NULL")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row scanner) (model.Annotation, error) {
	var (
		a        model.Annotation
		artwork  sql.NullString
		ts       int64
		rating   sql.NullInt64
		reaction sql.NullString
	)
	if err := row.Scan(&a.ID, &a.SongTitle, &a.SongArtist, &artwork, &a.Text, &ts, &rating, &reaction, &a.SourceID); err != nil {
		return model.Annotation{}, fmt.Errorf("failed to scan annotation: %w", err)
	}

	a.Timestamp = time.UnixMilli(ts)
	if artwork.Valid {
		a.ArtworkRef = &artwork.String
	}
	if rating.Valid {
		r := int(rating.Int64)
		a.Rating = &r
	}
	if reaction.Valid {
		a.Reaction = &reaction.String
	}
	return a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
