package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tracknote/internal/model"
)

func TestFileWatcher_RefreshesOnExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	fw, err := NewFileWatcher(s, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	q := s.QueryAll(ctx)
	defer q.Close()
	next(t, q)

	// A second handle stands in for another process writing the file.
	other, err := OpenDB(path)
	require.NoError(t, err)
	defer other.Close()

	_, err = other.Insert(ctx, testAnnotation("A", "X", "from the cli", time.Now()))
	require.NoError(t, err)

	eventually(t, q, func(rows []model.Annotation) bool { return len(rows) == 1 })
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	fw, err := NewFileWatcher(s, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	require.NoError(t, fw.Start())
	require.NoError(t, fw.Stop())
	require.NoError(t, fw.Stop())
}
