package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tracknote/internal/core"
	"github.com/jmylchreest/tracknote/internal/model"
)

func TestSongStatus(t *testing.T) {
	info := model.PlaybackInfo{Title: "Teardrop", Artist: "Massive Attack"}

	empty := songStatus(info, nil)
	assert.Equal(t, "0", empty.Text)
	assert.Equal(t, "empty", empty.Class)
	assert.Contains(t, empty.Tooltip, "Teardrop - Massive Attack")

	var annotations []model.Annotation
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		a := model.Annotation{SongTitle: info.Title, SongArtist: info.Artist, Text: text}
		annotations = append(annotations, a)
	}
	annotations[0].SetReaction("🔥")

	st := songStatus(info, annotations)
	assert.Equal(t, "5", st.Text)
	assert.Equal(t, "annotated", st.Alt)
	assert.Equal(t, "Teardrop - Massive Attack\n🔥 one\ntwo\nthree\n…and 2 more", st.Tooltip)
}

func TestOutputStatus(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, outputStatus(&sb, WaybarStatus{Alt: "idle", Class: "idle"}))
	assert.Equal(t, `{"text":"","alt":"idle","class":"idle"}`+"\n", sb.String())
}

func TestCommentText(t *testing.T) {
	text, err := commentText([]string{"that", "intro"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "that intro", text)

	text, err = commentText([]string{"-"}, strings.NewReader("  from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	text, err = commentText(nil, strings.NewReader("piped"))
	require.NoError(t, err)
	assert.Equal(t, "piped", text)

	_, err = commentText(nil, strings.NewReader(" \n"))
	assert.ErrorIs(t, err, model.ErrEmptyText)
}

func TestLookup(t *testing.T) {
	annotations := []model.Annotation{
		{ID: 7, SongTitle: "A"},
		{ID: 3, SongTitle: "B"},
	}

	a, err := lookup(annotations, "2")
	require.NoError(t, err)
	assert.Equal(t, "B", a.SongTitle)

	a, err = lookup(annotations, "7 | 5 minutes ago | A - X | note")
	require.NoError(t, err)
	assert.Equal(t, "A", a.SongTitle)

	_, err = lookup(annotations, "9")
	assert.Error(t, err)
	_, err = lookup(annotations, "12 | gone")
	assert.Error(t, err)
	_, err = lookup(annotations, "nope")
	assert.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "[]\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	err = writeFileAtomic(path, func(w io.Writer) error { return errors.New("boom") })
	assert.Error(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data), "failed write leaves old file")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file cleaned up")
}

func TestRenderSongs(t *testing.T) {
	var buf bytes.Buffer
	renderSongs(&buf, []core.Song{
		{Title: "Teardrop", Artist: "Massive Attack", Count: 1200},
		{Title: "Windowlicker", Artist: "Aphex Twin", Count: 3},
	})

	out := buf.String()
	assert.Contains(t, out, "COMMENTS")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "Windowlicker")
	assert.Less(t, strings.Index(out, "Teardrop"), strings.Index(out, "Windowlicker"))
}
