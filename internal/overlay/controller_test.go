package overlay

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tracknote/internal/gesture"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/playback"
	"github.com/jmylchreest/tracknote/internal/store"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler queues work until the test goroutine, acting as the UI
// context, drains it.
type fakeScheduler struct {
	mu     sync.Mutex
	queue  []func()
	timers []*fakeTimer
}

func (s *fakeScheduler) Post(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, f)
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		f := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		f()
	}
}

// fireTimers runs every pending timer.
func (s *fakeScheduler) fireTimers() {
	timers := s.timers
	s.timers = nil
	for _, t := range timers {
		if !t.stopped && !t.fired {
			t.fired = true
			t.f()
		}
	}
}

func (s *fakeScheduler) pending() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// waitFor drains the scheduler until cond holds.
func (s *fakeScheduler) waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.drain()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type fakeSurface struct {
	screen      Screen
	layouts     []Layout
	panel       bool
	playback    model.PlaybackInfo
	playbackOK  bool
	indicator   *model.PlaybackInfo
	playing     bool
	annotations []model.Annotation
	empty       bool
	entries     []model.PlaybackInfo
	toasts      []string
}

func (f *fakeSurface) ScreenSize() Screen { return f.screen }

func (f *fakeSurface) ApplyLayout(l Layout) error {
	f.layouts = append(f.layouts, l)
	return nil
}

func (f *fakeSurface) SetPanelVisible(v bool) error {
	f.panel = v
	return nil
}

func (f *fakeSurface) ShowPlayback(info model.PlaybackInfo, ok bool) {
	f.playback, f.playbackOK = info, ok
}

func (f *fakeSurface) ShowIndicator(info *model.PlaybackInfo, playing bool) {
	f.indicator, f.playing = info, playing
}

func (f *fakeSurface) ShowAnnotations(a []model.Annotation) { f.annotations = a }
func (f *fakeSurface) SetEmptyState(empty bool)            { f.empty = empty }

func (f *fakeSurface) OpenAnnotationEntry(info model.PlaybackInfo) {
	f.entries = append(f.entries, info)
}

func (f *fakeSurface) Toast(msg string) { f.toasts = append(f.toasts, msg) }

type harness struct {
	c       *Controller
	surface *fakeSurface
	sched   *fakeScheduler
	bc      *playback.Broadcaster
	store   *store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "annotations.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := &harness{
		surface: &fakeSurface{screen: Screen{Width: 1920, Height: 1080}},
		sched:   &fakeScheduler{},
		bc:      playback.NewBroadcaster(nil),
		store:   st,
	}
	h.c = NewController(h.surface, h.sched, h.bc, st, DefaultOptions(), nil)
	h.c.Start(context.Background())
	t.Cleanup(h.c.Close)
	return h
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func (h *harness) pointer(kind gesture.EventKind, x, y int, after time.Duration) {
	h.c.HandlePointer(gesture.Event{Kind: kind, X: x, Y: y, Time: t0.Add(after)})
}

func (h *harness) tap() {
	h.pointer(gesture.Press, 100, 100, 0)
	h.pointer(gesture.Release, 100, 100, 50*time.Millisecond)
}

func TestController_StartAppliesInitialLayout(t *testing.T) {
	h := newHarness(t)

	require.NotEmpty(t, h.surface.layouts)
	assert.Equal(t, Layout{X: 50, Y: 200}, h.surface.layouts[0])
	assert.False(t, h.surface.panel)
	assert.Nil(t, h.surface.indicator)
}

func TestController_TapExpandsWithoutMoving(t *testing.T) {
	h := newHarness(t)
	h.bc.Publish(model.PlaybackInfo{Title: "Song A", Artist: "Artist X", SourceID: "spotify"})

	h.pointer(gesture.Press, 100, 100, 0)
	h.pointer(gesture.Move, 105, 103, 50*time.Millisecond)
	h.pointer(gesture.Release, 105, 103, 150*time.Millisecond)

	l := h.c.Layout()
	assert.True(t, l.Expanded)
	assert.Equal(t, 50, l.X)
	assert.Equal(t, 200, l.Y)
	assert.True(t, h.surface.panel)
	assert.True(t, h.surface.playbackOK)
	assert.Equal(t, "Song A", h.surface.playback.Title)

	pending := h.sched.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, AutoOpenDelay, pending[0].d)

	h.sched.fireTimers()
	require.Len(t, h.surface.entries, 1)
	assert.Equal(t, "Song A", h.surface.entries[0].Title)
}

func TestController_TapWhenExpandedOpensEntry(t *testing.T) {
	h := newHarness(t)
	h.bc.Publish(model.PlaybackInfo{Title: "Song A", Artist: "Artist X"})

	h.tap()
	h.tap()

	assert.Len(t, h.surface.entries, 1)
	assert.True(t, h.c.Layout().Expanded)
}

func TestController_DragMovesAndSnaps(t *testing.T) {
	h := newHarness(t)

	h.pointer(gesture.Press, 100, 100, 0)
	h.pointer(gesture.Move, 100, 140, 20*time.Millisecond)
	assert.Equal(t, Layout{X: 50, Y: 240}, h.c.Layout())

	h.pointer(gesture.Release, 100, 140, 60*time.Millisecond)
	assert.Equal(t, 50, h.c.Layout().X)
	assert.Empty(t, h.surface.entries)
	assert.False(t, h.c.Layout().Expanded)

	// Drag towards the left half: x grows because the window is right-anchored.
	h.pointer(gesture.Press, 1200, 300, time.Second)
	h.pointer(gesture.Move, 100, 300, time.Second+20*time.Millisecond)
	assert.Equal(t, 1150, h.c.Layout().X)
	h.pointer(gesture.Release, 100, 300, time.Second+40*time.Millisecond)
	assert.Equal(t, 1810, h.c.Layout().X)
}

func TestController_DragIsClamped(t *testing.T) {
	h := newHarness(t)

	h.pointer(gesture.Press, 500, 500, 0)
	h.pointer(gesture.Move, 5000, -5000, 10*time.Millisecond)

	l := h.c.Layout()
	assert.Equal(t, -50, l.X)
	assert.Equal(t, 0, l.Y)
}

func TestController_DragCollapsesAndCancelsAutoOpen(t *testing.T) {
	h := newHarness(t)
	h.bc.Publish(model.PlaybackInfo{Title: "Song A", Artist: "Artist X"})

	h.tap()
	require.True(t, h.c.Layout().Expanded)
	require.Len(t, h.sched.pending(), 1)

	h.pointer(gesture.Press, 100, 100, time.Second)
	h.pointer(gesture.Move, 100, 200, time.Second+10*time.Millisecond)

	assert.False(t, h.c.Layout().Expanded)
	assert.False(t, h.surface.panel)
	assert.Empty(t, h.sched.pending())

	h.sched.fireTimers()
	assert.Empty(t, h.surface.entries)
}

func TestController_ExpandedPanelFollowsAnnotations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.bc.Publish(model.PlaybackInfo{Title: "Song A", Artist: "Artist X"})

	h.c.Expand()
	h.sched.waitFor(t, func() bool { return h.surface.empty })

	_, err := h.c.SaveAnnotation(ctx, Draft{
		Song: model.PlaybackInfo{Title: "Song A", Artist: "Artist X"},
		Text: "  what a hook  ",
	})
	require.NoError(t, err)

	h.sched.waitFor(t, func() bool { return len(h.surface.annotations) == 1 })
	assert.False(t, h.surface.empty)
	assert.Equal(t, "what a hook", h.surface.annotations[0].Text)
	assert.Contains(t, h.surface.toasts, MsgSaved)

	// A track change swaps the live query.
	h.bc.Publish(model.PlaybackInfo{Title: "Song B", Artist: "Artist Y"})
	h.sched.waitFor(t, func() bool {
		return h.surface.playback.Title == "Song B" && len(h.surface.annotations) == 0
	})
	assert.True(t, h.surface.empty)
	assert.Equal(t, songKey{"Song B", "Artist Y"}, h.c.queryKey)
}

func TestController_ExpandWithoutSong(t *testing.T) {
	h := newHarness(t)

	h.c.Expand()
	assert.False(t, h.surface.playbackOK)
	assert.Equal(t, model.NoSongTitle, h.surface.playback.Title)
	assert.Equal(t, model.NoSongArtist, h.surface.playback.Artist)
	assert.True(t, h.surface.empty)

	h.sched.fireTimers()
	assert.Empty(t, h.surface.entries)
	assert.Equal(t, []string{MsgNoSong}, h.surface.toasts)
}

func TestController_CollapseCancelsAutoOpen(t *testing.T) {
	h := newHarness(t)
	h.bc.Publish(model.PlaybackInfo{Title: "Song A", Artist: "Artist X"})

	h.c.Expand()
	h.c.Collapse()
	h.c.Collapse()

	assert.False(t, h.c.Layout().Expanded)
	assert.Nil(t, h.c.query)
	h.sched.fireTimers()
	assert.Empty(t, h.surface.entries)
}

func TestController_IndicatorFollowsPlayback(t *testing.T) {
	h := newHarness(t)

	h.bc.Publish(model.PlaybackInfo{Title: "Song A", Artist: "Artist X"})
	h.sched.waitFor(t, func() bool { return h.surface.indicator != nil })
	assert.Equal(t, "Song A", h.surface.indicator.Title)
	assert.True(t, h.surface.playing)

	h.bc.Clear()
	h.sched.waitFor(t, func() bool { return h.surface.indicator == nil })
	assert.False(t, h.surface.playing)
}

func TestController_SaveAnnotationValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	song := model.PlaybackInfo{Title: "Song A", Artist: "Artist X"}

	_, err := h.c.SaveAnnotation(ctx, Draft{Song: song, Text: "   "})
	assert.ErrorIs(t, err, model.ErrEmptyText)

	_, err = h.c.SaveAnnotation(ctx, Draft{Song: song, Text: "ok", Rating: 9})
	assert.ErrorIs(t, err, model.ErrInvalidRating)

	id, err := h.c.SaveAnnotation(ctx, Draft{Song: song, Text: "ok", Rating: 0, Reaction: "🎵"})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	saved := h.store.ListFor(ctx, "Song A", "Artist X")
	require.Len(t, saved, 1)
	assert.Nil(t, saved[0].Rating)
	require.NotNil(t, saved[0].Reaction)
	assert.Equal(t, "🎵", *saved[0].Reaction)
}

func TestController_SaveAnnotationStoreFailure(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Close())

	_, err := h.c.SaveAnnotation(context.Background(), Draft{
		Song: model.PlaybackInfo{Title: "Song A", Artist: "Artist X"},
		Text: "lost",
	})
	assert.ErrorIs(t, err, ErrSaveFailed)

	h.sched.drain()
	assert.Equal(t, []string{MsgSaveError}, h.surface.toasts)
}

func TestController_CloseCancelsEverything(t *testing.T) {
	h := newHarness(t)
	h.bc.Publish(model.PlaybackInfo{Title: "Song A", Artist: "Artist X"})
	h.c.Expand()

	q := h.c.query
	require.NotNil(t, q)
	require.Len(t, h.sched.pending(), 1)

	h.c.Close()
	h.c.Close()

	assert.Empty(t, h.sched.pending())
	select {
	case <-q.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("live query still running after Close")
	}

	before := len(h.surface.layouts)
	h.bc.Publish(model.PlaybackInfo{Title: "Song B", Artist: "Artist Y"})
	h.tap()
	h.c.Expand()
	h.sched.drain()

	assert.Len(t, h.surface.layouts, before)
	assert.NotEqual(t, "Song B", h.surface.playback.Title)
}

func TestController_ContextCancelCloses(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "annotations.db"), nil)
	require.NoError(t, err)
	defer st.Close()

	surface := &fakeSurface{screen: Screen{Width: 1920, Height: 1080}}
	sched := &fakeScheduler{}
	c := NewController(surface, sched, playback.NewBroadcaster(nil), st, DefaultOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	sched.waitFor(t, func() bool { return c.closed })
}
