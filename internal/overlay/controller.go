package overlay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmylchreest/tracknote/internal/gesture"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/playback"
	"github.com/jmylchreest/tracknote/internal/store"
)

// AutoOpenDelay is how long after expanding the entry surface opens by itself.
const AutoOpenDelay = 200 * time.Millisecond

// Toast messages.
const (
	MsgSaved     = "Comment saved!"
	MsgNoSong    = "No song playing"
	MsgSaveError = "Failed to save comment"
)

// ErrSaveFailed is returned when the store rejects an annotation.
var ErrSaveFailed = errors.New("failed to save annotation")

// Playback is the read side of the broadcaster.
type Playback interface {
	Subscribe() (playback.State, *playback.Subscription)
	Unsubscribe(*playback.Subscription)
	Current() (model.PlaybackInfo, bool)
}

// Annotations is the part of the store the overlay uses.
type Annotations interface {
	QueryFor(ctx context.Context, title, artist string) *store.LiveQuery
	Insert(ctx context.Context, a model.Annotation) int64
}

// Draft is the content of the annotation entry surface.
type Draft struct {
	Song     model.PlaybackInfo
	Text     string
	Rating   int    // 0 = none
	Reaction string // "" = none
}

// Options configures a Controller.
type Options struct {
	InitialX, InitialY int
	AutoOpen           bool // Open the entry surface after expanding
}

// DefaultOptions returns the standard start position with auto-open enabled.
func DefaultOptions() Options {
	return Options{InitialX: InitialX, InitialY: InitialY, AutoOpen: true}
}

type songKey struct {
	title, artist string
}

// Controller owns the overlay window state. Apart from SaveAnnotation, its
// methods must be called on the UI context.
type Controller struct {
	surface  Surface
	sched    Scheduler
	playback Playback
	store    Annotations
	opts     Options
	logger   *slog.Logger

	layout     Layout
	recognizer *gesture.Recognizer

	ctx      context.Context
	cancel   context.CancelFunc
	sub      *playback.Subscription
	query    *store.LiveQuery
	queryKey songKey
	autoOpen Timer
	started  bool
	closed   bool
}

// NewController creates a controller. Call Start to attach it to the surface.
func NewController(surface Surface, sched Scheduler, pb Playback, st Annotations, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		surface:  surface,
		sched:    sched,
		playback: pb,
		store:    st,
		opts:     opts,
		logger:   logger,
	}
	c.layout.X, c.layout.Y = Clamp(surface.ScreenSize(), opts.InitialX, opts.InitialY)
	c.recognizer = gesture.New(func(x, y int) (int, int) {
		return Clamp(c.surface.ScreenSize(), x, y)
	})
	return c
}

// Layout returns the current placement.
func (c *Controller) Layout() Layout {
	return c.layout
}

// Start places the window and begins following playback. The controller
// stops when ctx is done or Close is called.
func (c *Controller) Start(ctx context.Context) {
	if c.started || c.closed {
		return
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.applyLayout()
	if err := c.surface.SetPanelVisible(false); err != nil {
		c.logger.Warn("failed to hide panel", "error", err)
	}

	initial, sub := c.playback.Subscribe()
	c.sub = sub
	c.showIndicator(initial)

	go c.follow(c.ctx, sub)
	go func() {
		<-c.ctx.Done()
		c.sched.Post(c.Close)
	}()
}

// Close cancels the playback subscription, the live query and any pending
// auto-open together. It is safe to call more than once.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true

	c.stopAutoOpen()
	c.closeQuery()
	if c.sub != nil {
		c.playback.Unsubscribe(c.sub)
		c.sub = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.logger.Debug("overlay controller closed")
}

// HandlePointer feeds one pointer event through the gesture recognizer.
func (c *Controller) HandlePointer(ev gesture.Event) {
	if !c.active() {
		return
	}
	if ev.Kind == gesture.Press {
		ev.Origin = gesture.Point{X: c.layout.X, Y: c.layout.Y}
	}

	for _, eff := range c.recognizer.Handle(ev) {
		switch eff.Kind {
		case gesture.DragStarted:
			if c.layout.Expanded {
				c.Collapse()
			}
		case gesture.Moved:
			c.layout.X, c.layout.Y = eff.Position.X, eff.Position.Y
			c.applyLayout()
		case gesture.Snap:
			c.layout.X = Snap(c.surface.ScreenSize(), c.layout.X)
			c.applyLayout()
			c.logger.Debug("snapped to edge", "x", c.layout.X)
		case gesture.Tap:
			c.tap()
		}
	}
}

// Expand shows the detail panel and schedules the entry surface.
func (c *Controller) Expand() {
	if !c.active() {
		return
	}
	if err := c.surface.SetPanelVisible(true); err != nil {
		c.logger.Error("failed to expand panel", "error", err)
		return
	}
	c.layout.Expanded = true
	c.refresh()
	c.applyLayout()

	if c.opts.AutoOpen {
		c.stopAutoOpen()
		c.autoOpen = c.sched.AfterFunc(AutoOpenDelay, func() {
			c.autoOpen = nil
			if c.closed || !c.layout.Expanded {
				return
			}
			c.ShowAnnotationEntry()
		})
	}
}

// Collapse hides the detail panel.
func (c *Controller) Collapse() {
	if !c.active() {
		return
	}
	c.stopAutoOpen()
	if err := c.surface.SetPanelVisible(false); err != nil {
		c.logger.Error("failed to collapse panel", "error", err)
		return
	}
	c.layout.Expanded = false
	c.closeQuery()
	c.applyLayout()
}

// ShowAnnotationEntry opens the entry surface for the current track.
func (c *Controller) ShowAnnotationEntry() {
	if !c.active() {
		return
	}
	info, ok := c.playback.Current()
	if !ok {
		c.surface.Toast(MsgNoSong)
		return
	}
	c.surface.OpenAnnotationEntry(info)
}

// SaveAnnotation validates and stores d. It blocks on store I/O and may be
// called from any goroutine.
func (c *Controller) SaveAnnotation(ctx context.Context, d Draft) (int64, error) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return 0, model.ErrEmptyText
	}

	a := model.NewAnnotation(d.Song, text)
	a.SetRating(d.Rating)
	a.SetReaction(d.Reaction)
	if err := a.Validate(); err != nil {
		return 0, err
	}

	id := c.store.Insert(ctx, a)
	if id == store.InsertFailed {
		c.sched.Post(func() { c.surface.Toast(MsgSaveError) })
		return 0, ErrSaveFailed
	}

	c.logger.Info("annotation saved", "id", id, "title", a.SongTitle, "artist", a.SongArtist)
	c.sched.Post(func() { c.surface.Toast(MsgSaved) })
	return id, nil
}

// active reports whether the controller is between Start and Close.
func (c *Controller) active() bool {
	return c.started && !c.closed
}

func (c *Controller) tap() {
	if c.layout.Expanded {
		c.ShowAnnotationEntry()
		return
	}
	c.Expand()
}

// follow forwards broadcaster updates onto the UI context.
func (c *Controller) follow(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub.C:
			if !ok {
				return
			}
			c.sched.Post(func() { c.onPlayback(st) })
		}
	}
}

func (c *Controller) onPlayback(st playback.State) {
	if c.closed {
		return
	}
	c.showIndicator(st)
	if c.layout.Expanded {
		c.refresh()
	}
}

func (c *Controller) showIndicator(st playback.State) {
	c.surface.ShowIndicator(st.Info, st.Playing)
}

// refresh binds the current track into the panel and swaps the live query.
func (c *Controller) refresh() {
	info, ok := c.playback.Current()
	if !ok {
		c.surface.ShowPlayback(model.PlaybackInfo{Title: model.NoSongTitle, Artist: model.NoSongArtist}, false)
		c.closeQuery()
		c.surface.ShowAnnotations(nil)
		c.surface.SetEmptyState(true)
		return
	}
	c.surface.ShowPlayback(info, true)

	key := songKey{info.Title, info.Artist}
	if c.query != nil && c.queryKey == key {
		return
	}
	c.closeQuery()

	q := c.store.QueryFor(c.ctx, info.Title, info.Artist)
	c.query, c.queryKey = q, key
	go c.deliver(q)
}

// deliver forwards live query results onto the UI context. Results for a
// query that has since been replaced are dropped.
func (c *Controller) deliver(q *store.LiveQuery) {
	for rows := range q.C {
		c.sched.Post(func() {
			if c.closed || c.query != q {
				return
			}
			c.surface.ShowAnnotations(rows)
			c.surface.SetEmptyState(len(rows) == 0)
		})
	}
}

func (c *Controller) closeQuery() {
	if c.query != nil {
		c.query.Close()
		c.query = nil
		c.queryKey = songKey{}
	}
}

func (c *Controller) stopAutoOpen() {
	if c.autoOpen != nil {
		c.autoOpen.Stop()
		c.autoOpen = nil
	}
}

func (c *Controller) applyLayout() {
	if err := c.surface.ApplyLayout(c.layout); err != nil {
		c.logger.Error("failed to apply window layout", "x", c.layout.X, "y", c.layout.Y, "error", err)
	}
}
