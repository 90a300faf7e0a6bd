// Package playback holds the current "now playing" state and fans it out to observers.
package playback

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/tracknote/internal/model"
)

// State is the value delivered to subscribers.
type State struct {
	Info    *model.PlaybackInfo // nil when nothing is playing
	Playing bool
}

// Subscription is a live feed of State values.
// C holds at most one pending value; a newer value replaces an unread one.
type Subscription struct {
	ID ulid.ULID
	C  <-chan State

	ch chan State
}

// Update is a message pushed into Run by the listener.
type Update struct {
	Info  *model.PlaybackInfo
	Clear bool
}

// Broadcaster is the single source of truth for what is playing.
type Broadcaster struct {
	mu      sync.Mutex
	current *model.PlaybackInfo
	playing bool
	history history
	subs    map[ulid.ULID]*Subscription

	logger *slog.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[ulid.ULID]*Subscription),
		logger: logger,
	}
}

// Publish makes info the current track, marks it playing and records it in history.
func (b *Broadcaster) Publish(info model.PlaybackInfo) {
	info.IsPlaying = true

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = &info
	b.playing = true
	if b.history.add(info) {
		b.logger.Debug("track added to history", "title", info.Title, "artist", info.Artist)
	}
	b.broadcast()
}

// Clear drops the current track. History is left untouched.
func (b *Broadcaster) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = nil
	b.playing = false
	b.broadcast()
}

// Reset clears both the current track and the history.
func (b *Broadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = nil
	b.playing = false
	b.history.reset()
	b.broadcast()
}

// Current returns the current track, if any.
func (b *Broadcaster) Current() (model.PlaybackInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return model.PlaybackInfo{}, false
	}
	return *b.current, true
}

// HasValue reports whether a track is current.
func (b *Broadcaster) HasValue() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil
}

// IsPlaying reports the playing flag.
func (b *Broadcaster) IsPlaying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// History returns recently played tracks, oldest first.
func (b *Broadcaster) History() []model.PlaybackInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.items()
}

// Subscribe returns the current state and a subscription for later changes.
func (b *Broadcaster) Subscribe() (State, *Subscription) {
	ch := make(chan State, 1)
	sub := &Subscription{
		ID: ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader),
		C:  ch,
		ch: ch,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[sub.ID] = sub
	b.logger.Debug("playback subscriber added", "id", sub.ID.String(), "subscribers", len(b.subs))
	return b.snapshot(), sub
}

// Unsubscribe stops delivery to sub and closes its channel.
// Calling it more than once, or with nil, is a no-op.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.ch)
	b.logger.Debug("playback subscriber removed", "id", sub.ID.String(), "subscribers", len(b.subs))
}

// Run applies updates until ctx is done or updates is closed.
func (b *Broadcaster) Run(ctx context.Context, updates <-chan Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			switch {
			case u.Clear:
				b.Clear()
			case u.Info != nil:
				b.Publish(*u.Info)
			}
		}
	}
}

// snapshot must be called with mu held.
func (b *Broadcaster) snapshot() State {
	if b.current == nil {
		return State{Playing: b.playing}
	}
	info := *b.current
	return State{Info: &info, Playing: b.playing}
}

// broadcast must be called with mu held. It never blocks: a pending unread
// value is replaced with the new one.
func (b *Broadcaster) broadcast() {
	st := b.snapshot()
	for _, sub := range b.subs {
		select {
		case sub.ch <- st:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- st
		}
	}
}
