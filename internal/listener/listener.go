// Package listener connects a notification source to the playback broadcaster.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/tracknote/internal/decode"
	"github.com/jmylchreest/tracknote/internal/playback"
)

// EventKind distinguishes posted from removed notifications.
type EventKind int

const (
	Posted EventKind = iota
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Posted:
		return "posted"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a live notification change.
type Event struct {
	Kind    EventKind
	Payload decode.Payload
}

// Source is an external notification feed.
type Source interface {
	// Connect starts the feed. The channel is closed when the feed ends.
	Connect(ctx context.Context) (<-chan Event, error)
	// Active returns notifications that were already showing at connect time.
	Active(ctx context.Context) ([]decode.Payload, error)
	Close() error
}

// State of the adapter.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Adapter turns source events into broadcaster updates.
type Adapter struct {
	source  Source
	decoder *decode.Decoder
	updates chan playback.Update
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAdapter creates a disconnected adapter.
func NewAdapter(source Source, decoder *decode.Decoder, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		source:  source,
		decoder: decoder,
		updates: make(chan playback.Update, 16),
		logger:  logger,
	}
}

// Updates is drained by playback.Broadcaster.Run.
func (a *Adapter) Updates() <-chan playback.Update {
	return a.updates
}

// State returns the connection state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Connect opens the source, replays what is already active and then
// forwards live events. It is a no-op when already connected. On failure the
// adapter stays disconnected.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Connected {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	events, err := a.source.Connect(runCtx)
	if err != nil {
		cancel()
		a.logger.Error("failed to connect notification source", "error", err)
		return fmt.Errorf("failed to connect notification source: %w", err)
	}

	active, err := a.source.Active(runCtx)
	if err != nil {
		a.logger.Warn("failed to read active notifications", "error", err)
	}
	replayed := 0
	for _, p := range active {
		if a.posted(runCtx, p) {
			replayed++
		}
	}

	a.state = Connected
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.forward(runCtx, events, a.done)

	a.logger.Info("notification listener connected", "source", a.decoder.Source, "replayed", replayed)
	return nil
}

// Disconnect closes the source. Broadcaster state is left as it is.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	if a.state == Disconnected {
		a.mu.Unlock()
		return
	}
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	cancel()
	if err := a.source.Close(); err != nil {
		a.logger.Warn("failed to close notification source", "error", err)
	}
	<-done
	a.logger.Info("notification listener disconnected")
}

func (a *Adapter) forward(ctx context.Context, events <-chan Event, done chan struct{}) {
	defer close(done)
	defer a.disconnected()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				a.logger.Warn("notification source closed")
				return
			}
			switch ev.Kind {
			case Posted:
				a.posted(ctx, ev.Payload)
			case Removed:
				a.removed(ctx, ev.Payload)
			}
		}
	}
}

func (a *Adapter) disconnected() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Disconnected
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Adapter) posted(ctx context.Context, p decode.Payload) bool {
	info, ok := a.decoder.Decode(p)
	if !ok {
		return false
	}
	a.logger.Debug("now playing", "title", info.Title, "artist", info.Artist)
	return a.send(ctx, playback.Update{Info: &info})
}

func (a *Adapter) removed(ctx context.Context, p decode.Payload) {
	if !a.decoder.Matches(p.SourceID) {
		return
	}
	a.logger.Debug("playback notification removed", "source", p.SourceID)
	a.send(ctx, playback.Update{Clear: true})
}

func (a *Adapter) send(ctx context.Context, u playback.Update) bool {
	select {
	case a.updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
