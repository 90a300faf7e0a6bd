package overlay

import (
	"time"

	"github.com/jmylchreest/tracknote/internal/model"
)

// Surface is the window the controller drives. All methods are called on the
// UI context.
type Surface interface {
	ScreenSize() Screen
	ApplyLayout(Layout) error
	SetPanelVisible(visible bool) error

	// ShowPlayback fills the detail panel. When ok is false, info holds the
	// "no song" placeholder pair.
	ShowPlayback(info model.PlaybackInfo, ok bool)
	// ShowIndicator updates the collapsed indicator; info is nil when idle.
	ShowIndicator(info *model.PlaybackInfo, playing bool)
	ShowAnnotations(annotations []model.Annotation)
	SetEmptyState(empty bool)
	OpenAnnotationEntry(info model.PlaybackInfo)
	Toast(message string)
}

// Timer is a pending scheduled call.
type Timer interface {
	// Stop cancels the call. It reports false if the call already ran or was stopped.
	Stop() bool
}

// Scheduler runs work on the UI context.
type Scheduler interface {
	// Post queues f. It is safe to call from any goroutine.
	Post(f func())
	// AfterFunc runs f on the UI context after d.
	AfterFunc(d time.Duration, f func()) Timer
}
