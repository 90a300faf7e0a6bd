package display

import (
	"sync"
	"time"

	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/tracknote/internal/overlay"
)

// Scheduler runs work on the GLib main loop.
type Scheduler struct {
	post func(func())
}

// NewScheduler returns a scheduler backed by glib.IdleAdd.
func NewScheduler() *Scheduler {
	return &Scheduler{post: func(f func()) { glib.IdleAdd(f) }}
}

// Post queues f on the main loop. Safe from any goroutine.
func (s *Scheduler) Post(f func()) {
	s.post(f)
}

// AfterFunc runs f on the main loop once d has elapsed.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) overlay.Timer {
	t := &timer{}
	t.t = time.AfterFunc(d, func() {
		s.post(func() {
			if t.fire() {
				f()
			}
		})
	})
	return t
}

// timer is stopped or fired exactly once.
type timer struct {
	mu   sync.Mutex
	t    *time.Timer
	done bool
}

func (t *timer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Stop reports false if f already ran or the timer was stopped before. A
// call that is queued on the main loop but has not run yet is still
// cancelled.
func (t *timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.t.Stop()
	return true
}
