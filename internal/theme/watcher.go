package theme

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Watcher polls a stylesheet and reports new CSS.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	sheet        *Stylesheet
	pollInterval time.Duration
	onChange     func(css string)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for sheet.
func NewWatcher(sheet *Stylesheet, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		sheet:        sheet,
		pollInterval: 1 * time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetChangeCallback sets the callback invoked, on the watcher goroutine,
// with the new CSS. An empty string means the file was removed.
func (w *Watcher) SetChangeCallback(callback func(css string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins watching. It returns immediately.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval, stop, done := w.pollInterval, w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.watchLoop(ctx, interval, stop, done)

	w.logger.Debug("stylesheet watcher started", "path", w.sheet.Path, "interval", interval)
}

// Stop stops watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("stylesheet watcher stopped")
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	w.mu.RLock()
	callback := w.onChange
	w.mu.RUnlock()

	changed, err := w.sheet.Reload()
	if err != nil {
		return
	}
	if changed {
		w.logger.Info("stylesheet changed, reloading", "path", w.sheet.Path)
		if callback != nil {
			callback(w.sheet.CSS)
		}
	}
}
