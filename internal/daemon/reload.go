package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/tracknote/internal/config"
)

// ConfigWatcher polls the daemon config file and hands validated
// configurations to a callback.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath    string
	lastModTime   time.Time
	currentConfig *config.DaemonConfig
	pollInterval  time.Duration

	onReload func(cfg *config.DaemonConfig)
	onError  func(err error)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		logger:       logger,
		configPath:   path,
		pollInterval: time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *ConfigWatcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetReloadCallback sets the callback for a successfully reloaded config.
func (w *ConfigWatcher) SetReloadCallback(cb func(cfg *config.DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = cb
}

// SetErrorCallback sets the callback for a config that fails to load.
func (w *ConfigWatcher) SetErrorCallback(cb func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = cb
}

// Start begins watching.
func (w *ConfigWatcher) Start(ctx context.Context, initial *config.DaemonConfig) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.currentConfig = initial
	if info, err := os.Stat(w.configPath); err == nil {
		w.lastModTime = info.ModTime()
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("config watcher started", "path", w.configPath, "interval", interval)
}

// Stop stops watching and waits for the poll loop to exit.
func (w *ConfigWatcher) Stop() {
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
	w.logger.Debug("config watcher stopped")
}

// Current returns the last valid configuration.
func (w *ConfigWatcher) Current() *config.DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

func (w *ConfigWatcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check reloads the file if its modification time moved forward. A config
// that fails to parse or validate leaves the current one in place.
func (w *ConfigWatcher) check() {
	info, err := os.Stat(w.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Debug("failed to stat config file", "path", w.configPath, "error", err)
		}
		return
	}

	w.mu.Lock()
	if !info.ModTime().After(w.lastModTime) {
		w.mu.Unlock()
		return
	}
	w.lastModTime = info.ModTime()
	w.mu.Unlock()

	cfg, err := config.LoadDaemonConfig(w.configPath)

	w.mu.Lock()
	onReload, onError := w.onReload, w.onError
	if err == nil {
		w.currentConfig = cfg
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config reload failed", "path", w.configPath, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.logger.Info("config reloaded", "path", w.configPath)
	if onReload != nil {
		onReload(cfg)
	}
}
