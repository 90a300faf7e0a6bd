package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/tracknote/internal/config"
	"github.com/jmylchreest/tracknote/internal/dbus"
	"github.com/jmylchreest/tracknote/internal/decode"
	"github.com/jmylchreest/tracknote/internal/listener"
	"github.com/jmylchreest/tracknote/internal/overlay"
	"github.com/jmylchreest/tracknote/internal/playback"
	"github.com/jmylchreest/tracknote/internal/store"
)

// AppName is used as the toast sender name and desktop entry.
const AppName = "tracknoted"

const defaultRetry = 5 * time.Second

// ErrRunning is returned by Start on a daemon that was already started.
var ErrRunning = errors.New("daemon already started")

// Options configures a Daemon.
type Options struct {
	Config     *config.DaemonConfig
	ConfigPath string          // Watched for hot reload when set
	Level      *slog.LevelVar  // Updated on reload when set
	Source     listener.Source // nil = D-Bus monitor
	Sender     Sender          // nil = D-Bus notifier
}

// Daemon owns every long-lived component except the window.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	cfg         *config.DaemonConfig
	store       *store.Store
	watcher     *store.FileWatcher
	broadcaster *playback.Broadcaster
	adapter     *listener.Adapter
	toaster     *Toaster
	reloader    *ConfigWatcher
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// New creates a daemon. Nothing is opened until Start.
func New(opts Options, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.DefaultDaemonConfig()
	}
	if opts.Sender == nil {
		opts.Sender = dbus.NewNotifier(AppName, logger)
	}
	if opts.Source == nil {
		opts.Source = dbus.NewMonitor(dbus.MonitorOptions{
			Source:      opts.Config.Listener.Source,
			AppNames:    opts.Config.SourceAliases(),
			MPRISPlayer: opts.Config.Listener.MPRISPlayer,
		}, logger)
	}

	d := &Daemon{
		opts:        opts,
		logger:      logger,
		cfg:         opts.Config,
		broadcaster: playback.NewBroadcaster(logger),
		toaster:     NewToaster(opts.Sender, logger),
	}
	decoder := decode.NewDecoder(opts.Config.Listener.Source, logger)
	d.adapter = listener.NewAdapter(opts.Source, decoder, logger)
	d.applyToast(opts.Config.Toast)
	return d
}

// Start opens the store, starts the broadcaster and begins connecting the
// listener. Listener failures are retried in the background.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return ErrRunning
	}

	path := d.cfg.StorePath()
	st, err := store.Open(path, d.logger)
	if err != nil {
		return fmt.Errorf("failed to open annotation store: %w", err)
	}
	d.store = st
	d.logger.Info("annotation store opened", "path", path, "count", st.Count(ctx))

	if w, err := store.NewFileWatcher(st, d.logger); err != nil {
		d.logger.Warn("failed to create store watcher", "error", err)
	} else if err := w.Start(); err != nil {
		d.logger.Warn("failed to start store watcher", "error", err)
		_ = w.Stop()
	} else {
		d.watcher = w
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.started = true

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.broadcaster.Run(runCtx, d.adapter.Updates())
	}()
	go d.maintain(runCtx)

	if d.opts.ConfigPath != "" {
		d.reloader = NewConfigWatcher(d.opts.ConfigPath, d.logger)
		d.reloader.SetReloadCallback(d.applyConfig)
		d.reloader.Start(runCtx, d.cfg)
	}

	return nil
}

// Stop shuts everything down and waits for background work to finish.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	cancel, watcher, reloader, st := d.cancel, d.watcher, d.reloader, d.store
	d.mu.Unlock()

	cancel()
	if reloader != nil {
		reloader.Stop()
	}
	d.wg.Wait()

	// The forwarder may already have exited on cancel, in which case
	// Disconnect leaves the source open.
	d.adapter.Disconnect()
	if err := d.opts.Source.Close(); err != nil {
		d.logger.Debug("failed to close notification source", "error", err)
	}

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			d.logger.Warn("failed to stop store watcher", "error", err)
		}
	}
	if err := st.Close(); err != nil {
		d.logger.Warn("failed to close annotation store", "error", err)
	}
	if c, ok := d.opts.Sender.(io.Closer); ok {
		_ = c.Close()
	}
	d.logger.Info("daemon stopped")
}

// Store returns the annotation store. It is nil before Start.
func (d *Daemon) Store() *store.Store {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store
}

// Broadcaster returns the playback broadcaster.
func (d *Daemon) Broadcaster() *playback.Broadcaster {
	return d.broadcaster
}

// Listener returns the listener adapter.
func (d *Daemon) Listener() *listener.Adapter {
	return d.adapter
}

// Toaster returns the feedback toaster.
func (d *Daemon) Toaster() *Toaster {
	return d.toaster
}

// OverlayOptions returns the controller options from the current config.
func (d *Daemon) OverlayOptions() overlay.Options {
	d.mu.Lock()
	defer d.mu.Unlock()
	return overlay.Options{
		InitialX: d.cfg.Overlay.InitialX,
		InitialY: d.cfg.Overlay.InitialY,
		AutoOpen: d.cfg.Overlay.AutoOpen,
	}
}

// maintain keeps the listener connected, retrying while disconnected.
func (d *Daemon) maintain(ctx context.Context) {
	defer d.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if d.adapter.State() == listener.Disconnected {
			if err := d.adapter.Connect(ctx); err != nil {
				d.logger.Debug("listener connect failed, will retry", "retry", d.retry(), "error", err)
			}
		}
		timer.Reset(d.retry())
	}
}

func (d *Daemon) retry() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.cfg.Listener.Retry.Duration(); r > 0 {
		return r
	}
	return defaultRetry
}

// applyConfig takes the settings that can change at runtime. Listener and
// store settings need a restart.
func (d *Daemon) applyConfig(cfg *config.DaemonConfig) {
	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if d.opts.Level != nil {
		if level, err := config.ParseLevel(cfg.Log.Level); err == nil {
			d.opts.Level.Set(level)
		}
	}
	d.applyToast(cfg.Toast)

	if old.Listener.Source != cfg.Listener.Source || old.StorePath() != cfg.StorePath() {
		d.logger.Info("listener and store changes take effect after restart")
	}
}

func (d *Daemon) applyToast(tc config.ToastConfig) {
	d.toaster.SetEnabled(tc.Enabled)
	d.toaster.SetMinInterval(tc.MinInterval.Duration())
	d.toaster.SetTimeout(tc.Timeout.Duration())
}
