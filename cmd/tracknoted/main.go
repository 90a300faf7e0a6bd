// Package main is the entry point for the tracknoted overlay daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/tracknote/internal/config"
	"github.com/jmylchreest/tracknote/internal/daemon"
	"github.com/jmylchreest/tracknote/internal/display"
	"github.com/jmylchreest/tracknote/internal/overlay"
	"github.com/jmylchreest/tracknote/internal/theme"
)

const appID = "io.github.jmylchreest.tracknoted"

// Build-time variables
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/tracknote/tracknoted.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("tracknoted version", version)
		return
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.DaemonConfigPath()
	}
	cfg, err := config.LoadDaemonConfig(path)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if l, err := config.ParseLevel(cfg.Log.Level); err == nil {
		level.Set(l)
	}
	if *verbose {
		level.Set(slog.LevelDebug)
	}

	os.Exit(run(cfg, path, level, logger))
}

func run(cfg *config.DaemonConfig, configPath string, level *slog.LevelVar, logger *slog.Logger) int {
	logger.Info("starting tracknoted", "version", version, "source", cfg.Listener.Source)

	app := adw.NewApplication(appID, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := daemon.New(daemon.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Level:      level,
	}, logger)

	var (
		host    *display.Host
		ctrl    *overlay.Controller
		styles  *theme.Watcher
		running atomic.Bool
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(app.Quit)
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		if err := d.Start(ctx); err != nil {
			logger.Error("failed to start daemon", "error", err)
			app.Quit()
			return
		}

		sched := display.NewScheduler()
		host = display.NewHost(&app.Application, sched, d.Toaster(), cfg.Overlay.Monitor, logger)
		if err := host.Build(); err != nil {
			logger.Error("failed to create overlay window", "error", err)
			app.Quit()
			return
		}

		sheet, err := theme.Load(cfg.StylePath())
		if err != nil {
			logger.Warn("failed to load user stylesheet", "path", cfg.StylePath(), "error", err)
		} else {
			host.SetUserStyle(sheet.CSS)
			styles = theme.NewWatcher(sheet, logger)
			styles.SetChangeCallback(func(css string) {
				sched.Post(func() { host.SetUserStyle(css) })
			})
			styles.Start(ctx)
		}

		ctrl = overlay.NewController(host, sched, d.Broadcaster(), d.Store(), d.OverlayOptions(), logger)
		host.Bind(ctx, ctrl)
		ctrl.Start(ctx)
		host.Present()

		logger.Info("tracknoted ready")
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if styles != nil {
			styles.Stop()
		}
		if ctrl != nil {
			ctrl.Close()
		}
		if host != nil {
			host.Destroy()
		}
		d.Stop()
		running.Store(false)
	})

	// Flags are already parsed; GTK only sees the program name.
	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
	}
	return status
}
