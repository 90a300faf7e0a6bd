package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/config"
	"github.com/jmylchreest/tracknote/internal/store"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// noStore marks commands that run without opening the database.
const noStore = "no-store"

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		dbPath     string
		configPath string
	}
	logger *slog.Logger

	annotationStore *store.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tracknote",
	Short: "Song comments for whatever is playing",
	Long: `tracknote reads and edits the song comments written through the
tracknoted overlay.

Comments live in a SQLite database shared with the daemon; changes made here
show up in the overlay straight away.

Running tracknote without a subcommand launches the interactive browser.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cmd.Annotations[noStore] != "" {
			return nil
		}

		path := globalOpts.dbPath
		if path == "" {
			if err := config.EnsureDataDir(); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			path = config.ResolveStorePath(cfg.Store.Path)
		}

		annotationStore, err = store.Open(path, logger)
		if err != nil {
			return fmt.Errorf("failed to open annotation store: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStore()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd, args)
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// PostRun is skipped when RunE fails.
	if cerr := closeStore(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.dbPath, "db", "",
		"Path to annotation database (default: ~/.local/share/tracknote/annotations.db)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/tracknote/config.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func closeStore() error {
	if annotationStore == nil {
		return nil
	}
	s := annotationStore
	annotationStore = nil
	return s.Close()
}
