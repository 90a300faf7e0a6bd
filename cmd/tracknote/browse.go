package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/store"
	"github.com/jmylchreest/tracknote/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive comment browser",
	Long: `Launch the interactive terminal browser for song comments.

The list follows the database live, so comments saved from the overlay
appear while it is open.

Key bindings:
  j/k, ↑/↓    Navigate list
  enter       View comment
  /           Search comment text (case-sensitive)
  f           Cycle filter: all, with reaction, rated
  c           Copy comment text to clipboard
  s           Copy "title - artist" to clipboard
  C / alt+c   Copy visible comments as JSON / YAML
  D           Delete comment
  ?           Show help
  q           Quit`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// Pick up comments written by tracknoted while the browser is open.
	watcher, err := store.NewFileWatcher(annotationStore, logger)
	if err != nil {
		logger.Warn("failed to create database watcher", "error", err)
	} else {
		if err := watcher.Start(); err != nil {
			logger.Warn("failed to start database watcher", "error", err)
		}
		defer watcher.Stop()
	}

	return tui.Run(cmd.Context(), tui.RunOptions{
		Config: cfg,
		Store:  annotationStore,
	})
}
