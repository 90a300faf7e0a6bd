package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/core"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/store"
)

var rmOpts struct {
	title     string
	artist    string
	olderThan string
	all       bool
	yes       bool
	dryRun    bool
}

var rmCmd = &cobra.Command{
	Use:   "rm [id...]",
	Short: "Delete comments",
	Long: `Delete comments by id, for one song, by age, or all of them.

Ids can be bare numbers or lines picked from "tracknote list -f dmenu".

Examples:
  # Delete two comments
  tracknote rm 12 15

  # Delete every comment on a song
  tracknote rm --title Teardrop --artist "Massive Attack"

  # Preview removing comments older than a year
  tracknote rm --older-than 52w --dry-run

  # Start over
  tracknote rm --all --yes`,
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().StringVar(&rmOpts.title, "title", "", "Delete every comment on this song (with --artist)")
	rmCmd.Flags().StringVar(&rmOpts.artist, "artist", "", "Song artist for --title")
	rmCmd.Flags().StringVar(&rmOpts.olderThan, "older-than", "",
		"Delete comments older than this duration (e.g., 48h, 7d, 1w)")
	rmCmd.Flags().BoolVar(&rmOpts.all, "all", false, "Delete every comment")
	rmCmd.Flags().BoolVarP(&rmOpts.yes, "yes", "y", false, "Confirm --all")
	rmCmd.Flags().BoolVar(&rmOpts.dryRun, "dry-run", false,
		"Show what would be removed without removing it")
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	modes := 0
	for _, set := range []bool{len(args) > 0, rmOpts.title != "", rmOpts.olderThan != "", rmOpts.all} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("specify exactly one of: ids, --title/--artist, --older-than, --all")
	}

	switch {
	case rmOpts.all:
		n := annotationStore.Count(ctx)
		if rmOpts.dryRun {
			fmt.Printf("Would remove %d comments\n", n)
			return nil
		}
		if !rmOpts.yes {
			return fmt.Errorf("refusing to delete %d comments without --yes", n)
		}
		annotationStore.DeleteAll(ctx)
		fmt.Printf("Removed %d comments\n", n)
		return nil

	case rmOpts.title != "":
		if rmOpts.artist == "" {
			return fmt.Errorf("--title requires --artist")
		}
		n := len(annotationStore.ListFor(ctx, rmOpts.title, rmOpts.artist))
		if rmOpts.dryRun {
			fmt.Printf("Would remove %d comments on %s - %s\n", n, rmOpts.title, rmOpts.artist)
			return nil
		}
		annotationStore.DeleteAllFor(ctx, rmOpts.title, rmOpts.artist)
		fmt.Printf("Removed %d comments on %s - %s\n", n, rmOpts.title, rmOpts.artist)
		return nil
	}

	all := annotationStore.List(ctx, store.Filter{})

	var targets []model.Annotation
	if rmOpts.olderThan != "" {
		age, err := core.ParseDuration(rmOpts.olderThan)
		if err != nil {
			return err
		}
		if age <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		targets = core.OlderThan(all, age, nowFunc())
	} else {
		for _, arg := range args {
			id, ok := core.ParseID(arg)
			if !ok {
				return fmt.Errorf("invalid comment id %q", arg)
			}
			a := core.LookupByID(all, id)
			if a == nil {
				return fmt.Errorf("comment %d not found", id)
			}
			targets = append(targets, *a)
		}
	}

	if len(targets) == 0 {
		fmt.Println("No comments to remove")
		return nil
	}

	for _, a := range targets {
		if rmOpts.dryRun {
			fmt.Printf("Would remove [%d] %s - %s: %s\n", a.ID, a.SongTitle, a.SongArtist, a.TextTruncated(40))
			continue
		}
		annotationStore.Delete(ctx, a)
	}
	if !rmOpts.dryRun {
		fmt.Printf("Removed %d comments\n", len(targets))
	}
	return nil
}
