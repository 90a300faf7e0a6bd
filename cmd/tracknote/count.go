package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/core"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/store"
)

// nowFunc is the clock used by age-based commands.
var nowFunc = time.Now

var countOpts struct {
	title  string
	artist string
	bySong bool
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count comments",
	Long: `Print the number of stored comments, for every song or for one.

With --by-song, prints a table of songs ordered by comment count.`,
	RunE: runCount,
}

var latestOpts outputFlags

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the most recent comment",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := annotationStore.Latest(cmd.Context())
		if a == nil {
			return fmt.Errorf("no comments yet")
		}
		return latestOpts.write([]model.Annotation{*a})
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(latestCmd)

	countCmd.Flags().StringVar(&countOpts.title, "title", "", "Count comments on this song (with --artist)")
	countCmd.Flags().StringVar(&countOpts.artist, "artist", "", "Song artist for --title")
	countCmd.Flags().BoolVar(&countOpts.bySong, "by-song", false, "Break the count down by song")

	latestOpts.register(latestCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch {
	case countOpts.title != "":
		if countOpts.artist == "" {
			return fmt.Errorf("--title requires --artist")
		}
		fmt.Println(len(annotationStore.ListFor(ctx, countOpts.title, countOpts.artist)))

	case countOpts.bySong:
		renderSongs(os.Stdout, core.Songs(annotationStore.List(ctx, store.Filter{})))

	default:
		fmt.Println(annotationStore.Count(ctx))
	}
	return nil
}

// renderSongs writes a per-song comment table to w.
func renderSongs(w io.Writer, songs []core.Song) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Comments", "Title", "Artist"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
	})
	for _, s := range songs {
		t.AppendRow(table.Row{humanize.Comma(int64(s.Count)), s.Title, s.Artist})
	}
	t.Render()
}
