package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/adapter/output"
	"github.com/jmylchreest/tracknote/internal/core"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/store"
)

// outputFlags are shared by commands that print annotation lists.
type outputFlags struct {
	format   string
	field    string
	template string
	width    int
	noIndex  bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "",
		"Output format (plain, dmenu, json, yaml, ids; default from config)")
	cmd.Flags().StringVar(&o.field, "field", "",
		"Output a single field (id, title, artist, text, rating, reaction, source, all)")
	cmd.Flags().StringVar(&o.template, "template", "",
		"Custom Go template for plain/dmenu output")
	cmd.Flags().IntVarP(&o.width, "width", "w", -1,
		"Maximum comment width in plain/dmenu output (0=unlimited; default from config)")
	cmd.Flags().BoolVar(&o.noIndex, "no-index", false,
		"Omit the index column")
}

// write prints annotations in the selected format.
func (o *outputFlags) write(annotations []model.Annotation) error {
	if o.field != "" {
		for i := range annotations {
			fmt.Println(output.FormatField(&annotations[i], o.field))
		}
		return nil
	}

	name := o.format
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = o.template
	opts.ShowIndex = !o.noIndex
	opts.TextWidth = cfg.Output.Truncate
	if o.width >= 0 {
		opts.TextWidth = o.width
	}

	return output.NewFormatter(format, opts).Format(os.Stdout, annotations)
}

var listOpts struct {
	title      string
	artist     string
	search     string
	reaction   bool
	rated      bool
	minRating  string
	since      string
	source     string
	sortBy     string
	sortOrder  string
	limit      int
	outputFlags
}

var listCmd = &cobra.Command{
	Use:   "list [index|id]",
	Short: "List song comments",
	Long: `List song comments, newest first.

With an index (1-based, after filtering) or a picked dmenu line as argument,
prints that single comment.

Examples:
  # Everything, in the configured format
  tracknote list

  # Comments for one song
  tracknote list --title Teardrop --artist "Massive Attack"

  # Top rated comments from the last week as JSON
  tracknote list --min-rating 4 --since 7d --format json

  # Pick a comment with fuzzel and print its text
  tracknote list -f dmenu | fuzzel -d | xargs -0 tracknote list --field text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listOpts.title, "title", "",
		"Song title (with --artist selects one song)")
	listCmd.Flags().StringVar(&listOpts.artist, "artist", "",
		"Song artist (exact match)")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "",
		"Only comments whose text contains this (case-sensitive)")
	listCmd.Flags().BoolVar(&listOpts.reaction, "reaction", false,
		"Only comments with a reaction")
	listCmd.Flags().BoolVar(&listOpts.rated, "rated", false,
		"Only rated comments")
	listCmd.Flags().StringVar(&listOpts.minRating, "min-rating", "",
		"Only comments rated at least this (1-5)")
	listCmd.Flags().StringVar(&listOpts.since, "since", "",
		"Only comments from the last duration (e.g., 1h, 7d, 1w)")
	listCmd.Flags().StringVar(&listOpts.source, "source", "",
		"Only comments captured from this source id")
	listCmd.Flags().StringVar(&listOpts.sortBy, "sort", "timestamp",
		"Sort by field (timestamp, title, artist, rating)")
	listCmd.Flags().StringVar(&listOpts.sortOrder, "order", "desc",
		"Sort order (asc, desc)")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", -1,
		"Maximum number of comments (0=unlimited; default from config)")
	listOpts.outputFlags.register(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if listOpts.title != "" && listOpts.artist == "" {
		return fmt.Errorf("--title requires --artist")
	}

	f := store.Filter{
		Contains:     listOpts.search,
		WithReaction: listOpts.reaction,
		WithRating:   listOpts.rated,
	}
	if listOpts.title != "" {
		f.Title, f.Artist = &listOpts.title, &listOpts.artist
	}

	annotations := annotationStore.List(cmd.Context(), f)
	logger.Debug("listed annotations", "count", len(annotations))

	since, err := core.ParseDuration(listOpts.since)
	if err != nil {
		return err
	}
	minRating, err := core.ParseRating(listOpts.minRating)
	if err != nil {
		return err
	}
	field, err := core.ParseSortField(listOpts.sortBy)
	if err != nil {
		return err
	}
	order, err := core.ParseSortOrder(listOpts.sortOrder)
	if err != nil {
		return err
	}

	limit := cfg.Output.Limit
	if listOpts.limit >= 0 {
		limit = listOpts.limit
	}

	fo := core.FilterOptions{
		Since:     since,
		Source:    listOpts.source,
		MinRating: minRating,
	}
	if listOpts.title == "" {
		fo.Artist = listOpts.artist
	}
	annotations = core.Filter(annotations, fo)
	core.Sort(annotations, core.SortOptions{Field: field, Order: order})
	if limit > 0 && len(annotations) > limit {
		annotations = annotations[:limit]
	}

	if len(args) == 1 {
		a, err := lookup(annotations, args[0])
		if err != nil {
			return err
		}
		annotations = []model.Annotation{*a}
	}

	return listOpts.write(annotations)
}

// lookup resolves an index, id or picked dmenu line against annotations.
// A bare number is tried as an index first.
func lookup(annotations []model.Annotation, arg string) (*model.Annotation, error) {
	if idx, err := strconv.Atoi(arg); err == nil {
		if a := core.LookupByIndex(annotations, idx); a != nil {
			return a, nil
		}
		return nil, fmt.Errorf("no comment at index %d", idx)
	}
	id, ok := core.ParseID(arg)
	if !ok {
		return nil, fmt.Errorf("invalid comment reference %q", arg)
	}
	if a := core.LookupByID(annotations, id); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("comment %d not found", id)
}

var searchOpts struct {
	limit int
	outputFlags
}

var searchCmd = &cobra.Command{
	Use:   "search TEXT",
	Short: "Find comments containing text",
	Long: `Find comments whose text contains TEXT. Matching is case-sensitive;
an empty TEXT matches every comment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		annotations := annotationStore.List(cmd.Context(), store.Filter{Contains: args[0], Limit: searchOpts.limit})
		return searchOpts.write(annotations)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchOpts.limit, "limit", "n", 0,
		"Maximum number of comments (0=unlimited)")
	searchOpts.outputFlags.register(searchCmd)
}
