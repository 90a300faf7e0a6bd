package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/config"
	"github.com/jmylchreest/tracknote/internal/core"
	"github.com/jmylchreest/tracknote/internal/dbus"
	"github.com/jmylchreest/tracknote/internal/decode"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/store"
)

var addOpts struct {
	title    string
	artist   string
	rating   string
	reaction string
	source   string
	now      bool
}

var addCmd = &cobra.Command{
	Use:   "add [TEXT...]",
	Short: "Add a comment to a song",
	Long: `Add a comment to a song. The text is taken from the arguments, or from
stdin when there are none (or the only argument is "-").

With --now the song is read from the MPRIS player configured for tracknoted.

Examples:
  tracknote add --title Teardrop --artist "Massive Attack" --rating 5 "that intro"
  tracknote add --now --reaction 🔥 "turn it up"
  echo "long thoughts" | tracknote add --now`,
	// Comments read from a terminal would block forever without input.
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && isTerminal(os.Stdin) {
			return fmt.Errorf("no comment text given")
		}
		return nil
	},
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addOpts.title, "title", "", "Song title")
	addCmd.Flags().StringVar(&addOpts.artist, "artist", "", "Song artist")
	addCmd.Flags().StringVarP(&addOpts.rating, "rating", "r", "", "Rating 1-5 (or ★★★)")
	addCmd.Flags().StringVar(&addOpts.reaction, "reaction", "", "Reaction, usually an emoji")
	addCmd.Flags().StringVar(&addOpts.source, "source", "cli", "Source id recorded with the comment")
	addCmd.Flags().BoolVar(&addOpts.now, "now", false, "Comment on the song currently playing")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	text, err := commentText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	info := model.PlaybackInfo{Title: addOpts.title, Artist: addOpts.artist, SourceID: addOpts.source}
	if addOpts.now {
		info, err = nowPlaying(ctx)
		if err != nil {
			return err
		}
	}
	if info.Title == "" {
		return fmt.Errorf("specify --title or --now")
	}

	rating, err := core.ParseRating(addOpts.rating)
	if err != nil {
		return err
	}

	a := model.NewAnnotation(info, text)
	a.SetRating(rating)
	a.SetReaction(strings.TrimSpace(addOpts.reaction))
	if err := a.Validate(); err != nil {
		return err
	}

	id := annotationStore.Insert(ctx, a)
	if id == store.InsertFailed {
		return fmt.Errorf("failed to save comment for %s - %s", a.SongTitle, a.SongArtist)
	}
	fmt.Println(id)
	return nil
}

func commentText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read comment from stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", model.ErrEmptyText
	}
	return text, nil
}

// errNotPlaying is returned when the configured player has no current track.
var errNotPlaying = errors.New("no song playing")

// nowPlaying reads the current track from the player tracknoted listens to.
func nowPlaying(ctx context.Context) (model.PlaybackInfo, error) {
	dcfg, err := config.LoadDaemonConfig("")
	if err != nil {
		return model.PlaybackInfo{}, fmt.Errorf("failed to load daemon config: %w", err)
	}
	if dcfg.Listener.MPRISPlayer == "" {
		return model.PlaybackInfo{}, fmt.Errorf("no mpris_player configured in %s", config.DaemonConfigPath())
	}

	p, ok, err := dbus.NowPlaying(ctx, dcfg.Listener.MPRISPlayer, dcfg.Listener.Source)
	if err != nil {
		return model.PlaybackInfo{}, err
	}
	if !ok {
		return model.PlaybackInfo{}, errNotPlaying
	}

	info, ok := decode.NewDecoder(dcfg.Listener.Source, logger).Decode(p)
	if !ok {
		return model.PlaybackInfo{}, errNotPlaying
	}
	logger.Debug("read now playing", "title", info.Title, "artist", info.Artist)
	return info, nil
}

func isTerminal(f *os.File) bool {
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}
