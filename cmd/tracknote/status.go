package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON for the playing song",
	Long: `Output the comment count for the song currently playing in Waybar's
custom module JSON format.

  "custom/tracknote": {
    "exec": "tracknote status",
    "interval": 5,
    "return-type": "json",
    "on-click": "tracknote browse"
  }

The output includes:
  - text: Number of comments on the playing song
  - alt/class: idle, empty or annotated
  - tooltip: The song and its latest comments`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	info, err := nowPlaying(ctx)
	if err != nil {
		if !errors.Is(err, errNotPlaying) {
			logger.Debug("failed to read player", "error", err)
		}
		return outputStatus(os.Stdout, WaybarStatus{Alt: "idle", Class: "idle", Tooltip: model.NoSongTitle})
	}

	annotations := annotationStore.ListFor(ctx, info.Title, info.Artist)
	return outputStatus(os.Stdout, songStatus(info, annotations))
}

// songStatus summarises the comments on the playing song.
func songStatus(info model.PlaybackInfo, annotations []model.Annotation) WaybarStatus {
	song := info.Title + " - " + info.Artist
	if len(annotations) == 0 {
		return WaybarStatus{Text: "0", Alt: "empty", Class: "empty", Tooltip: song + "\nNo comments yet"}
	}

	lines := []string{song}
	for i := range annotations[:min(len(annotations), 3)] {
		a := &annotations[i]
		prefix := ""
		if a.Reaction != nil {
			prefix = *a.Reaction + " "
		}
		lines = append(lines, prefix+a.TextTruncated(50))
	}
	if extra := len(annotations) - 3; extra > 0 {
		lines = append(lines, fmt.Sprintf("…and %d more", extra))
	}

	return WaybarStatus{
		Text:    fmt.Sprint(len(annotations)),
		Alt:     "annotated",
		Class:   "annotated",
		Tooltip: strings.Join(lines, "\n"),
	}
}

// outputStatus writes the status as JSON.
func outputStatus(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}
