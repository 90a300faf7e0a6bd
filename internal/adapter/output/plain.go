package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/jmylchreest/tracknote/internal/model"
)

// PlainFormatter formats annotations as readable text, grouped under their
// song.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{opts: opts, template: parseTemplate("plain", opts.Template)}
}

// Format writes annotations as plain text.
func (f *PlainFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	now := f.opts.now()
	for i := range annotations {
		if err := f.formatAnnotation(w, i+1, &annotations[i], now); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatAnnotation(w io.Writer, index int, a *model.Annotation, now time.Time) error {
	if f.template != nil {
		data := templateData{Index: index, Annotation: a, RelativeTime: relativeTime(a.Timestamp, now)}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}
	fmt.Fprintf(&sb, "%s - %s", a.SongTitle, a.SongArtist)
	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (%s)", relativeTime(a.Timestamp, now))
	}
	sb.WriteString("\n")

	var meta []string
	if a.Reaction != nil {
		meta = append(meta, *a.Reaction)
	}
	if stars := a.Stars(); stars != "" {
		meta = append(meta, stars)
	}
	text := truncate(a, f.opts.TextWidth)
	if len(meta) > 0 {
		text = strings.Join(meta, " ") + " " + text
	}
	sb.WriteString("    " + text + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatField outputs a specific field from an annotation.
func FormatField(a *model.Annotation, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return fmt.Sprint(a.ID)
	case "title", "song", "song_title":
		return a.SongTitle
	case "artist", "song_artist":
		return a.SongArtist
	case "text", "comment":
		return a.Text
	case "rating":
		if a.Rating == nil {
			return ""
		}
		return fmt.Sprint(*a.Rating)
	case "reaction":
		if a.Reaction == nil {
			return ""
		}
		return *a.Reaction
	case "source", "source_id":
		return a.SourceID
	case "all", "full":
		return fmt.Sprintf("%s - %s\n%s", a.SongTitle, a.SongArtist, a.Text)
	default:
		return a.Text
	}
}
