package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/jmylchreest/tracknote/internal/model"
)

// DmenuFormatter formats annotations one per line for dmenu-style pickers.
// The leading column is the row id so a picked line can be passed back to
// commands that take an id.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	if opts.Separator == "" {
		opts.Separator = " | "
	}
	return &DmenuFormatter{opts: opts, template: parseTemplate("dmenu", opts.Template)}
}

// Format writes annotations in dmenu format.
func (f *DmenuFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	now := f.opts.now()
	for i := range annotations {
		a := &annotations[i]
		var line string
		if f.template != nil {
			var sb strings.Builder
			data := templateData{Index: i + 1, Annotation: a, RelativeTime: relativeTime(a.Timestamp, now)}
			if err := f.template.Execute(&sb, data); err != nil {
				return err
			}
			line = sanitizeLine(sb.String())
		} else {
			line = f.line(a, now)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) line(a *model.Annotation, now time.Time) string {
	var parts []string
	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprint(a.ID))
	}
	if f.opts.ShowTime {
		parts = append(parts, relativeTime(a.Timestamp, now))
	}
	parts = append(parts, a.SongTitle+" - "+a.SongArtist)
	if a.Reaction != nil || a.Rating != nil {
		var meta []string
		if a.Reaction != nil {
			meta = append(meta, *a.Reaction)
		}
		if s := a.Stars(); s != "" {
			meta = append(meta, s)
		}
		parts = append(parts, strings.Join(meta, " "))
	}
	parts = append(parts, truncate(a, f.opts.TextWidth))
	return strings.Join(parts, f.opts.Separator)
}

// sanitizeLine keeps a rendered template on one line.
func sanitizeLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
