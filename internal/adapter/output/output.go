// Package output provides output formatters for annotations.
package output

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tracknote/internal/model"
)

// Formatter formats annotations for output.
type Formatter interface {
	// Format writes formatted annotations to the writer.
	Format(w io.Writer, annotations []model.Annotation) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatIDs   FormatType = "ids"
)

// ValidFormats lists the accepted format names.
func ValidFormats() []FormatType {
	return []FormatType{FormatPlain, FormatDmenu, FormatJSON, FormatYAML, FormatIDs}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (FormatType, error) {
	for _, f := range ValidFormats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q, must be one of: %v", name, ValidFormats())
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string    // Custom template for plain/dmenu format
	ShowIndex bool      // Plain: 1-based index; dmenu: row id
	ShowTime  bool      // Show relative time
	TextWidth int       // Maximum text length (0 = unlimited)
	Separator string    // Field separator for dmenu format
	Now       time.Time // Reference for relative times; zero = time.Now()
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: true,
		ShowTime:  true,
		TextWidth: 60,
		Separator: " | ",
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Annotation   *model.Annotation
	RelativeTime string
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			a := model.Annotation{Text: s}
			return a.TextTruncated(maxLen)
		},
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
	}
}

func parseTemplate(name, text string) *template.Template {
	if text == "" {
		return nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil
	}
	return tmpl
}

// relativeTime returns a human-readable age such as "3 minutes ago".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// truncate flattens and shortens text; width 0 only flattens.
func truncate(a *model.Annotation, width int) string {
	if width <= 0 {
		return a.TextTruncated(len(a.Text) + 1)
	}
	return a.TextTruncated(width)
}
