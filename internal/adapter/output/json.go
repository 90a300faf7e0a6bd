package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tracknote/internal/model"
)

// JSONFormatter formats annotations as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes annotations as a JSON array. An empty list encodes as [].
func (f *JSONFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	if annotations == nil {
		annotations = []model.Annotation{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(annotations)
}

// FormatSingle writes a single annotation as JSON.
func (f *JSONFormatter) FormatSingle(w io.Writer, a *model.Annotation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(a)
}

// YAMLFormatter formats annotations as a YAML sequence.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes annotations as YAML.
func (f *YAMLFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	if annotations == nil {
		annotations = []model.Annotation{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(annotations); err != nil {
		return err
	}
	return enc.Close()
}
