package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/tracknote/internal/model"
)

// IDsFormatter outputs just the annotation row ids, one per line.
// Useful for piping to other commands (e.g., tracknote rm).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes annotation ids to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	for _, a := range annotations {
		if _, err := fmt.Fprintln(w, a.ID); err != nil {
			return err
		}
	}
	return nil
}
