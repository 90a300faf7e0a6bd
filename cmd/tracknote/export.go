package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tracknote/internal/adapter/output"
	"github.com/jmylchreest/tracknote/internal/store"
)

var exportOpts struct {
	format string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every comment as JSON or YAML",
	Long: `Export every stored comment, newest first.

Examples:
  tracknote export > comments.json
  tracknote export --format yaml --output ~/comments.yaml`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOpts.format, "format", "f", "json", "Export format (json, yaml)")
	exportCmd.Flags().StringVarP(&exportOpts.output, "output", "o", "", "Write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(exportOpts.format)
	if err != nil {
		return err
	}
	if format != output.FormatJSON && format != output.FormatYAML {
		return fmt.Errorf("export format must be json or yaml, got %s", format)
	}

	annotations := annotationStore.List(cmd.Context(), store.Filter{})
	formatter := output.NewFormatter(format, output.DefaultFormatterOptions())

	if exportOpts.output == "" {
		return formatter.Format(os.Stdout, annotations)
	}
	if err := writeFileAtomic(exportOpts.output, func(w io.Writer) error {
		return formatter.Format(w, annotations)
	}); err != nil {
		return err
	}
	logger.Info("exported comments", "count", len(annotations), "path", exportOpts.output)
	return nil
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
