package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthDeep bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the comment database is usable",
	Long: `Check that the comment database is open. With --deep, also run a
round trip against the database file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !annotationStore.HealthCheck() {
			return fmt.Errorf("annotation store at %s is not healthy", annotationStore.Path())
		}
		if healthDeep {
			if err := annotationStore.Ping(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Printf("ok: %s (%d comments)\n", annotationStore.Path(), annotationStore.Count(cmd.Context()))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{noStore: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tracknote %s (commit: %s, built: %s)\n", version, commit, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().BoolVar(&healthDeep, "deep", false, "Also query the database file")
	rootCmd.AddCommand(versionCmd)
}
