package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voxarchive/internal/catalog"
	"voxarchive/internal/config"
	"voxarchive/internal/export"
	"voxarchive/internal/series"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the series catalog as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = cfg.ExportPath()
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			store, err := catalog.OpenExisting(cfg.CatalogPath())
			if err != nil {
				return err
			}
			m, err := series.LoadExisting(cfg.SeriesPath())
			if err != nil {
				return err
			}
			summary, err := export.Export(target, m, store.Episodes())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d episodes to %s\n", summary.Rows, target)
			fmt.Fprintf(out, "Series: %d (%d named, %d independent episodes)\n", summary.Series, summary.NamedSeries, summary.Independent)
			if summary.MissingDates > 0 {
				fmt.Fprintf(out, "Rows missing a date: %d\n", summary.MissingDates)
			}
			if summary.MissingURLs > 0 {
				fmt.Fprintf(out, "Rows missing a URL: %d\n", summary.MissingURLs)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "CSV destination (defaults to the data directory)")
	return cmd
}
