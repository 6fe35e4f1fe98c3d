package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"alforqan/internal/api"
	"alforqan/internal/organizer"
)

func newGalleryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List rendered videos in the gallery",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := organizer.ListGallery(cfg.Paths.OutputDir)
			if err != nil {
				return err
			}
			converted := api.FromGalleryEntries(entries)
			if asJSON {
				return writeJSON(cmd, map[string]any{"gallery": converted})
			}
			if len(converted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Gallery is empty")
				return nil
			}
			rows := make([][]string, 0, len(converted))
			for _, entry := range converted {
				verses := ""
				if entry.Surah > 0 {
					verses = fmt.Sprintf("%d:%d-%d", entry.Surah, entry.StartAyah, entry.EndAyah)
				}
				rows = append(rows, []string{
					filepath.Base(entry.Path),
					entry.Title,
					verses,
					entry.Reciter,
					formatSize(entry.SizeBytes),
				})
			}
			table := renderTable(
				[]string{"File", "Title", "Verses", "Reciter", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	value := float64(bytes)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	for _, suffix := range suffixes {
		value /= unit
		if value < unit || suffix == suffixes[len(suffixes)-1] {
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%d B", bytes)
}
