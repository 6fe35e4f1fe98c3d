package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"alforqan/internal/api"
	"alforqan/internal/logging"
	"alforqan/internal/reciters"
)

func newRecitersCommand(ctx *commandContext) *cobra.Command {
	var search string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reciters",
		Short: "List available reciters",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := fetchReciters(cmd, ctx, search)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"reciters": list})
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reciters found")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, reciter := range list {
				rows = append(rows, []string{
					strconv.Itoa(reciter.ID),
					reciter.Name,
					reciter.Bitrate,
					reciter.Subfolder,
				})
			}
			table := renderTable(
				[]string{"ID", "Name", "Bitrate", "Folder"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter reciters by name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func fetchReciters(cmd *cobra.Command, ctx *commandContext, search string) ([]api.ReciterEntry, error) {
	client, err := ctx.dialDaemon(cmd.Context())
	if err != nil {
		return nil, err
	}
	if client != nil {
		return client.Reciters(cmd.Context(), search)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	catalogClient := reciters.NewClient(cfg, reciters.NewHTTPBreaker("everyayah-catalog"), logging.NewNop())
	catalog, err := catalogClient.Catalog(cmd.Context())
	if err != nil {
		return nil, err
	}
	list := catalog.List()
	if term := strings.TrimSpace(search); term != "" {
		list = catalog.Search(term)
	}
	return api.FromReciters(list), nil
}
