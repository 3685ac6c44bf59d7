package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-portfolio-backend/internal/search"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit       int
		asJSON      bool
		suggestions bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the search index",
		Long: `search loads the artifact the same way the server does (SEARCH_INDEX_URL,
else SEARCH_INDEX_PATH) and prints ranked results grouped by kind.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			engine := newEngine(a.cfg.Search)
			if err := engine.Initialize(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if suggestions {
				titles, err := engine.Suggestions(query, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, titles)
				}
				for _, t := range titles {
					fmt.Fprintln(out, t)
				}
				return nil
			}

			resp, err := engine.Search(query, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			printResults(cmd, resp)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default 20, or 5 with --suggest)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	cmd.Flags().BoolVar(&suggestions, "suggest", false, "print title suggestions instead of results")
	return cmd
}

func printResults(cmd *cobra.Command, resp search.Response) {
	out := cmd.OutOrStdout()
	if !resp.HasResults {
		fmt.Fprintf(out, "no results for %q\n", resp.Query)
		return
	}
	fmt.Fprintf(out, "%d of %d results for %q\n", len(resp.Results), resp.TotalResults, resp.Query)
	for _, r := range resp.Results {
		fmt.Fprintf(out, "  %-5s %-40s %s  (%.3f)\n", r.Item.Type, r.Item.Title, r.Item.URL, r.Score)
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
