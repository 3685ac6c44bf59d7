package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-portfolio-backend/internal/config"
	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
)

func newContentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect and manage content",
	}
	cmd.AddCommand(newContentListCmd(a), newContentStatusCmd(a))
	return cmd
}

func newContentListCmd(a *app) *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published keys per kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			src, closeSrc, err := openSource(a.cfg.Content)
			if err != nil {
				return err
			}
			defer closeSrc()

			r := content.NewResolver(src)
			out := cmd.OutOrStdout()
			for _, k := range ks {
				if _, err := r.LoadAll(cmd.Context(), k); err != nil {
					return err
				}
				count, latest := r.Stats(cmd.Context(), k)
				if count == 0 {
					fmt.Fprintf(out, "%s: none\n", k)
					continue
				}
				fmt.Fprintf(out, "%s: %d published, newest %s\n", k, count, humanize.Time(latest))
				for _, key := range r.Keys(cmd.Context(), k) {
					fmt.Fprintf(out, "  %s\n", k.URL(key))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "kinds to list (default all)")
	return cmd
}

func newContentStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <kind> <key> <draft|review|published>",
		Short: "Move a SQLite content row through its lifecycle",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Content.Backend != config.BackendSQLite {
				return errors.New("content status requires the sqlite content backend")
			}
			kind, ok := domain.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			key, status := args[1], args[2]
			if !validStatus(status) {
				return fmt.Errorf("invalid status %q", status)
			}

			db, closeDB, err := openDB(a.cfg.Content.DBPath)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.SetStatus(cmd.Context(), db, kind, key, status); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("%s/%s: %w", kind, key, content.ErrNotFound)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s is now %s\n", kind, key, status)
			return nil
		},
	}
}
