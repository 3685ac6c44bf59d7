package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
	"github.com/tbourn/go-portfolio-backend/internal/sysutil"
)

func validStatus(s string) bool {
	switch s {
	case domain.StatusDraft, domain.StatusReview, domain.StatusPublished:
		return true
	}
	return false
}

func newImportCmd(a *app) *cobra.Command {
	var (
		from   string
		dbPath string
		status string
		kinds  []string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import markdown content into the SQLite backend",
		Long: `import reads markdown files (front matter plus body) from the content
directory and upserts them into the SQLite database keyed by (kind, key).
Existing rows are overwritten, so the command can be re-run after edits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validStatus(status) {
				return fmt.Errorf("invalid --status %q (want draft, review or published)", status)
			}
			ks, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			dir := sysutil.FirstNonEmpty(from, a.cfg.Content.Dir)
			path := sysutil.FirstNonEmpty(dbPath, a.cfg.Content.DBPath)

			db, closeDB, err := openDB(path)
			if err != nil {
				return err
			}
			defer closeDB()

			src := content.NewMarkdownSource(dir)
			ctx := cmd.Context()
			total := 0
			for _, k := range ks {
				items, err := src.List(ctx, k)
				if err != nil {
					return fmt.Errorf("read %s content: %w", k, err)
				}
				for _, it := range items {
					rec := domain.RecordFromItem(it, status)
					if err := repo.UpsertContent(ctx, db, &rec); err != nil {
						return fmt.Errorf("upsert %s/%s: %w", k, it.Key, err)
					}
				}
				total += len(items)
				log.Debug().Str("kind", string(k)).Int("items", len(items)).Msg("imported")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d items from %s into %s as %s\n", total, dir, path, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "markdown root (default CONTENT_DIR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default DB_PATH)")
	cmd.Flags().StringVar(&status, "status", domain.StatusPublished, "status given to imported rows")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "kinds to import (default all)")
	return cmd
}
