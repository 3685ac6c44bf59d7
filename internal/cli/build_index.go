package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-portfolio-backend/internal/config"
	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/indexer"
)

func newBuildIndexCmd(a *app) *cobra.Command {
	var (
		out      string
		watch    bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "build-index",
		Short: "Build the static search index artifact",
		Long: `build-index loads every published work case study, lab project and blog
post, projects them into search records and writes the artifact atomically.
A failed build leaves the previous artifact in place and exits non-zero.

With --watch (markdown backend only) the artifact is rebuilt whenever a
markdown file under the content directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.Search.IndexPath
			if out != "" {
				path = out
			}
			if watch && a.cfg.Content.Backend != config.BackendMarkdown {
				return errors.New("--watch requires the markdown content backend")
			}

			src, closeSrc, err := openSource(a.cfg.Content)
			if err != nil {
				return err
			}
			defer closeSrc()
			builder := indexer.NewBuilder(content.NewResolver(src))

			sum, err := builder.BuildToFile(cmd.Context(), path)
			if err != nil && !watch {
				return err
			}
			if err == nil {
				printSummary(cmd, sum)
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log.Info().Str("dir", a.cfg.Content.Dir).Str("path", path).Msg("watching content for changes")
			return indexer.Watch(ctx, a.cfg.Content.Dir, func(ctx context.Context) error {
				sum, err := builder.BuildToFile(ctx, path)
				if err == nil {
					printSummary(cmd, sum)
				}
				return err
			}, debounce)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "artifact path (default SEARCH_INDEX_PATH)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when markdown content changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "quiet period before a watch rebuild")
	return cmd
}

func printSummary(cmd *cobra.Command, sum indexer.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records (%s) to %s in %s\n",
		sum.Total, humanize.Bytes(uint64(sum.Bytes)), sum.Path, sum.Duration.Round(time.Millisecond))
	for _, k := range domain.Kinds {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %d\n", k.ArtifactKey(), sum.PerKind[k])
	}
}
