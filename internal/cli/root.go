// Package cli implements the portfolio command line: building the search
// artifact, serving the HTTP API, querying the index, importing markdown into
// SQLite and inspecting content.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-portfolio-backend/internal/config"
	"github.com/tbourn/go-portfolio-backend/internal/observability"
	"github.com/tbourn/go-portfolio-backend/internal/sysutil"
)

// app is the state shared by every subcommand once the root pre-run hook
// has loaded configuration.
type app struct {
	version string
	cfg     config.Config

	envFile    string
	logLevel   string
	backend    string
	contentDir string
	indexPath  string

	shutdownOTel observability.ShutdownFunc
}

// NewRootCmd assembles the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio content and search backend",
		Long: `portfolio resolves work case studies, lab projects and blog posts from
markdown files, SQLite or a remote content API, builds the static search
index consumed by the site, and serves content and search over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.shutdownOTel == nil {
				return nil
			}
			return a.shutdownOTel(context.WithoutCancel(cmd.Context()))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL")
	pf.StringVar(&a.backend, "content-backend", "", "override CONTENT_BACKEND (markdown|sqlite|remote)")
	pf.StringVar(&a.contentDir, "content-dir", "", "override CONTENT_DIR")
	pf.StringVar(&a.indexPath, "index-path", "", "override SEARCH_INDEX_PATH")

	root.AddCommand(
		newBuildIndexCmd(a),
		newServeCmd(a),
		newSearchCmd(a),
		newImportCmd(a),
		newContentCmd(a),
	)
	return root
}

// Execute runs the command tree and returns the error to report, if any.
func Execute(ctx context.Context, version string) error {
	return NewRootCmd(version).ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command) error {
	if err := loadEnvFile(a.envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(sysutil.FirstNonEmpty(a.logLevel, cfg.LogLevel))
	cfg.Content.Backend = strings.ToLower(sysutil.FirstNonEmpty(a.backend, cfg.Content.Backend))
	cfg.Content.Dir = sysutil.FirstNonEmpty(a.contentDir, cfg.Content.Dir)
	cfg.Search.IndexPath = sysutil.FirstNonEmpty(a.indexPath, cfg.Search.IndexPath)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	a.cfg = cfg

	sysutil.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty, cmd.Name())

	shutdown, err := observability.SetupOTel(cmd.Context(), cfg.OTEL, a.version, cmd.Name())
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		shutdown = nil
	}
	a.shutdownOTel = shutdown
	return nil
}

// loadEnvFile reads KEY=VALUE pairs without overriding variables that are
// already set. A missing default file is ignored; a missing file named
// explicitly is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}
