package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	httpapi "github.com/tbourn/go-portfolio-backend/internal/http"
	"github.com/tbourn/go-portfolio-backend/internal/indexer"
	"github.com/tbourn/go-portfolio-backend/internal/scheduler"
)

const (
	shutdownTimeout = 15 * time.Second
	rebuildTimeout  = 5 * time.Minute
)

type serveOptions struct {
	port    string
	noBuild bool

	// ready, when set, receives the bound address once the listener is up.
	ready func(addr string)
}

func newServeCmd(a *app) *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the content and search API",
		Long: `serve builds the search artifact, loads it into the search engine and
starts the HTTP API. When INDEX_REBUILD_SCHEDULE is set the artifact is
rebuilt and the engine refreshed on that cron schedule. SIGINT or SIGTERM
drains in-flight requests before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.port, "port", "p", "", "override PORT")
	cmd.Flags().BoolVar(&opts.noBuild, "no-build", false, "skip the startup build and load the existing artifact")
	return cmd
}

func runServe(ctx context.Context, a *app, opts serveOptions) error {
	cfg := a.cfg
	if opts.port != "" {
		cfg.Port = opts.port
	}

	src, closeSrc, err := openSource(cfg.Content)
	if err != nil {
		return err
	}
	defer closeSrc()

	resolver := content.NewResolver(src)
	engine := newEngine(cfg.Search)
	pipeline := scheduler.NewPipeline(indexer.NewBuilder(resolver), engine, cfg.Search.IndexPath)

	if !opts.noBuild {
		if err := pipeline.Rebuild(ctx); err != nil {
			log.Error().Err(err).Msg("startup index build failed; serving the previous artifact if any")
		}
	}
	if !engine.IsReady() {
		if err := engine.Initialize(ctx); err != nil {
			log.Warn().Err(err).Msg("search engine not ready; search returns 503 until the next rebuild")
		}
	}

	if cfg.RebuildSchedule != "" {
		sched, err := scheduler.New(cfg.RebuildSchedule, pipeline.Rebuild, scheduler.WithTimeout(rebuildTimeout))
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				log.Warn().Err(err).Msg("scheduler stop timed out")
			}
		}()
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Content: resolver,
		Search:  engine,
		Rebuild: pipeline,
		Version: a.version,
	}, cfg)
	srv := httpapi.NewServer(cfg, r)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("content_backend", cfg.Content.Backend).
		Str("search_state", engine.State().String()).
		Int("search_items", engine.IndexSize()).
		Msg("http server listening")
	if opts.ready != nil {
		opts.ready(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
