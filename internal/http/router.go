// Package httpapi wires the gin transport to the content resolver, the search
// engine and the rebuild pipeline. It owns middleware ordering, CORS posture,
// route layout and the http.Server settings.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-portfolio-backend/internal/config"
	"github.com/tbourn/go-portfolio-backend/internal/http/handlers"
	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
)

const (
	// Webhooks and GETs carry no meaningful bodies.
	maxBodyBytes = 64 << 10

	pathHealth     = "/health"
	pathMetrics    = "/metrics"
	pathArtifact   = "/api/search"
	pathRevalidate = "/api/revalidate"
)

// Deps are the collaborators the routes are bound to.
type Deps struct {
	Content handlers.ContentService
	Search  handlers.SearchService
	// Rebuild may be nil; the webhook then only reports affected paths.
	Rebuild handlers.Rebuilder
	Version string
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs, webhook secret masked
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP; health and metrics exempt)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskQueryParams: []string{"secret"},
		SkipPaths:       []string{pathHealth, pathMetrics},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET(pathMetrics, gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP(), pathHealth, pathMetrics)
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(deps.Content, deps.Search, deps.Rebuild, handlers.Options{
		ArtifactPath:       cfg.Search.IndexPath,
		ArtifactMaxAge:     cfg.Search.IndexMaxAge,
		RevalidationSecret: cfg.RevalidationSecret,
		Version:            deps.Version,
	})

	r.GET(pathHealth, h.Health)

	// Fixed routes consumed by the site.
	r.GET(pathArtifact, gzip.Gzip(gzip.DefaultCompression), h.Artifact)
	r.GET(pathRevalidate, h.RevalidateUsage)
	r.POST(pathRevalidate, h.Revalidate)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		api.GET("/search", h.Search)
		api.GET("/search/suggestions", h.Suggestions)

		api.GET("/content/:kind", h.ListContent)
		api.GET("/content/:kind/:key", h.GetContent)
		api.GET("/content/:kind/:key/related", h.RelatedContent)
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// only the allowlist. The API is read-only apart from the webhook, which is
// called server to server.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Accept", "If-None-Match"},
		ExposeHeaders:    []string{middleware.HeaderRequestID, "ETag", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Set ACAO even without an Origin header so cached artifact responses
		// are usable by any site.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	base.AllowOrigins = origins
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			c.Writer.Header().Add("Vary", "Origin")
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// NewServer returns an http.Server for handler with the configured limits.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// limitBody caps request bodies at maxBytes; larger bodies fail on read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
