package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/search"
)

// ContentService is the read side of the content resolver used by the
// content endpoints.
type ContentService interface {
	Paginate(ctx context.Context, kind domain.Kind, page, pageSize int) (content.Page, error)
	FilterByTag(ctx context.Context, kind domain.Kind, tag string) []domain.ContentItem
	GetByKey(ctx context.Context, kind domain.Kind, key string) (domain.ContentItem, error)
	RelatedByTags(ctx context.Context, kind domain.Kind, excludeKey string, tags []string, limit int) []domain.ContentItem
}

// SearchService is the query side of the search engine.
type SearchService interface {
	Search(query string, limit int) (search.Response, error)
	Suggestions(partial string, limit int) ([]string, error)
	IsReady() bool
	IndexSize() int
	State() search.State
}

// Rebuilder regenerates the search artifact and reloads the engine.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Options carries the handler settings taken from configuration.
type Options struct {
	// ArtifactPath is the search artifact served by GET /api/search.
	ArtifactPath string
	// ArtifactMaxAge is the Cache-Control max-age of the artifact.
	ArtifactMaxAge time.Duration
	// RevalidationSecret guards the webhook; empty rejects every call.
	RevalidationSecret string
	// Version is reported by the health endpoint.
	Version string
}

// Handlers groups the HTTP endpoints and their dependencies.
type Handlers struct {
	content ContentService
	search  SearchService
	rebuild Rebuilder
	opts    Options
	now     func() time.Time
}

// New constructs Handlers. rebuild may be nil, in which case the webhook
// only reports what it would have revalidated.
func New(cs ContentService, ss SearchService, rebuild Rebuilder, opts Options) *Handlers {
	return &Handlers{content: cs, search: ss, rebuild: rebuild, opts: opts, now: time.Now}
}
