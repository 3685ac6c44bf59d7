package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/utils"
)

// DefaultRelatedLimit is used by RelatedByTags when limit <= 0.
const DefaultRelatedLimit = 3

// Source is an upstream store of content. Implementations return only
// published items and report a missing key as ErrNotFound. The resolver
// never branches on which implementation it holds.
type Source interface {
	List(ctx context.Context, kind domain.Kind) ([]domain.ContentItem, error)
	Get(ctx context.Context, kind domain.Kind, key string) (domain.ContentItem, error)
}

// Page is one window of a kind's listing.
type Page struct {
	Items  []domain.ContentItem    `json:"items"`
	Window domain.PaginationWindow `json:"pagination"`
}

// Resolver reads published content through a Source and provides listing,
// lookup, pagination and relatedness queries. It holds no state between
// calls and is safe for concurrent use.
type Resolver struct {
	src          Source
	relatedLimit int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRelatedLimit overrides the default number of related items.
func WithRelatedLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.relatedLimit = n
		}
	}
}

// NewResolver returns a Resolver reading from src.
func NewResolver(src Source, opts ...Option) *Resolver {
	r := &Resolver{src: src, relatedLimit: DefaultRelatedLimit}
	for _, o := range opts {
		o(r)
	}
	return r
}

var tracer = otel.Tracer("content/Resolver")

// LoadAll returns every published item of kind, newest first. Unlike ListAll
// it reports source failures, which is what the index builder needs to fail
// fast instead of persisting a partial artifact.
func (r *Resolver) LoadAll(ctx context.Context, kind domain.Kind) ([]domain.ContentItem, error) {
	ctx, span := tracer.Start(ctx, "LoadAll",
		trace.WithAttributes(attribute.String("content.kind", string(kind))),
	)
	defer span.End()

	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	items, err := r.src.List(ctx, kind)
	if err != nil {
		span.RecordError(err)
		return nil, unavailable(kind, "", err)
	}
	out := make([]domain.ContentItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Kind = kind
	}
	SortNewestFirst(out)
	span.SetAttributes(attribute.Int("content.count", len(out)))
	return out, nil
}

// ListAll is LoadAll that degrades to an empty list when the source cannot be
// read, so listing pages keep rendering. The failure is logged.
func (r *Resolver) ListAll(ctx context.Context, kind domain.Kind) []domain.ContentItem {
	items, err := r.LoadAll(ctx, kind)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("content list failed; serving empty list")
		return []domain.ContentItem{}
	}
	return items
}

// GetByKey returns the published item with key, ErrNotFound when absent, or a
// *SourceError when the source fails.
func (r *Resolver) GetByKey(ctx context.Context, kind domain.Kind, key string) (domain.ContentItem, error) {
	ctx, span := tracer.Start(ctx, "GetByKey",
		trace.WithAttributes(
			attribute.String("content.kind", string(kind)),
			attribute.String("content.key", key),
		),
	)
	defer span.End()

	if !kind.Valid() {
		return domain.ContentItem{}, ErrUnknownKind
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ContentItem{}, ErrNotFound
	}
	item, err := r.src.Get(ctx, kind, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return domain.ContentItem{}, ErrNotFound
	case err != nil:
		span.RecordError(err)
		log.Warn().Err(err).Str("kind", string(kind)).Str("key", key).Msg("content lookup failed")
		return domain.ContentItem{}, unavailable(kind, key, err)
	}
	item.Kind = kind
	return item, nil
}

// Paginate returns the requested page of kind's listing. Out-of-range pages
// are clamped into [1, totalPages]; an empty listing yields page 1 of 0.
func (r *Resolver) Paginate(ctx context.Context, kind domain.Kind, page, pageSize int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, ErrInvalidPageSize
	}
	if !kind.Valid() {
		return Page{}, ErrUnknownKind
	}
	return paginate(r.ListAll(ctx, kind), page, pageSize), nil
}

// PaginateItems applies the same windowing as Paginate to an already
// resolved list, e.g. the output of FilterByTag.
func PaginateItems(items []domain.ContentItem, page, pageSize int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, ErrInvalidPageSize
	}
	return paginate(items, page, pageSize), nil
}

func paginate(all []domain.ContentItem, page, pageSize int) Page {
	total := len(all)
	pages := utils.TotalPages(total, pageSize)
	cur := utils.ClampPage(page, pages)
	start, end := utils.PageBounds(cur, pageSize, total)

	return Page{
		Items: all[start:end],
		Window: domain.PaginationWindow{
			CurrentPage:  cur,
			TotalPages:   pages,
			ItemsPerPage: pageSize,
			TotalItems:   total,
			HasNext:      cur < pages,
			HasPrevious:  cur > 1,
		},
	}
}

// RelatedByTags ranks the other items of kind by how many of tags they share
// (topical tags and tech stack combined). Items sharing nothing are dropped.
// Ties break on publication date, newest first, then key.
func (r *Resolver) RelatedByTags(ctx context.Context, kind domain.Kind, excludeKey string, tags []string, limit int) []domain.ContentItem {
	if limit <= 0 {
		limit = r.relatedLimit
	}
	ref := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t != "" {
			ref[t] = struct{}{}
		}
	}
	if len(ref) == 0 {
		return []domain.ContentItem{}
	}

	type scored struct {
		item  domain.ContentItem
		score int
	}
	var cands []scored
	for _, it := range r.ListAll(ctx, kind) {
		if it.Key == excludeKey {
			continue
		}
		n := 0
		for _, t := range it.AllTags() {
			if _, ok := ref[t]; ok {
				n++
			}
		}
		if n > 0 {
			cands = append(cands, scored{item: it, score: n})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.item.PublishedAt.Equal(b.item.PublishedAt) {
			return a.item.PublishedAt.After(b.item.PublishedAt)
		}
		return a.item.Key < b.item.Key
	})

	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]domain.ContentItem, len(cands))
	for i, c := range cands {
		out[i] = c.item
	}
	return out
}

// FilterByTag returns the items of kind carrying tag, either as a topical tag
// or in their tech stack. Matching is case-insensitive.
func (r *Resolver) FilterByTag(ctx context.Context, kind domain.Kind, tag string) []domain.ContentItem {
	tag = strings.TrimSpace(tag)
	out := []domain.ContentItem{}
	if tag == "" {
		return out
	}
	for _, it := range r.ListAll(ctx, kind) {
		for _, t := range it.AllTags() {
			if strings.EqualFold(t, tag) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Keys lists the keys of all published items of kind, newest first.
func (r *Resolver) Keys(ctx context.Context, kind domain.Kind) []string {
	items := r.ListAll(ctx, kind)
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	return keys
}

// Stats returns the number of published items of kind and the newest
// publication date (zero when empty).
func (r *Resolver) Stats(ctx context.Context, kind domain.Kind) (count int, latest time.Time) {
	items := r.ListAll(ctx, kind)
	if len(items) == 0 {
		return 0, time.Time{}
	}
	return len(items), items[0].PublishedAt
}

// SortNewestFirst orders items by publication date descending, breaking ties
// on key so the order is deterministic.
func SortNewestFirst(items []domain.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Key < b.Key
	})
}
