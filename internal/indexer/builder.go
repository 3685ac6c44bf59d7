package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// Loader is the part of content.Resolver the builder needs.
type Loader interface {
	LoadAll(ctx context.Context, kind domain.Kind) ([]domain.ContentItem, error)
}

var _ Loader = (*content.Resolver)(nil)

// Builder produces search artifacts from the content corpus.
type Builder struct {
	loader Loader
	now    func() time.Time
	stamp  bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the clock used for the generatedAt stamp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithoutTimestamp omits generatedAt, making output a pure function of the
// corpus.
func WithoutTimestamp() Option {
	return func(b *Builder) { b.stamp = false }
}

// NewBuilder returns a Builder reading through loader (usually a
// *content.Resolver).
func NewBuilder(loader Loader, opts ...Option) *Builder {
	b := &Builder{loader: loader, now: time.Now, stamp: true}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Summary reports what a build produced.
type Summary struct {
	Path     string
	Total    int
	PerKind  map[domain.Kind]int
	Bytes    int
	Duration time.Duration
}

var tracer = otel.Tracer("indexer/Builder")

// Build loads every kind and projects it into a SearchIndex. Any load failure
// aborts the whole build.
func (b *Builder) Build(ctx context.Context) (domain.SearchIndex, error) {
	ctx, span := tracer.Start(ctx, "Build")
	defer span.End()

	idx := domain.NewSearchIndex()
	for _, k := range domain.Kinds {
		items, err := b.loader.LoadAll(ctx, k)
		if err != nil {
			span.RecordError(err)
			return domain.SearchIndex{}, fmt.Errorf("build search index: load %s: %w", k, err)
		}
		recs := make([]domain.SearchIndexItem, 0, len(items))
		for _, it := range items {
			it.Kind = k
			recs = append(recs, Project(it))
		}
		idx.Set(k, recs)
	}
	if b.stamp {
		idx.GeneratedAt = b.now().UTC().Format(time.RFC3339)
	}
	if err := Validate(idx); err != nil {
		span.RecordError(err)
		return domain.SearchIndex{}, err
	}
	span.SetAttributes(attribute.Int("index.items", idx.Len()))
	return idx, nil
}

// BuildToFile builds the artifact and persists it at path. On failure nothing
// is written and any previous artifact stays in place.
func (b *Builder) BuildToFile(ctx context.Context, path string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "BuildToFile",
		trace.WithAttributes(attribute.String("index.path", path)),
	)
	defer span.End()

	start := time.Now()
	idx, err := b.Build(ctx)
	if err != nil {
		builds.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("path", path).Msg("search index build failed")
		return Summary{}, err
	}
	n, err := WriteFile(path, idx)
	if err != nil {
		builds.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("path", path).Msg("search index write failed")
		return Summary{}, fmt.Errorf("write search index: %w", err)
	}
	builds.WithLabelValues("ok").Inc()

	sum := Summary{
		Path:     path,
		Total:    idx.Len(),
		PerKind:  make(map[domain.Kind]int, len(domain.Kinds)),
		Bytes:    n,
		Duration: time.Since(start),
	}
	for _, k := range domain.Kinds {
		sum.PerKind[k] = len(idx.ForKind(k))
	}

	log.Info().
		Int("total", sum.Total).
		Int(domain.ArtifactKeyWork, sum.PerKind[domain.KindWork]).
		Int(domain.ArtifactKeyLab, sum.PerKind[domain.KindLab]).
		Int(domain.ArtifactKeyBlog, sum.PerKind[domain.KindBlog]).
		Str("path", path).
		Str("size", humanize.Bytes(uint64(n))).
		Dur("took", sum.Duration).
		Msg("search index generated")
	return sum, nil
}
