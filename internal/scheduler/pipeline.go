// Package scheduler keeps the search artifact fresh: Pipeline rebuilds the
// artifact and reloads the engine, and Scheduler runs that pipeline on a cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-portfolio-backend/internal/indexer"
)

// ArtifactBuilder writes a fresh search artifact to path.
type ArtifactBuilder interface {
	BuildToFile(ctx context.Context, path string) (indexer.Summary, error)
}

// Refresher reloads a search engine from its artifact.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Pipeline rebuilds the artifact at Path and then refreshes the engine.
// Concurrent Rebuild calls run one after another.
type Pipeline struct {
	builder ArtifactBuilder
	engine  Refresher
	path    string

	mu   sync.Mutex
	last atomic.Int64
}

// NewPipeline wires a builder and an engine around the artifact path. engine
// may be nil when only the artifact needs regenerating.
func NewPipeline(b ArtifactBuilder, engine Refresher, path string) *Pipeline {
	return &Pipeline{builder: b, engine: engine, path: path}
}

var tracer = otel.Tracer("scheduler/Pipeline")

// Rebuild regenerates the artifact and reloads the engine. A failed build
// leaves the previous artifact and the engine's current index untouched.
func (p *Pipeline) Rebuild(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Rebuild")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	sum, err := p.builder.BuildToFile(ctx, p.path)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("rebuild search index: %w", err)
	}
	span.SetAttributes(attribute.Int("index.items", sum.Total))

	if p.engine != nil {
		if err := p.engine.Refresh(ctx); err != nil {
			span.RecordError(err)
			return fmt.Errorf("refresh search engine: %w", err)
		}
	}
	p.last.Store(time.Now().UnixNano())
	log.Info().Int("items", sum.Total).Dur("took", sum.Duration).Str("path", p.path).Msg("search index rebuilt")
	return nil
}

// LastRebuild returns the time of the last successful rebuild, or the zero
// time if none has happened.
func (p *Pipeline) LastRebuild() time.Time {
	n := p.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
