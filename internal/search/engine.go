// Package search answers fuzzy queries over the persisted search artifact.
//
// An Engine starts Uninitialized. Initialize fetches the artifact, flattens it
// in work, lab, blog order and builds a Matcher; on success the engine is
// Ready, on failure it is Failed and Initialize may be called again. Calling
// Initialize on a Ready engine refetches; if that fails the previous index
// keeps serving. Search
// and Suggestions are pure in-memory computations and fail loudly with
// ErrSearchNotReady until the engine is Ready.
//
// Engines are safe for concurrent use. There is no package-level instance;
// callers construct one and pass it where needed.
package search

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// State is the lifecycle stage of an Engine.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Engine is the runtime search engine.
type Engine struct {
	fetcher Fetcher
	cfg     Config
	factory MatcherFactory
	group   singleflight.Group

	mu      sync.RWMutex
	state   State
	items   []domain.SearchIndexItem
	matcher *matcherRef
	lastErr error
}

// matcherRef counts the engine's own reference plus every search in flight.
// The matcher is closed when the last reference is released.
type matcherRef struct {
	m    Matcher
	refs atomic.Int64
}

func newMatcherRef(m Matcher) *matcherRef {
	r := &matcherRef{m: m}
	r.refs.Store(1)
	return r
}

func (r *matcherRef) release() {
	if r.refs.Add(-1) != 0 {
		return
	}
	if c, ok := r.m.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close retired matcher")
		}
	}
}

// NewEngine returns an Uninitialized engine reading its artifact from f.
func NewEngine(f Fetcher, opts ...Option) *Engine {
	e := &Engine{fetcher: f, cfg: DefaultConfig(), factory: FuzzyMatcherFactory}
	for _, o := range opts {
		o(e)
	}
	return e
}

var tracer = otel.Tracer("search/Engine")

// Initialize loads the artifact, refetching when the engine is already Ready.
// Concurrent calls share one fetch. A failure returns a *FetchError and
// leaves the engine Failed, unless it was Ready, in which case the previous
// index keeps serving.
func (e *Engine) Initialize(ctx context.Context) error {
	_, err, _ := e.group.Do("load", func() (any, error) {
		return nil, e.load(ctx)
	})
	return err
}

// Refresh is Initialize under the name the rebuild pipeline uses.
func (e *Engine) Refresh(ctx context.Context) error { return e.Initialize(ctx) }

func (e *Engine) load(ctx context.Context) error {
	e.mu.Lock()
	wasReady := e.state == StateReady
	if !wasReady {
		e.state = StateInitializing
	}
	e.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Initialize",
		trace.WithAttributes(
			attribute.String("search.source", e.fetcher.String()),
			attribute.Bool("search.refresh", wasReady),
		),
	)
	defer span.End()

	fail := func(err error) error {
		ferr := &FetchError{Source: e.fetcher.String(), Err: err}
		span.RecordError(ferr)
		e.mu.Lock()
		e.lastErr = ferr
		if !wasReady {
			e.state = StateFailed
		}
		e.mu.Unlock()
		log.Error().Err(err).Str("source", e.fetcher.String()).Bool("serving_previous", wasReady).Msg("search index load failed")
		return ferr
	}

	idx, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return fail(err)
	}
	items := idx.Flatten()
	m, err := e.factory(items, e.cfg)
	if err != nil {
		return fail(err)
	}

	e.mu.Lock()
	old := e.matcher
	e.items, e.matcher, e.state, e.lastErr = items, newMatcherRef(m), StateReady, nil
	e.mu.Unlock()
	if old != nil {
		old.release()
	}

	indexItems.Set(float64(len(items)))
	span.SetAttributes(attribute.Int("search.items", len(items)))
	log.Info().Int("items", len(items)).Str("source", e.fetcher.String()).Msg("search index loaded")
	return nil
}

func (e *Engine) snapshot() (State, []domain.SearchIndexItem) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state, e.items
}

// acquire returns the live matcher with an extra reference the caller must
// release, or nil when the engine is not Ready.
func (e *Engine) acquire() *matcherRef {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateReady || e.matcher == nil {
		return nil
	}
	e.matcher.refs.Add(1)
	return e.matcher
}

// Search ranks the index against query. Queries shorter than two runes
// (after trimming) return an empty response. limit <= 0 means 20. Results are
// truncated to limit and then grouped work, blog, lab; TotalResults counts
// every match before truncation.
func (e *Engine) Search(query string, limit int) (Response, error) {
	ref := e.acquire()
	if ref == nil {
		return Response{}, ErrSearchNotReady
	}
	defer ref.release()
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryRunes {
		return Response{Query: query, Results: []Result{}}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	all := ref.m.Match(q)
	queries.Inc()
	total := len(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return Response{
		Query:        query,
		Results:      groupByKind(all),
		TotalResults: total,
		HasResults:   total > 0,
	}, nil
}

// Suggestions returns distinct titles containing partial, case-insensitively,
// in index order. partial shorter than two runes yields nothing; limit <= 0
// means 5.
func (e *Engine) Suggestions(partial string, limit int) ([]string, error) {
	st, items := e.snapshot()
	if st != StateReady {
		return nil, ErrSearchNotReady
	}
	out := []string{}
	if utf8.RuneCountInString(partial) < MinQueryRunes {
		return out, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	needle := strings.ToLower(partial)
	seen := make(map[string]struct{})
	for _, it := range items {
		if !strings.Contains(strings.ToLower(it.Title), needle) {
			continue
		}
		if _, dup := seen[it.Title]; dup {
			continue
		}
		seen[it.Title] = struct{}{}
		out = append(out, it.Title)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// IsReady reports whether Search may be called.
func (e *Engine) IsReady() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == StateReady
}

// IndexSize returns the number of loaded items, 0 before Ready.
func (e *Engine) IndexSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}

// State returns the current lifecycle stage.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Err returns the error of the last failed load, if any.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// Config returns the matcher tuning in effect.
func (e *Engine) Config() Config { return e.cfg }
