package search

import (
	"math"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// Defaults mirror the tuning the portfolio has always shipped with.
const (
	DefaultThreshold          = 0.3
	DefaultMinMatchCharLength = 2
	DefaultLimit              = 20
	DefaultSuggestionLimit    = 5
	MinQueryRunes             = 2
)

// Weights is the relative importance of each searchable field. The four
// weights sum to 1.
type Weights struct {
	Title   float64
	Summary float64
	Tags    float64
	Content float64
}

// DefaultWeights ranks title over summary over tags over content.
var DefaultWeights = Weights{Title: 0.4, Summary: 0.3, Tags: 0.2, Content: 0.1}

// Sum returns the total weight.
func (w Weights) Sum() float64 { return w.Title + w.Summary + w.Tags + w.Content }

// Valid reports whether all weights are non-negative and sum to 1.
func (w Weights) Valid() bool {
	if w.Title < 0 || w.Summary < 0 || w.Tags < 0 || w.Content < 0 {
		return false
	}
	return math.Abs(w.Sum()-1) <= 1e-6
}

// Config is the matcher tuning shared by all Matcher implementations.
type Config struct {
	// Threshold is the worst acceptable field score, 0 (exact) .. 1 (anything).
	Threshold float64
	Weights   Weights
	// MinMatchCharLength drops reported match spans shorter than this.
	MinMatchCharLength int
}

// DefaultConfig returns the default matcher tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:          DefaultThreshold,
		Weights:            DefaultWeights,
		MinMatchCharLength: DefaultMinMatchCharLength,
	}
}

// Matcher ranks the flattened index against a query. Results are ordered best
// first and include every item that matched.
type Matcher interface {
	Match(query string) []Result
}

// MatcherFactory builds a Matcher over the flattened index.
type MatcherFactory func(items []domain.SearchIndexItem, cfg Config) (Matcher, error)

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold sets the match threshold; values outside [0,1] are ignored.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t <= 1 {
			e.cfg.Threshold = t
		}
	}
}

// WithWeights sets the field weights; invalid weights are ignored.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Valid() {
			e.cfg.Weights = w
		}
	}
}

// WithMinMatchCharLength sets the shortest reported match span.
func WithMinMatchCharLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cfg.MinMatchCharLength = n
		}
	}
}

// WithMatcherFactory replaces the default fuzzy matcher.
func WithMatcherFactory(f MatcherFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.factory = f
		}
	}
}
