package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// epsilon stands in for a perfect (zero) field score so that a perfect match
// on a heavy field still outranks one on a light field.
const epsilon = 2.220446049250313e-16

// Field keys reported in Match.Key.
const (
	FieldTitle   = "title"
	FieldSummary = "summary"
	FieldTags    = "tags"
	FieldContent = "content"
)

type fuzzyDoc struct {
	item    domain.SearchIndexItem
	title   []rune
	summary []rune
	content []rune
	tags    [][]rune
}

// FuzzyMatcher scores items by approximate substring matching: each field's
// score is the edit distance between the query and its best matching
// substring, divided by the query length. Fields scoring above the threshold
// do not match; an item matches when any field does.
//
// There is no position penalty: a match scores the same at any offset within
// a field, including the end of the indexed content excerpt. Ranking depends
// only on match quality and field weight.
//
// The matcher is immutable after construction and safe for concurrent use.
type FuzzyMatcher struct {
	cfg  Config
	docs []fuzzyDoc
}

// NewFuzzyMatcher indexes items (in flattened order) for fuzzy matching.
func NewFuzzyMatcher(items []domain.SearchIndexItem, cfg Config) *FuzzyMatcher {
	docs := make([]fuzzyDoc, len(items))
	for i, it := range items {
		d := fuzzyDoc{
			item:    it,
			title:   lowerRunes(it.Title),
			summary: lowerRunes(it.Summary),
			content: lowerRunes(it.Content),
			tags:    make([][]rune, len(it.Tags)),
		}
		for j, t := range it.Tags {
			d.tags[j] = lowerRunes(t)
		}
		docs[i] = d
	}
	return &FuzzyMatcher{cfg: cfg, docs: docs}
}

// FuzzyMatcherFactory is the default MatcherFactory.
func FuzzyMatcherFactory(items []domain.SearchIndexItem, cfg Config) (Matcher, error) {
	return NewFuzzyMatcher(items, cfg), nil
}

func (m *FuzzyMatcher) Match(query string) []Result {
	pat := lowerRunes(strings.TrimSpace(query))
	if len(pat) == 0 {
		return nil
	}
	maxErr := int(math.Floor(m.cfg.Threshold*float64(len(pat)) + 1e-9))
	w := m.cfg.Weights

	var out []Result
	for i := range m.docs {
		d := &m.docs[i]
		total := 1.0
		var matches []Match

		scalar := func(key string, weight float64, text []rune, value string) {
			errs, spans, ok := approximate(pat, text, maxErr, m.cfg.MinMatchCharLength)
			if !ok {
				return
			}
			total *= math.Pow(math.Max(float64(errs)/float64(len(pat)), epsilon), weight)
			matches = append(matches, Match{Key: key, Value: value, Indices: spans})
		}
		scalar(FieldTitle, w.Title, d.title, d.item.Title)
		scalar(FieldSummary, w.Summary, d.summary, d.item.Summary)

		bestTag := -1
		for j, tag := range d.tags {
			errs, spans, ok := approximate(pat, tag, maxErr, m.cfg.MinMatchCharLength)
			if !ok {
				continue
			}
			if bestTag < 0 || errs < bestTag {
				bestTag = errs
			}
			matches = append(matches, Match{Key: FieldTags, Value: d.item.Tags[j], Indices: spans})
		}
		if bestTag >= 0 {
			total *= math.Pow(math.Max(float64(bestTag)/float64(len(pat)), epsilon), w.Tags)
		}

		scalar(FieldContent, w.Content, d.content, d.item.Content)

		if len(matches) == 0 {
			continue
		}
		out = append(out, Result{Item: d.item, Score: total, Matches: matches, RefIndex: i})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Score < out[b].Score })
	return out
}

// approximate finds the substrings of text closest to pat in edit distance
// (Sellers' algorithm). It reports the smallest distance found, the inclusive
// rune spans achieving it that are at least minLen long, and whether that
// distance is within maxErr.
func approximate(pat, text []rune, maxErr, minLen int) (int, [][2]int, bool) {
	m := len(pat)
	if len(text) == 0 {
		return 0, nil, false
	}
	dist := make([]int, m+1)
	start := make([]int, m+1)
	nextDist := make([]int, m+1)
	nextStart := make([]int, m+1)
	for i := range dist {
		dist[i] = i
	}

	best := m + 1
	var ends []int
	var starts []int
	for j := 1; j <= len(text); j++ {
		nextDist[0], nextStart[0] = 0, j
		for i := 1; i <= m; i++ {
			cost := 1
			if pat[i-1] == text[j-1] {
				cost = 0
			}
			dd, ds := dist[i-1]+cost, start[i-1]
			if v := nextDist[i-1] + 1; v < dd {
				dd, ds = v, nextStart[i-1]
			}
			if v := dist[i] + 1; v < dd {
				dd, ds = v, start[i]
			}
			nextDist[i], nextStart[i] = dd, ds
		}
		dist, nextDist = nextDist, dist
		start, nextStart = nextStart, start

		switch e := dist[m]; {
		case e > maxErr || e > best:
		case e < best:
			best = e
			ends, starts = []int{j - 1}, []int{start[m]}
		default:
			ends = append(ends, j-1)
			starts = append(starts, start[m])
		}
	}
	if best > maxErr {
		return 0, nil, false
	}
	return best, mergeSpans(starts, ends, minLen), true
}

// mergeSpans joins overlapping or adjacent spans and drops short ones.
func mergeSpans(starts, ends []int, minLen int) [][2]int {
	var out [][2]int
	for k := range ends {
		s, e := starts[k], ends[k]
		if s > e {
			continue
		}
		if n := len(out); n > 0 && s <= out[n-1][1]+1 {
			if s < out[n-1][0] {
				out[n-1][0] = s
			}
			if e > out[n-1][1] {
				out[n-1][1] = e
			}
			continue
		}
		out = append(out, [2]int{s, e})
	}
	kept := out[:0]
	for _, sp := range out {
		if sp[1]-sp[0]+1 >= minLen {
			kept = append(kept, sp)
		}
	}
	if kept == nil {
		return [][2]int{}
	}
	return kept
}

func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}
