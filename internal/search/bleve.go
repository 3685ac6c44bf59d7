package search

import (
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	bsearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// bleveDoc is the indexed form of a SearchIndexItem.
type bleveDoc struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Content string   `json:"content"`
}

// BleveMatcher answers queries from an in-memory bleve index. Each query word
// becomes a fuzzy term query per field, boosted by the field weight; fuzziness
// follows the configured threshold (bleve caps it at 2 edits).
type BleveMatcher struct {
	cfg   Config
	index bleve.Index
	items []domain.SearchIndexItem
}

// BleveMatcherFactory builds a BleveMatcher. It is selected with
// SEARCH_BACKEND=bleve.
func BleveMatcherFactory(items []domain.SearchIndexItem, cfg Config) (Matcher, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	batch := idx.NewBatch()
	for i, it := range items {
		doc := bleveDoc{Title: it.Title, Summary: it.Summary, Tags: it.Tags, Content: it.Content}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			_ = idx.Close()
			return nil, err
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return &BleveMatcher{cfg: cfg, index: idx, items: items}, nil
}

func (m *BleveMatcher) fields() []struct {
	name   string
	weight float64
} {
	w := m.cfg.Weights
	return []struct {
		name   string
		weight float64
	}{
		{FieldTitle, w.Title}, {FieldSummary, w.Summary}, {FieldTags, w.Tags}, {FieldContent, w.Content},
	}
}

func (m *BleveMatcher) Match(q string) []Result {
	terms := tokenize(q, m.cfg.MinMatchCharLength, stopwords)
	if len(terms) == 0 || len(m.items) == 0 {
		return nil
	}

	var qs []query.Query
	for _, f := range m.fields() {
		if f.weight <= 0 {
			continue
		}
		for _, t := range terms {
			fq := bleve.NewFuzzyQuery(t)
			fq.SetField(f.name)
			fq.SetFuzziness(m.fuzziness(t))
			fq.SetBoost(f.weight)
			qs = append(qs, fq)
		}
	}
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), len(m.items), 0, false)
	req.IncludeLocations = true

	res, err := m.index.Search(req)
	if err != nil {
		log.Warn().Err(err).Str("query", q).Msg("bleve search failed")
		return nil
	}
	if len(res.Hits) == 0 {
		return nil
	}

	top := res.MaxScore
	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ref, err := strconv.Atoi(hit.ID)
		if err != nil || ref < 0 || ref >= len(m.items) {
			continue
		}
		score := 0.0
		if top > 0 {
			score = math.Max(0, 1-hit.Score/top)
		}
		item := m.items[ref]
		out = append(out, Result{Item: item, Score: score, Matches: m.matches(item, hit), RefIndex: ref})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score < out[b].Score
		}
		return out[a].RefIndex < out[b].RefIndex
	})
	return out
}

func (m *BleveMatcher) fuzziness(term string) int {
	n := int(math.Floor(m.cfg.Threshold*float64(utf8.RuneCountInString(term)) + 1e-9))
	if n > 2 {
		n = 2
	}
	return n
}

// matches converts bleve term locations (byte offsets) into rune spans.
func (m *BleveMatcher) matches(item domain.SearchIndexItem, hit *bsearch.DocumentMatch) []Match {
	var out []Match
	for _, f := range m.fields() {
		byTerm, ok := hit.Locations[f.name]
		if !ok {
			continue
		}
		spansByValue := map[int][][2]int{}
		for _, locs := range byTerm {
			for _, loc := range locs {
				pos := 0
				if len(loc.ArrayPositions) > 0 {
					pos = int(loc.ArrayPositions[0])
				}
				value := fieldValue(item, f.name, pos)
				if int(loc.End) > len(value) || loc.Start >= loc.End {
					continue
				}
				s := utf8.RuneCountInString(value[:loc.Start])
				e := s + utf8.RuneCountInString(value[loc.Start:loc.End]) - 1
				if e-s+1 < m.cfg.MinMatchCharLength {
					continue
				}
				spansByValue[pos] = append(spansByValue[pos], [2]int{s, e})
			}
		}
		positions := make([]int, 0, len(spansByValue))
		for p := range spansByValue {
			positions = append(positions, p)
		}
		sort.Ints(positions)
		for _, p := range positions {
			spans := spansByValue[p]
			sort.Slice(spans, func(a, b int) bool { return spans[a][0] < spans[b][0] })
			out = append(out, Match{Key: f.name, Value: fieldValue(item, f.name, p), Indices: spans})
		}
	}
	return out
}

func fieldValue(item domain.SearchIndexItem, field string, pos int) string {
	switch field {
	case FieldTitle:
		return item.Title
	case FieldSummary:
		return item.Summary
	case FieldContent:
		return item.Content
	case FieldTags:
		if pos >= 0 && pos < len(item.Tags) {
			return item.Tags[pos]
		}
	}
	return ""
}

// Close releases the in-memory index.
func (m *BleveMatcher) Close() error { return m.index.Close() }
