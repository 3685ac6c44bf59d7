package search

import "github.com/tbourn/go-portfolio-backend/internal/domain"

// Match locates the query inside one field of a result. Indices are
// inclusive [start, end] rune offsets into Value.
type Match struct {
	Key     string   `json:"key"`
	Value   string   `json:"value"`
	Indices [][2]int `json:"indices"`
}

// Result is one ranked hit. Score is 0 for a perfect match and grows toward 1
// as the match gets worse. RefIndex is the item's position in the flattened
// index.
type Result struct {
	Item     domain.SearchIndexItem `json:"item"`
	Score    float64                `json:"score"`
	Matches  []Match                `json:"matches"`
	RefIndex int                    `json:"refIndex"`
}

// Response is the outcome of one query.
type Response struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	TotalResults int      `json:"totalResults"`
	HasResults   bool     `json:"hasResults"`
}

// groupByKind reorders results as work, then blog, then lab, keeping the
// score order inside each group.
func groupByKind(rs []Result) []Result {
	out := make([]Result, 0, len(rs))
	for _, k := range []domain.Kind{domain.KindWork, domain.KindBlog, domain.KindLab} {
		for _, r := range rs {
			if r.Item.Type == k {
				out = append(out, r)
			}
		}
	}
	return out
}
