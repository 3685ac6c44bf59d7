// Package indexer turns the published content corpus into the persisted
// search artifact: one JSON document with a list of search records per
// content kind.
//
// A build either succeeds completely or fails; a partial artifact is never
// written. The artifact is read back by the search engine through a
// search.Fetcher.
package indexer

import (
	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// Project derives the search record of item. The body excerpt keeps at most
// domain.MaxIndexedContentRunes runes of the raw body.
func Project(item domain.ContentItem) domain.SearchIndexItem {
	return domain.SearchIndexItem{
		ID:      item.Key,
		Type:    item.Kind,
		Title:   item.Title,
		URL:     item.URL(),
		Summary: item.Summary,
		Tags:    item.AllTags(),
		Content: excerpt(indexedText(item), domain.MaxIndexedContentRunes),
	}
}

// indexedText is the body used for the excerpt: markdown source for file
// content, the plain text of structured blocks otherwise.
func indexedText(item domain.ContentItem) string {
	if item.Body != "" {
		return item.Body
	}
	return item.Blocks.PlainText()
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
