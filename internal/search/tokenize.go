package search

import (
	"regexp"
	"strings"
)

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenize lowercases s and splits it into distinct words of at least minLen
// runes, in first-seen order. Words listed in stop are dropped.
func tokenize(s string, minLen int, stop map[string]struct{}) []string {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len([]rune(w)) < minLen {
			continue
		}
		if _, skip := stop[w]; skip {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// stopwords are dropped from bleve queries; they match nearly everything and
// the standard analyzer removes them from the index anyway.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "the": {},
	"to": {}, "with": {},
}
