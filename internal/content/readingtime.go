package content

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 225

// WordCount counts whitespace-separated words in the item's plain text.
func WordCount(item domain.ContentItem) int {
	return len(strings.Fields(item.PlainText()))
}

// ReadingTime estimates minutes to read item, rounded up and never below 1.
func ReadingTime(item domain.ContentItem) int {
	m := (WordCount(item) + WordsPerMinute - 1) / WordsPerMinute
	if m < 1 {
		return 1
	}
	return m
}

// FormatWordCount renders a count like "1,234 words".
func FormatWordCount(n int) string {
	if n == 1 {
		return "1 word"
	}
	return humanize.Comma(int64(n)) + " words"
}
