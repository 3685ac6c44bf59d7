package content

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var validSlugRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Slugify turns text into a lowercase, hyphen-separated ASCII key. Accents are
// stripped ("Café Déjà" -> "cafe-deja") and every other symbol is dropped.
func Slugify(text string) string {
	// Transformers are stateful; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, text)
	if err != nil {
		s = text
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || r == '_' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}
	return b.String()
}

// UniqueSlug slugifies text and appends -2, -3, ... until the result is not
// in existing.
func UniqueSlug(text string, existing []string) string {
	base := Slugify(text)
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for i := 2; ; i++ {
		cand := base + "-" + strconv.Itoa(i)
		if _, ok := taken[cand]; !ok {
			return cand
		}
	}
}

// IsValidSlug reports whether s is a canonical key: lowercase alphanumeric
// runs joined by single hyphens.
func IsValidSlug(s string) bool {
	return validSlugRE.MatchString(s)
}

// KeyFromURL returns the last path segment of an item URL such as
// "/blog/hello-world/", ignoring any query or fragment.
func KeyFromURL(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		u = u[i+1:]
	}
	return u
}
