package content

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// frontMatter is the typed header of a markdown content file.
type frontMatter struct {
	Title     string   `yaml:"title"`
	Slug      string   `yaml:"slug"`
	Date      string   `yaml:"date"`
	Summary   string   `yaml:"summary"`
	Tags      []string `yaml:"tags"`
	TechStack []string `yaml:"techStack"`
	Author    string   `yaml:"author"`
	Role      string   `yaml:"role"`
	Status    string   `yaml:"status"`
}

// MarkdownSource reads content from a directory tree with one folder per
// kind (work/, labs/, blog/) holding front-matter markdown files.
type MarkdownSource struct {
	Root string
}

// NewMarkdownSource returns a source rooted at dir.
func NewMarkdownSource(dir string) *MarkdownSource {
	return &MarkdownSource{Root: dir}
}

// List parses every eligible file of kind. A missing kind directory is an
// empty corpus, not an error. Files without a title or summary, drafts, and
// files with an unparseable date are skipped with a warning.
func (s *MarkdownSource) List(ctx context.Context, kind domain.Kind) ([]domain.ContentItem, error) {
	dir := filepath.Join(s.Root, kind.Dir())
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.ContentItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && eligible(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]domain.ContentItem, 0, len(names))
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		item, reason := parseDocument(kind, name, data)
		if reason != "" {
			log.Warn().Str("kind", string(kind)).Str("file", name).Str("reason", reason).Msg("skipping content file")
			continue
		}
		if item.Key == "" {
			continue
		}
		item.Key = uniqueKey(item.Key, keys)
		keys = append(keys, item.Key)
		out = append(out, item)
	}
	return out, nil
}

// Get returns the published item of kind with key.
func (s *MarkdownSource) Get(ctx context.Context, kind domain.Kind, key string) (domain.ContentItem, error) {
	items, err := s.List(ctx, kind)
	if err != nil {
		return domain.ContentItem{}, err
	}
	for _, it := range items {
		if it.Key == key {
			return it, nil
		}
	}
	return domain.ContentItem{}, ErrNotFound
}

func eligible(name string) bool {
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".md")
}

func uniqueKey(key string, taken []string) string {
	for _, t := range taken {
		if t == key {
			return UniqueSlug(key, taken)
		}
	}
	return key
}

// parseDocument converts one file into an item. A non-empty reason means the
// file is not publishable; an empty Key with no reason means it is a draft.
func parseDocument(kind domain.Kind, name string, data []byte) (domain.ContentItem, string) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return domain.ContentItem{}, "invalid front matter: " + err.Error()
	}

	switch strings.ToLower(strings.TrimSpace(fm.Status)) {
	case "", domain.StatusPublished:
	default:
		return domain.ContentItem{}, ""
	}

	title := strings.TrimSpace(fm.Title)
	summary := strings.TrimSpace(fm.Summary)
	if title == "" || summary == "" {
		return domain.ContentItem{}, "missing title or summary"
	}

	var published time.Time
	if d := strings.TrimSpace(fm.Date); d != "" {
		published, err = dateparse.ParseIn(d, time.UTC)
		if err != nil {
			return domain.ContentItem{}, "invalid date " + d
		}
		published = published.UTC()
	}

	key := strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case fm.Slug != "" && IsValidSlug(fm.Slug):
		key = fm.Slug
	case !IsValidSlug(key):
		key = Slugify(key)
	}
	if key == "" {
		return domain.ContentItem{}, "cannot derive key"
	}

	return domain.ContentItem{
		Key:         key,
		Kind:        kind,
		Title:       title,
		Summary:     summary,
		Tags:        compact(fm.Tags),
		TechStack:   compact(fm.TechStack),
		Author:      strings.TrimSpace(fm.Author),
		Role:        strings.TrimSpace(fm.Role),
		PublishedAt: published,
		Body:        strings.TrimSpace(string(body)),
	}, ""
}

// compact trims entries and drops empty ones. It never returns nil.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
