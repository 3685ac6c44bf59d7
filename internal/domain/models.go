// Package domain defines the content and search models shared by the content
// resolver, the index builder and the search engine, plus the GORM mapping
// used by the SQLite content backend.
package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Kind partitions all content items and all search results.
type Kind string

const (
	KindWork Kind = "work"
	KindLab  Kind = "lab"
	KindBlog Kind = "blog"
)

// Kinds lists every content kind in index flattening order.
var Kinds = []Kind{KindWork, KindLab, KindBlog}

// ParseKind maps a user-supplied kind (case-insensitive, "labs" accepted as an
// alias of "lab") to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "work":
		return KindWork, true
	case "lab", "labs":
		return KindLab, true
	case "blog":
		return KindBlog, true
	}
	return "", false
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindWork, KindLab, KindBlog:
		return true
	}
	return false
}

// Dir returns the content directory name used by the markdown backend.
func (k Kind) Dir() string {
	if k == KindLab {
		return "labs"
	}
	return string(k)
}

// URL derives the public path of an item purely from its kind and key.
func (k Kind) URL(key string) string {
	return "/" + string(k) + "/" + key
}

// Content lifecycle states. Only published content is ever resolved.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusPublished = "published"
)

// ContentItem is one published unit of content (a work case study, lab project
// or blog post). Items are read-only snapshots of the upstream source.
type ContentItem struct {
	Key         string    `json:"key"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Tags        []string  `json:"tags"`
	TechStack   []string  `json:"techStack,omitempty"`
	Author      string    `json:"author,omitempty"`
	Role        string    `json:"role,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Body        string    `json:"body,omitempty"`
	Blocks      Blocks    `json:"blocks,omitempty"`
}

// URL returns the item's public path.
func (c ContentItem) URL() string { return c.Kind.URL(c.Key) }

// AllTags returns topical tags followed by tech stack names with duplicates
// removed, keeping the first occurrence.
func (c ContentItem) AllTags() []string {
	out := make([]string, 0, len(c.Tags)+len(c.TechStack))
	seen := make(map[string]struct{}, cap(out))
	for _, group := range [][]string{c.Tags, c.TechStack} {
		for _, t := range group {
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// PlainText returns the readable text of the item: the raw body for file
// content, or the text spans of structured blocks.
func (c ContentItem) PlainText() string {
	if len(c.Blocks) > 0 {
		return c.Blocks.PlainText()
	}
	return c.Body
}

// ContentRecord is the persisted form of a content item in the SQLite backend.
//
// (Kind, Key) is unique; Status gates visibility so drafts never reach the
// resolver.
type ContentRecord struct {
	ID          uint           `json:"-"           gorm:"primaryKey"`
	Kind        string         `json:"kind"        gorm:"type:varchar(16);not null;uniqueIndex:ux_content_kind_key,priority:1;check:kind IN ('work','lab','blog')"`
	Key         string         `json:"key"         gorm:"type:varchar(191);not null;uniqueIndex:ux_content_kind_key,priority:2"`
	Status      string         `json:"status"      gorm:"type:varchar(16);not null;default:'draft';index"`
	Title       string         `json:"title"       gorm:"type:varchar(255);not null"`
	Summary     string         `json:"summary"     gorm:"type:text;not null"`
	Tags        []string       `json:"tags"        gorm:"serializer:json"`
	TechStack   []string       `json:"techStack"   gorm:"serializer:json"`
	Author      string         `json:"author"      gorm:"type:varchar(255)"`
	Role        string         `json:"role"        gorm:"type:varchar(255)"`
	Body        string         `json:"body"        gorm:"type:text"`
	Blocks      Blocks         `json:"blocks"      gorm:"serializer:json"`
	PublishedAt time.Time      `json:"publishedAt" gorm:"index"`
	CreatedAt   time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for ContentRecord.
func (ContentRecord) TableName() string { return "content_records" }

// Item converts the record into a ContentItem.
func (r ContentRecord) Item() ContentItem {
	return ContentItem{
		Key:         r.Key,
		Kind:        Kind(r.Kind),
		Title:       r.Title,
		Summary:     r.Summary,
		Tags:        r.Tags,
		TechStack:   r.TechStack,
		Author:      r.Author,
		Role:        r.Role,
		PublishedAt: r.PublishedAt,
		Body:        r.Body,
		Blocks:      r.Blocks,
	}
}

// RecordFromItem builds a record for item with the given lifecycle status.
func RecordFromItem(item ContentItem, status string) ContentRecord {
	return ContentRecord{
		Kind:        string(item.Kind),
		Key:         item.Key,
		Status:      status,
		Title:       item.Title,
		Summary:     item.Summary,
		Tags:        item.Tags,
		TechStack:   item.TechStack,
		Author:      item.Author,
		Role:        item.Role,
		Body:        item.Body,
		Blocks:      item.Blocks,
		PublishedAt: item.PublishedAt.UTC(),
	}
}
