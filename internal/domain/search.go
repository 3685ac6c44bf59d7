package domain

// MaxIndexedContentRunes caps the body excerpt kept per search record.
const MaxIndexedContentRunes = 500

// SearchIndexItem is the projection of a ContentItem kept for search.
type SearchIndexItem struct {
	ID      string   `json:"id"`
	Type    Kind     `json:"type"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Content string   `json:"content"`
}

// SearchIndex is the persisted search artifact: one list per content kind.
// All three lists are always present, possibly empty.
type SearchIndex struct {
	WorkCaseStudies []SearchIndexItem `json:"workCaseStudies"`
	LabProjects     []SearchIndexItem `json:"labProjects"`
	BlogPosts       []SearchIndexItem `json:"blogPosts"`
	GeneratedAt     string            `json:"generatedAt,omitempty"`
}

// Artifact keys of the per-kind lists.
const (
	ArtifactKeyWork = "workCaseStudies"
	ArtifactKeyLab  = "labProjects"
	ArtifactKeyBlog = "blogPosts"
)

// ArtifactKeys lists the required keys of the persisted artifact.
var ArtifactKeys = []string{ArtifactKeyWork, ArtifactKeyLab, ArtifactKeyBlog}

// NewSearchIndex returns an index with all three lists allocated.
func NewSearchIndex() SearchIndex {
	return SearchIndex{
		WorkCaseStudies: []SearchIndexItem{},
		LabProjects:     []SearchIndexItem{},
		BlogPosts:       []SearchIndexItem{},
	}
}

// ArtifactKey returns the artifact list key for k.
func (k Kind) ArtifactKey() string {
	switch k {
	case KindWork:
		return ArtifactKeyWork
	case KindLab:
		return ArtifactKeyLab
	case KindBlog:
		return ArtifactKeyBlog
	}
	return ""
}

// ForKind returns the list for k.
func (s SearchIndex) ForKind(k Kind) []SearchIndexItem {
	switch k {
	case KindWork:
		return s.WorkCaseStudies
	case KindLab:
		return s.LabProjects
	case KindBlog:
		return s.BlogPosts
	}
	return nil
}

// Set replaces the list for k.
func (s *SearchIndex) Set(k Kind, items []SearchIndexItem) {
	switch k {
	case KindWork:
		s.WorkCaseStudies = items
	case KindLab:
		s.LabProjects = items
	case KindBlog:
		s.BlogPosts = items
	}
}

// Flatten concatenates the lists in work, lab, blog order.
func (s SearchIndex) Flatten() []SearchIndexItem {
	out := make([]SearchIndexItem, 0, s.Len())
	for _, k := range Kinds {
		out = append(out, s.ForKind(k)...)
	}
	return out
}

// Len returns the total number of records.
func (s SearchIndex) Len() int {
	return len(s.WorkCaseStudies) + len(s.LabProjects) + len(s.BlogPosts)
}

// PaginationWindow describes one page of a listing. It is computed, never
// stored.
type PaginationWindow struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	ItemsPerPage int  `json:"itemsPerPage"`
	TotalItems   int  `json:"totalItems"`
	HasNext      bool `json:"hasNextPage"`
	HasPrevious  bool `json:"hasPreviousPage"`
}
