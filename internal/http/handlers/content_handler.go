package handlers

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/sysutil"
	"github.com/tbourn/go-portfolio-backend/internal/utils"
)

const (
	defaultPageSize     = 10
	defaultBlogPageSize = 15
	maxPageSize         = 100
	maxRelated          = 12
)

var titleCaser = cases.Title(language.English)

// ListContentResponse is one page of a kind's listing.
type ListContentResponse struct {
	Kind       domain.Kind             `json:"kind"`
	Label      string                  `json:"label"`
	Tag        string                  `json:"tag,omitempty"`
	Items      []domain.ContentItem    `json:"items"`
	Pagination domain.PaginationWindow `json:"pagination"`
}

// ContentDetailResponse is a single item with derived reading data.
type ContentDetailResponse struct {
	Item        domain.ContentItem `json:"item"`
	URL         string             `json:"url"`
	ReadingTime int                `json:"readingTimeMinutes"`
	WordCount   string             `json:"wordCount"`
	HTML        string             `json:"html,omitempty"`
}

// RelatedContentResponse lists items sharing tags with the reference item.
type RelatedContentResponse struct {
	Key   string               `json:"key"`
	Items []domain.ContentItem `json:"items"`
}

// kindLabel is the display label of a listing, e.g. "Labs".
func kindLabel(k domain.Kind) string {
	return titleCaser.String(k.Dir())
}

// kindParam resolves the :kind path parameter or writes a 404.
func kindParam(c *gin.Context) (domain.Kind, bool) {
	k, ok := domain.ParseKind(c.Param("kind"))
	if !ok {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown content kind")
	}
	return k, ok
}

// pagination bounds page and page_size query params.
func pagination(c *gin.Context, kind domain.Kind) (page, pageSize int) {
	def := defaultPageSize
	if kind == domain.KindBlog {
		def = defaultBlogPageSize
	}
	page = max(utils.AtoiDefault(c.Query("page"), 1), 1)
	pageSize = min(max(utils.AtoiDefault(c.Query("page_size"), def), 1), maxPageSize)
	return page, pageSize
}

// ListContent godoc
// @ID          listContent
// @Summary     List published content of a kind (paginated)
// @Tags        Content
// @Produce     json
// @Param       kind       path   string  true   "work | lab | blog"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100)
// @Param       tag        query  string  false  "Only items carrying this tag or technology"
// @Success     200  {object}  handlers.ListContentResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /content/{kind} [get]
func (h *Handlers) ListContent(c *gin.Context) {
	kind, found := kindParam(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := pagination(c, kind)
	tag := strings.TrimSpace(c.Query("tag"))

	var (
		res content.Page
		err error
	)
	if tag != "" {
		res, err = content.PaginateItems(h.content.FilterByTag(ctx, kind, tag), page, pageSize)
	} else {
		res, err = h.content.Paginate(ctx, kind, page, pageSize)
	}
	if err != nil {
		failErr(c, err)
		return
	}
	body, err := json.Marshal(ListContentResponse{
		Kind:       kind,
		Label:      kindLabel(kind),
		Tag:        tag,
		Items:      nonNil(res.Items),
		Pagination: res.Window,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	// The ETag fingerprints the exact page served, so edits to any listed
	// item or to the window invalidate it.
	sum := fnv.New64a()
	_, _ = sum.Write(body)
	etag := fmt.Sprintf(`W/"%s-%x"`, kind, sum.Sum64())
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GetContent godoc
// @ID          getContent
// @Summary     Get one published item
// @Tags        Content
// @Produce     json
// @Param       kind  path   string  true   "work | lab | blog"
// @Param       key   path   string  true   "Item key (slug)"
// @Param       html  query  bool    false  "Include the body rendered as HTML"
// @Success     200  {object}  handlers.ContentDetailResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Content source unavailable"
// @Router      /content/{kind}/{key} [get]
func (h *Handlers) GetContent(c *gin.Context) {
	kind, found := kindParam(c)
	if !found {
		return
	}
	item, err := h.content.GetByKey(c.Request.Context(), kind, c.Param("key"))
	if err != nil {
		failErr(c, err)
		return
	}

	resp := ContentDetailResponse{
		Item:        item,
		URL:         item.URL(),
		ReadingTime: content.ReadingTime(item),
		WordCount:   content.FormatWordCount(content.WordCount(item)),
	}
	if sysutil.IsTruthy(c.Query("html")) {
		html, err := content.RenderHTML(item)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "render failed")
			return
		}
		resp.HTML = html
	}
	ok(c, http.StatusOK, resp)
}

// RelatedContent godoc
// @ID          relatedContent
// @Summary     Items of the same kind sharing tags with the given item
// @Tags        Content
// @Produce     json
// @Param       kind   path   string  true   "work | lab | blog"
// @Param       key    path   string  true   "Item key (slug)"
// @Param       limit  query  int     false  "Maximum items" default(3) maximum(12)
// @Success     200  {object}  handlers.RelatedContentResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /content/{kind}/{key}/related [get]
func (h *Handlers) RelatedContent(c *gin.Context) {
	kind, found := kindParam(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	item, err := h.content.GetByKey(ctx, kind, c.Param("key"))
	if err != nil {
		failErr(c, err)
		return
	}
	limit := min(utils.AtoiDefault(c.Query("limit"), 0), maxRelated)
	related := h.content.RelatedByTags(ctx, kind, item.Key, item.AllTags(), limit)
	ok(c, http.StatusOK, RelatedContentResponse{Key: item.Key, Items: nonNil(related)})
}

func nonNil(items []domain.ContentItem) []domain.ContentItem {
	if items == nil {
		return []domain.ContentItem{}
	}
	return items
}
