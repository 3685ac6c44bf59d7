package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
)

// tagSearchIndex marks a revalidation that rebuilds the search artifact.
const tagSearchIndex = "search-index"

// revalidation describes what one content type invalidates.
type revalidation struct {
	paths      []string
	detailPath string // prefix of the per-item page, "" when none
	tags       []string
}

// revalidations maps webhook content types to the pages and tags they touch.
var revalidations = map[string]revalidation{
	"workCaseStudy": {paths: []string{"/work"}, detailPath: "/work/", tags: []string{"work", tagSearchIndex}},
	"labProject":    {paths: []string{"/labs"}, detailPath: "/labs/", tags: []string{"labs", tagSearchIndex}},
	"blogPost":      {paths: []string{"/blog"}, detailPath: "/blog/", tags: []string{"blog", tagSearchIndex}},
	"author":        {paths: []string{"/about", "/blog"}, tags: []string{"author"}},
	"techStack":     {paths: []string{"/work", "/labs", "/blog"}, tags: []string{tagSearchIndex}},
	"tag":           {paths: []string{"/work", "/labs", "/blog"}, tags: []string{tagSearchIndex}},
}

// SupportedRevalidationTypes lists the accepted webhook types.
var SupportedRevalidationTypes = []string{"workCaseStudy", "labProject", "blogPost", "author", "techStack", "tag"}

// RevalidateResponse reports what a webhook call invalidated.
type RevalidateResponse struct {
	Message          string   `json:"message"`
	Type             string   `json:"type"`
	Slug             *string  `json:"slug"`
	RevalidatedPaths []string `json:"revalidatedPaths"`
	RevalidatedTags  []string `json:"revalidatedTags"`
	SearchRebuilt    bool     `json:"searchRebuilt"`
	Timestamp        string   `json:"timestamp"`
}

// RevalidateInfo is returned by GET /api/revalidate.
type RevalidateInfo struct {
	Message        string   `json:"message"`
	Usage          string   `json:"usage"`
	SupportedTypes []string `json:"supportedTypes"`
	HasSecret      bool     `json:"hasSecret"`
}

// Revalidate godoc
// @ID          revalidate
// @Summary     Content publish webhook
// @Description Verifies the shared secret, reports the pages affected by the published content type and rebuilds the search index when search is affected.
// @Tags        Revalidation
// @Produce     json
// @Param       secret  query  string  true   "Shared secret"
// @Param       type    query  string  true   "workCaseStudy | labProject | blogPost | author | techStack | tag"
// @Param       slug    query  string  false  "Slug or URL of the changed item"
// @Success     200  {object}  handlers.RevalidateResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Rebuild failed"
// @Router      /api/revalidate [post]
func (h *Handlers) Revalidate(c *gin.Context) {
	if !h.secretMatches(c.Query("secret")) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid secret")
		return
	}
	typ := c.Query("type")
	if typ == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing type parameter")
		return
	}
	rv, known := revalidations[typ]
	if !known {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown content type: "+typ)
		return
	}

	var slug *string
	paths := append([]string(nil), rv.paths...)
	if s := content.KeyFromURL(strings.TrimSpace(c.Query("slug"))); s != "" {
		slug = &s
		if rv.detailPath != "" {
			paths = append(paths, rv.detailPath+s)
		}
	}

	rebuilt := false
	if h.rebuild != nil && containsTag(rv.tags, tagSearchIndex) {
		if err := h.rebuild.Rebuild(c.Request.Context()); err != nil {
			failCause(c, http.StatusInternalServerError, ErrCodeRebuildFailed, "revalidation failed", err)
			return
		}
		rebuilt = true
	}

	middleware.LoggerFrom(c).Info().
		Str("type", typ).
		Strs("paths", paths).
		Bool("search_rebuilt", rebuilt).
		Msg("content revalidated")

	ok(c, http.StatusOK, RevalidateResponse{
		Message:          "Revalidation successful",
		Type:             typ,
		Slug:             slug,
		RevalidatedPaths: paths,
		RevalidatedTags:  append([]string(nil), rv.tags...),
		SearchRebuilt:    rebuilt,
		Timestamp:        h.now().UTC().Format(time.RFC3339Nano),
	})
}

// RevalidateUsage godoc
// @ID          revalidateUsage
// @Summary     Webhook usage information
// @Tags        Revalidation
// @Produce     json
// @Success     200  {object}  handlers.RevalidateInfo
// @Router      /api/revalidate [get]
func (h *Handlers) RevalidateUsage(c *gin.Context) {
	ok(c, http.StatusOK, RevalidateInfo{
		Message:        "Revalidation API",
		Usage:          "POST /api/revalidate?secret=<secret>&type=<type>&slug=<slug>",
		SupportedTypes: SupportedRevalidationTypes,
		HasSecret:      h.opts.RevalidationSecret != "",
	})
}

// secretMatches compares in constant time. An unset secret matches nothing.
func (h *Handlers) secretMatches(got string) bool {
	want := h.opts.RevalidationSecret
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func containsTag(tags []string, t string) bool {
	for _, x := range tags {
		if x == t {
			return true
		}
	}
	return false
}
