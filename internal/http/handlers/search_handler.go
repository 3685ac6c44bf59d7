package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/search"
	"github.com/tbourn/go-portfolio-backend/internal/utils"
)

const (
	maxSearchLimit     = 50
	maxSuggestionLimit = 20
	maxQueryLen        = 256
)

// SuggestionsResponse lists title completions for a partial query.
type SuggestionsResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// queryParam returns the trimmed q parameter, capped at maxQueryLen runes.
func queryParam(c *gin.Context) string {
	q := strings.TrimSpace(c.Query("q"))
	if r := []rune(q); len(r) > maxQueryLen {
		q = string(r[:maxQueryLen])
	}
	return q
}

// Search godoc
// @ID          search
// @Summary     Fuzzy search across all published content
// @Description Results are grouped work, blog, lab. Queries shorter than two characters return no results.
// @Tags        Search
// @Produce     json
// @Param       q      query  string  true   "Query"
// @Param       limit  query  int     false  "Maximum results" default(20) maximum(50)
// @Success     200  {object}  search.Response
// @Failure     503  {object}  handlers.ErrorResponse  "Search index not loaded"
// @Router      /search [get]
func (h *Handlers) Search(c *gin.Context) {
	limit := min(utils.AtoiDefault(c.Query("limit"), search.DefaultLimit), maxSearchLimit)
	resp, err := h.search.Search(queryParam(c), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// Suggestions godoc
// @ID          searchSuggestions
// @Summary     Title suggestions for a partial query
// @Tags        Search
// @Produce     json
// @Param       q      query  string  true   "Partial query"
// @Param       limit  query  int     false  "Maximum suggestions" default(5) maximum(20)
// @Success     200  {object}  handlers.SuggestionsResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Search index not loaded"
// @Router      /search/suggestions [get]
func (h *Handlers) Suggestions(c *gin.Context) {
	q := queryParam(c)
	limit := min(utils.AtoiDefault(c.Query("limit"), search.DefaultSuggestionLimit), maxSuggestionLimit)
	out, err := h.search.Suggestions(q, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if out == nil {
		out = []string{}
	}
	ok(c, http.StatusOK, SuggestionsResponse{Query: q, Suggestions: out})
}
