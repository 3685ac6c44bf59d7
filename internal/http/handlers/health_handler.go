package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports liveness and the search engine state.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version,omitempty"`
	SearchState string `json:"searchState"`
	IndexSize   int    `json:"indexSize"`
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Description Always 200 while the process serves; search readiness is reported, not enforced.
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{
		Status:      "ok",
		Version:     h.opts.Version,
		SearchState: h.search.State().String(),
		IndexSize:   h.search.IndexSize(),
	})
}
