package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
)

// Artifact godoc
// @ID          searchArtifact
// @Summary     The prebuilt search index
// @Description Serves the artifact written by build-index for client-side search.
// @Tags        Search
// @Produce     json
// @Success     200  {object}  domain.SearchIndex
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Artifact not built yet"
// @Router      /api/search [get]
func (h *Handlers) Artifact(c *gin.Context) {
	fi, err := os.Stat(h.opts.ArtifactPath)
	if err != nil || fi.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			middleware.LoggerFrom(c).Warn().Err(err).Str("path", h.opts.ArtifactPath).Msg("stat search artifact")
		}
		fail(c, http.StatusNotFound, ErrCodeIndexNotBuilt, "search index has not been built")
		return
	}

	maxAge := int64(h.opts.ArtifactMaxAge.Seconds())
	c.Header("Cache-Control", "public, max-age="+strconv.FormatInt(maxAge, 10))
	c.Header("ETag", fmt.Sprintf(`W/"%x-%x"`, fi.ModTime().UnixNano(), fi.Size()))
	c.Header("Content-Type", "application/json; charset=utf-8")
	// http.ServeFile answers If-None-Match and If-Modified-Since itself.
	http.ServeFile(c.Writer, c.Request, h.opts.ArtifactPath)
}
