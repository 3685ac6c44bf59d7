package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/search"
)

// ---------- test plumbing ----------

type fakeSource struct {
	items map[domain.Kind][]domain.ContentItem
	err   error
}

func (f *fakeSource) List(_ context.Context, k domain.Kind) ([]domain.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.ContentItem(nil), f.items[k]...), nil
}

func (f *fakeSource) Get(_ context.Context, k domain.Kind, key string) (domain.ContentItem, error) {
	if f.err != nil {
		return domain.ContentItem{}, f.err
	}
	for _, it := range f.items[k] {
		if it.Key == key {
			return it, nil
		}
	}
	return domain.ContentItem{}, content.ErrNotFound
}

type fakeSearch struct {
	state  search.State
	resp   search.Response
	sugg   []string
	gotQ   string
	gotLim int
	size   int
}

func (f *fakeSearch) Search(q string, limit int) (search.Response, error) {
	f.gotQ, f.gotLim = q, limit
	if f.state != search.StateReady {
		return search.Response{}, search.ErrSearchNotReady
	}
	return f.resp, nil
}

func (f *fakeSearch) Suggestions(q string, limit int) ([]string, error) {
	f.gotQ, f.gotLim = q, limit
	if f.state != search.StateReady {
		return nil, search.ErrSearchNotReady
	}
	return f.sugg, nil
}

func (f *fakeSearch) IsReady() bool       { return f.state == search.StateReady }
func (f *fakeSearch) IndexSize() int      { return f.size }
func (f *fakeSearch) State() search.State { return f.state }

type fakeRebuilder struct {
	calls int
	err   error
}

func (f *fakeRebuilder) Rebuild(context.Context) error {
	f.calls++
	return f.err
}

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func corpus() *fakeSource {
	return &fakeSource{items: map[domain.Kind][]domain.ContentItem{
		domain.KindWork: {
			{Key: "payments", Kind: domain.KindWork, Title: "Payments", Summary: "s", Tags: []string{"fintech"}, TechStack: []string{"Go"}, PublishedAt: day(3), Body: "# Payments\n\nRebuilt the **ledger**."},
			{Key: "ledger", Kind: domain.KindWork, Title: "Ledger", Summary: "s", Tags: []string{"fintech"}, PublishedAt: day(2)},
			{Key: "unrelated", Kind: domain.KindWork, Title: "Other", Summary: "s", Tags: []string{"design"}, PublishedAt: day(1)},
		},
	}}
}

type env struct {
	r       *gin.Engine
	search  *fakeSearch
	rebuild *fakeRebuilder
	logs    *bytes.Buffer
}

func newEnv(t *testing.T, src content.Source, opts Options) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	lg := zerolog.New(&buf)

	e := &env{r: gin.New(), search: &fakeSearch{state: search.StateReady, size: 3}, rebuild: &fakeRebuilder{}, logs: &buf}
	h := New(content.NewResolver(src), e.search, e.rebuild, opts)
	h.now = func() time.Time { return day(9) }

	e.r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		c.Set("logger", &lg)
		c.Next()
	})
	e.r.GET("/health", h.Health)
	e.r.GET("/api/search", h.Artifact)
	e.r.GET("/api/revalidate", h.RevalidateUsage)
	e.r.POST("/api/revalidate", h.Revalidate)
	e.r.GET("/v1/search", h.Search)
	e.r.GET("/v1/search/suggestions", h.Suggestions)
	e.r.GET("/v1/content/:kind", h.ListContent)
	e.r.GET("/v1/content/:kind/:key", h.GetContent)
	e.r.GET("/v1/content/:kind/:key/related", h.RelatedContent)
	return e
}

func (e *env) do(method, target string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (%s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code || er.RequestID != "rid-test" {
		t.Fatalf("envelope = %+v; want code %s", er, code)
	}
}

// ---------- content ----------

func TestListContent_PaginatesAndETag(t *testing.T) {
	e := newEnv(t, corpus(), Options{})

	w := e.do(http.MethodGet, "/v1/content/work?page=9&page_size=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ListContentResponse](t, w)
	if resp.Label != "Work" || resp.Pagination.CurrentPage != 2 || resp.Pagination.TotalPages != 2 ||
		!resp.Pagination.HasPrevious || resp.Pagination.HasNext || len(resp.Items) != 1 || resp.Items[0].Key != "unrelated" {
		t.Fatalf("unexpected page: %+v", resp)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"work-`) {
		t.Fatalf("ETag = %q", etag)
	}
	if w := e.do(http.MethodGet, "/v1/content/work?page=9&page_size=2", "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional GET = %d; want 304", w.Code)
	}
	if other := e.do(http.MethodGet, "/v1/content/work?page=1&page_size=2").Header().Get("ETag"); other == etag {
		t.Fatalf("different pages must not share an ETag")
	}
}

func TestListContent_ETagTracksEdits(t *testing.T) {
	src := corpus()
	e := newEnv(t, src, Options{})

	w := e.do(http.MethodGet, "/v1/content/work")
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" {
		t.Fatalf("status = %d, ETag = %q", w.Code, etag)
	}

	// Same count and same newest date; only an older item's title changes.
	src.items[domain.KindWork][2].Title = "Design System"
	w = e.do(http.MethodGet, "/v1/content/work", "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("edited listing answered %d to a stale ETag", w.Code)
	}
	if w.Header().Get("ETag") == etag {
		t.Fatalf("ETag did not change after an edit")
	}
	if resp := decode[ListContentResponse](t, w); resp.Items[2].Title != "Design System" {
		t.Fatalf("stale listing served: %+v", resp.Items)
	}
}

func TestListContent_TagFilterAndLabsAlias(t *testing.T) {
	e := newEnv(t, corpus(), Options{})

	resp := decode[ListContentResponse](t, e.do(http.MethodGet, "/v1/content/work?tag=FinTech"))
	if len(resp.Items) != 2 || resp.Pagination.ItemsPerPage != defaultPageSize || resp.Tag != "FinTech" {
		t.Fatalf("tag filter: %+v", resp)
	}

	lab := decode[ListContentResponse](t, e.do(http.MethodGet, "/v1/content/labs"))
	if lab.Kind != domain.KindLab || lab.Label != "Labs" || lab.Items == nil || lab.Pagination.CurrentPage != 1 {
		t.Fatalf("empty labs listing: %+v", lab)
	}

	blog := decode[ListContentResponse](t, e.do(http.MethodGet, "/v1/content/blog?page_size=1000"))
	if blog.Pagination.ItemsPerPage != maxPageSize {
		t.Fatalf("page_size not capped: %+v", blog.Pagination)
	}
	blog = decode[ListContentResponse](t, e.do(http.MethodGet, "/v1/content/blog"))
	if blog.Pagination.ItemsPerPage != defaultBlogPageSize {
		t.Fatalf("blog default page size = %d", blog.Pagination.ItemsPerPage)
	}

	expectError(t, e.do(http.MethodGet, "/v1/content/podcasts"), http.StatusNotFound, ErrCodeNotFound)
}

func TestGetContent_DetailAndHTML(t *testing.T) {
	e := newEnv(t, corpus(), Options{})

	resp := decode[ContentDetailResponse](t, e.do(http.MethodGet, "/v1/content/work/payments"))
	if resp.Item.Key != "payments" || resp.URL != "/work/payments" || resp.ReadingTime != 1 || resp.HTML != "" {
		t.Fatalf("detail: %+v", resp)
	}
	if resp.WordCount != "5 words" {
		t.Fatalf("word count = %q", resp.WordCount)
	}

	resp = decode[ContentDetailResponse](t, e.do(http.MethodGet, "/v1/content/work/payments?html=1"))
	if !strings.Contains(resp.HTML, "<strong>ledger</strong>") || !strings.Contains(resp.HTML, `<h1 id="payments">`) {
		t.Fatalf("html = %q", resp.HTML)
	}

	expectError(t, e.do(http.MethodGet, "/v1/content/work/nope"), http.StatusNotFound, ErrCodeNotFound)
}

func TestGetContent_SourceUnavailable(t *testing.T) {
	e := newEnv(t, &fakeSource{err: errors.New("disk on fire")}, Options{})
	expectError(t, e.do(http.MethodGet, "/v1/content/blog/x"), http.StatusServiceUnavailable, ErrCodeSourceUnavailable)
	if !strings.Contains(e.logs.String(), `"level":"error"`) {
		t.Fatalf("5xx must be logged: %s", e.logs.String())
	}

	// Listings degrade to empty rather than failing.
	if w := e.do(http.MethodGet, "/v1/content/blog"); w.Code != http.StatusOK {
		t.Fatalf("listing = %d", w.Code)
	}
}

func TestRelatedContent(t *testing.T) {
	e := newEnv(t, corpus(), Options{})
	resp := decode[RelatedContentResponse](t, e.do(http.MethodGet, "/v1/content/work/payments/related"))
	if resp.Key != "payments" || len(resp.Items) != 1 || resp.Items[0].Key != "ledger" {
		t.Fatalf("related: %+v", resp)
	}
	expectError(t, e.do(http.MethodGet, "/v1/content/work/missing/related"), http.StatusNotFound, ErrCodeNotFound)
}

// ---------- search ----------

func TestSearch_ReadyAndNotReady(t *testing.T) {
	e := newEnv(t, corpus(), Options{})
	e.search.resp = search.Response{Query: "pay", Results: []search.Result{}, TotalResults: 0}

	w := e.do(http.MethodGet, "/v1/search?q=%20pay%20&limit=500")
	if w.Code != http.StatusOK || e.search.gotQ != "pay" || e.search.gotLim != maxSearchLimit {
		t.Fatalf("search: %d q=%q limit=%d", w.Code, e.search.gotQ, e.search.gotLim)
	}
	e.do(http.MethodGet, "/v1/search?q=pay")
	if e.search.gotLim != search.DefaultLimit {
		t.Fatalf("default limit = %d", e.search.gotLim)
	}

	e.search.state = search.StateInitializing
	w = e.do(http.MethodGet, "/v1/search?q=pay")
	expectError(t, w, http.StatusServiceUnavailable, ErrCodeSearchNotReady)
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After missing")
	}
}

func TestSuggestions(t *testing.T) {
	e := newEnv(t, corpus(), Options{})
	resp := decode[SuggestionsResponse](t, e.do(http.MethodGet, "/v1/search/suggestions?q=pa"))
	if resp.Suggestions == nil || len(resp.Suggestions) != 0 || e.search.gotLim != search.DefaultSuggestionLimit {
		t.Fatalf("suggestions: %+v limit=%d", resp, e.search.gotLim)
	}

	e.search.sugg = []string{"Payments"}
	resp = decode[SuggestionsResponse](t, e.do(http.MethodGet, "/v1/search/suggestions?q=pa&limit=2"))
	if len(resp.Suggestions) != 1 || e.search.gotLim != 2 {
		t.Fatalf("suggestions: %+v", resp)
	}

	e.search.state = search.StateFailed
	expectError(t, e.do(http.MethodGet, "/v1/search/suggestions?q=pa"), http.StatusServiceUnavailable, ErrCodeSearchNotReady)
}

// ---------- artifact ----------

func TestArtifact_ServesWithCaching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search-index.json")
	e := newEnv(t, corpus(), Options{ArtifactPath: path, ArtifactMaxAge: time.Hour})

	expectError(t, e.do(http.MethodGet, "/api/search"), http.StatusNotFound, ErrCodeIndexNotBuilt)

	body := `{"workCaseStudies":[],"labProjects":[],"blogPosts":[]}` + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	w := e.do(http.MethodGet, "/api/search")
	if w.Code != http.StatusOK || w.Body.String() != body {
		t.Fatalf("artifact: %d %q", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Fatalf("Cache-Control = %q", got)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	etag := w.Header().Get("ETag")
	if w := e.do(http.MethodGet, "/api/search", "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional artifact GET = %d", w.Code)
	}
}

// ---------- revalidation ----------

func TestRevalidate(t *testing.T) {
	e := newEnv(t, corpus(), Options{RevalidationSecret: "s3cret"})

	expectError(t, e.do(http.MethodPost, "/api/revalidate?secret=wrong&type=blogPost"), http.StatusUnauthorized, ErrCodeUnauthorized)
	expectError(t, e.do(http.MethodPost, "/api/revalidate?secret=s3cret"), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodPost, "/api/revalidate?secret=s3cret&type=podcast"), http.StatusBadRequest, ErrCodeBadRequest)

	w := e.do(http.MethodPost, "/api/revalidate?secret=s3cret&type=blogPost&slug=/blog/hello-world/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[RevalidateResponse](t, w)
	if strings.Join(resp.RevalidatedPaths, ",") != "/blog,/blog/hello-world" ||
		strings.Join(resp.RevalidatedTags, ",") != "blog,search-index" ||
		resp.Slug == nil || *resp.Slug != "hello-world" || !resp.SearchRebuilt || e.rebuild.calls != 1 {
		t.Fatalf("blogPost: %+v calls=%d", resp, e.rebuild.calls)
	}
	if resp.Timestamp != "2025-01-09T00:00:00Z" {
		t.Fatalf("timestamp = %q", resp.Timestamp)
	}

	resp = decode[RevalidateResponse](t, e.do(http.MethodPost, "/api/revalidate?secret=s3cret&type=author&slug=ana"))
	if strings.Join(resp.RevalidatedPaths, ",") != "/about,/blog" || resp.SearchRebuilt || e.rebuild.calls != 1 {
		t.Fatalf("author must not rebuild search: %+v", resp)
	}

	e.rebuild.err = errors.New("write /srv/data/search-index.json: permission denied")
	w = e.do(http.MethodPost, "/api/revalidate?secret=s3cret&type=tag")
	expectError(t, w, http.StatusInternalServerError, ErrCodeRebuildFailed)
	if strings.Contains(w.Body.String(), "/srv/data") {
		t.Fatalf("rebuild error leaked to client: %s", w.Body.String())
	}
	if !strings.Contains(e.logs.String(), "permission denied") {
		t.Fatalf("rebuild error must be logged: %s", e.logs.String())
	}
}

func TestFailErr_HidesInternalDetail(t *testing.T) {
	e := newEnv(t, corpus(), Options{})
	e.r.GET("/broken", func(c *gin.Context) {
		failErr(c, errors.New("open /var/lib/portfolio/content.db: disk I/O error"))
	})

	w := e.do(http.MethodGet, "/broken")
	expectError(t, w, http.StatusInternalServerError, ErrCodeInternal)
	if er := decode[ErrorResponse](t, w); er.Message != "internal error" {
		t.Fatalf("message = %q", er.Message)
	}
	if strings.Contains(w.Body.String(), "/var/lib") {
		t.Fatalf("internal error leaked to client: %s", w.Body.String())
	}
	if !strings.Contains(e.logs.String(), "disk I/O error") {
		t.Fatalf("cause must be logged: %s", e.logs.String())
	}
}

func TestRevalidate_NoSecretConfigured(t *testing.T) {
	e := newEnv(t, corpus(), Options{})
	expectError(t, e.do(http.MethodPost, "/api/revalidate?secret=&type=tag"), http.StatusUnauthorized, ErrCodeUnauthorized)

	info := decode[RevalidateInfo](t, e.do(http.MethodGet, "/api/revalidate"))
	if info.HasSecret || len(info.SupportedTypes) != 6 {
		t.Fatalf("usage: %+v", info)
	}
}

// ---------- health ----------

func TestHealth(t *testing.T) {
	e := newEnv(t, corpus(), Options{Version: "v1.0.0"})
	resp := decode[HealthResponse](t, e.do(http.MethodGet, "/health"))
	if resp.Status != "ok" || resp.SearchState != "ready" || resp.IndexSize != 3 || resp.Version != "v1.0.0" {
		t.Fatalf("health: %+v", resp)
	}
}
