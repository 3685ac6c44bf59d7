package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/indexer"
)

// Fetcher retrieves the persisted search artifact.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.SearchIndex, error)
	String() string
}

// HTTPFetcher reads the artifact from the retrieval endpoint.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher for url with a bounded client.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (f *HTTPFetcher) String() string { return f.URL }

func (f *HTTPFetcher) Fetch(ctx context.Context) (domain.SearchIndex, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return domain.SearchIndex{}, err
	}
	req.Header.Set("Accept", "application/json")
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.SearchIndex{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.SearchIndex{}, ErrArtifactNotFound
	case resp.StatusCode != http.StatusOK:
		return domain.SearchIndex{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.SearchIndex{}, err
	}
	return decode(raw)
}

// FileFetcher reads the artifact straight from disk, for processes that
// share a filesystem with the builder.
type FileFetcher struct {
	Path string
}

func (f *FileFetcher) String() string { return f.Path }

func (f *FileFetcher) Fetch(ctx context.Context) (domain.SearchIndex, error) {
	if err := ctx.Err(); err != nil {
		return domain.SearchIndex{}, err
	}
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.SearchIndex{}, ErrArtifactNotFound
	}
	if err != nil {
		return domain.SearchIndex{}, err
	}
	return decode(raw)
}

func decode(raw []byte) (domain.SearchIndex, error) {
	if err := indexer.ValidateJSON(raw); err != nil {
		return domain.SearchIndex{}, err
	}
	var idx domain.SearchIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return domain.SearchIndex{}, err
	}
	return idx, nil
}
