package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// RemoteSource reads content from a headless content API:
//
//	GET {BaseURL}/{kind}?status=published  -> {"result": [record...]}
//	GET {BaseURL}/{kind}/{key}             -> {"result": record} or 404
//
// Records whose status is not "published" are dropped even if the API
// returns them.
type RemoteSource struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewRemoteSource returns a source for baseURL. A zero timeout uses 10s.
func NewRemoteSource(baseURL, token string, timeout time.Duration) *RemoteSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

type remoteRecord struct {
	Slug        string        `json:"slug"`
	Status      string        `json:"status"`
	Title       string        `json:"title"`
	Summary     string        `json:"summary"`
	Tags        []string      `json:"tags"`
	TechStack   []string      `json:"techStack"`
	Author      string        `json:"author"`
	Role        string        `json:"role"`
	PublishedAt string        `json:"publishedAt"`
	Body        string        `json:"body"`
	Content     domain.Blocks `json:"content"`
}

func (r remoteRecord) item(kind domain.Kind) (domain.ContentItem, error) {
	var published time.Time
	if r.PublishedAt != "" {
		t, err := dateparse.ParseIn(r.PublishedAt, time.UTC)
		if err != nil {
			return domain.ContentItem{}, fmt.Errorf("record %q: %w", r.Slug, err)
		}
		published = t.UTC()
	}
	return domain.ContentItem{
		Key:         r.Slug,
		Kind:        kind,
		Title:       r.Title,
		Summary:     r.Summary,
		Tags:        compact(r.Tags),
		TechStack:   compact(r.TechStack),
		Author:      r.Author,
		Role:        r.Role,
		PublishedAt: published,
		Body:        r.Body,
		Blocks:      r.Content,
	}, nil
}

func (s *RemoteSource) List(ctx context.Context, kind domain.Kind) ([]domain.ContentItem, error) {
	var env struct {
		Result []remoteRecord `json:"result"`
	}
	u := s.BaseURL + "/" + url.PathEscape(string(kind)) + "?status=" + domain.StatusPublished
	if err := s.get(ctx, u, &env); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("content api %s: list endpoint not found", u)
		}
		return nil, err
	}
	out := make([]domain.ContentItem, 0, len(env.Result))
	for _, rec := range env.Result {
		if rec.Status != domain.StatusPublished || rec.Slug == "" {
			continue
		}
		it, err := rec.item(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *RemoteSource) Get(ctx context.Context, kind domain.Kind, key string) (domain.ContentItem, error) {
	var env struct {
		Result *remoteRecord `json:"result"`
	}
	u := s.BaseURL + "/" + url.PathEscape(string(kind)) + "/" + url.PathEscape(key)
	if err := s.get(ctx, u, &env); err != nil {
		return domain.ContentItem{}, err
	}
	if env.Result == nil || env.Result.Status != domain.StatusPublished {
		return domain.ContentItem{}, ErrNotFound
	}
	if env.Result.Slug == "" {
		env.Result.Slug = key
	}
	return env.Result.item(kind)
}

func (s *RemoteSource) get(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("content api %s: status %d", u, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("content api %s: decode: %w", u, err)
	}
	return nil
}
