package content

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

type fakeSource struct {
	items map[domain.Kind][]domain.ContentItem
	err   error
	calls int
}

func (f *fakeSource) List(_ context.Context, kind domain.Kind) ([]domain.ContentItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items[kind], nil
}

func (f *fakeSource) Get(_ context.Context, kind domain.Kind, key string) (domain.ContentItem, error) {
	if f.err != nil {
		return domain.ContentItem{}, f.err
	}
	for _, it := range f.items[kind] {
		if it.Key == key {
			return it, nil
		}
	}
	return domain.ContentItem{}, ErrNotFound
}

func date(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }

func item(key string, d int, tags ...string) domain.ContentItem {
	return domain.ContentItem{Key: key, Title: "T " + key, Summary: "S", Tags: tags, PublishedAt: date(d)}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func keysOf(items []domain.ContentItem) string {
	ks := make([]string, len(items))
	for i, it := range items {
		ks[i] = it.Key
	}
	return strings.Join(ks, ",")
}

func TestLoadAll_SortsNewestFirstWithKeyTieBreak(t *testing.T) {
	src := &fakeSource{items: map[domain.Kind][]domain.ContentItem{
		domain.KindBlog: {item("b", 5), item("old", 1), item("a", 5), item("new", 9)},
	}}
	r := NewResolver(src)

	got, err := r.LoadAll(context.Background(), domain.KindBlog)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if keysOf(got) != "new,a,b,old" {
		t.Fatalf("order = %s", keysOf(got))
	}
	for _, it := range got {
		if it.Kind != domain.KindBlog {
			t.Fatalf("kind not stamped: %+v", it)
		}
	}
	if src.items[domain.KindBlog][0].Key != "b" {
		t.Fatalf("source slice must not be reordered")
	}
}

func TestLoadAll_UnknownKind(t *testing.T) {
	r := NewResolver(&fakeSource{})
	if _, err := r.LoadAll(context.Background(), domain.Kind("podcast")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("want ErrUnknownKind, got %v", err)
	}
}

func TestListAll_DegradesToEmptyAndLogs(t *testing.T) {
	buf := captureLogs(t)
	boom := errors.New("disk gone")
	r := NewResolver(&fakeSource{err: boom})

	got := r.ListAll(context.Background(), domain.KindWork)
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil list, got %#v", got)
	}
	if !strings.Contains(buf.String(), "disk gone") {
		t.Fatalf("failure should be logged, got %q", buf.String())
	}

	_, err := r.LoadAll(context.Background(), domain.KindWork)
	var se *SourceError
	if !errors.As(err, &se) || !errors.Is(err, ErrSourceUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("LoadAll must surface *SourceError wrapping cause, got %v", err)
	}
	if se.Kind != domain.KindWork {
		t.Fatalf("SourceError kind = %q", se.Kind)
	}
}

func TestGetByKey(t *testing.T) {
	buf := captureLogs(t)
	src := &fakeSource{items: map[domain.Kind][]domain.ContentItem{
		domain.KindLab: {item("synth", 1)},
	}}
	r := NewResolver(src)
	ctx := context.Background()

	got, err := r.GetByKey(ctx, domain.KindLab, " synth ")
	if err != nil || got.Key != "synth" || got.Kind != domain.KindLab {
		t.Fatalf("GetByKey: got=%+v err=%v", got, err)
	}
	if _, err := r.GetByKey(ctx, domain.KindLab, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := r.GetByKey(ctx, domain.KindLab, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty key should be ErrNotFound, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("not-found must not be logged: %q", buf.String())
	}

	src.err = errors.New("timeout")
	_, err = r.GetByKey(ctx, domain.KindLab, "synth")
	if !errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrNotFound) {
		t.Fatalf("want SourceUnavailable, got %v", err)
	}
}

func TestPaginate(t *testing.T) {
	var items []domain.ContentItem
	for i := 1; i <= 7; i++ {
		items = append(items, item(string(rune('a'+i-1)), i))
	}
	r := NewResolver(&fakeSource{items: map[domain.Kind][]domain.ContentItem{domain.KindBlog: items}})
	ctx := context.Background()

	p, err := r.Paginate(ctx, domain.KindBlog, 2, 3)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	w := p.Window
	if keysOf(p.Items) != "d,c,b" || w.CurrentPage != 2 || w.TotalPages != 3 || w.TotalItems != 7 ||
		w.ItemsPerPage != 3 || !w.HasNext || !w.HasPrevious {
		t.Fatalf("page 2: items=%s window=%+v", keysOf(p.Items), w)
	}

	p, _ = r.Paginate(ctx, domain.KindBlog, 99, 3)
	if p.Window.CurrentPage != 3 || keysOf(p.Items) != "a" || p.Window.HasNext {
		t.Fatalf("clamped high page: %+v %s", p.Window, keysOf(p.Items))
	}

	p, _ = r.Paginate(ctx, domain.KindBlog, -4, 3)
	if p.Window.CurrentPage != 1 || p.Window.HasPrevious {
		t.Fatalf("clamped low page: %+v", p.Window)
	}

	if _, err := r.Paginate(ctx, domain.KindBlog, 1, 0); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("want ErrInvalidPageSize, got %v", err)
	}

	p, err = r.Paginate(ctx, domain.KindWork, 5, 10)
	if err != nil || len(p.Items) != 0 || p.Window.TotalPages != 0 || p.Window.CurrentPage != 1 {
		t.Fatalf("empty kind: %+v err=%v", p, err)
	}
}

func TestPaginate_UnionOfPagesIsListing(t *testing.T) {
	var items []domain.ContentItem
	for i := 1; i <= 11; i++ {
		items = append(items, item(string(rune('a'+i-1)), i))
	}
	r := NewResolver(&fakeSource{items: map[domain.Kind][]domain.ContentItem{domain.KindWork: items}})
	ctx := context.Background()

	all := r.ListAll(ctx, domain.KindWork)
	var joined []domain.ContentItem
	first, _ := r.Paginate(ctx, domain.KindWork, 1, 4)
	for pg := 1; pg <= first.Window.TotalPages; pg++ {
		p, _ := r.Paginate(ctx, domain.KindWork, pg, 4)
		joined = append(joined, p.Items...)
	}
	if keysOf(joined) != keysOf(all) {
		t.Fatalf("pages %s != listing %s", keysOf(joined), keysOf(all))
	}
}

func TestRelatedByTags(t *testing.T) {
	src := &fakeSource{items: map[domain.Kind][]domain.ContentItem{
		domain.KindBlog: {
			item("self", 9, "go", "search"),
			item("two-old", 1, "go", "search"),
			item("two-new", 3, "go", "search"),
			item("one", 8, "search"),
			item("none", 7, "rust"),
			{Key: "stack", Title: "x", PublishedAt: date(2), TechStack: []string{"go"}},
		},
	}}
	r := NewResolver(src)
	ctx := context.Background()

	got := r.RelatedByTags(ctx, domain.KindBlog, "self", []string{"go", "search"}, 10)
	if keysOf(got) != "two-new,two-old,one,stack" {
		t.Fatalf("related = %s", keysOf(got))
	}

	got = r.RelatedByTags(ctx, domain.KindBlog, "self", []string{"go", "search"}, 0)
	if len(got) != DefaultRelatedLimit {
		t.Fatalf("default limit: got %d", len(got))
	}

	if got := r.RelatedByTags(ctx, domain.KindBlog, "self", nil, 3); len(got) != 0 {
		t.Fatalf("no reference tags should yield nothing, got %s", keysOf(got))
	}

	r2 := NewResolver(src, WithRelatedLimit(1))
	if got := r2.RelatedByTags(ctx, domain.KindBlog, "self", []string{"go"}, 0); len(got) != 1 {
		t.Fatalf("WithRelatedLimit not applied: %d", len(got))
	}
}

func TestFilterByTag_KeysAndStats(t *testing.T) {
	src := &fakeSource{items: map[domain.Kind][]domain.ContentItem{
		domain.KindWork: {
			item("a", 2, "Fintech"),
			{Key: "b", PublishedAt: date(6), TechStack: []string{"fintech"}},
			item("c", 4, "health"),
		},
	}}
	r := NewResolver(src)
	ctx := context.Background()

	if got := keysOf(r.FilterByTag(ctx, domain.KindWork, "FINTECH")); got != "b,a" {
		t.Fatalf("FilterByTag = %s", got)
	}
	if got := r.FilterByTag(ctx, domain.KindWork, " "); len(got) != 0 {
		t.Fatalf("blank tag should match nothing")
	}
	if got := strings.Join(r.Keys(ctx, domain.KindWork), ","); got != "b,c,a" {
		t.Fatalf("Keys = %s", got)
	}
	n, latest := r.Stats(ctx, domain.KindWork)
	if n != 3 || !latest.Equal(date(6)) {
		t.Fatalf("Stats = %d %v", n, latest)
	}
	if n, latest := r.Stats(ctx, domain.KindLab); n != 0 || !latest.IsZero() {
		t.Fatalf("empty Stats = %d %v", n, latest)
	}
}
