package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"work", KindWork, true},
		{" Labs ", KindLab, true},
		{"lab", KindLab, true},
		{"BLOG", KindBlog, true},
		{"post", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseKind(%q) = (%q,%v); want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if Kind("labs").Valid() {
		t.Fatalf("alias must not be a valid canonical kind")
	}
}

func TestKindURLAndDir(t *testing.T) {
	if got := KindLab.URL("synth"); got != "/lab/synth" {
		t.Fatalf("URL = %q", got)
	}
	if KindLab.Dir() != "labs" || KindWork.Dir() != "work" || KindBlog.Dir() != "blog" {
		t.Fatalf("unexpected dirs")
	}
	if KindBlog.ArtifactKey() != "blogPosts" || Kind("x").ArtifactKey() != "" {
		t.Fatalf("unexpected artifact keys")
	}
}

func TestAllTags_DedupKeepsFirst(t *testing.T) {
	it := ContentItem{Tags: []string{"go", "search", ""}, TechStack: []string{"Go", "go", "sqlite"}}
	got := strings.Join(it.AllTags(), ",")
	if got != "go,search,Go,sqlite" {
		t.Fatalf("AllTags = %q", got)
	}
}

func TestBlocks_JSONAndPlainText(t *testing.T) {
	raw := `[
		{"_type":"block","style":"h2","children":[{"text":"Hello "},{"text":"world","marks":["strong"]}]},
		{"_type":"image","asset":"img-1","alt":"diagram"},
		{"_type":"code","language":"go","code":"fmt.Println(1)"},
		{"_type":"block","children":[{"text":"Second paragraph"}]}
	]`
	var bs Blocks
	if err := json.Unmarshal([]byte(raw), &bs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(bs) != 4 {
		t.Fatalf("want 4 blocks, got %d", len(bs))
	}
	if bs[1].Type() != BlockImage || bs[2].Type() != BlockCode {
		t.Fatalf("discriminants not preserved")
	}
	if got := bs.PlainText(); got != "Hello world\n\nSecond paragraph" {
		t.Fatalf("PlainText = %q", got)
	}

	out, err := json.Marshal(bs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"_type":"code"`) || !strings.Contains(string(out), `"asset":"img-1"`) {
		t.Fatalf("marshal lost fields: %s", out)
	}

	if err := json.Unmarshal([]byte(`[{"_type":"video"}]`), &bs); err == nil {
		t.Fatalf("unknown _type must be rejected")
	}
}

func TestPlainText_PrefersBlocks(t *testing.T) {
	it := ContentItem{Body: "raw body"}
	if it.PlainText() != "raw body" {
		t.Fatalf("body fallback broken")
	}
	it.Blocks = Blocks{&TextBlock{Spans: []Span{{Text: "from blocks"}}}}
	if it.PlainText() != "from blocks" {
		t.Fatalf("blocks should win over body")
	}
}

func TestSearchIndex_FlattenOrderAndSet(t *testing.T) {
	idx := NewSearchIndex()
	idx.Set(KindBlog, []SearchIndexItem{{ID: "b"}})
	idx.Set(KindWork, []SearchIndexItem{{ID: "w"}})
	idx.Set(KindLab, []SearchIndexItem{{ID: "l"}})

	flat := idx.Flatten()
	if len(flat) != 3 || flat[0].ID != "w" || flat[1].ID != "l" || flat[2].ID != "b" {
		t.Fatalf("flatten order wrong: %+v", flat)
	}
	if idx.Len() != 3 {
		t.Fatalf("Len = %d", idx.Len())
	}

	b, _ := json.Marshal(NewSearchIndex())
	for _, k := range ArtifactKeys {
		if !strings.Contains(string(b), `"`+k+`":[]`) {
			t.Fatalf("empty index must encode %s as []: %s", k, b)
		}
	}
}

func TestContentRecord_MigrateAndRoundTrip(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&ContentRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if (ContentRecord{}).TableName() != "content_records" {
		t.Fatalf("unexpected table name")
	}
	if !db.Migrator().HasIndex(&ContentRecord{}, "ux_content_kind_key") {
		t.Fatalf("expected unique index ux_content_kind_key")
	}

	when := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	item := ContentItem{
		Key: "payments", Kind: KindWork, Title: "Payments", Summary: "Rebuilt payments",
		Tags: []string{"fintech"}, TechStack: []string{"Go"}, PublishedAt: when,
		Blocks: Blocks{&TextBlock{Spans: []Span{{Text: "hello"}}}, &CodeBlock{Code: "x"}},
	}
	rec := RecordFromItem(item, StatusPublished)
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var got ContentRecord
	if err := db.First(&got, "kind = ? AND key = ?", "work", "payments").Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	back := got.Item()
	if back.Title != "Payments" || back.Tags[0] != "fintech" || back.TechStack[0] != "Go" {
		t.Fatalf("scalar/tag fields lost: %+v", back)
	}
	if len(back.Blocks) != 2 || back.Blocks[1].Type() != BlockCode {
		t.Fatalf("blocks lost: %+v", back.Blocks)
	}
	if !back.PublishedAt.Equal(when) {
		t.Fatalf("date = %v", back.PublishedAt)
	}

	dup := RecordFromItem(item, StatusDraft)
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected unique violation on (kind,key)")
	}
}
