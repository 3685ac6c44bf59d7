package content

import (
	"strings"
	"testing"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

func TestRenderHTML_MarkdownBody(t *testing.T) {
	html, err := RenderHTML(domain.ContentItem{Body: "## Intro\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~"})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{`<h2 id="intro">Intro</h2>`, "<table>", "<del>old</del>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}
}

func TestRenderHTML_Blocks(t *testing.T) {
	item := domain.ContentItem{Body: "ignored", Blocks: domain.Blocks{
		&domain.TextBlock{Style: "h2", Spans: []domain.Span{{Text: "Title"}}},
		&domain.TextBlock{Spans: []domain.Span{{Text: "bold", Marks: []string{"strong"}}, {Text: " text"}}},
		&domain.CodeBlock{Language: "go", Code: "fmt.Println(1)\n"},
		&domain.ImageBlock{Asset: "/img/a.png", Alt: "diagram"},
	}}
	html, err := RenderHTML(item)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"<h2", "<strong>bold</strong> text", `class="language-go"`, `<img src="/img/a.png" alt="diagram"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}
	if strings.Contains(html, "ignored") {
		t.Fatalf("blocks should take precedence over body")
	}
}
