package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// RenderHTML renders the item's body to HTML. Markdown bodies are converted
// with GitHub Flavored Markdown; structured blocks are first lowered to
// markdown so both backends share one renderer.
func RenderHTML(item domain.ContentItem) (string, error) {
	src := item.Body
	if len(item.Blocks) > 0 {
		src = BlocksMarkdown(item.Blocks)
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render %s/%s: %w", item.Kind, item.Key, err)
	}
	return buf.String(), nil
}

// BlocksMarkdown lowers structured blocks to markdown.
func BlocksMarkdown(bs domain.Blocks) string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		switch v := b.(type) {
		case *domain.TextBlock:
			parts = append(parts, headingPrefix(v.Style)+spansMarkdown(v.Spans))
		case *domain.ImageBlock:
			img := fmt.Sprintf("![%s](%s)", v.Alt, v.Asset)
			if v.Caption != "" {
				img += "\n\n*" + v.Caption + "*"
			}
			parts = append(parts, img)
		case *domain.CodeBlock:
			parts = append(parts, "```"+v.Language+"\n"+strings.TrimRight(v.Code, "\n")+"\n```")
		}
	}
	return strings.Join(parts, "\n\n")
}

func headingPrefix(style string) string {
	switch style {
	case "h1":
		return "# "
	case "h2":
		return "## "
	case "h3":
		return "### "
	case "h4":
		return "#### "
	case "blockquote":
		return "> "
	}
	return ""
}

func spansMarkdown(spans []domain.Span) string {
	var sb strings.Builder
	for _, s := range spans {
		text := s.Text
		for _, m := range s.Marks {
			switch m {
			case "strong":
				text = "**" + text + "**"
			case "em":
				text = "*" + text + "*"
			case "code":
				text = "`" + text + "`"
			case "strike-through":
				text = "~~" + text + "~~"
			}
		}
		sb.WriteString(text)
	}
	return sb.String()
}
