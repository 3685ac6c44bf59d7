package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BlockType is the discriminant of a structured content block.
type BlockType string

const (
	BlockText  BlockType = "block"
	BlockImage BlockType = "image"
	BlockCode  BlockType = "code"
)

// Block is a closed union of structured content blocks: *TextBlock,
// *ImageBlock and *CodeBlock.
type Block interface {
	Type() BlockType
	isBlock()
}

// Span is a run of text inside a TextBlock.
type Span struct {
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// TextBlock is a paragraph or heading made of text spans.
type TextBlock struct {
	Style string
	Spans []Span
}

// ImageBlock references an image asset.
type ImageBlock struct {
	Asset   string
	Alt     string
	Caption string
}

// CodeBlock holds a code listing.
type CodeBlock struct {
	Language string
	Filename string
	Code     string
}

func (*TextBlock) Type() BlockType  { return BlockText }
func (*ImageBlock) Type() BlockType { return BlockImage }
func (*CodeBlock) Type() BlockType  { return BlockCode }

func (*TextBlock) isBlock()  {}
func (*ImageBlock) isBlock() {}
func (*CodeBlock) isBlock()  {}

// Text concatenates the block's spans.
func (b *TextBlock) Text() string {
	var sb strings.Builder
	for _, s := range b.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Blocks is an ordered list of content blocks. It encodes to JSON as an array
// of objects discriminated by "_type".
type Blocks []Block

// PlainText joins the text of all text blocks with blank lines. Image and code
// blocks carry no readable prose and are skipped.
func (bs Blocks) PlainText() string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		if tb, ok := b.(*TextBlock); ok {
			parts = append(parts, tb.Text())
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

type blockWire struct {
	Type     BlockType `json:"_type"`
	Style    string    `json:"style,omitempty"`
	Children []Span    `json:"children,omitempty"`
	Asset    string    `json:"asset,omitempty"`
	Alt      string    `json:"alt,omitempty"`
	Caption  string    `json:"caption,omitempty"`
	Language string    `json:"language,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Code     string    `json:"code,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (bs Blocks) MarshalJSON() ([]byte, error) {
	wire := make([]blockWire, 0, len(bs))
	for _, b := range bs {
		switch v := b.(type) {
		case *TextBlock:
			wire = append(wire, blockWire{Type: BlockText, Style: v.Style, Children: v.Spans})
		case *ImageBlock:
			wire = append(wire, blockWire{Type: BlockImage, Asset: v.Asset, Alt: v.Alt, Caption: v.Caption})
		case *CodeBlock:
			wire = append(wire, blockWire{Type: BlockCode, Language: v.Language, Filename: v.Filename, Code: v.Code})
		default:
			return nil, fmt.Errorf("unsupported block %T", b)
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown discriminants are
// rejected.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var wire []blockWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(Blocks, 0, len(wire))
	for i, w := range wire {
		switch w.Type {
		case BlockText:
			out = append(out, &TextBlock{Style: w.Style, Spans: w.Children})
		case BlockImage:
			out = append(out, &ImageBlock{Asset: w.Asset, Alt: w.Alt, Caption: w.Caption})
		case BlockCode:
			out = append(out, &CodeBlock{Language: w.Language, Filename: w.Filename, Code: w.Code})
		default:
			return fmt.Errorf("block %d: unknown _type %q", i, w.Type)
		}
	}
	*bs = out
	return nil
}
