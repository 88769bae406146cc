// Package markdown converts markdown study notes into the plain text the
// engine chunks, and extracts a section outline for document metadata.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Converter turns markdown source into plain text and outlines.
type Converter struct {
	parser goldmark.Markdown
}

// NewConverter creates a converter configured with a goldmark parser.
func NewConverter() *Converter {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Converter{
		parser: md,
	}
}

// ToPlainText strips markdown structure, returning readable text with one
// line per block. Formatting marks disappear; code block content is kept
// verbatim since notes often contain worked examples.
func (c *Converter) ToPlainText(source []byte) string {
	reader := text.NewReader(source)
	doc := c.parser.Parser().Parse(reader)

	var b strings.Builder

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindHeading, ast.KindParagraph, ast.KindListItem, ast.KindBlockquote:
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString(" ")
			}
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
			b.WriteString("\n")
		case ast.KindAutoLink:
			b.Write(n.(*ast.AutoLink).URL(source))
		}

		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// Outline returns the document's section hierarchy as flattened paths like
// "Installation > Prerequisites", down to H3.
func (c *Converter) Outline(source []byte) ([]string, error) {
	reader := text.NewReader(source)
	doc := c.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(3),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var outline []string
	flattenItems(tree.Items, nil, &outline)
	return outline, nil
}

// flattenItems walks TOC items depth-first, joining ancestor titles.
func flattenItems(items toc.Items, ancestors []string, out *[]string) {
	for _, item := range items {
		path := make([]string, 0, len(ancestors)+1)
		path = append(path, ancestors...)
		path = append(path, string(item.Title))
		*out = append(*out, strings.Join(path, " > "))

		if len(item.Items) > 0 {
			flattenItems(item.Items, path, out)
		}
	}
}
