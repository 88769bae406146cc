// Package citation packages retrieved chunks into a bounded context block
// and a parallel citation list. The list preserves source order, so a
// "Source N" reference in a model answer resolves to citations[N-1].
package citation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/studylens/studyrag/internal/scoring"
)

// MaxContextChars caps the assembled context block. This is a coarser
// bound on top of the retriever's per-chunk cap: it protects against many
// small chunks summing too large.
const MaxContextChars = 2000

// MaxSnippetChars caps citation snippets shown to the user.
const MaxSnippetChars = 200

// Citation is a verifiable back-reference from an answer to its source.
type Citation struct {
	DocumentID  string  `json:"document_id"`
	PageNumber  int     `json:"page_number"`
	Snippet     string  `json:"snippet"`
	Relevance   float64 `json:"relevance_score"`
	SourceLabel string  `json:"source_label"`
	FullText    string  `json:"full_text"`
}

// Context is the assembled prompt block plus its citation list.
type Context struct {
	Text      string
	Citations []Citation
}

// Build assembles the context block and citations for the given chunks, in
// order. One citation is produced per chunk; the context text is truncated
// at MaxContextChars.
func Build(chunks []scoring.ScoredChunk) Context {
	var b strings.Builder
	citations := make([]Citation, 0, len(chunks))

	for i, sc := range chunks {
		page := sc.Chunk.PageNumber
		if page < 1 {
			page = 1
		}
		label := fmt.Sprintf("Source %d (Page %d)", i+1, page)

		b.WriteString(label)
		b.WriteString(":\n")
		b.WriteString(sc.Chunk.Text)
		b.WriteString("\n\n")

		citations = append(citations, Citation{
			DocumentID:  sc.Chunk.DocumentID,
			PageNumber:  page,
			Snippet:     snippet(sc.Chunk.Text),
			Relevance:   sc.Relevance,
			SourceLabel: label,
			FullText:    sc.Chunk.Text,
		})
	}

	text := truncate(b.String(), MaxContextChars)

	return Context{
		Text:      text,
		Citations: citations,
	}
}

// snippet truncates chunk text for display, appending an ellipsis when
// anything was cut.
func snippet(text string) string {
	if len(text) <= MaxSnippetChars {
		return text
	}
	return truncate(text, MaxSnippetChars) + "..."
}

// truncate bounds s to at most max bytes without cutting a rune in half.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
