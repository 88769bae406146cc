// Package chunker splits document text into overlapping, bounded chunks
// with positional metadata.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/studylens/studyrag/internal/store"
)

// DefaultChunkSize is the target number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultMinChunkSize is the smallest chunk the chunker will emit.
const DefaultMinChunkSize = 100

// DefaultOverlap is the number of characters shared with the preceding chunk.
const DefaultOverlap = 150

// minBreakPercent is the earliest acceptable natural break, as a percentage
// of the chunk size from the chunk start. Breaks before this point would
// produce runty chunks from an early punctuation mark.
const minBreakPercent = 60

// pageDivisor splits a document into this many equal spans for the page
// estimate. Extracted text carries no real page boundaries.
const pageDivisor = 10

var (
	horizontalRun = regexp.MustCompile(`[ \t]+`)
	paddedNewline = regexp.MustCompile(` ?\n ?`)
	newlineRun    = regexp.MustCompile(`\n{2,}`)
)

// Chunker splits normalised text into sentence-aligned chunks.
type Chunker struct {
	chunkSize int
	minSize   int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithMinChunkSize sets the minimum emitted chunk size in characters.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.minSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		minSize:   DefaultMinChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for forward progress.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits text into chunks belonging to docID.
//
// The output is deterministic: the same text always yields the same chunk
// sequence, including IDs, so re-processing a document overwrites rather
// than duplicates. Offsets refer to the whitespace-normalised text, and
// consecutive chunks share a fixed overlap region.
//
// Returns an empty list when the text is shorter than the minimum chunk
// size; the caller decides whether that is a user-facing error.
func (c *Chunker) Chunk(docID, text string) []store.Chunk {
	norm := Normalize(text)
	total := len(norm)
	if total < c.minSize {
		return nil
	}

	pageSpan := total / pageDivisor

	estimated := total/(c.chunkSize-c.overlap) + 1
	chunks := make([]store.Chunk, 0, estimated)

	start := 0
	for start < total {
		end := start + c.chunkSize
		if end >= total {
			end = total
		} else if cut := c.naturalBreak(norm, start, end); cut > 0 {
			end = cut
		}

		content := norm[start:end]
		if len(content) >= c.minSize {
			index := len(chunks)
			chunks = append(chunks, store.Chunk{
				ID:         ChunkID(docID, index),
				DocumentID: docID,
				Text:       content,
				StartIndex: start,
				EndIndex:   end,
				ChunkIndex: index,
				PageNumber: estimatePage(start, pageSpan),
				WordCount:  len(strings.Fields(content)),
			})
		}
		// A short remainder can only occur at the very end; it is dropped.

		if end == total {
			break
		}
		start = end - c.overlap
	}

	return chunks
}

// naturalBreak returns the index one past the sentence terminator nearest
// to end, or 0 when the only breaks available fall before minBreakPercent
// of the chunk size.
func (c *Chunker) naturalBreak(s string, start, end int) int {
	earliest := start + c.chunkSize*minBreakPercent/100
	for i := end - 1; i >= earliest; i-- {
		switch s[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}

// estimatePage maps a byte offset to a decile-based page estimate.
// This is a coarse approximation: extracted text has no page boundary data,
// so the document is treated as ten equal pages.
func estimatePage(offset, pageSpan int) int {
	if pageSpan <= 0 {
		return 1
	}
	return offset/pageSpan + 1
}

// ChunkID derives a stable UUID for a chunk from its document and position.
func ChunkID(docID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s/%d", docID, index)).String()
}

// Normalize collapses whitespace before chunking: runs of spaces and tabs
// become a single space, blank lines collapse to a single newline, and the
// result is trimmed.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalRun.ReplaceAllString(text, " ")
	text = paddedNewline.ReplaceAllString(text, "\n")
	text = newlineRun.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
