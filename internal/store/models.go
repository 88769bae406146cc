package store

import "time"

// DocumentStatus tracks whether a document has been chunked yet.
type DocumentStatus string

const (
	StatusUnprocessed DocumentStatus = "unprocessed"
	StatusProcessed   DocumentStatus = "processed"
)

// Document represents one uploaded study document.
// Text is the full extracted text; it may be empty when extraction found
// nothing. Chunks is empty until the document has been processed.
type Document struct {
	ID       string   // UUID
	Title    string   // Display name, e.g. original file name
	Text     string   // Full extracted text
	Status   DocumentStatus
	Chunks   []Chunk  // Populated by processing, replaced wholesale on re-process
	Summary  string   // LLM-generated study summary (optional)
	KeyTerms []string // LLM-extracted key terms (optional)
	Outline  []string // Section outline for markdown imports (optional)
	AddedAt  time.Time
}

// Processed reports whether the document has a usable chunk list.
func (d *Document) Processed() bool {
	return d.Status == StatusProcessed && len(d.Chunks) > 0
}

// Chunk is the unit of retrieval: a bounded, overlapping span of a
// document's normalised text.
type Chunk struct {
	ID         string    // UUID, deterministic per (document, index)
	DocumentID string    // Parent Document.ID
	Text       string    // Chunk text (bounded length)
	StartIndex int       // Byte offset of the chunk start in the normalised text
	EndIndex   int       // Byte offset one past the chunk end
	ChunkIndex int       // Sequence number within the document (0, 1, 2...)
	PageNumber int       // Decile-based estimate, not an exact page mapping
	WordCount  int
	Embedding  []float32 // 1536-dim vector, nil when no embedder was available
}

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
