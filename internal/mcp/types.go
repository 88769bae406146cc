// Package mcp exposes the study engine over the Model Context Protocol.
package mcp

import (
	"time"

	"github.com/studylens/studyrag/internal/citation"
)

// AskInput defines the input parameters for the ask_documents tool.
type AskInput struct {
	// Question is the study question to answer.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the stored documents"`
	// DocumentIDs restricts the search to specific documents. Empty means all documents.
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"description=Document IDs to search. Omit to search every stored document"`
}

// AskOutput contains the answer and its supporting citations.
type AskOutput struct {
	// Answer is the composed answer text.
	Answer string `json:"answer"`
	// Provider names the LLM that produced the answer, or "fallback".
	Provider string `json:"provider"`
	// Citations lists the source passages backing the answer.
	Citations []citation.Citation `json:"citations"`
}

// AddDocumentInput defines the input parameters for the add_document tool.
type AddDocumentInput struct {
	// ID identifies the document. Generated when omitted.
	ID string `json:"id,omitempty" jsonschema:"description=Document ID. A UUID is generated when omitted"`
	// Title is the display title for the document.
	Title string `json:"title,omitempty" jsonschema:"description=Document title"`
	// Text is the document content.
	Text string `json:"text" jsonschema:"required,description=The document text to process and store"`
	// Markdown indicates the text is markdown and should be converted to plain text first.
	Markdown bool `json:"markdown,omitempty" jsonschema:"description=Treat the text as markdown and strip formatting before processing"`
}

// AddDocumentOutput describes the processed document.
type AddDocumentOutput struct {
	// ID is the stored document's ID.
	ID string `json:"id"`
	// ChunkCount is the number of chunks produced.
	ChunkCount int `json:"chunk_count"`
	// Summary is the generated study summary, empty without an LLM.
	Summary string `json:"summary,omitempty"`
	// KeyTerms are the generated key terms, empty without an LLM.
	KeyTerms []string `json:"key_terms,omitempty"`
}

// ListDocumentsInput defines the input for the list_documents tool.
// The tool takes no parameters.
type ListDocumentsInput struct{}

// ListDocumentsOutput lists every stored document.
type ListDocumentsOutput struct {
	// Documents describes each stored document without its chunks.
	Documents []DocumentSummary `json:"documents"`
	// Count is the total number of documents.
	Count int `json:"count"`
}

// DocumentSummary is one document's listing entry.
type DocumentSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	Summary  string    `json:"summary,omitempty"`
	KeyTerms []string  `json:"key_terms,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// StatusInput defines the input for the get_status tool.
// The tool takes no parameters.
type StatusInput struct{}

// StatusOutput reports engine configuration and corpus size.
type StatusOutput struct {
	// TotalDocs is the number of stored documents.
	TotalDocs int `json:"total_docs"`
	// ProcessedDocs is the number of documents with chunks ready for search.
	ProcessedDocs int `json:"processed_docs"`
	// SemanticSearch reports whether embeddings are configured.
	SemanticSearch bool `json:"semantic_search"`
	// Providers lists the configured answer providers in fallback order.
	Providers []string `json:"providers"`
}
