// Package store defines the document store contract and its data model.
// Implementations live in subpackages (memory, qdrant); the engine only
// depends on this interface.
package store

import "context"

// DocumentStore persists documents and their chunk lists.
type DocumentStore interface {
	// PutDocument creates or replaces a document record.
	PutDocument(ctx context.Context, doc *Document) error

	// GetDocument retrieves a document with its chunks.
	// Returns ErrDocumentNotFound if no document exists with the given ID.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// SaveChunks replaces the document's chunk list and marks it processed.
	// The overwrite is idempotent: saving the same chunks twice is a no-op
	// in effect.
	SaveChunks(ctx context.Context, docID string, chunks []Chunk) error

	// ListDocuments returns all documents without their chunk lists.
	ListDocuments(ctx context.Context) ([]*Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
