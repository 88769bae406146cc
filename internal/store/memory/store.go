// Package memory provides an in-memory DocumentStore. It backs tests and
// is the zero-configuration store for local serving.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studylens/studyrag/internal/store"
)

var _ store.DocumentStore = (*Store)(nil)

// Store is a mutex-guarded in-memory document store.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*store.Document
}

// New creates an empty store.
func New() *Store {
	return &Store{
		docs: make(map[string]*store.Document),
	}
}

// PutDocument creates or replaces a document record.
func (s *Store) PutDocument(ctx context.Context, doc *store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneDocument(doc)
	if stored.AddedAt.IsZero() {
		stored.AddedAt = time.Now()
	}
	if stored.Status == "" {
		stored.Status = store.StatusUnprocessed
	}
	s.docs[stored.ID] = stored
	return nil
}

// GetDocument retrieves a document with its chunks.
func (s *Store) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	return cloneDocument(doc), nil
}

// SaveChunks replaces the document's chunk list and marks it processed.
func (s *Store) SaveChunks(ctx context.Context, docID string, chunks []store.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return store.ErrDocumentNotFound
	}

	doc.Chunks = append([]store.Chunk(nil), chunks...)
	doc.Status = store.StatusProcessed
	return nil
}

// ListDocuments returns all documents without chunk lists, ordered by ID
// for deterministic output.
func (s *Store) ListDocuments(ctx context.Context) ([]*store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*store.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		summary := cloneDocument(doc)
		summary.Chunks = nil
		docs = append(docs, summary)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return store.ErrDocumentNotFound
	}
	delete(s.docs, id)
	return nil
}

// cloneDocument deep-copies a document so callers cannot mutate stored
// state through returned pointers.
func cloneDocument(doc *store.Document) *store.Document {
	clone := *doc
	clone.Chunks = append([]store.Chunk(nil), doc.Chunks...)
	clone.KeyTerms = append([]string(nil), doc.KeyTerms...)
	clone.Outline = append([]string(nil), doc.Outline...)
	return &clone
}
