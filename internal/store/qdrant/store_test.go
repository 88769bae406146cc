//go:build integration

package qdrant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylens/studyrag/internal/chunker"
	"github.com/studylens/studyrag/internal/store"
)

// setupTestStore connects to a local Qdrant, skipping when unavailable.
func setupTestStore(t *testing.T) *Store {
	s, err := New("localhost", 6334)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	return s
}

func testChunks(docID string, texts ...string) []store.Chunk {
	chunks := make([]store.Chunk, len(texts))
	offset := 0
	for i, text := range texts {
		chunks[i] = store.Chunk{
			ID:         chunker.ChunkID(docID, i),
			DocumentID: docID,
			Text:       text,
			StartIndex: offset,
			EndIndex:   offset + len(text),
			ChunkIndex: i,
			PageNumber: i + 1,
			WordCount:  len(text) / 5,
		}
		offset += len(text)
	}
	return chunks
}

func TestDocumentRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	doc := &store.Document{
		ID:       "qdrant-roundtrip",
		Title:    "Motion and Forces",
		Text:     "Motion is the change of position over time.",
		Status:   store.StatusUnprocessed,
		Summary:  "Covers the basics of motion.",
		KeyTerms: []string{"velocity", "acceleration"},
		Outline:  []string{"Mechanics", "Mechanics > Motion"},
		AddedAt:  now,
	}

	require.NoError(t, s.PutDocument(ctx, doc))
	defer s.DeleteDocument(ctx, doc.ID)

	retrieved, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.Title, retrieved.Title)
	assert.Equal(t, doc.Text, retrieved.Text)
	assert.Equal(t, store.StatusUnprocessed, retrieved.Status)
	assert.Equal(t, doc.Summary, retrieved.Summary)
	assert.ElementsMatch(t, doc.KeyTerms, retrieved.KeyTerms)
	assert.Equal(t, doc.Outline, retrieved.Outline)
	assert.WithinDuration(t, doc.AddedAt, retrieved.AddedAt, time.Second)
	assert.Empty(t, retrieved.Chunks)
	assert.False(t, retrieved.Processed())
}

func TestSaveChunks_MarksProcessedAndOrders(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	docID := "qdrant-chunks"

	require.NoError(t, s.PutDocument(ctx, &store.Document{ID: docID, Text: "chunked text"}))
	defer s.DeleteDocument(ctx, docID)

	chunks := testChunks(docID, "first chunk of text", "second chunk of text", "third chunk of text")
	require.NoError(t, s.SaveChunks(ctx, docID, chunks))

	retrieved, err := s.GetDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, retrieved.Chunks, 3)
	assert.True(t, retrieved.Processed())

	for i, c := range retrieved.Chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, chunks[i].Text, c.Text)
		assert.Equal(t, docID, c.DocumentID)
		assert.Nil(t, c.Embedding)
	}
}

func TestSaveChunks_ReplaceRemovesOrphans(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	docID := "qdrant-replace"

	require.NoError(t, s.PutDocument(ctx, &store.Document{ID: docID, Text: "text"}))
	defer s.DeleteDocument(ctx, docID)

	require.NoError(t, s.SaveChunks(ctx, docID, testChunks(docID, "a", "b", "c", "d")))
	require.NoError(t, s.SaveChunks(ctx, docID, testChunks(docID, "only", "two")))

	retrieved, err := s.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, retrieved.Chunks, 2)
}

func TestSaveChunks_DimensionMismatch(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	docID := "qdrant-baddim"

	require.NoError(t, s.PutDocument(ctx, &store.Document{ID: docID, Text: "text"}))
	defer s.DeleteDocument(ctx, docID)

	chunks := testChunks(docID, "chunk")
	chunks[0].Embedding = []float32{0.1, 0.2}

	err := s.SaveChunks(ctx, docID, chunks)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDimensionMismatch)
}

func TestSaveChunks_EmbeddingRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	docID := "qdrant-vectors"

	require.NoError(t, s.PutDocument(ctx, &store.Document{ID: docID, Text: "text"}))
	defer s.DeleteDocument(ctx, docID)

	chunks := testChunks(docID, "chunk with a vector")
	embedding := make([]float32, store.VectorDimension)
	embedding[0] = 0.5
	embedding[1] = -0.25
	chunks[0].Embedding = embedding

	require.NoError(t, s.SaveChunks(ctx, docID, chunks))

	retrieved, err := s.GetDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, retrieved.Chunks, 1)
	require.Len(t, retrieved.Chunks[0].Embedding, store.VectorDimension)
	assert.InDelta(t, 0.5, retrieved.Chunks[0].Embedding[0], 1e-6)
	assert.InDelta(t, -0.25, retrieved.Chunks[0].Embedding[1], 1e-6)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	_, err := s.GetDocument(context.Background(), "no-such-document")
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}

func TestListDocuments_OmitsChunks(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	docID := "qdrant-list"

	require.NoError(t, s.PutDocument(ctx, &store.Document{ID: docID, Title: "Listed", Text: "text"}))
	defer s.DeleteDocument(ctx, docID)
	require.NoError(t, s.SaveChunks(ctx, docID, testChunks(docID, "one chunk")))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)

	var found *store.Document
	for _, d := range docs {
		if d.ID == docID {
			found = d
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "Listed", found.Title)
	assert.Empty(t, found.Chunks)
}

func TestDeleteDocument_RemovesChunks(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	docID := "qdrant-delete"

	require.NoError(t, s.PutDocument(ctx, &store.Document{ID: docID, Text: "text"}))
	require.NoError(t, s.SaveChunks(ctx, docID, testChunks(docID, "a", "b")))
	require.NoError(t, s.DeleteDocument(ctx, docID))

	_, err := s.GetDocument(ctx, docID)
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}
