// Package engine wires chunking, embedding, retrieval, and answer
// composition into the two entry points the serving layers call:
// ProcessDocument and ProcessQuery.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studylens/studyrag/internal/answer"
	"github.com/studylens/studyrag/internal/chunker"
	"github.com/studylens/studyrag/internal/citation"
	"github.com/studylens/studyrag/internal/embedding"
	"github.com/studylens/studyrag/internal/retrieval"
	"github.com/studylens/studyrag/internal/store"
	"github.com/studylens/studyrag/internal/studyaids"
)

// ErrInsufficientContent indicates a document whose text is too short to
// produce even one chunk.
var ErrInsufficientContent = errors.New("document text too short to chunk")

// DocumentInput is the raw material for ProcessDocument.
type DocumentInput struct {
	ID      string
	Title   string
	Text    string
	Outline []string
}

// Engine coordinates the processing and query pipelines. The embedder and
// aids generator may be nil; the engine then runs keyword-only with no
// generated study aids.
type Engine struct {
	docStore  store.DocumentStore
	chunker   *chunker.Chunker
	embedder  *embedding.Embedder
	retriever *retrieval.Retriever
	composer  *answer.Composer
	aids      *studyaids.Generator
	logger    *slog.Logger
}

// New assembles an engine over the given store and answer composer.
func New(
	docStore store.DocumentStore,
	embedder *embedding.Embedder,
	composer *answer.Composer,
	aids *studyaids.Generator,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	ck := chunker.New()
	return &Engine{
		docStore:  docStore,
		chunker:   ck,
		embedder:  embedder,
		retriever: retrieval.New(docStore, embedder, ck, logger),
		composer:  composer,
		aids:      aids,
		logger:    logger,
	}
}

// ProcessDocument chunks, embeds, and stores a document, generating study
// aids when an LLM client is configured. Chunk IDs are derived from the
// document ID and chunk index, so re-processing the same document replaces
// its chunks in place.
func (e *Engine) ProcessDocument(ctx context.Context, in DocumentInput) (*store.Document, error) {
	start := time.Now()

	chunks := e.chunker.Chunk(in.ID, in.Text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s: %w", in.ID, ErrInsufficientContent)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if vectors := e.embedder.EmbedAll(ctx, texts); len(vectors) == len(chunks) {
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	} else if vectors != nil {
		e.logger.Warn("embedding count mismatch, storing chunks without vectors",
			"doc", in.ID, "chunks", len(chunks), "vectors", len(vectors))
	}

	doc := &store.Document{
		ID:      in.ID,
		Title:   in.Title,
		Text:    chunker.Normalize(in.Text),
		Status:  store.StatusUnprocessed,
		Outline: in.Outline,
		AddedAt: time.Now(),
	}

	// Study aids are a best-effort enrichment; their failure never blocks
	// document processing.
	if aids, err := e.aids.Generate(ctx, in.Title, doc.Text); err != nil {
		e.logger.Warn("study aid generation failed", "doc", in.ID, "error", err)
	} else if aids != nil {
		doc.Summary = aids.Summary
		doc.KeyTerms = aids.KeyTerms
	}

	if err := e.docStore.PutDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document %s: %w", in.ID, err)
	}
	if err := e.docStore.SaveChunks(ctx, in.ID, chunks); err != nil {
		return nil, fmt.Errorf("save chunks for %s: %w", in.ID, err)
	}

	doc.Status = store.StatusProcessed
	doc.Chunks = chunks

	e.logger.Info("document processed",
		"doc", in.ID,
		"chunks", len(chunks),
		"embedded", len(chunks) > 0 && chunks[0].Embedding != nil,
		"duration", time.Since(start))

	return doc, nil
}

// ProcessQuery answers a question against the candidate documents. It never
// fails and never panics outward: any internal panic is converted into an
// apology result so the chat surface stays up.
func (e *Engine) ProcessQuery(
	ctx context.Context,
	query string,
	docIDs []string,
	history []answer.Message,
) (result *answer.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("query pipeline panicked", "query", query, "panic", r)
			result = answer.Apology()
		}
	}()

	matched, stats := e.retriever.Retrieve(ctx, query, docIDs)
	rc := citation.Build(matched)

	e.logger.Info("retrieval complete",
		"candidates", stats.CandidateDocs,
		"matched", stats.MatchedChunks,
		"top_score", stats.TopScore,
		"semantic", stats.UsedSemantic,
		"fallback", stats.UsedFallback)

	return e.composer.Answer(ctx, query, rc.Text, rc.Citations, history)
}
