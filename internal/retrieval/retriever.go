// Package retrieval selects the most relevant chunks for a query across a
// set of candidate documents, within a bounded context budget.
package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/studylens/studyrag/internal/chunker"
	"github.com/studylens/studyrag/internal/embedding"
	"github.com/studylens/studyrag/internal/scoring"
	"github.com/studylens/studyrag/internal/store"
)

// DefaultTopK is the number of chunks returned per query.
const DefaultTopK = 3

// MaxChunkChars bounds each selected chunk's text before it leaves the
// retriever, so prompt size stays bounded regardless of source chunk size.
const MaxChunkChars = 900

// Stats summarises one retrieval pass. The orchestration layer may log it;
// the retriever itself does not interleave counters with scoring.
type Stats struct {
	CandidateDocs int
	MatchedChunks int     // Chunks above the relevance threshold, pre-limit
	TopScore      float64 // Relevance of the best selected chunk, 0 if none
	UsedSemantic  bool    // A query embedding was available
	UsedFallback  bool    // Whole-document keyword fallback was taken
}

// Retriever scores and selects chunks. The embedder may be nil; retrieval
// then runs lexical-only.
type Retriever struct {
	docStore store.DocumentStore
	embedder *embedding.Embedder
	chunker  *chunker.Chunker
	topK     int
	logger   *slog.Logger
}

// New creates a retriever.
func New(docStore store.DocumentStore, embedder *embedding.Embedder, ck *chunker.Chunker, logger *slog.Logger) *Retriever {
	if ck == nil {
		ck = chunker.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		docStore: docStore,
		embedder: embedder,
		chunker:  ck,
		topK:     DefaultTopK,
		logger:   logger,
	}
}

// Retrieve returns the top-K chunks for the query across the candidate
// documents, each truncated to MaxChunkChars. Documents that cannot be
// loaded are skipped; retrieval itself never fails, it only returns fewer
// results.
func (r *Retriever) Retrieve(ctx context.Context, query string, docIDs []string) ([]scoring.ScoredChunk, Stats) {
	stats := Stats{CandidateDocs: len(docIDs)}

	queryEmbedding := r.embedder.Embed(ctx, query)
	stats.UsedSemantic = queryEmbedding != nil

	docs := make([]*store.Document, 0, len(docIDs))
	for _, id := range docIDs {
		doc, err := r.docStore.GetDocument(ctx, id)
		if err != nil {
			r.logger.Warn("skipping unavailable document", "doc", id, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	var matched []scoring.ScoredChunk
	for _, doc := range docs {
		if !doc.Processed() {
			continue
		}
		for _, chunk := range doc.Chunks {
			scored := scoring.Score(query, chunk, queryEmbedding)
			if scored.Relevant() {
				matched = append(matched, scored)
			}
		}
	}

	// Fallback: no processed document produced a relevant chunk. Match the
	// raw text of each candidate and synthesize one pseudo-chunk per hit so
	// chat stays usable before processing completes, at reduced quality.
	if len(matched) == 0 {
		matched = r.fallbackChunks(query, docs)
		stats.UsedFallback = len(matched) > 0
	}

	stats.MatchedChunks = len(matched)

	// Stable sort keeps discovery order (document order, then chunk index)
	// for equal scores.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Relevance > matched[j].Relevance
	})

	if len(matched) > r.topK {
		matched = matched[:r.topK]
	}

	for i := range matched {
		matched[i].Chunk.Text = truncate(matched[i].Chunk.Text, MaxChunkChars)
	}

	if len(matched) > 0 {
		stats.TopScore = matched[0].Relevance
	}

	return matched, stats
}

// fallbackChunks keyword-matches whole document texts and synthesizes a
// single pseudo-chunk per matching document, using the chunker's first
// chunk or a fixed-length prefix when the text is too short to chunk.
// The whole-document score is carried onto the pseudo-chunk: the match may
// lie anywhere in the text, not just inside the excerpt served as context.
func (r *Retriever) fallbackChunks(query string, docs []*store.Document) []scoring.ScoredChunk {
	var matched []scoring.ScoredChunk

	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		score := scoring.KeywordScore(query, doc.Text)
		if score == 0 {
			continue
		}

		var pseudo store.Chunk
		if chunks := r.chunker.Chunk(doc.ID, doc.Text); len(chunks) > 0 {
			pseudo = chunks[0]
		} else {
			text := truncate(chunker.Normalize(doc.Text), MaxChunkChars)
			pseudo = store.Chunk{
				ID:         chunker.ChunkID(doc.ID, 0),
				DocumentID: doc.ID,
				Text:       text,
				EndIndex:   len(text),
				PageNumber: 1,
				WordCount:  len(strings.Fields(text)),
			}
		}

		matched = append(matched, scoring.ScoredChunk{
			Chunk:        pseudo,
			KeywordScore: score,
			Relevance:    float64(score),
		})
	}

	return matched
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
