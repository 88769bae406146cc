// Package scoring computes hybrid lexical/semantic relevance for
// (query, chunk) pairs.
package scoring

import (
	"math"
	"strings"

	"github.com/studylens/studyrag/internal/store"
)

// SemanticWeight and KeywordWeight blend the two signals when a semantic
// score is present. The semantic signal dominates because it captures
// paraphrase matches the substring check misses.
const (
	SemanticWeight = 0.7
	KeywordWeight  = 0.3
)

// RelevanceThreshold is the score at or below which a chunk is considered
// irrelevant and excluded from retrieval.
const RelevanceThreshold = 0.1

// minWordLength filters short query words ("a", "is", "of") out of the
// keyword score.
const minWordLength = 3

// ScoredChunk is a chunk annotated with per-query relevance signals.
// It exists only for the duration of one query.
type ScoredChunk struct {
	Chunk         store.Chunk
	KeywordScore  int     // Count of query words contained in the chunk text
	SemanticScore float64 // Cosine similarity in [-1, 1], 0 when unavailable
	Relevance     float64 // Blended score used for ranking
}

// Relevant reports whether the chunk clears the retrieval threshold.
func (s ScoredChunk) Relevant() bool {
	return s.Relevance > RelevanceThreshold
}

// Score computes the hybrid relevance of chunk against query.
// queryEmbedding may be nil, in which case scoring is lexical only.
func Score(query string, chunk store.Chunk, queryEmbedding []float32) ScoredChunk {
	scored := ScoredChunk{Chunk: chunk}

	scored.KeywordScore = KeywordScore(query, chunk.Text)
	scored.SemanticScore = CosineSimilarity(queryEmbedding, chunk.Embedding)

	// When a semantic signal exists it dominates; the keyword count alone
	// is the floor when no embeddings are available.
	if scored.SemanticScore > 0 {
		scored.Relevance = SemanticWeight*scored.SemanticScore + KeywordWeight*float64(scored.KeywordScore)
	} else {
		scored.Relevance = float64(scored.KeywordScore)
	}

	return scored
}

// KeywordScore counts query words (longer than two characters) contained in
// the text. Matching is substring-based, not token-boundary-based: "cat"
// matches inside "category". The blend weights and the relevance threshold
// were tuned against this looser definition, so it is preserved as is.
func KeywordScore(query, text string) int {
	lower := strings.ToLower(text)

	score := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) < minWordLength {
			continue
		}
		if strings.Contains(lower, word) {
			score++
		}
	}
	return score
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|), or 0 when either vector is
// absent, zero-magnitude, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
