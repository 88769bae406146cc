package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// Model is the OpenAI model used for generating embeddings.
	Model = "text-embedding-3-small"

	// Dimension is the vector size for text-embedding-3-small. This matches
	// store.VectorDimension (1536).
	Dimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute
	// rate limits during document processing.
	DefaultBatchSize = 500
)

// Embedder generates embeddings for text. It may be nil-valued at the call
// sites that hold it: a missing embedder means lexical-only scoring, and
// every method on a nil receiver degrades accordingly.
type Embedder struct {
	client    *Client
	batchSize int
	logger    *slog.Logger
}

// NewEmbedder creates an Embedder with the given client and optional batch
// size. If batchSize is 0, DefaultBatchSize is used.
func NewEmbedder(client *Client, batchSize int, logger *slog.Logger) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		client:    client,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Embed returns the embedding for a single text, or nil when the provider
// is unavailable or the call fails. It never returns an error: downstream
// scoring treats nil as "semantic signal unavailable".
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	if e == nil || e.client == nil || text == "" {
		return nil
	}

	embeddings, err := e.generate(ctx, []string{text})
	if err != nil {
		e.logger.Warn("embedding failed, degrading to lexical scoring", "error", err)
		return nil
	}
	if len(embeddings) == 0 {
		return nil
	}
	return embeddings[0]
}

// EmbedAll returns one embedding per text, or nil when the provider is
// unavailable or any batch fails. Used during document processing, where a
// partial embedding set would desynchronise chunks from vectors.
func (e *Embedder) EmbedAll(ctx context.Context, texts []string) [][]float32 {
	if e == nil || e.client == nil || len(texts) == 0 {
		return nil
	}

	embeddings, err := e.generate(ctx, texts)
	if err != nil {
		e.logger.Warn("batch embedding failed, chunks stored without vectors", "error", err)
		return nil
	}
	return embeddings
}

// generate produces embeddings for texts, batching requests and retrying
// rate-limited batches with exponential backoff.
func (e *Embedder) generate(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		embeddings, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

// embedBatchWithRetry generates embeddings for one batch. Rate limit errors
// (HTTP 429) retry with exponential backoff; other errors are permanent.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: Model,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32.
// The API returns float64, but chunks store float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
