// Package qdrant implements the document store on a Qdrant collection.
// Documents and their chunks share one collection: parent points carry the
// document record with no vector, chunk points carry the text and an
// optional named "content" vector, linked by a parent_doc_id payload field.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/studylens/studyrag/internal/store"
)

// CollectionName is the Qdrant collection holding all documents and chunks.
const CollectionName = "study_documents"

const vectorName = "content"

// Store implements store.DocumentStore on a Qdrant collection.
type Store struct {
	client *qdrant.Client
	host   string
	port   int
}

// New connects to Qdrant over gRPC, verifies health with retry, and ensures
// the collection exists. Fails fast if Qdrant stays unreachable.
func New(host string, port int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Store{
		client: client,
		host:   host,
		port:   port,
	}

	ctx := context.Background()
	if err := s.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrStoreUnreachable, err)
	}

	if err := s.EnsureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

// healthCheckWithRetry retries the health check with exponential backoff:
// initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, exponentialBackoff)
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection and payload indexes if missing.
// Idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	// Named vectors let parent points (no vector) and chunk points (with
	// "content" vector) live in the same collection.
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     store.VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return s.createPayloadIndexes(ctx)
}

// createPayloadIndexes indexes the fields used in filters. Without these,
// filtered scrolls degrade badly as the collection grows.
func (s *Store) createPayloadIndexes(ctx context.Context) error {
	fields := []string{
		"type",          // "parent" vs "chunk"
		"doc_id",        // lookup parents by document ID
		"parent_doc_id", // lookup chunks by parent
	}

	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// parentPointID derives the stable point UUID for a document's parent
// point. Document IDs are arbitrary strings; Qdrant point IDs must be UUIDs.
func parentPointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("doc/"+docID)).String()
}

// upsertWithRetry retries transient upsert failures with the same backoff
// schedule as the health check.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, exponentialBackoff)
}

// PutDocument creates or replaces a document's parent point. Parent points
// have no vector.
func (s *Store) PutDocument(ctx context.Context, doc *store.Document) error {
	addedAt := doc.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}
	status := doc.Status
	if status == "" {
		status = store.StatusUnprocessed
	}

	payload := map[string]any{
		"type":      "parent",
		"doc_id":    doc.ID,
		"title":     doc.Title,
		"text":      doc.Text,
		"status":    string(status),
		"summary":   doc.Summary,
		"key_terms": toAnySlice(doc.KeyTerms),
		"outline":   toAnySlice(doc.Outline),
		"added_at":  addedAt.Format(time.RFC3339),
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(parentPointID(doc.ID)),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(payload),
	}

	if err := s.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

// SaveChunks replaces the document's chunk points and marks it processed.
// Old chunk points are removed first so re-chunking to a shorter list
// leaves no orphans.
func (s *Store) SaveChunks(ctx context.Context, docID string, chunks []store.Chunk) error {
	if _, err := s.getParent(ctx, docID); err != nil {
		return err
	}

	for i, chunk := range chunks {
		if chunk.Embedding != nil && len(chunk.Embedding) != store.VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				store.ErrDimensionMismatch, i, len(chunk.Embedding), store.VectorDimension)
		}
	}

	if err := s.deleteChunks(ctx, docID); err != nil {
		return err
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, chunk := range batch {
			vectors := map[string]*qdrant.Vector{}
			if chunk.Embedding != nil {
				vectors[vectorName] = qdrant.NewVector(chunk.Embedding...)
			}

			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(vectors),
				Payload: qdrant.NewValueMap(map[string]any{
					"type":          "chunk",
					"parent_doc_id": docID,
					"chunk_index":   chunk.ChunkIndex,
					"start_index":   chunk.StartIndex,
					"end_index":     chunk.EndIndex,
					"page_number":   chunk.PageNumber,
					"word_count":    chunk.WordCount,
					"text":          chunk.Text,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert chunk batch %d-%d for %s: %w", i, end, docID, err)
		}
	}

	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: CollectionName,
		Payload: qdrant.NewValueMap(map[string]any{
			"status": string(store.StatusProcessed),
		}),
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewIDUUID(parentPointID(docID))),
	})
	if err != nil {
		return fmt.Errorf("mark %s processed: %w", docID, err)
	}

	return nil
}

// GetDocument retrieves a document with its chunks in chunk-index order.
func (s *Store) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	doc, err := s.getParent(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.getChunks(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks

	return doc, nil
}

// getParent fetches and decodes the parent point for a document ID.
func (s *Store) getParent(ctx context.Context, id string) (*store.Document, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: CollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(parentPointID(id))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(result) == 0 {
		return nil, store.ErrDocumentNotFound
	}

	payload := result[0].Payload
	if typeVal, ok := payload["type"]; !ok || typeVal.GetStringValue() != "parent" {
		return nil, store.ErrDocumentNotFound
	}

	return parentFromPayload(payload), nil
}

// getChunks scrolls all chunk points for a parent, vectors included, and
// returns them sorted by chunk index.
func (s *Store) getChunks(ctx context.Context, docID string) ([]store.Chunk, error) {
	var chunks []store.Chunk
	var offset *qdrant.PointId

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", "chunk"),
			qdrant.NewMatch("parent_doc_id", docID),
		},
	}

	batchSize := uint32(100)
	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll chunks for %s: %w", docID, err)
		}

		for _, result := range results {
			payload := result.Payload
			chunks = append(chunks, store.Chunk{
				ID:         result.Id.GetUuid(),
				DocumentID: docID,
				Text:       payload["text"].GetStringValue(),
				StartIndex: int(payload["start_index"].GetIntegerValue()),
				EndIndex:   int(payload["end_index"].GetIntegerValue()),
				ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
				PageNumber: int(payload["page_number"].GetIntegerValue()),
				WordCount:  int(payload["word_count"].GetIntegerValue()),
				Embedding:  chunkVector(result.Vectors),
			})
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})

	return chunks, nil
}

// ListDocuments scrolls all parent points, chunk lists omitted, sorted by
// document ID.
func (s *Store) ListDocuments(ctx context.Context) ([]*store.Document, error) {
	var docs []*store.Document
	var offset *qdrant.PointId

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", "parent"),
		},
	}

	batchSize := uint32(100)
	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll documents: %w", err)
		}

		for _, result := range results {
			docs = append(docs, parentFromPayload(result.Payload))
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// DeleteDocument removes the parent point and all its chunk points.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if err := s.deleteChunks(ctx, id); err != nil {
		return err
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points: qdrant.NewPointsSelector(
			qdrant.NewIDUUID(parentPointID(id)),
		),
	})
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

func (s *Store) deleteChunks(ctx context.Context, docID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", "chunk"),
				qdrant.NewMatch("parent_doc_id", docID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("delete chunks for %s: %w", docID, err)
	}
	return nil
}

// parentFromPayload decodes a parent point payload into a document record,
// chunk list not populated.
func parentFromPayload(payload map[string]*qdrant.Value) *store.Document {
	addedAt, err := time.Parse(time.RFC3339, payload["added_at"].GetStringValue())
	if err != nil {
		addedAt = time.Time{}
	}

	return &store.Document{
		ID:       payload["doc_id"].GetStringValue(),
		Title:    payload["title"].GetStringValue(),
		Text:     payload["text"].GetStringValue(),
		Status:   store.DocumentStatus(payload["status"].GetStringValue()),
		Summary:  payload["summary"].GetStringValue(),
		KeyTerms: toStringSlice(payload["key_terms"]),
		Outline:  toStringSlice(payload["outline"]),
		AddedAt:  addedAt,
	}
}

// chunkVector extracts the named content vector from a point, nil when the
// chunk was stored without an embedding.
func chunkVector(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	named := vectors.GetVectors()
	if named == nil {
		return nil
	}
	vec, ok := named.Vectors[vectorName]
	if !ok || vec == nil {
		return nil
	}
	data := vec.GetData()
	if len(data) == 0 {
		return nil
	}
	return data
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func toStringSlice(value *qdrant.Value) []string {
	if value == nil || value.GetListValue() == nil {
		return nil
	}
	var out []string
	for _, v := range value.GetListValue().Values {
		out = append(out, v.GetStringValue())
	}
	return out
}
