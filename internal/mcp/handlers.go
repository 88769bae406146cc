package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studylens/studyrag/internal/citation"
	"github.com/studylens/studyrag/internal/engine"
	"github.com/studylens/studyrag/internal/markdown"
	"github.com/studylens/studyrag/internal/store"
)

// makeAskHandler creates the ask_documents tool handler. The query pipeline
// never fails, so the tool only errors when the candidate list cannot be
// resolved.
func makeAskHandler(eng *engine.Engine, docStore store.DocumentStore) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		docIDs := input.DocumentIDs
		if len(docIDs) == 0 {
			docs, err := docStore.ListDocuments(ctx)
			if err != nil {
				return nil, AskOutput{}, fmt.Errorf("list documents: %w", err)
			}
			for _, doc := range docs {
				docIDs = append(docIDs, doc.ID)
			}
		}

		result := eng.ProcessQuery(ctx, input.Question, docIDs, nil)

		citations := result.Citations
		if citations == nil {
			citations = []citation.Citation{}
		}

		return nil, AskOutput{
			Answer:    result.Content,
			Provider:  result.Provider,
			Citations: citations,
		}, nil
	}
}

// makeAddDocumentHandler creates the add_document tool handler.
func makeAddDocumentHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, AddDocumentInput,
) (*mcp.CallToolResult, AddDocumentOutput, error) {
	converter := markdown.NewConverter()

	return func(ctx context.Context, req *mcp.CallToolRequest, input AddDocumentInput) (
		*mcp.CallToolResult, AddDocumentOutput, error,
	) {
		id := input.ID
		if id == "" {
			id = uuid.NewString()
		}

		text := input.Text
		var outline []string
		if input.Markdown {
			source := []byte(input.Text)
			text = converter.ToPlainText(source)
			outline, _ = converter.Outline(source)
		}

		doc, err := eng.ProcessDocument(ctx, engine.DocumentInput{
			ID:      id,
			Title:   input.Title,
			Text:    text,
			Outline: outline,
		})
		if err != nil {
			return nil, AddDocumentOutput{}, fmt.Errorf("process document: %w", err)
		}

		return nil, AddDocumentOutput{
			ID:         doc.ID,
			ChunkCount: len(doc.Chunks),
			Summary:    doc.Summary,
			KeyTerms:   doc.KeyTerms,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(docStore store.DocumentStore) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		docs, err := docStore.ListDocuments(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("list documents: %w", err)
		}

		summaries := make([]DocumentSummary, 0, len(docs))
		for _, doc := range docs {
			summaries = append(summaries, DocumentSummary{
				ID:       doc.ID,
				Title:    doc.Title,
				Status:   string(doc.Status),
				Summary:  doc.Summary,
				KeyTerms: doc.KeyTerms,
				AddedAt:  doc.AddedAt,
			})
		}

		return nil, ListDocumentsOutput{
			Documents: summaries,
			Count:     len(summaries),
		}, nil
	}
}

// makeStatusHandler creates the get_status tool handler.
func makeStatusHandler(docStore store.DocumentStore, semantic bool, providers []string) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		docs, err := docStore.ListDocuments(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("list documents: %w", err)
		}

		processed := 0
		for _, doc := range docs {
			if doc.Status == store.StatusProcessed {
				processed++
			}
		}

		if providers == nil {
			providers = []string{}
		}

		return nil, StatusOutput{
			TotalDocs:      len(docs),
			ProcessedDocs:  processed,
			SemanticSearch: semantic,
			Providers:      providers,
		}, nil
	}
}
