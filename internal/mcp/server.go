package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studylens/studyrag/internal/engine"
	"github.com/studylens/studyrag/internal/store"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server   *mcp.Server
	engine   *engine.Engine
	docStore store.DocumentStore
}

// Config holds server dependencies.
type Config struct {
	Engine   *engine.Engine
	DocStore store.DocumentStore

	// SemanticSearch reports whether embeddings are configured; surfaced
	// by the get_status tool.
	SemanticSearch bool
	// Providers lists answer provider names in fallback order.
	Providers []string
}

// NewServer creates a configured MCP server with all tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "studyrag-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a study question from the stored documents. Returns an answer with source citations of the form Source N (Page P).",
	}, makeAskHandler(cfg.Engine, cfg.DocStore))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_document",
		Description: "Add a document to the study corpus. The text is chunked, embedded when possible, and stored ready for questions.",
	}, makeAddDocumentHandler(cfg.Engine))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all stored documents with their processing status, summaries, and key terms.",
	}, makeListHandler(cfg.DocStore))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Report corpus size, processing progress, and which search and answer capabilities are configured.",
	}, makeStatusHandler(cfg.DocStore, cfg.SemanticSearch, cfg.Providers))

	return &Server{
		server:   server,
		engine:   cfg.Engine,
		docStore: cfg.DocStore,
	}
}

// Run starts the server on stdio transport and blocks until the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance for transport
// handlers that wrap it.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
