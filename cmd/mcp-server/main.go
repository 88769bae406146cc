// Package main provides the MCP server entry point for the study assistant.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/studylens/studyrag/internal/answer"
	"github.com/studylens/studyrag/internal/embedding"
	"github.com/studylens/studyrag/internal/engine"
	"github.com/studylens/studyrag/internal/llm/factory"
	mcpserver "github.com/studylens/studyrag/internal/mcp"
	"github.com/studylens/studyrag/internal/store"
	"github.com/studylens/studyrag/internal/store/memory"
	"github.com/studylens/studyrag/internal/store/qdrant"
	"github.com/studylens/studyrag/internal/studyaids"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.Default()

	port := getEnv("PORT", "8080")

	// Document store: Qdrant by default, in-memory for local experiments.
	var docStore store.DocumentStore
	var healthChecker mcpserver.HealthChecker

	if getEnv("DOCUMENT_STORE", "qdrant") == "memory" {
		log.Println("Using in-memory document store")
		docStore = memory.New()
	} else {
		qdrantHost := getEnv("QDRANT_HOST", "localhost")
		qdrantPort := getEnvInt("QDRANT_PORT", 6334)
		qs, err := qdrant.New(qdrantHost, qdrantPort)
		if err != nil {
			log.Fatalf("failed to connect to Qdrant: %v", err)
		}
		defer qs.Close()
		docStore = qs
		healthChecker = qs
	}

	// Embeddings and study aids degrade away without an OpenAI key.
	var embedder *embedding.Embedder
	var aids *studyaids.Generator
	if client, err := embedding.NewClient(os.Getenv("OPENAI_API_KEY")); err != nil {
		log.Printf("Embeddings disabled: %v", err)
	} else {
		embedder = embedding.NewEmbedder(client, 0, logger)
		aids = studyaids.NewGenerator(client.Client(), 0, logger)
	}

	providers := factory.Chain(factory.Config{
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaBaseURL:   os.Getenv("OLLAMA_BASE_URL"),
		OllamaModel:     os.Getenv("OLLAMA_MODEL"),
	}, logger)

	providerNames := make([]string, len(providers))
	for i, p := range providers {
		providerNames[i] = p.Name()
	}

	composer := answer.NewComposer(providers, logger)
	eng := engine.New(docStore, embedder, composer, aids, logger)

	server := mcpserver.NewServer(&mcpserver.Config{
		Engine:         eng,
		DocStore:       docStore,
		SemanticSearch: embedder != nil,
		Providers:      providerNames,
	})

	// HTTP endpoints: health probe plus the MCP streamable transport.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(healthChecker))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP over stdin/stdout, health endpoint in background
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting study assistant MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
