// Package main provides the study assistant CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/studylens/studyrag/internal/answer"
	"github.com/studylens/studyrag/internal/embedding"
	"github.com/studylens/studyrag/internal/engine"
	ghclient "github.com/studylens/studyrag/internal/github"
	"github.com/studylens/studyrag/internal/llm/factory"
	"github.com/studylens/studyrag/internal/markdown"
	"github.com/studylens/studyrag/internal/store"
	"github.com/studylens/studyrag/internal/store/memory"
	"github.com/studylens/studyrag/internal/store/qdrant"
	"github.com/studylens/studyrag/internal/studyaids"
)

var rootCmd = &cobra.Command{
	Use:   "studyrag",
	Short: "Study assistant over your own documents",
	Long: `CLI for adding study documents and asking questions answered from them.

Environment variables:
  QDRANT_HOST        Qdrant hostname (default: localhost)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  DOCUMENT_STORE     "qdrant" or "memory" (default: qdrant)
  OPENAI_API_KEY     Enables embeddings, study aids, and the OpenAI answer provider
  GROQ_API_KEY       Enables the Groq answer provider (tried first)
  ANTHROPIC_API_KEY  Enables the Anthropic answer provider
  OLLAMA_BASE_URL    Enables the local Ollama answer provider
  GITHUB_TOKEN       GitHub token for higher import rate limits (optional)`,
}

var (
	importOwner string
	importRepo  string
	importDir   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import all markdown notes from a GitHub repository",
	RunE:  runImport,
}

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a local text or markdown file to the corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var askDocs []string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question answered from the stored documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus size and configured capabilities",
	RunE:  runStatus,
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "GitHub repository owner (required)")
	importCmd.Flags().StringVar(&importRepo, "repo", "", "GitHub repository name (required)")
	importCmd.Flags().StringVar(&importDir, "dir", "", "Directory within the repository (default: repository root)")
	importCmd.MarkFlagRequired("owner")
	importCmd.MarkFlagRequired("repo")

	askCmd.Flags().StringArrayVar(&askDocs, "doc", nil, "Restrict the search to a document ID (repeatable)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the assembled components every command works with.
type app struct {
	docStore  store.DocumentStore
	engine    *engine.Engine
	embedder  *embedding.Embedder
	providers []string
	close     func()
}

// buildApp assembles the store, embedder, provider chain, and engine from
// the environment. AI components degrade away when unconfigured.
func buildApp() (*app, error) {
	logger := slog.Default()

	var docStore store.DocumentStore
	closeFn := func() {}

	if getEnv("DOCUMENT_STORE", "qdrant") == "memory" {
		docStore = memory.New()
	} else {
		qs, err := qdrant.New(getEnv("QDRANT_HOST", "localhost"), getEnvInt("QDRANT_PORT", 6334))
		if err != nil {
			return nil, fmt.Errorf("connect to Qdrant: %w", err)
		}
		docStore = qs
		closeFn = func() { qs.Close() }
	}

	var embedder *embedding.Embedder
	var aids *studyaids.Generator
	if client, err := embedding.NewClient(os.Getenv("OPENAI_API_KEY")); err == nil {
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

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}

	composer := answer.NewComposer(providers, logger)

	return &app{
		docStore:  docStore,
		engine:    engine.New(docStore, embedder, composer, aids, logger),
		embedder:  embedder,
		providers: names,
		close:     closeFn,
	}, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	client, err := ghclient.NewClient(os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}

	fmt.Printf("Importing markdown notes from %s/%s...\n", importOwner, importRepo)

	fetcher := ghclient.NewFetcher(client, importOwner, importRepo, importDir)
	importer := ghclient.NewImporter(fetcher, a.engine, slog.Default())

	stats, err := importer.ImportAll(ctx)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Import complete!")
	fmt.Printf("  Listed:   %d\n", stats.Listed)
	fmt.Printf("  Imported: %d\n", stats.Imported)
	fmt.Printf("  Skipped:  %d\n", stats.Skipped)
	fmt.Printf("  Failed:   %d\n", stats.Failed)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	text := string(data)
	var outline []string

	if strings.EqualFold(filepath.Ext(path), ".md") {
		conv := markdown.NewConverter()
		text = conv.ToPlainText(data)
		outline, _ = conv.Outline(data)
	}

	title := strings.ReplaceAll(base, "-", " ")
	if len(outline) > 0 {
		title = outline[0]
	}

	doc, err := a.engine.ProcessDocument(ctx, engine.DocumentInput{
		ID:      base,
		Title:   title,
		Text:    text,
		Outline: outline,
	})
	if err != nil {
		return fmt.Errorf("process %s: %w", path, err)
	}

	fmt.Printf("Added %q as %s (%d chunks)\n", doc.Title, doc.ID, len(doc.Chunks))
	if doc.Summary != "" {
		fmt.Printf("Summary: %s\n", doc.Summary)
	}
	if len(doc.KeyTerms) > 0 {
		fmt.Printf("Key terms: %s\n", strings.Join(doc.KeyTerms, ", "))
	}

	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := strings.Join(args, " ")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	docIDs := askDocs
	if len(docIDs) == 0 {
		docs, err := a.docStore.ListDocuments(ctx)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			docIDs = append(docIDs, doc.ID)
		}
	}

	result := a.engine.ProcessQuery(ctx, question, docIDs, nil)

	fmt.Println(result.Content)
	if len(result.Citations) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, c := range result.Citations {
			fmt.Printf("  %s [%s]: %s\n", c.SourceLabel, c.DocumentID, c.Snippet)
		}
	}

	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents stored. Use 'studyrag add' or 'studyrag import'.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  [%s]  %s\n", doc.ID, doc.Status, doc.Title)
		if doc.Summary != "" {
			fmt.Printf("    %s\n", doc.Summary)
		}
	}
	fmt.Printf("\n%d document(s)\n", len(docs))

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	processed := 0
	for _, doc := range docs {
		if doc.Status == store.StatusProcessed {
			processed++
		}
	}

	fmt.Printf("Documents:       %d (%d processed)\n", len(docs), processed)
	fmt.Printf("Semantic search: %v\n", a.embedder != nil)
	if len(a.providers) > 0 {
		fmt.Printf("Providers:       %s\n", strings.Join(a.providers, " -> "))
	} else {
		fmt.Println("Providers:       none (deterministic fallback answers only)")
	}

	return nil
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
