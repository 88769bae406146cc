// Package factory assembles the ordered provider chain from configuration.
// Providers whose credentials are absent are skipped at assembly time, so
// the composer never attempts a call that cannot be authenticated.
package factory

import (
	"log/slog"

	"github.com/studylens/studyrag/internal/llm"
	"github.com/studylens/studyrag/internal/llm/anthropic"
	"github.com/studylens/studyrag/internal/llm/ollama"
	"github.com/studylens/studyrag/internal/llm/openai"
)

// Config holds the credentials and endpoints for every supported provider.
// Empty fields disable the corresponding provider.
type Config struct {
	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// OllamaBaseURL enables the local Ollama provider when set. There is no
	// API key to detect, so Ollama is strictly opt-in.
	OllamaBaseURL string
	OllamaModel   string
}

// Chain builds the provider list in priority order:
// Groq (fast primary) -> OpenAI -> Anthropic -> Ollama.
// An empty chain is a valid result; the composer then always uses its
// deterministic fallback.
func Chain(cfg Config, logger *slog.Logger) []llm.Provider {
	if logger == nil {
		logger = slog.Default()
	}

	var chain []llm.Provider

	if cfg.GroqAPIKey != "" {
		p, err := openai.NewGroq(cfg.GroqAPIKey)
		if err != nil {
			logger.Warn("skipping groq provider", "error", err)
		} else {
			chain = append(chain, p)
		}
	}

	if cfg.OpenAIAPIKey != "" {
		p, err := openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey})
		if err != nil {
			logger.Warn("skipping openai provider", "error", err)
		} else {
			chain = append(chain, p)
		}
	}

	if cfg.AnthropicAPIKey != "" {
		p, err := anthropic.New(anthropic.Config{APIKey: cfg.AnthropicAPIKey})
		if err != nil {
			logger.Warn("skipping anthropic provider", "error", err)
		} else {
			chain = append(chain, p)
		}
	}

	if cfg.OllamaBaseURL != "" {
		chain = append(chain, ollama.New(ollama.Config{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
		}))
	}

	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.Name()
	}
	logger.Info("assembled provider chain", "providers", names)

	return chain
}
