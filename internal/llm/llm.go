// Package llm defines the text-completion provider contract used by the
// answer composer. Providers are tried in an explicit order; each one is
// constructed only when its credentials are configured, so absence is
// detected up front rather than per request.
package llm

import "context"

// Request is a single completion call with a uniform shape across
// providers.
type Request struct {
	System      string // System instruction
	Prompt      string // User prompt
	MaxTokens   int
	Temperature float64
}

// Provider produces a text completion for a request.
type Provider interface {
	// Name identifies the provider for logging and stats ("groq",
	// "openai", "anthropic", "ollama").
	Name() string

	// Complete returns the completion text, or an error on any provider
	// failure. Errors never propagate past the answer composer.
	Complete(ctx context.Context, req Request) (string, error)
}
