// Package openai provides a completion Provider backed by the OpenAI chat
// completions API. Groq exposes the same API surface, so the provider also
// serves Groq through a base URL override.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/studylens/studyrag/internal/llm"
)

var _ llm.Provider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 15 * time.Second

	// GroqBaseURL is the OpenAI-compatible endpoint for Groq.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// GroqDefaultModel is the fast default when serving Groq.
	GroqDefaultModel = "llama-3.3-70b-versatile"
)

// Config holds configuration for the provider.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL overrides the API endpoint (e.g. GroqBaseURL). Empty means
	// the OpenAI default.
	BaseURL string

	// Model is the chat model (default: gpt-4o-mini).
	Model string

	// Name overrides the provider name reported in logs (default "openai").
	Name string

	// Timeout bounds each request (default: 15s).
	Timeout time.Duration
}

// Provider implements llm.Provider over the OpenAI chat completions API.
type Provider struct {
	client *openai.Client
	model  string
	name   string
}

// New creates a provider. A missing API key is an error so the caller can
// skip unconfigured providers when assembling the chain.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	return &Provider{
		client: &client,
		model:  cfg.Model,
		name:   cfg.Name,
	}, nil
}

// NewGroq creates a provider pointed at Groq's OpenAI-compatible endpoint.
func NewGroq(apiKey string) (*Provider, error) {
	return New(Config{
		APIKey:  apiKey,
		BaseURL: GroqBaseURL,
		Model:   GroqDefaultModel,
		Name:    "groq",
	})
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.name
}

// Complete produces a chat completion for the request.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    p.model,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices returned", p.name)
	}

	return resp.Choices[0].Message.Content, nil
}
