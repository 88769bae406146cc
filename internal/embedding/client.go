// Package embedding wraps an external embedding provider behind a
// degrade-gracefully adapter: every failure downstream of configuration is
// reported as an absent embedding, never as an error.
package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client used for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates an embedding client for the given API key.
// The key is injected rather than read from ambient configuration so
// callers can substitute their own; an empty key is an error, which is how
// absence of the provider is detected before any request is made.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: API key not configured")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for reuse by other
// components (e.g. the study aids generator).
func (c *Client) Client() *openai.Client {
	return c.client
}
