// Package studyaids produces LLM-generated learning metadata for a
// document: a short summary and a list of key terms to review. Generation
// is optional; processing continues without it on any failure.
package studyaids

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
)

// DefaultMaxTokens is the maximum content length before truncation (in tokens).
const DefaultMaxTokens = 16000

// Aids contains the generated study metadata for a document.
type Aids struct {
	Summary  string   `json:"summary"`
	KeyTerms []string `json:"key_terms"`
}

// Generator produces study aids using an OpenAI chat model.
type Generator struct {
	client    *openai.Client
	maxTokens int
	logger    *slog.Logger
}

// NewGenerator creates a generator with the given OpenAI client.
// maxTokens of 0 uses DefaultMaxTokens.
func NewGenerator(client *openai.Client, maxTokens int, logger *slog.Logger) *Generator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:    client,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Generate analyzes document text and produces a summary and key terms.
// A nil generator is valid and returns nothing, matching the optional
// nature of every external AI dependency in the engine.
func (g *Generator) Generate(ctx context.Context, title, text string) (*Aids, error) {
	if g == nil || g.client == nil {
		return nil, nil
	}

	truncated := g.truncate(text)

	prompt := fmt.Sprintf(`Analyze this study document and provide:
1. A concise summary (2-3 sentences) a student could use to recall what the document covers
2. A list of the key terms and concepts a student should learn from it

Document title: %s

Document content:
%s

Respond in JSON format:
{"summary": "What this document covers", "key_terms": ["Term1", "Term2"]}`, title, truncated)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4oMini,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	var aids Aids
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &aids); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &aids, nil
}

// truncate bounds content to fit within token limits, using the rough
// estimate of 4 characters per token.
func (g *Generator) truncate(content string) string {
	maxChars := g.maxTokens * 4
	if len(content) <= maxChars {
		return content
	}

	g.logger.Warn("truncating document for study aid generation",
		"from", len(content), "to", maxChars)

	return content[:maxChars]
}
