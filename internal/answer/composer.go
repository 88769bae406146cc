// Package answer composes the final response: an ordered provider chain, a
// best-effort refinement pass, and a deterministic local fallback so that
// every query produces a displayable result.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/studylens/studyrag/internal/citation"
	"github.com/studylens/studyrag/internal/llm"
)

// providerTimeout bounds each provider call so a hung provider cannot
// stall the request; a timeout falls through the chain like any failure.
const providerTimeout = 15 * time.Second

// historyTurns is how many trailing conversation turns are included.
const historyTurns = 6

// refineBelowChars triggers the refinement pass: a short first answer with
// citations available suggests the model under-used the context.
const refineBelowChars = 400

// maxAnswerTokens bounds completion length across providers.
const maxAnswerTokens = 1024

const systemPrompt = `You are a study assistant answering questions about the user's uploaded documents.

Rules:
- Answer ONLY from the supplied context sources. Do not use outside knowledge.
- Cite sources in the form: According to Source X (Page Y): "<short quote>".
- If the context does not contain the answer, say so explicitly instead of guessing.`

// Message is one prior conversation turn.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Result is the composed answer. Citations mirror the input list so the
// caller can resolve "Source N" references.
type Result struct {
	Content   string
	Citations []citation.Citation
	Provider  string // Name of the provider that answered, "" for the local fallback
	Refined   bool
}

// Composer orchestrates the provider chain.
type Composer struct {
	providers []llm.Provider
	logger    *slog.Logger
}

// NewComposer creates a composer over the given provider chain. An empty
// or nil chain is valid: every answer then comes from the deterministic
// fallback.
func NewComposer(providers []llm.Provider, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		providers: providers,
		logger:    logger,
	}
}

// Answer produces a response for the query grounded in contextText. It
// never returns nil and never fails: provider errors fall through the
// chain, and chain exhaustion lands on the local fallback.
func (c *Composer) Answer(
	ctx context.Context,
	query, contextText string,
	citations []citation.Citation,
	history []Message,
) *Result {
	prompt := buildPrompt(query, contextText, history)

	for _, provider := range c.providers {
		content, err := c.complete(ctx, provider, prompt)
		if err != nil {
			c.logger.Warn("provider failed, trying next", "provider", provider.Name(), "error", err)
			continue
		}

		result := &Result{
			Content:   content,
			Citations: citations,
			Provider:  provider.Name(),
		}
		c.refine(ctx, provider, query, result)
		return result
	}

	return c.fallback(citations)
}

// complete runs one bounded provider call and rejects empty responses.
func (c *Composer) complete(ctx context.Context, provider llm.Provider, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	content, err := provider.Complete(callCtx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxAnswerTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%s: empty response", provider.Name())
	}
	return content, nil
}

// refine issues one additional call asking the answering provider to
// improve a short answer. Strictly best-effort: any failure keeps the
// original answer untouched.
func (c *Composer) refine(ctx context.Context, provider llm.Provider, query string, result *Result) {
	if len(result.Content) >= refineBelowChars || len(result.Citations) == 0 {
		return
	}

	prompt := fmt.Sprintf(`Improve the following answer for accuracy and completeness. Keep every source citation intact and do not invent new sources.

Question: %s

Answer:
%s`, query, result.Content)

	improved, err := c.complete(ctx, provider, prompt)
	if err != nil {
		c.logger.Debug("refinement failed, keeping original answer", "provider", provider.Name(), "error", err)
		return
	}

	result.Content = improved
	result.Refined = true
}

// fallback builds the deterministic non-AI answer used when no provider is
// configured or every provider failed.
func (c *Composer) fallback(citations []citation.Citation) *Result {
	if len(citations) == 0 {
		return &Result{
			Content: "I couldn't find relevant content in your documents for this question. " +
				"Try rephrasing it, or check that the right documents are selected.",
			Citations: []citation.Citation{},
		}
	}

	first := citations[0]
	return &Result{
		Content: fmt.Sprintf(
			"Here is the most relevant passage from your documents (%s):\n\n%s\n\n"+
				"Note: AI answering is currently unavailable, so this is the raw source text rather than a generated answer.",
			first.SourceLabel, first.FullText,
		),
		Citations: citations,
	}
}

// Apology is the terminal response when composition itself fails
// unexpectedly. It keeps the chat flow alive with a well-formed result.
func Apology() *Result {
	return &Result{
		Content:   "Sorry, something went wrong while answering. Please try again.",
		Citations: []citation.Citation{},
	}
}

// buildPrompt assembles the user prompt from context, recent history, and
// the current question.
func buildPrompt(query, contextText string, history []Message) string {
	var b strings.Builder

	if contextText != "" {
		b.WriteString("Context from the user's documents:\n\n")
		b.WriteString(contextText)
		b.WriteString("\n")
	} else {
		b.WriteString("No document context is available for this question.\n\n")
	}

	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, msg := range history {
			b.WriteString(msg.Role)
			b.WriteString(": ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(query)

	return b.String()
}
