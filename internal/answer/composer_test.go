package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylens/studyrag/internal/citation"
	"github.com/studylens/studyrag/internal/llm"
)

// fakeProvider scripts responses for the chain tests. Each call consumes
// the next entry; an empty response string means an error.
type fakeProvider struct {
	name      string
	responses []string
	errs      []error
	calls     int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func testCitations() []citation.Citation {
	return []citation.Citation{{
		DocumentID:  "doc-1",
		PageNumber:  2,
		SourceLabel: "Source 1 (Page 2)",
		Snippet:     "the passage",
		FullText:    "the full passage text",
	}}
}

func TestAnswer_FirstProviderWins(t *testing.T) {
	long := strings.Repeat("a full answer with plenty of detail. ", 20)
	first := &fakeProvider{name: "groq", responses: []string{long}}
	second := &fakeProvider{name: "openai", responses: []string{"should not be called"}}

	c := NewComposer([]llm.Provider{first, second}, nil)
	result := c.Answer(context.Background(), "q", "ctx", testCitations(), nil)

	assert.Equal(t, "groq", result.Provider)
	assert.Equal(t, strings.TrimSpace(long), result.Content)
	assert.Zero(t, second.calls, "lower-priority provider must not be called")
}

func TestAnswer_FallsThroughChain(t *testing.T) {
	long := strings.Repeat("anthropic answered at length here. ", 20)
	failing := &fakeProvider{name: "groq", errs: []error{errors.New("rate limited")}}
	empty := &fakeProvider{name: "openai", responses: []string{"   "}}
	working := &fakeProvider{name: "anthropic", responses: []string{long}}

	c := NewComposer([]llm.Provider{failing, empty, working}, nil)
	result := c.Answer(context.Background(), "q", "ctx", testCitations(), nil)

	assert.Equal(t, "anthropic", result.Provider)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestAnswer_RefinesShortAnswer(t *testing.T) {
	improved := strings.Repeat("a much better answer. ", 30)
	p := &fakeProvider{name: "groq", responses: []string{"Short.", improved}}

	c := NewComposer([]llm.Provider{p}, nil)
	result := c.Answer(context.Background(), "q", "ctx", testCitations(), nil)

	assert.True(t, result.Refined)
	assert.Equal(t, strings.TrimSpace(improved), result.Content)
	assert.Equal(t, 2, p.calls)
}

func TestAnswer_RefinementFailureKeepsOriginal(t *testing.T) {
	p := &fakeProvider{
		name:      "groq",
		responses: []string{"Short.", ""},
		errs:      []error{nil, errors.New("refinement exploded")},
	}

	c := NewComposer([]llm.Provider{p}, nil)
	result := c.Answer(context.Background(), "q", "ctx", testCitations(), nil)

	assert.False(t, result.Refined)
	assert.Equal(t, "Short.", result.Content)
}

func TestAnswer_NoRefinementWithoutCitations(t *testing.T) {
	p := &fakeProvider{name: "groq", responses: []string{"Short.", "should not happen"}}

	c := NewComposer([]llm.Provider{p}, nil)
	result := c.Answer(context.Background(), "q", "ctx", nil, nil)

	assert.Equal(t, 1, p.calls, "no refinement call without citations")
	assert.Equal(t, "Short.", result.Content)
}

func TestAnswer_DeterministicFallbackWithCitations(t *testing.T) {
	c := NewComposer(nil, nil)
	result := c.Answer(context.Background(), "q", "ctx", testCitations(), nil)

	assert.Empty(t, result.Provider)
	assert.Contains(t, result.Content, "the full passage text")
	assert.Contains(t, result.Content, "Source 1 (Page 2)")
	assert.Len(t, result.Citations, 1)
}

func TestAnswer_DeterministicFallbackNoContent(t *testing.T) {
	failing := &fakeProvider{name: "groq", errs: []error{errors.New("down")}}

	c := NewComposer([]llm.Provider{failing}, nil)
	result := c.Answer(context.Background(), "q", "", nil, nil)

	require.NotNil(t, result)
	assert.Contains(t, result.Content, "couldn't find relevant content")
	assert.NotNil(t, result.Citations)
	assert.Empty(t, result.Citations)
}

func TestBuildPrompt_HistoryWindow(t *testing.T) {
	history := make([]Message, 10)
	for i := range history {
		history[i] = Message{Role: "user", Content: strings.Repeat("x", 3) + string(rune('0'+i))}
	}

	prompt := buildPrompt("the question", "ctx", history)

	assert.NotContains(t, prompt, "xxx0", "turns beyond the window must be dropped")
	assert.NotContains(t, prompt, "xxx3")
	assert.Contains(t, prompt, "xxx4", "last six turns must be kept")
	assert.Contains(t, prompt, "xxx9")
	assert.True(t, strings.HasSuffix(prompt, "Question: the question"))
}

func TestBuildPrompt_NoContext(t *testing.T) {
	prompt := buildPrompt("q", "", nil)
	assert.Contains(t, prompt, "No document context is available")
}

func TestApology(t *testing.T) {
	result := Apology()
	assert.NotEmpty(t, result.Content)
	assert.NotNil(t, result.Citations)
	assert.Empty(t, result.Citations)
}
