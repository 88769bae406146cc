package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylens/studyrag/internal/answer"
	"github.com/studylens/studyrag/internal/llm"
	"github.com/studylens/studyrag/internal/store"
	"github.com/studylens/studyrag/internal/store/memory"
)

const physicsText = "Motion is one of the most common phenomena in the physical world. " +
	"An object is in motion when its position changes with time relative to a reference point. " +
	"Velocity measures the rate of change of displacement and carries direction. " +
	"Acceleration measures the rate of change of velocity over time. " +
	"Newton's first law states that an object remains at rest or in uniform motion unless acted on by a net force. " +
	"The second law relates force, mass, and acceleration through F equals m times a. " +
	"The third law states that every action has an equal and opposite reaction. " +
	"Friction opposes relative motion between surfaces in contact and converts kinetic energy into heat. " +
	"Gravity is the attractive force between masses and gives objects near Earth a constant downward acceleration. " +
	"Work is done when a force moves an object through a distance in the direction of the force. " +
	"Energy is the capacity to do work and is conserved in a closed system. " +
	"Momentum is the product of mass and velocity and is conserved in collisions. " +
	"Simple machines such as levers and pulleys trade force for distance without reducing total work."

// captureProvider records the prompt it was handed and replies with a fixed
// answer long enough to skip refinement.
type captureProvider struct {
	prompt string
}

func (p *captureProvider) Name() string { return "capture" }

func (p *captureProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	p.prompt = req.Prompt
	return strings.Repeat("According to Source 1 (Page 1), motion is a change of position. ", 10), nil
}

func newTestEngine(providers ...llm.Provider) (*Engine, *memory.Store) {
	docStore := memory.New()
	composer := answer.NewComposer(providers, nil)
	return New(docStore, nil, composer, nil, nil), docStore
}

func TestProcessDocument_RoundTrip(t *testing.T) {
	eng, docStore := newTestEngine()
	ctx := context.Background()

	doc, err := eng.ProcessDocument(ctx, DocumentInput{
		ID:    "physics-ch1",
		Title: "Motion and Forces",
		Text:  physicsText,
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc.Chunks)
	assert.Equal(t, store.StatusProcessed, doc.Status)

	stored, err := docStore.GetDocument(ctx, "physics-ch1")
	require.NoError(t, err)
	assert.True(t, stored.Processed())
	assert.Len(t, stored.Chunks, len(doc.Chunks))
}

func TestProcessDocument_InsufficientContent(t *testing.T) {
	eng, _ := newTestEngine()

	_, err := eng.ProcessDocument(context.Background(), DocumentInput{
		ID:   "tiny",
		Text: strings.Repeat("x", 95),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientContent))
}

func TestProcessDocument_ReprocessIsIdempotent(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	first, err := eng.ProcessDocument(ctx, DocumentInput{ID: "doc", Text: physicsText})
	require.NoError(t, err)
	second, err := eng.ProcessDocument(ctx, DocumentInput{ID: "doc", Text: physicsText})
	require.NoError(t, err)

	require.Len(t, second.Chunks, len(first.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].ID, second.Chunks[i].ID)
	}
}

func TestProcessQuery_GroundsAnswerInDocument(t *testing.T) {
	provider := &captureProvider{}
	eng, _ := newTestEngine(provider)
	ctx := context.Background()

	_, err := eng.ProcessDocument(ctx, DocumentInput{ID: "physics", Text: physicsText})
	require.NoError(t, err)

	result := eng.ProcessQuery(ctx, "what is motion", []string{"physics"}, nil)
	require.NotNil(t, result)
	assert.Equal(t, "capture", result.Provider)
	assert.NotEmpty(t, result.Citations)
	assert.Contains(t, provider.prompt, "Motion is one of the most common phenomena")
	assert.Contains(t, provider.prompt, "what is motion")
}

func TestProcessQuery_NoProvidersNoDocuments(t *testing.T) {
	eng, _ := newTestEngine()

	result := eng.ProcessQuery(context.Background(), "anything", nil, nil)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Content)
	assert.NotNil(t, result.Citations)
}

func TestProcessQuery_MissingDocumentIDs(t *testing.T) {
	eng, _ := newTestEngine()

	result := eng.ProcessQuery(context.Background(), "velocity", []string{"nope", "also-nope"}, nil)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Content)
}

func TestProcessQuery_HistoryReachesPrompt(t *testing.T) {
	provider := &captureProvider{}
	eng, _ := newTestEngine(provider)
	ctx := context.Background()

	_, err := eng.ProcessDocument(ctx, DocumentInput{ID: "physics", Text: physicsText})
	require.NoError(t, err)

	history := []answer.Message{
		{Role: "user", Content: "tell me about forces"},
		{Role: "assistant", Content: "a force is a push or a pull"},
	}
	result := eng.ProcessQuery(ctx, "and what about friction", []string{"physics"}, history)
	require.NotNil(t, result)
	assert.Contains(t, provider.prompt, "tell me about forces")
}
