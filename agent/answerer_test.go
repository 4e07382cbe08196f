package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	"github.com/chronos-hq/chronos-agent/index"
	"github.com/chronos-hq/chronos-agent/llm"
	llm_mocks "github.com/chronos-hq/chronos-agent/llm/mocks"
)

// erroringStore fails every vector store operation, simulating an
// unreachable provider
type erroringStore struct{}

func (e *erroringStore) ListIDs(ctx context.Context) ([]string, error) {
	return nil, errors.New("vector store unreachable")
}

func (e *erroringStore) Delete(ctx context.Context, ids []string) error {
	return errors.New("vector store unreachable")
}

func (e *erroringStore) Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	return errors.New("vector store unreachable")
}

func (e *erroringStore) Query(ctx context.Context, queryText string, n int) (*index.Matches, error) {
	return nil, errors.New("vector store unreachable")
}

func TestAnswerer_Answer(t *testing.T) {
	semanticIndex := index.New(index.NewMemoryStore(), 10, zap.NewNop())
	err := semanticIndex.Reindex(context.Background(), []*calendar.Event{
		{
			Summary: "Dentist",
			Start:   &calendar.EventDateTime{DateTime: "2026-03-05T14:00:00Z"},
			End:     &calendar.EventDateTime{DateTime: "2026-03-05T15:00:00Z"},
		},
	})
	require.NoError(t, err)

	mockLLM := &llm_mocks.FakeService{Response: "Your dentist appointment is on March 5th at 2pm."}
	answerer := NewAnswerer(semanticIndex, mockLLM, 5, time.UTC, zap.NewNop())
	answerer.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	answer, err := answerer.Answer(context.Background(), "When is my dentist appointment?")
	require.NoError(t, err)
	assert.Equal(t, "Your dentist appointment is on March 5th at 2pm.", answer)

	// The retrieved chunk text must be embedded in the system prompt
	require.Equal(t, 1, mockLLM.GenerateCallCount)
	assert.Contains(t, mockLLM.Requests[0].System, "Event 'Dentist'")
	assert.Contains(t, mockLLM.Requests[0].System, "2026-03-02")
	assert.Equal(t, "When is my dentist appointment?", mockLLM.Requests[0].User)
}

func TestAnswerer_Answer_EmptyIndex(t *testing.T) {
	semanticIndex := index.New(index.NewMemoryStore(), 10, zap.NewNop())

	mockLLM := &llm_mocks.FakeService{Response: "I don't know of any events."}
	answerer := NewAnswerer(semanticIndex, mockLLM, 5, time.UTC, zap.NewNop())

	answer, err := answerer.Answer(context.Background(), "What's on my calendar?")
	require.NoError(t, err)
	assert.Equal(t, "I don't know of any events.", answer)
	assert.Contains(t, mockLLM.Requests[0].System, "No calendar events are indexed.")
}

func TestAnswerer_Answer_SearchUnavailable(t *testing.T) {
	semanticIndex := index.New(&erroringStore{}, 10, zap.NewNop())

	mockLLM := &llm_mocks.FakeService{}
	answerer := NewAnswerer(semanticIndex, mockLLM, 5, time.UTC, zap.NewNop())

	_, err := answerer.Answer(context.Background(), "What's on my calendar?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search is unavailable")
	assert.Equal(t, 0, mockLLM.GenerateCallCount)
}

func TestAnswerer_Answer_GenerationFailure(t *testing.T) {
	semanticIndex := index.New(index.NewMemoryStore(), 10, zap.NewNop())

	mockLLM := &llm_mocks.FakeService{
		GenerateStub: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return "", errors.New("gateway unavailable")
		},
	}
	answerer := NewAnswerer(semanticIndex, mockLLM, 5, time.UTC, zap.NewNop())

	_, err := answerer.Answer(context.Background(), "What's on my calendar?")
	assert.Error(t, err)
}
