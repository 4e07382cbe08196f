package index

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
)

func makeEvents(n int) []*calendar.Event {
	events := make([]*calendar.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, &calendar.Event{
			Summary: fmt.Sprintf("Event %d", i),
			Start:   &calendar.EventDateTime{DateTime: "2026-03-03T09:00:00Z"},
			End:     &calendar.EventDateTime{DateTime: "2026-03-03T10:00:00Z"},
		})
	}
	return events
}

func TestSemanticIndex_Reindex_Chunking(t *testing.T) {
	store := NewMemoryStore()
	semanticIndex := New(store, 10, zap.NewNop())
	semanticIndex.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, semanticIndex.Reindex(context.Background(), makeEvents(25)))

	ids, err := store.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk_0", "chunk_1", "chunk_2"}, ids)

	matches, err := store.Query(context.Background(), "Event", 10)
	require.NoError(t, err)
	require.Len(t, matches.Metadatas, 3)

	sizes := make(map[int]int)
	for _, metadata := range matches.Metadatas {
		sizes[metadata["idx"].(int)] = metadata["size"].(int)
		assert.Equal(t, "20260302", metadata["ts"])
	}
	assert.Equal(t, map[int]int{0: 10, 1: 10, 2: 5}, sizes)
}

func TestSemanticIndex_Reindex_ReplacesExistingChunks(t *testing.T) {
	store := NewMemoryStore()
	semanticIndex := New(store, 10, zap.NewNop())

	require.NoError(t, semanticIndex.Reindex(context.Background(), makeEvents(25)))
	require.NoError(t, semanticIndex.Reindex(context.Background(), makeEvents(5)))

	ids, err := store.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk_0"}, ids)
}

func TestSemanticIndex_Reindex_EmptyCalendarClearsIndex(t *testing.T) {
	store := NewMemoryStore()
	semanticIndex := New(store, 10, zap.NewNop())

	require.NoError(t, semanticIndex.Reindex(context.Background(), makeEvents(5)))
	require.NoError(t, semanticIndex.Reindex(context.Background(), nil))

	ids, err := store.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Searching an empty index succeeds with no matches
	matches := semanticIndex.Search(context.Background(), "anything", 5)
	require.NotNil(t, matches)
	assert.Empty(t, matches.Documents)
}

func TestSemanticIndex_Reindex_SkipsUnrenderableEvents(t *testing.T) {
	store := NewMemoryStore()
	semanticIndex := New(store, 10, zap.NewNop())

	events := []*calendar.Event{nil, {Summary: "Kept"}}
	require.NoError(t, semanticIndex.Reindex(context.Background(), events))

	matches, err := store.Query(context.Background(), "Kept", 1)
	require.NoError(t, err)
	require.Len(t, matches.Metadatas, 1)
	// The chunk size counts the original slice, rendered or not
	assert.Equal(t, 2, matches.Metadatas[0]["size"])
	assert.Contains(t, matches.Documents[0], "Kept")
}

func TestSemanticIndex_Search_ReturnsNearestChunk(t *testing.T) {
	store := NewMemoryStore()
	semanticIndex := New(store, 1, zap.NewNop())

	events := []*calendar.Event{
		{Summary: "Dentist appointment"},
		{Summary: "Team standup"},
	}
	require.NoError(t, semanticIndex.Reindex(context.Background(), events))

	matches := semanticIndex.Search(context.Background(), "dentist appointment", 1)
	require.NotNil(t, matches)
	require.Len(t, matches.Documents, 1)
	assert.Contains(t, matches.Documents[0], "Dentist")
}

type failingQueryStore struct {
	*MemoryStore
}

func (f *failingQueryStore) Query(ctx context.Context, queryText string, n int) (*Matches, error) {
	return nil, errors.New("connection refused")
}

func TestSemanticIndex_Search_ProviderFailureReturnsNil(t *testing.T) {
	semanticIndex := New(&failingQueryStore{MemoryStore: NewMemoryStore()}, 10, zap.NewNop())

	matches := semanticIndex.Search(context.Background(), "anything", 5)
	assert.Nil(t, matches)
}

func TestSemanticIndex_Reindex_ListFailure(t *testing.T) {
	semanticIndex := New(&failingListStore{MemoryStore: NewMemoryStore()}, 10, zap.NewNop())

	err := semanticIndex.Reindex(context.Background(), makeEvents(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list existing chunks")
}

type failingListStore struct {
	*MemoryStore
}

func (f *failingListStore) ListIDs(ctx context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}
