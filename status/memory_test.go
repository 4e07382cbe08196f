package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(10*time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	processingStatus, found, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, processingStatus)
}

func TestMemoryStore_AdvanceAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Advance(ctx, "key-1", StageReceived, "request received"))
	require.NoError(t, store.Advance(ctx, "key-1", StageClassify, "classifying"))

	processingStatus, found, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StageClassify, processingStatus.Stage)
	assert.Equal(t, "classifying", processingStatus.Message)
	assert.False(t, processingStatus.Complete)
	assert.False(t, processingStatus.UpdatedAt.IsZero())
}

func TestMemoryStore_Advance_RejectsRegression(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Advance(ctx, "key-1", StageAvailability, "aggregating"))

	err := store.Advance(ctx, "key-1", StageClassify, "classifying")
	assert.ErrorIs(t, err, ErrStageRegression)

	// The stored record is untouched by the rejected transition
	processingStatus, found, _ := store.Get(ctx, "key-1")
	require.True(t, found)
	assert.Equal(t, StageAvailability, processingStatus.Stage)
}

func TestMemoryStore_Advance_RejectsUnknownStage(t *testing.T) {
	store := newTestStore(t)

	err := store.Advance(context.Background(), "key-1", Stage("shipping"), "???")
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Advance(ctx, "key-1", StageCreate, "generating"))
	require.NoError(t, store.Advance(ctx, "key-2", StageReceived, "request received"))

	first, _, _ := store.Get(ctx, "key-1")
	second, _, _ := store.Get(ctx, "key-2")
	assert.Equal(t, StageCreate, first.Stage)
	assert.Equal(t, StageReceived, second.Stage)
}

func TestMemoryStore_Complete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Advance(ctx, "key-1", StageCreate, "generating"))
	require.NoError(t, store.Complete(ctx, "key-1", map[string]string{"status": "ok"}))

	processingStatus, found, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StageDone, processingStatus.Stage)
	assert.True(t, processingStatus.Complete)
	assert.Equal(t, map[string]string{"status": "ok"}, processingStatus.Response)
	assert.Empty(t, processingStatus.Error)
}

func TestMemoryStore_Fail_KeepsFailureStage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Advance(ctx, "key-1", StageAvailability, "aggregating"))
	require.NoError(t, store.Fail(ctx, "key-1", "calendar unavailable"))

	processingStatus, found, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StageAvailability, processingStatus.Stage)
	assert.True(t, processingStatus.Complete)
	assert.Equal(t, "calendar unavailable", processingStatus.Error)
}

func TestMemoryStore_Fail_UnknownKey(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Fail(context.Background(), "never-advanced", "boom"))

	processingStatus, found, _ := store.Get(context.Background(), "never-advanced")
	require.True(t, found)
	assert.Equal(t, StageDone, processingStatus.Stage)
	assert.True(t, processingStatus.Complete)
}

func TestMemoryStore_EvictExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Complete(ctx, "done-key", "response"))
	require.NoError(t, store.Advance(ctx, "pending-key", StageClassify, "classifying"))

	store.evictExpired(time.Now().Add(11 * time.Minute))

	_, found, _ := store.Get(ctx, "done-key")
	assert.False(t, found)

	// In-flight entries are never evicted regardless of age
	_, found, _ = store.Get(ctx, "pending-key")
	assert.True(t, found)
}

func TestMemoryStore_EvictExpired_KeepsFreshCompletions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Complete(ctx, "done-key", "response"))

	store.evictExpired(time.Now().Add(time.Minute))

	_, found, _ := store.Get(ctx, "done-key")
	assert.True(t, found)
}

func TestMemoryStore_Close_Idempotent(t *testing.T) {
	store := NewMemoryStore(time.Minute, zap.NewNop())

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
