package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixstack/agentgraph/store"
)

func TestMemoryCheckpointStore(t *testing.T) {
	s := NewMemoryCheckpointStore()
	ctx := context.Background()

	// Empty thread
	_, err := s.GetLatest(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	cp1 := store.NewCheckpoint("t1", 1, json.RawMessage(`{"n":1}`))
	cp2 := store.NewCheckpoint("t1", 2, json.RawMessage(`{"n":2}`))
	require.NoError(t, s.Save(ctx, cp1))
	require.NoError(t, s.Save(ctx, cp2))

	latest, err := s.GetLatest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, cp2.ID, latest.ID)
	assert.Equal(t, 2, latest.Step)

	list, err := s.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Step)
	assert.Equal(t, 2, list[1].Step)

	// Threads are isolated.
	_, err = s.GetLatest(ctx, "t2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteThread(ctx, "t1"))
	_, err = s.GetLatest(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryCheckpointStoreListSorted(t *testing.T) {
	s := NewMemoryCheckpointStore()
	ctx := context.Background()

	// Saved out of order; List returns ascending step order.
	for _, step := range []int{3, 1, 2} {
		require.NoError(t, s.Save(ctx, store.NewCheckpoint("t1", step, json.RawMessage(`{}`))))
	}

	list, err := s.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, cp := range list {
		assert.Equal(t, i+1, cp.Step)
	}
}

func TestMemoryCheckpointStoreCopies(t *testing.T) {
	s := NewMemoryCheckpointStore()
	ctx := context.Background()

	cp := store.NewCheckpoint("t1", 1, json.RawMessage(`{}`))
	require.NoError(t, s.Save(ctx, cp))

	// Mutating the caller's value after save must not leak in.
	cp.Step = 99
	latest, err := s.GetLatest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Step)

	// Mutating a read value must not leak back.
	latest.Step = 77
	again, err := s.GetLatest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Step)
}
