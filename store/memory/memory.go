package memory

import (
	"context"
	"sync"

	"github.com/helixstack/agentgraph/store"
)

// MemoryCheckpointStore implements store.CheckpointStore in process
// memory. Intended for tests and single-process deployments.
type MemoryCheckpointStore struct {
	mu      sync.RWMutex
	threads map[string][]*store.Checkpoint
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an empty in-memory store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		threads: make(map[string][]*store.Checkpoint),
	}
}

// Save appends a checkpoint for its thread.
func (s *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *checkpoint
	s.threads[cp.ThreadID] = append(s.threads[cp.ThreadID], &cp)
	return nil
}

// GetLatest returns the thread's most recent checkpoint.
func (s *MemoryCheckpointStore) GetLatest(_ context.Context, threadID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoints := s.threads[threadID]
	if len(checkpoints) == 0 {
		return nil, store.ErrNotFound
	}

	latest := checkpoints[0]
	for _, cp := range checkpoints[1:] {
		if cp.Step >= latest.Step {
			latest = cp
		}
	}
	cp := *latest
	return &cp, nil
}

// List returns the thread's checkpoints in ascending step order.
func (s *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoints := s.threads[threadID]
	out := make([]*store.Checkpoint, 0, len(checkpoints))
	for _, cp := range checkpoints {
		c := *cp
		out = append(out, &c)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Step > out[j].Step; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}

// DeleteThread removes every checkpoint for the thread.
func (s *MemoryCheckpointStore) DeleteThread(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, threadID)
	return nil
}
