package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Checkpoint is a durable snapshot of graph state for one thread.
// A thread has many checkpoints; only the latest is authoritative for
// resume. Writes are append-only: a past checkpoint is never mutated.
type Checkpoint struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"thread_id"`
	Step      int             `json:"step"`
	State     json.RawMessage `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// ErrNotFound is returned when a thread has no checkpoints.
var ErrNotFound = errors.New("checkpoint not found")

// CheckpointStore is the persistence contract exposed to the execution
// graph. All access is keyed by thread; backends need no cross-thread
// locking beyond their own write safety.
type CheckpointStore interface {
	// Save appends a checkpoint for its thread.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// GetLatest returns the thread's most recent checkpoint, or
	// ErrNotFound when the thread has none.
	GetLatest(ctx context.Context, threadID string) (*Checkpoint, error)

	// List returns the thread's checkpoints in ascending step order.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// DeleteThread removes every checkpoint for the thread.
	DeleteThread(ctx context.Context, threadID string) error
}

// NewCheckpoint builds a checkpoint with a fresh id, stamped now.
func NewCheckpoint(threadID string, step int, state json.RawMessage) *Checkpoint {
	return &Checkpoint{
		ID:        "checkpoint_" + uuid.New().String(),
		ThreadID:  threadID,
		Step:      step,
		State:     state,
		CreatedAt: time.Now(),
	}
}
