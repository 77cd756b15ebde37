package agent

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/helixstack/agentgraph/graph"
	"github.com/helixstack/agentgraph/log"
	"github.com/helixstack/agentgraph/store"
	"github.com/helixstack/agentgraph/task"
)

// Request is one caller invocation of an agent thread.
type Request struct {
	// UserID identifies the human on whose behalf the agent acts.
	UserID string

	// AgentID identifies the agent configuration.
	AgentID string

	// ThreadID keys the conversation. At most one run is active per
	// thread at any time.
	ThreadID string

	// Input is free-form text: a fresh instruction, or the reply to a
	// pending interrupt when the thread's latest checkpoint is paused.
	Input string
}

// InterruptPayload is what the notification sink receives when a run
// pauses for human input.
type InterruptPayload struct {
	ThreadID string  `json:"thread_id"`
	RunID    string  `json:"run_id"`
	TaskID   string  `json:"task_id,omitempty"`
	Question string  `json:"question"`
	Signal   float64 `json:"signal,omitempty"`
}

// Notifier is the human-notification sink. Fire-and-forget: a failed
// delivery is logged, never propagated into the run.
type Notifier interface {
	Notify(ctx context.Context, userID, agentID string, payload InterruptPayload) error
}

// Options wires a supervisor's collaborators. Engine is required;
// Notifier may be nil for deployments with no human channel, in which
// case an interrupted run terminates with an interrupt-unhandled error
// instead of pausing silently forever.
type Options struct {
	Engine   *graph.Engine
	Notifier Notifier
	Logger   log.Logger
}

// Supervisor is the top-level façade: it decides resume-vs-fresh for
// each request, enforces at most one active run per thread, relays the
// engine's chunk stream, notifies the human sink exactly once per
// interrupted run, and deletes the thread's checkpoints when a run
// completes without a pending interrupt.
type Supervisor struct {
	engine   *graph.Engine
	notifier Notifier
	logger   log.Logger

	mu     sync.Mutex
	active map[string]*runToken
}

// runToken is the per-thread cancellation handle.
type runToken struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor constructs a supervisor over an engine.
func NewSupervisor(opts Options) (*Supervisor, error) {
	if opts.Engine == nil {
		return nil, errors.New("engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Supervisor{
		engine:   opts.Engine,
		notifier: opts.Notifier,
		logger:   logger,
		active:   make(map[string]*runToken),
	}, nil
}

// Execute runs the thread's graph and returns its ordered chunk stream.
// A second Execute on an in-flight thread cancels the prior run before
// starting the new one.
func (s *Supervisor) Execute(ctx context.Context, req Request) (<-chan graph.ChunkOutput, error) {
	if req.ThreadID == "" {
		return nil, errors.New("thread id is required")
	}
	if req.Input == "" {
		return nil, errors.New("input is required")
	}

	// Install our token and retire the prior run in one atomic swap:
	// concurrent Executes on the same thread each see the other's token,
	// so at most one run survives.
	runCtx, cancel := context.WithCancel(ctx)
	token := &runToken{cancel: cancel, done: make(chan struct{})}
	prior := s.swapToken(req.ThreadID, token)
	if prior != nil {
		prior.cancel()
		<-prior.done
	}

	resume, err := s.shouldResume(ctx, req.ThreadID)
	if err != nil {
		cancel()
		close(token.done)
		s.releaseToken(req.ThreadID, token)
		return nil, errors.Wrapf(err, "failed to inspect thread %s", req.ThreadID)
	}

	inner := s.engine.Run(runCtx, graph.RunInput{
		ThreadID: req.ThreadID,
		Input:    req.Input,
		Resume:   resume,
	})

	out := make(chan graph.ChunkOutput, s.engine.Config().BufferSize)
	go s.relay(runCtx, req, token, inner, out)
	return out, nil
}

// relay forwards engine chunks to the caller, handling the interrupt
// notification latch and end-of-run cleanup.
func (s *Supervisor) relay(ctx context.Context, req Request, token *runToken, inner <-chan graph.ChunkOutput, out chan<- graph.ChunkOutput) {
	defer close(out)
	defer func() {
		token.cancel()
		close(token.done)
		s.releaseToken(req.ThreadID, token)
	}()

	// One notification side effect per run, however often the paused
	// checkpoint is observed.
	interruptHandled := false
	interrupted := false

	for chunk := range inner {
		if chunk.Event == graph.EventInterrupt {
			interrupted = true
			if !interruptHandled {
				interruptHandled = true
				if s.notifier == nil {
					s.deliver(ctx, out, s.unhandledInterruptChunk(chunk))
					continue
				}
				s.notify(ctx, req, chunk)
			}
		}
		s.deliver(ctx, out, chunk)
	}

	// Cleanup applies only to runs that actually finished: a cancelled
	// run keeps its last durable checkpoint as the resume point.
	if !interrupted && ctx.Err() == nil {
		if err := s.engine.Checkpoints().DeleteThread(context.WithoutCancel(ctx), req.ThreadID); err != nil {
			s.logger.Warn("failed to delete checkpoints for thread %s: %v", req.ThreadID, err)
		}
	}
}

func (s *Supervisor) deliver(ctx context.Context, out chan<- graph.ChunkOutput, chunk graph.ChunkOutput) {
	select {
	case out <- chunk:
	case <-ctx.Done():
	}
}

// notify alerts the human sink. Fire-and-forget: failures are logged.
func (s *Supervisor) notify(ctx context.Context, req Request, chunk graph.ChunkOutput) {
	payload := InterruptPayload{
		ThreadID: chunk.ThreadID,
		RunID:    chunk.RunID,
		TaskID:   chunk.TaskID,
	}
	if chunk.Message != nil {
		payload.Question = *chunk.Message
	}
	if sig, ok := chunk.Metadata["signal"].(float64); ok {
		payload.Signal = sig
	}
	if err := s.notifier.Notify(ctx, req.UserID, req.AgentID, payload); err != nil {
		s.logger.Warn("interrupt notification failed for thread %s: %v", req.ThreadID, err)
	}
}

// unhandledInterruptChunk converts an interrupt into a terminal error
// chunk for deployments without a human channel: the run cannot be
// resumed by anyone, so pausing would hang the thread forever.
func (s *Supervisor) unhandledInterruptChunk(chunk graph.ChunkOutput) graph.ChunkOutput {
	errCtx := task.NewErrorContext(task.ErrInterruptUnhandled, "supervisor",
		errors.New("run paused for human input but no notifier is configured"))
	chunk.Event = graph.EventEnd
	chunk.From = graph.NodeEndGraph
	chunk.Metadata = map[string]any{
		"final": true,
		"error": errCtx,
	}
	return chunk
}

// shouldResume reports whether the thread's latest checkpoint recorded
// a paused run.
func (s *Supervisor) shouldResume(ctx context.Context, threadID string) (bool, error) {
	cp, err := s.engine.Checkpoints().GetLatest(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return graph.IsInterrupt(cp), nil
}

// swapToken installs the thread's token and returns the prior one.
func (s *Supervisor) swapToken(threadID string, token *runToken) *runToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	prior := s.active[threadID]
	s.active[threadID] = token
	return prior
}

// releaseToken removes the thread's token if it is still ours; a
// replacement by a newer Execute is left in place.
func (s *Supervisor) releaseToken(threadID string, token *runToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[threadID] == token {
		delete(s.active, threadID)
	}
}

// Cancel aborts the thread's in-flight run, if any. The run's last
// durable checkpoint remains its resume point.
func (s *Supervisor) Cancel(threadID string) bool {
	s.mu.Lock()
	token := s.active[threadID]
	s.mu.Unlock()
	if token == nil {
		return false
	}
	token.cancel()
	<-token.done
	return true
}
