package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/helixstack/agentgraph/log"
	"github.com/helixstack/agentgraph/memory"
	"github.com/helixstack/agentgraph/model"
	"github.com/helixstack/agentgraph/store"
	"github.com/helixstack/agentgraph/task"
	"github.com/helixstack/agentgraph/tool"
)

// EngineOptions wires the engine's collaborators. Caller, Runner, and
// Checkpoints are required; the retriever is optional.
type EngineOptions struct {
	Caller      model.Caller
	Runner      *tool.Runner
	Checkpoints store.CheckpointStore
	Retriever   memory.Retriever
	Config      Config
	Logger      log.Logger
}

// Engine is the execution-graph orchestrator. One engine serves many
// threads; each Run drives a single thread on its own goroutine, so a
// thread's state is never touched by two concurrent callers.
type Engine struct {
	caller      model.Caller
	runner      *tool.Runner
	checkpoints store.CheckpointStore
	retriever   memory.Retriever
	config      Config
	logger      log.Logger
}

// NewEngine constructs an engine from explicitly injected services.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Caller == nil {
		return nil, fmt.Errorf("model caller is required")
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("tool runner is required")
	}
	if opts.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	cfg := opts.Config
	if cfg.MaxGraphSteps <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Engine{
		caller:      opts.Caller,
		runner:      opts.Runner,
		checkpoints: opts.Checkpoints,
		retriever:   opts.Retriever,
		config:      cfg,
		logger:      logger,
	}, nil
}

// RunInput describes one run of a thread.
type RunInput struct {
	// ThreadID keys checkpoints and at-most-one-run enforcement.
	ThreadID string

	// RunID stamps every emitted chunk. Generated when empty.
	RunID string

	// Input is the caller's free-form text.
	Input string

	// Resume wraps Input as a resume command instead of a fresh user
	// message. Set by the supervisor when the thread's latest
	// checkpoint is interrupted.
	Resume bool
}

// Run executes the graph for one thread and streams ordered chunks.
// The channel closes after the terminal chunk: an end chunk from
// EndGraph with metadata.final=true, or an interrupt chunk when the
// run paused for human input.
func (e *Engine) Run(ctx context.Context, in RunInput) <-chan ChunkOutput {
	if in.RunID == "" {
		in.RunID = "run_" + uuid.New().String()
	}
	out := make(chan ChunkOutput, e.config.BufferSize)

	go func() {
		defer close(out)
		em := newEmitter(out, in.RunID, in.ThreadID)

		state, rs, err := e.prepare(ctx, in)
		if err != nil {
			state.Error = task.NewErrorContext(task.ErrValidation, "engine", err)
			em.emitFinal(ctx, state, "")
			return
		}
		e.loop(ctx, em, in.ThreadID, state, rs)
	}()

	return out
}

// prepare builds the run's starting state: a resumed interrupt, a
// continued thread, or a fresh one.
func (e *Engine) prepare(ctx context.Context, in RunInput) (State, *resumeState, error) {
	latest, err := e.checkpoints.GetLatest(ctx, in.ThreadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewState(in.Input), nil, nil
		}
		return State{}, nil, fmt.Errorf("failed to load latest checkpoint: %w", err)
	}

	state, err := DecodeState(latest.State)
	if err != nil {
		return State{}, nil, err
	}

	if in.Resume {
		if state.Pending == nil {
			return State{}, nil, fmt.Errorf("thread %s has no pending interrupt to resume", in.ThreadID)
		}
		// The resume command re-enters the node that paused with the
		// step counters the pre-pause checkpoint recorded.
		return state, &resumeState{text: in.Input}, nil
	}

	// Fresh input on an existing thread.
	state.Pending = nil
	state.Error = nil
	state.Retry = 0
	state.AppendHumanText(in.Input)
	if state.Current == NodeEndGraph || !state.Current.Valid() {
		state.Current = NodePlanner
	}
	return state, nil, nil
}

// loop is the transition loop. Every transition writes exactly one
// checkpoint before the corresponding events are emitted, so a crash
// after emission never replays an already-surfaced step.
func (e *Engine) loop(ctx context.Context, em *emitter, threadID string, state State, rs *resumeState) {
	for {
		if ctx.Err() != nil {
			// Cancellation: no further checkpoint writes; the last
			// durable checkpoint remains the resume point.
			e.logger.Info("run cancelled for thread %s at step %d", threadID, state.CurrentGraphStep)
			return
		}

		if state.Current == NodeEndGraph {
			state.CurrentGraphStep++
			cpID, err := e.writeCheckpoint(ctx, threadID, &state)
			if err != nil {
				e.logger.Error("terminal checkpoint write failed: %v", err)
			}
			em.emitFinal(ctx, state, cpID)
			return
		}

		if state.CurrentGraphStep >= e.config.MaxGraphSteps {
			// Forced, clean termination: a synthetic message, not an error.
			if state.FinalAnswer == "" {
				state.FinalAnswer = "Maximum graph steps reached. Stopping with partial progress."
			}
			state.Current = NodeEndGraph
			continue
		}

		res := e.dispatch(ctx, state, rs)

		if res.err != nil {
			if res.err.retryable && res.state.Retry < e.config.MaxRetries {
				state = res.state
				state.Retry++
				state.Current = res.next
				state.CurrentGraphStep++
				e.logger.Warn("retryable %s failure at %s (attempt %d/%d): %s",
					res.err.ctx.Kind, res.err.ctx.Source, state.Retry, e.config.MaxRetries, res.err.ctx.Message)
				if ctx.Err() != nil {
					return
				}
				if _, err := e.writeCheckpoint(ctx, threadID, &state); err != nil {
					e.fail(ctx, em, threadID, state, err)
					return
				}
				continue
			}
			state = routeError(res.state, res.err.ctx)
			continue
		}

		state = res.state
		state.Current = res.next
		state.CurrentGraphStep++

		if ctx.Err() != nil {
			// The step was aborted mid-flight; skip its checkpoint.
			return
		}

		cpID, err := e.writeCheckpoint(ctx, threadID, &state)
		if err != nil {
			e.fail(ctx, em, threadID, state, err)
			return
		}

		em.emitTrace(ctx, res.trace, cpID, state.CurrentGraphStep)

		if res.pause != nil {
			em.emitInterrupt(ctx, res.pause, cpID, state.CurrentGraphStep)
			return
		}
	}
}

// dispatch runs the current node's handler. The node set is closed;
// an unknown node is a programming defect and crashes the run.
func (e *Engine) dispatch(ctx context.Context, state State, rs *resumeState) nodeResult {
	switch state.Current {
	case NodePlanner:
		return e.planNode(ctx, state)
	case NodeExecutor:
		return e.executeNode(ctx, state)
	case NodeToolRunner:
		return e.toolRunnerNode(ctx, state)
	case NodeValidator:
		return e.validateNode(ctx, state)
	case NodeHumanHandler:
		return e.humanNode(ctx, state, rs)
	case NodeEndGraph:
		// Handled by the loop before dispatch.
	}
	panic(defect("unhandled node %q", state.Current))
}

// routeError is the single error-transition helper: it records the
// context and forces the next transition to EndGraph. The terminal
// branch of the loop owns the step increment, keeping checkpoint steps
// strictly increasing on every path.
func routeError(state State, errCtx *task.ErrorContext) State {
	state.Error = errCtx
	state.Current = NodeEndGraph
	return state
}

// fail ends a run whose checkpoint write failed: nothing durable can be
// promised beyond the previous checkpoint.
func (e *Engine) fail(ctx context.Context, em *emitter, threadID string, state State, err error) {
	e.logger.Error("checkpoint write failed for thread %s: %v", threadID, err)
	state.Error = task.NewErrorContext(task.ErrInternal, "checkpoint", err)
	em.emitFinal(ctx, state, "")
}

// writeCheckpoint appends the state's snapshot for the thread and
// returns the new checkpoint id.
func (e *Engine) writeCheckpoint(ctx context.Context, threadID string, state *State) (string, error) {
	raw, err := state.Marshal()
	if err != nil {
		return "", err
	}
	cp := store.NewCheckpoint(threadID, state.CurrentGraphStep, raw)
	if err := e.checkpoints.Save(ctx, cp); err != nil {
		return "", err
	}
	return cp.ID, nil
}

// Checkpoints exposes the engine's checkpoint store to the supervisor
// for interrupt detection and end-of-run cleanup.
func (e *Engine) Checkpoints() store.CheckpointStore {
	return e.checkpoints
}

// Config returns the engine's read-only configuration.
func (e *Engine) Config() Config {
	return e.config
}
