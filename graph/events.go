package graph

import (
	"context"
	"time"

	"github.com/helixstack/agentgraph/model"
	"github.com/helixstack/agentgraph/task"
)

// Event names surfaced on the chunk stream.
const (
	// EventModelCallStarted marks the beginning of a model invocation.
	EventModelCallStarted = "model_call_started"
	// EventModelCallFinished marks a completed model invocation.
	EventModelCallFinished = "model_call_finished"
	// EventInterrupt closes the stream of a run that paused for human
	// input.
	EventInterrupt = "interrupt"
	// EventEnd closes the stream of a finished run. Always emitted from
	// EndGraph with metadata.final=true; this is the caller's sole
	// authoritative "run is over" signal.
	EventEnd = "end"
)

// ChunkOutput is one unit of the externally streamed progress feed.
// Ephemeral: produced, delivered, forgotten.
type ChunkOutput struct {
	Event        string             `json:"event"`
	RunID        string             `json:"run_id"`
	ThreadID     string             `json:"thread_id"`
	CheckpointID string             `json:"checkpoint_id"`
	TaskID       string             `json:"task_id,omitempty"`
	StepID       int                `json:"step_id,omitempty"`
	From         NodeID             `json:"from"`
	Tools        []task.ToolCall    `json:"tools,omitempty"`
	Message      *string            `json:"message,omitempty"`
	Metadata     map[string]any     `json:"metadata"`
	Timestamp    time.Time          `json:"timestamp"`
}

// TraceKind classifies internal transition traces. Only model-call
// traces are forwarded to the caller; everything else is bookkeeping.
type TraceKind string

const (
	traceModelStarted  TraceKind = "model_started"
	traceModelFinished TraceKind = "model_finished"
	traceBookkeeping   TraceKind = "bookkeeping"
)

// TraceEvent is one internal transition record produced by a node.
type TraceEvent struct {
	Kind     TraceKind
	From     NodeID
	TaskID   string
	Decision *model.Decision
}

// emitter projects trace events into the ordered ChunkOutput stream.
// Events are emitted strictly in the order transitions committed; the
// emitter never reorders or batches across steps.
type emitter struct {
	out      chan<- ChunkOutput
	runID    string
	threadID string
}

func newEmitter(out chan<- ChunkOutput, runID, threadID string) *emitter {
	return &emitter{out: out, runID: runID, threadID: threadID}
}

// send delivers one chunk, giving up when the caller is gone.
func (e *emitter) send(ctx context.Context, chunk ChunkOutput) {
	select {
	case e.out <- chunk:
	case <-ctx.Done():
	}
}

// emitTrace forwards the caller-meaningful subset of a node's trace,
// stamped with the checkpoint that committed before emission.
func (e *emitter) emitTrace(ctx context.Context, trace []TraceEvent, checkpointID string, step int) {
	for _, tr := range trace {
		switch tr.Kind {
		case traceModelStarted:
			e.send(ctx, ChunkOutput{
				Event:        EventModelCallStarted,
				RunID:        e.runID,
				ThreadID:     e.threadID,
				CheckpointID: checkpointID,
				TaskID:       tr.TaskID,
				StepID:       step,
				From:         tr.From,
				Metadata:     map[string]any{},
				Timestamp:    time.Now(),
			})
		case traceModelFinished:
			chunk := ChunkOutput{
				Event:        EventModelCallFinished,
				RunID:        e.runID,
				ThreadID:     e.threadID,
				CheckpointID: checkpointID,
				TaskID:       tr.TaskID,
				StepID:       step,
				From:         tr.From,
				Metadata:     map[string]any{},
				Timestamp:    time.Now(),
			}
			if tr.Decision != nil {
				if len(tr.Decision.ToolCalls) > 0 {
					chunk.Tools = tr.Decision.ToolCalls
				}
				if msg := extractText(tr.Decision); msg != nil {
					chunk.Message = msg
				}
			}
			e.send(ctx, chunk)
		default:
			// Bookkeeping transitions are suppressed.
		}
	}
}

// emitInterrupt closes a paused run's stream with the structured prompt.
func (e *emitter) emitInterrupt(ctx context.Context, prompt *HumanPrompt, checkpointID string, step int) {
	question := prompt.Question
	e.send(ctx, ChunkOutput{
		Event:        EventInterrupt,
		RunID:        e.runID,
		ThreadID:     e.threadID,
		CheckpointID: checkpointID,
		TaskID:       prompt.TaskID,
		StepID:       step,
		From:         prompt.From,
		Message:      &question,
		Metadata: map[string]any{
			"interrupt": true,
			"signal":    prompt.Signal,
		},
		Timestamp: time.Now(),
	})
}

// emitFinal closes a finished run's stream. metadata.final is true and
// metadata.error carries the terminal error context (nil on success).
func (e *emitter) emitFinal(ctx context.Context, state State, checkpointID string) {
	var msg *string
	if state.FinalAnswer != "" {
		answer := state.FinalAnswer
		msg = &answer
	}
	var errMeta any
	if state.Error != nil {
		errMeta = state.Error
	}
	chunk := ChunkOutput{
		Event:        EventEnd,
		RunID:        e.runID,
		ThreadID:     e.threadID,
		CheckpointID: checkpointID,
		StepID:       state.CurrentGraphStep,
		From:         NodeEndGraph,
		Message:      msg,
		Metadata: map[string]any{
			"final": true,
			"error": errMeta,
		},
		Timestamp: time.Now(),
	}
	if active := state.ActiveTask(); active != nil {
		chunk.TaskID = active.ID
	}
	e.send(ctx, chunk)
}

// extractText pulls the plain-text content of a decision: the content
// itself, or nil when the model produced no text.
func extractText(d *model.Decision) *string {
	if d.Content == "" {
		return nil
	}
	content := d.Content
	return &content
}
