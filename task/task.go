package task

import (
	"time"

	"github.com/google/uuid"
)

// Status describes the lifecycle of a Task or of a tool call within a Step.
type Status string

const (
	// StatusPending marks work that has been created but not finished.
	StatusPending Status = "pending"
	// StatusCompleted marks work that finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed marks work that finished with an error.
	StatusFailed Status = "failed"
)

// Thoughts captures the model's reasoning attached to a task or step.
type Thoughts struct {
	Text      string `json:"text"`
	Reasoning string `json:"reasoning"`
	Criticism string `json:"criticism"`
	Speak     string `json:"speak"`
}

// ToolCall is one proposed or executed tool invocation.
type ToolCall struct {
	// ID is the provider-assigned call id, when present.
	ID string `json:"id,omitempty"`

	// Name is the registered tool name.
	Name string `json:"name"`

	// Args is the raw JSON argument payload.
	Args string `json:"args"`

	// Result holds the tool output once the call has run.
	Result string `json:"result,omitempty"`

	// Status is pending until the runner records an outcome.
	Status Status `json:"status"`
}

// Step is one decision point within a Task: either a tool call or a
// terminal action (end_task, block_task). Steps are append-only.
type Step struct {
	Thoughts Thoughts      `json:"thoughts"`
	Tool     ToolCall      `json:"tool"`
	Error    *ErrorContext `json:"error,omitempty"`
}

// Task is one high-level unit of work toward the overall objective.
// Created by the planner; mutated only by the executor/validator
// appending Steps or flipping Status.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Reasoning string `json:"reasoning"`
	Plan      string `json:"plan"`
	Criticism string `json:"criticism"`
	Speak     string `json:"speak"`
	Steps     []Step `json:"steps"`
	Status    Status `json:"status"`
}

// New creates a pending task with a fresh id.
func New(text string) *Task {
	return &Task{
		ID:     uuid.New().String(),
		Text:   text,
		Status: StatusPending,
	}
}

// AppendStep appends a step to the task. Steps are never mutated or
// removed afterwards.
func (t *Task) AppendStep(step Step) {
	t.Steps = append(t.Steps, step)
}

// LastStep returns the most recent step, or nil when none exists.
func (t *Task) LastStep() *Step {
	if len(t.Steps) == 0 {
		return nil
	}
	return &t.Steps[len(t.Steps)-1]
}

// ErrorKind classifies a failure recorded on the graph state.
type ErrorKind string

const (
	// ErrValidation covers malformed tool-call arguments or missing
	// required config. Not retried; ends the run.
	ErrValidation ErrorKind = "validation"
	// ErrTokenLimit means the model context is too large. Surfaced to
	// the caller, never retried.
	ErrTokenLimit ErrorKind = "token_limit"
	// ErrToolExecution means a tool call failed. Recorded on the step;
	// execution continues.
	ErrToolExecution ErrorKind = "tool_execution"
	// ErrTimeout covers external-call timeouts. Retryable up to the
	// configured retry budget.
	ErrTimeout ErrorKind = "timeout"
	// ErrInterruptUnhandled means the graph paused for human input with
	// no notification sink configured. Fatal.
	ErrInterruptUnhandled ErrorKind = "interrupt_unhandled"
	// ErrInternal covers node failures with no more specific kind.
	ErrInternal ErrorKind = "internal"
)

// ErrorContext is the error value carried on the graph state. Node
// failures are converted into an ErrorContext exactly once and routed
// to the end of the graph.
type ErrorContext struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorContext builds an ErrorContext stamped with the current time.
func NewErrorContext(kind ErrorKind, source string, err error) *ErrorContext {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ErrorContext{
		Kind:      kind,
		Message:   msg,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// Retryable reports whether a failure of this kind may consume the
// retry budget instead of ending the run.
func (e *ErrorContext) Retryable() bool {
	return e.Kind == ErrTimeout
}
