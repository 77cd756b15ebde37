package policy

import (
	"encoding/json"
	"strings"

	"github.com/helixstack/agentgraph/task"
)

// Terminal and fallback action names recognized by the constraints manager.
const (
	// ToolEndTask marks the active task as done.
	ToolEndTask = "end_task"
	// ToolBlockTask pauses the active task for human input.
	ToolBlockTask = "block_task"
	// ToolInspectState is the safe substitute issued when a proposed
	// call is rejected: it reads state and never performs a side effect.
	ToolInspectState = "inspect_state"
)

// HistoryWindow bounds the rolling tool-call history. The history is a
// sliding window, not a full log.
const HistoryWindow = 5

// maxCompletionAttempts bounds how many times end_task may be proposed
// for one task.
const maxCompletionAttempts = 2

// ExecutionState is the rolling record the constraints manager decides
// over. It is treated as an immutable value: UpdateExecutionState
// returns a new state rather than mutating the receiver.
type ExecutionState struct {
	LastToolCall           string   `json:"last_tool_call"`
	ToolCallHistory        []string `json:"tool_call_history"`
	TaskCompletionAttempts int      `json:"task_completion_attempts"`
	StepInProgress         bool     `json:"step_in_progress"`
}

// Decision is the outcome of validating a proposed tool call.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision           { return Decision{Allowed: true} }
func reject(why string) Decision { return Decision{Allowed: false, Reason: why} }

// ValidateToolCall approves or rejects a proposed tool call against the
// rolling execution state and the active task. Rules are evaluated in
// order; the first match wins. Pure, no I/O.
func ValidateToolCall(name string, state ExecutionState, active *task.Task) Decision {
	if name != ToolEndTask {
		return allow()
	}

	switch {
	case active != nil && active.Status == task.StatusCompleted:
		return reject("already completed")
	case state.TaskCompletionAttempts >= maxCompletionAttempts:
		return reject("max completion attempts")
	case active == nil || len(active.Steps) == 0:
		return reject("cannot complete without acting")
	case state.LastToolCall == ToolEndTask:
		return reject("already attempted to end")
	}

	return allow()
}

// ShouldAllowTaskCompletion reports whether end_task would currently be
// accepted for the active task.
func ShouldAllowTaskCompletion(state ExecutionState, active *task.Task) Decision {
	return ValidateToolCall(ToolEndTask, state, active)
}

// UpdateExecutionState returns a new state with the call pushed onto the
// bounded history. TaskCompletionAttempts advances only for end_task.
func UpdateExecutionState(state ExecutionState, name string) ExecutionState {
	history := make([]string, 0, HistoryWindow)
	history = append(history, state.ToolCallHistory...)
	history = append(history, name)
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	next := ExecutionState{
		LastToolCall:           name,
		ToolCallHistory:        history,
		TaskCompletionAttempts: state.TaskCompletionAttempts,
		StepInProgress:         state.StepInProgress,
	}
	if name == ToolEndTask {
		next.TaskCompletionAttempts++
	}
	return next
}

// ResetCompletionAttempts returns a new state with the completion
// counter cleared. Called when the planner opens a new task.
func ResetCompletionAttempts(state ExecutionState) ExecutionState {
	state.TaskCompletionAttempts = 0
	return state
}

// substitutes maps known rejected tool names to documented fallbacks.
// Anything not listed falls back to state inspection.
var substitutes = map[string]string{
	ToolEndTask:   ToolInspectState,
	ToolBlockTask: ToolInspectState,
}

// SubstituteToolCall returns the safe alternative to run in place of a
// rejected call. The substitute is a diagnostic step that still
// advances the tool-call history, so the graph cannot stall on
// repeated rejections.
func SubstituteToolCall(name string) string {
	if sub, ok := substitutes[name]; ok {
		return sub
	}
	return ToolInspectState
}

// Independent reports whether the proposed calls in one batch may be
// dispatched concurrently. Calls are independent only if none
// references another call's declared output as an input. Any ambiguity
// (unparseable args included) serializes the batch in proposal order.
func Independent(calls []task.ToolCall) bool {
	if len(calls) < 2 {
		return true
	}

	ids := make([]string, 0, len(calls))
	for _, c := range calls {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}

	for _, c := range calls {
		var args map[string]any
		if c.Args != "" {
			if err := json.Unmarshal([]byte(c.Args), &args); err != nil {
				return false
			}
		}
		for _, v := range args {
			s, ok := v.(string)
			if !ok {
				continue
			}
			for _, id := range ids {
				if id != c.ID && strings.Contains(s, id) {
					return false
				}
			}
		}
	}
	return true
}
