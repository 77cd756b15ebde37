package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/policy"
	"github.com/helixstack/agentgraph/store"
	"github.com/helixstack/agentgraph/task"
)

// HumanPrompt is the structured prompt surfaced when the graph pauses
// for human input.
type HumanPrompt struct {
	// TaskID is the task awaiting input.
	TaskID string `json:"task_id"`

	// From is the node that paused.
	From NodeID `json:"from"`

	// Question is what the human is being asked.
	Question string `json:"question"`

	// Signal is the risk/uncertainty value that triggered the pause,
	// when the pause came from the HITL gate rather than block_task.
	Signal float64 `json:"signal,omitempty"`
}

// State is the unit of checkpointing: everything the graph needs to
// resume a thread from exactly where it left off.
type State struct {
	// Messages is the conversation so far, in order.
	Messages []llms.MessageContent `json:"messages"`

	// Tasks holds every task opened for the objective.
	Tasks []task.Task `json:"tasks"`

	// CurrentGraphStep is monotonically non-decreasing within a thread.
	CurrentGraphStep int `json:"current_graph_step"`

	// CurrentTaskIndex points at the active task in Tasks.
	CurrentTaskIndex int `json:"current_task_index"`

	// ExecutionState is the constraints manager's rolling record.
	ExecutionState policy.ExecutionState `json:"execution_state"`

	// Error, when set, forces the next transition to EndGraph or the
	// human handler, never back to the executor.
	Error *task.ErrorContext `json:"error,omitempty"`

	// Retry counts retryable failures consumed so far this run.
	Retry int `json:"retry"`

	// Current is the node to dispatch next; recorded so a resumed run
	// re-enters the node that paused.
	Current NodeID `json:"current_node"`

	// Pending marks the graph as paused awaiting human input.
	Pending *HumanPrompt `json:"pending,omitempty"`

	// PendingToolCalls carries approved calls from the executor to the
	// tool runner within one step.
	PendingToolCalls []task.ToolCall `json:"pending_tool_calls,omitempty"`

	// LastThoughts is the reasoning attached to the decision that
	// produced the pending tool calls.
	LastThoughts task.Thoughts `json:"last_thoughts,omitempty"`

	// FinalAnswer is the run's final reply once EndGraph is reached.
	FinalAnswer string `json:"final_answer,omitempty"`
}

// NewState builds the initial state for a fresh thread.
func NewState(input string) State {
	return State{
		Messages: []llms.MessageContent{
			{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextPart(input)},
			},
		},
		CurrentTaskIndex: -1,
		Current:          NodePlanner,
	}
}

// ActiveTask returns the task under execution, or nil when none exists.
func (s *State) ActiveTask() *task.Task {
	if s.CurrentTaskIndex < 0 || s.CurrentTaskIndex >= len(s.Tasks) {
		return nil
	}
	return &s.Tasks[s.CurrentTaskIndex]
}

// AppendMessage appends one message to the conversation.
func (s *State) AppendMessage(msg llms.MessageContent) {
	s.Messages = append(s.Messages, msg)
}

// AppendHumanText appends caller text as a fresh user message.
func (s *State) AppendHumanText(text string) {
	s.AppendMessage(llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	})
}

// Snapshot renders a compact human-readable view of progress. It is
// the answer the engine gives to inspect_state calls.
func (s *State) Snapshot() string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph step %d, %d task(s)\n", s.CurrentGraphStep, len(s.Tasks))
	for i, t := range s.Tasks {
		marker := " "
		if i == s.CurrentTaskIndex {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s [%s] %s (%d step(s))\n", marker, t.Status, t.Text, len(t.Steps))
		for _, step := range t.Steps {
			fmt.Fprintf(&b, "    - %s [%s]\n", step.Tool.Name, step.Tool.Status)
		}
	}
	return b.String()
}

// Marshal serializes the state for checkpointing.
func (s *State) Marshal() (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph state: %w", err)
	}
	return data, nil
}

// DecodeState deserializes a checkpointed state.
func DecodeState(raw json.RawMessage) (State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("failed to decode graph state: %w", err)
	}
	return s, nil
}

// IsInterrupt reports whether a checkpoint recorded a paused run: a
// pure predicate over checkpoint shape, no side effects.
func IsInterrupt(cp *store.Checkpoint) bool {
	if cp == nil {
		return false
	}
	s, err := DecodeState(cp.State)
	if err != nil {
		return false
	}
	return s.Pending != nil
}
