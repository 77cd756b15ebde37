package graph

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/model"
	"github.com/helixstack/agentgraph/policy"
	"github.com/helixstack/agentgraph/task"
)

// memorySnippets is how many recalled snippets ground a new plan.
const memorySnippets = 4

// planNode opens the next pending task. When one already exists the
// node is a pure pass-through to the executor.
func (e *Engine) planNode(ctx context.Context, state State) nodeResult {
	if active := state.ActiveTask(); active != nil && active.Status == task.StatusPending {
		return nodeResult{state: state, next: NodeExecutor}
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(plannerSystemPrompt())},
		},
	}
	if block := e.recall(ctx, state); block != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(block)},
		})
	}
	messages = append(messages, state.Messages...)

	trace := []TraceEvent{{Kind: traceModelStarted, From: NodePlanner}}
	decision, err := e.caller.Invoke(ctx, messages, nil)
	if err != nil {
		nerr := classifyModelError(NodePlanner, err)
		return nodeResult{state: state, next: NodePlanner, trace: trace, err: nerr}
	}
	trace = append(trace, TraceEvent{Kind: traceModelFinished, From: NodePlanner, Decision: decision})

	thoughts := parseThoughts(decision.Content)
	t := task.New(thoughts.Text)
	t.Reasoning = thoughts.Reasoning
	t.Plan = parsePlanField(decision.Content)
	t.Criticism = thoughts.Criticism
	t.Speak = thoughts.Speak

	state.Tasks = append(state.Tasks, *t)
	state.CurrentTaskIndex = len(state.Tasks) - 1
	state.ExecutionState = policy.ResetCompletionAttempts(state.ExecutionState)

	for i := range trace {
		trace[i].TaskID = t.ID
	}
	e.logger.Debug("planner opened task %s: %s", t.ID, t.Text)
	return nodeResult{state: state, next: NodeExecutor, trace: trace}
}

// recall asks the retriever for context grounding the new plan. A
// missing or failing retriever degrades to planning without memory.
func (e *Engine) recall(ctx context.Context, state State) string {
	if e.retriever == nil {
		return ""
	}
	query := lastHumanText(state.Messages)
	if query == "" {
		return ""
	}
	snippets, err := e.retriever.Retrieve(ctx, query, memorySnippets)
	if err != nil {
		e.logger.Warn("memory retrieval failed: %v", err)
		return ""
	}
	return contextBlock(snippets)
}

func lastHumanText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, part := range messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok {
				return text.Text
			}
		}
	}
	return ""
}

// classifyModelError maps a model-call failure onto the error taxonomy.
// Token-limit failures propagate unretried; everything else consumes
// the retry budget.
func classifyModelError(from NodeID, err error) *nodeError {
	switch {
	case model.IsTokenLimit(err):
		return &nodeError{ctx: task.NewErrorContext(task.ErrTokenLimit, from.String(), err)}
	case errors.Is(err, context.DeadlineExceeded):
		return &nodeError{ctx: task.NewErrorContext(task.ErrTimeout, from.String(), err), retryable: true}
	default:
		return &nodeError{ctx: task.NewErrorContext(task.ErrInternal, from.String(), err), retryable: true}
	}
}
