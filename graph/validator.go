package graph

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/policy"
	"github.com/helixstack/agentgraph/task"
)

// validateNode runs once end_task has been approved: it asks the model
// to judge the task against its recorded steps, records the terminal
// step, and routes to the planner (objective unmet), back to the
// executor (task incomplete), or to the end of the graph.
func (e *Engine) validateNode(ctx context.Context, state State) nodeResult {
	active := state.ActiveTask()
	if active == nil {
		return nodeResult{state: state, next: NodePlanner}
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(validatorSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(validatorUserPrompt(active))},
		},
	}

	trace := []TraceEvent{{Kind: traceModelStarted, From: NodeValidator, TaskID: active.ID}}
	decision, err := e.caller.Invoke(ctx, messages, nil)
	if err != nil {
		nerr := classifyModelError(NodeValidator, err)
		return nodeResult{state: state, next: NodeValidator, trace: trace, err: nerr}
	}
	trace = append(trace, TraceEvent{Kind: traceModelFinished, From: NodeValidator, TaskID: active.ID, Decision: decision})

	v := parseVerdict(decision.Content)

	// The end_task attempt is a step like any other and advances the
	// rolling history, completed or not.
	stepStatus := task.StatusCompleted
	if !v.Completed {
		stepStatus = task.StatusFailed
	}
	active.AppendStep(task.Step{
		Thoughts: state.LastThoughts,
		Tool: task.ToolCall{
			Name:   policy.ToolEndTask,
			Args:   "{}",
			Result: v.Summary,
			Status: stepStatus,
		},
	})
	state.ExecutionState = policy.UpdateExecutionState(state.ExecutionState, policy.ToolEndTask)
	state.LastThoughts = task.Thoughts{}

	if !v.Completed {
		e.logger.Info("validator rejected completion of task %s: %s", active.ID, v.Summary)
		state.AppendHumanText("The task is not complete yet: " + v.Summary)
		return nodeResult{state: state, next: NodeExecutor, trace: trace}
	}

	active.Status = task.StatusCompleted
	e.logger.Debug("task %s completed", active.ID)

	if !v.ObjectiveComplete {
		return nodeResult{state: state, next: NodePlanner, trace: trace}
	}

	answer := v.Summary
	if active.Speak != "" {
		answer = active.Speak + "\n\n" + v.Summary
	}
	state.FinalAnswer = answer
	return nodeResult{state: state, next: NodeEndGraph, trace: trace}
}
