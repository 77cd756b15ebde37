package graph

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/policy"
	"github.com/helixstack/agentgraph/task"
)

// executeNode asks the model for the next decision on the active task
// and routes it: tool calls to the tool runner, end_task to the
// validator, block_task or a tripped HITL gate to the human handler,
// plain content to the end of the graph as the final answer.
func (e *Engine) executeNode(ctx context.Context, state State) nodeResult {
	active := state.ActiveTask()
	if active == nil {
		return nodeResult{state: state, next: NodePlanner}
	}

	if len(active.Steps) >= e.config.MaxIterations {
		state.FinalAnswer = fmt.Sprintf("Maximum iterations reached for task %q. Stopping with partial progress.", active.Text)
		return nodeResult{state: state, next: NodeEndGraph}
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(executorSystemPrompt(active))},
		},
	}
	messages = append(messages, state.Messages...)

	boundTools := append(e.runner.Definitions(), terminalToolDefs()...)

	trace := []TraceEvent{{Kind: traceModelStarted, From: NodeExecutor, TaskID: active.ID}}
	decision, err := e.caller.Invoke(ctx, messages, boundTools)
	if err != nil {
		nerr := classifyModelError(NodeExecutor, err)
		return nodeResult{state: state, next: NodeExecutor, trace: trace, err: nerr}
	}
	trace = append(trace, TraceEvent{Kind: traceModelFinished, From: NodeExecutor, TaskID: active.ID, Decision: decision})

	// No tool calls: the model gave its final answer directly.
	if len(decision.ToolCalls) == 0 {
		state.AppendMessage(llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: []llms.ContentPart{llms.TextPart(decision.Content)},
		})
		state.FinalAnswer = decision.Content
		return nodeResult{state: state, next: NodeEndGraph, trace: trace}
	}

	state.LastThoughts = parseThoughts(decision.Content)

	// Terminal actions are routed before anything is dispatched.
	for _, call := range decision.ToolCalls {
		switch call.Name {
		case policy.ToolEndTask:
			if dec := policy.ShouldAllowTaskCompletion(state.ExecutionState, active); dec.Allowed {
				return nodeResult{state: state, next: NodeValidator, trace: trace}
			} else {
				e.logger.Debug("end_task rejected: %s", dec.Reason)
			}
		case policy.ToolBlockTask:
			state.Pending = &HumanPrompt{
				TaskID:   active.ID,
				From:     NodeHumanHandler,
				Question: parseQuestion(call.Args),
			}
			return nodeResult{state: state, next: NodeHumanHandler, trace: trace}
		}
	}

	// Validate and, where rejected, substitute each proposed call.
	calls := make([]task.ToolCall, 0, len(decision.ToolCalls))
	for _, call := range decision.ToolCalls {
		dec := policy.ValidateToolCall(call.Name, state.ExecutionState, active)
		if !dec.Allowed {
			e.logger.Info("tool call %s rejected (%s), substituting %s", call.Name, dec.Reason, policy.SubstituteToolCall(call.Name))
			call = task.ToolCall{
				ID:     call.ID,
				Name:   policy.SubstituteToolCall(call.Name),
				Args:   "{}",
				Status: task.StatusPending,
			}
		}
		calls = append(calls, call)
	}

	// HITL gate: the step's risk signal against the configured tier.
	if signal := e.runner.MaxRisk(calls); policy.RequiresHuman(e.config.HITLThreshold, signal) {
		state.Pending = &HumanPrompt{
			TaskID:   active.ID,
			From:     NodeHumanHandler,
			Question: fmt.Sprintf("About to run %s. Reply to approve or redirect.", describeCalls(calls)),
			Signal:   signal,
		}
		return nodeResult{state: state, next: NodeHumanHandler, trace: trace}
	}

	state.AppendMessage(assistantToolCallMessage(decision.Content, calls))
	state.PendingToolCalls = calls
	return nodeResult{state: state, next: NodeToolRunner, trace: trace}
}

// assistantToolCallMessage records the model's decision in the
// conversation so tool responses have a call to answer.
func assistantToolCallMessage(content string, calls []task.ToolCall) llms.MessageContent {
	msg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if content != "" {
		msg.Parts = append(msg.Parts, llms.TextPart(content))
	}
	for _, call := range calls {
		msg.Parts = append(msg.Parts, llms.ToolCall{
			ID:   call.ID,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      call.Name,
				Arguments: call.Args,
			},
		})
	}
	return msg
}

func describeCalls(calls []task.ToolCall) string {
	if len(calls) == 1 {
		return calls[0].Name
	}
	return fmt.Sprintf("%d tool calls", len(calls))
}
