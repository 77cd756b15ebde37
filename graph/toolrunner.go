package graph

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/policy"
	"github.com/helixstack/agentgraph/task"
)

// toolRunnerNode dispatches the approved batch, appends one Step per
// call, and hands control back to the executor. Tool failures are
// recovered locally as failed steps; timeouts additionally consume the
// retry budget.
func (e *Engine) toolRunnerNode(ctx context.Context, state State) nodeResult {
	calls := state.PendingToolCalls
	if len(calls) == 0 {
		return nodeResult{state: state, next: NodeExecutor}
	}

	active := state.ActiveTask()
	if active == nil {
		return nodeResult{state: state, next: NodePlanner}
	}

	results, errs := e.executeCalls(ctx, &state, calls)

	var timeoutErr error
	for i, result := range results {
		step := task.Step{
			Thoughts: state.LastThoughts,
			Tool:     result,
		}
		if errs[i] != nil {
			e.logger.Warn("tool %s failed: %v", result.Name, errs[i])
			if errors.Is(errs[i], context.DeadlineExceeded) {
				timeoutErr = errs[i]
				step.Error = task.NewErrorContext(task.ErrTimeout, NodeToolRunner.String(), errs[i])
			} else {
				step.Error = task.NewErrorContext(task.ErrToolExecution, NodeToolRunner.String(), errs[i])
			}
		}
		active.AppendStep(step)
		state.ExecutionState = policy.UpdateExecutionState(state.ExecutionState, result.Name)
		state.AppendMessage(llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: result.ID,
					Name:       result.Name,
					Content:    result.Result,
				},
			},
		})
	}

	state.PendingToolCalls = nil
	state.LastThoughts = task.Thoughts{}

	if timeoutErr != nil {
		return nodeResult{
			state: state,
			next:  NodeExecutor,
			err: &nodeError{
				ctx:       task.NewErrorContext(task.ErrTimeout, NodeToolRunner.String(), timeoutErr),
				retryable: true,
			},
		}
	}
	return nodeResult{state: state, next: NodeExecutor}
}

// executeCalls dispatches a batch through the runner, answering
// state-inspection calls itself from the live state. The inspection
// fallback therefore never depends on the catalog: a substituted call
// always produces a completed step carrying the current snapshot.
func (e *Engine) executeCalls(ctx context.Context, state *State, calls []task.ToolCall) ([]task.ToolCall, []error) {
	results := make([]task.ToolCall, len(calls))
	errs := make([]error, len(calls))

	var external []task.ToolCall
	var externalIdx []int
	for i, call := range calls {
		if call.Name == policy.ToolInspectState {
			call.Status = task.StatusCompleted
			call.Result = state.Snapshot()
			results[i] = call
			continue
		}
		external = append(external, call)
		externalIdx = append(externalIdx, i)
	}

	if len(external) > 0 {
		batchResults, batchErrs := e.runner.ExecuteBatch(ctx, external)
		for j, i := range externalIdx {
			results[i] = batchResults[j]
			errs[i] = batchErrs[j]
		}
	}
	return results, errs
}
