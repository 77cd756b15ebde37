package graph

import "context"

// humanNode either consumes an injected resume command or pauses the
// run. A paused run remains in this node, so a later resume re-enters
// exactly here with the step counters the pre-pause checkpoint
// recorded.
func (e *Engine) humanNode(_ context.Context, state State, rs *resumeState) nodeResult {
	if rs != nil && !rs.consumed {
		rs.consumed = true
		state.Pending = nil
		state.AppendHumanText(rs.text)
		e.logger.Debug("resume command injected, returning to executor")
		return nodeResult{state: state, next: NodeExecutor}
	}

	prompt := state.Pending
	if prompt == nil {
		// Entered without a recorded prompt: synthesize one so the
		// caller still gets a question to answer.
		prompt = &HumanPrompt{
			From:     NodeHumanHandler,
			Question: "The agent needs your input to continue.",
		}
		if active := state.ActiveTask(); active != nil {
			prompt.TaskID = active.ID
		}
		state.Pending = prompt
	}

	return nodeResult{state: state, next: NodeHumanHandler, pause: prompt}
}

// resumeState carries the caller-supplied reply into the node that
// paused. Consumed at most once per run.
type resumeState struct {
	text     string
	consumed bool
}
