package tool

import "github.com/helixstack/agentgraph/task"

// RiskScored is implemented by tools that advertise a risk/uncertainty
// signal in [0, 1]. Tools without a score are treated as risk 0.
type RiskScored interface {
	RiskSignal() float64
}

// MaxRisk returns the highest risk signal across a batch of proposed
// calls. Unknown tools contribute nothing.
func (r *Runner) MaxRisk(calls []task.ToolCall) float64 {
	max := 0.0
	for _, call := range calls {
		t, ok := r.tools[call.Name]
		if !ok {
			continue
		}
		if scored, ok := t.(RiskScored); ok {
			if s := scored.RiskSignal(); s > max {
				max = s
			}
		}
	}
	return max
}
