package graph

import (
	"fmt"

	"github.com/helixstack/agentgraph/task"
)

// NodeID identifies one state of the execution graph. The set is
// closed: dispatch switches exhaustively over these values and treats
// anything else as a programming defect.
type NodeID string

const (
	// NodePlanner decomposes the objective into the next pending task.
	NodePlanner NodeID = "planner"
	// NodeExecutor asks the model for the next decision on the active task.
	NodeExecutor NodeID = "executor"
	// NodeToolRunner executes the calls proposed by the executor.
	// A sub-step of the executor: control always returns there.
	NodeToolRunner NodeID = "tool_runner"
	// NodeValidator checks whether the active task may complete.
	NodeValidator NodeID = "validator"
	// NodeHumanHandler pauses the run awaiting human input.
	NodeHumanHandler NodeID = "human_handler"
	// NodeEndGraph is terminal.
	NodeEndGraph NodeID = "end_graph"
)

// Valid reports whether id is a member of the closed node set.
func (id NodeID) Valid() bool {
	switch id {
	case NodePlanner, NodeExecutor, NodeToolRunner, NodeValidator, NodeHumanHandler, NodeEndGraph:
		return true
	}
	return false
}

func (id NodeID) String() string { return string(id) }

// edges is the static transition table, used for visualization and for
// validating recorded checkpoints. The actual routing is decided by the
// node handlers.
var edges = map[NodeID][]NodeID{
	NodePlanner:      {NodeExecutor, NodeEndGraph},
	NodeExecutor:     {NodeToolRunner, NodeValidator, NodeHumanHandler, NodeEndGraph},
	NodeToolRunner:   {NodeExecutor, NodeEndGraph},
	NodeValidator:    {NodePlanner, NodeExecutor, NodeHumanHandler, NodeEndGraph},
	NodeHumanHandler: {NodeExecutor},
	NodeEndGraph:     nil,
}

// nodeResult is the outcome of dispatching one node: the next state,
// the node to run next, optional trace entries, an optional pause, and
// an optional failure. Failures are values here; panics escaping a
// handler crash the run by design of the caller.
type nodeResult struct {
	state State
	next  NodeID
	trace []TraceEvent
	pause *HumanPrompt
	err   *nodeError
}

// nodeError pairs the recorded error context with retry eligibility.
type nodeError struct {
	ctx       *task.ErrorContext
	retryable bool
}

func defect(format string, v ...any) error {
	return fmt.Errorf("graph defect: "+format, v...)
}
