package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixstack/agentgraph/task"
)

func TestDrawMermaid(t *testing.T) {
	out := DrawMermaid()

	assert.True(t, strings.HasPrefix(out, "flowchart TD"))
	assert.Contains(t, out, "START --> planner")
	assert.Contains(t, out, "planner --> executor")
	assert.Contains(t, out, "executor --> tool_runner")
	assert.Contains(t, out, "tool_runner --> executor")
	assert.Contains(t, out, "human_handler --> executor")
	assert.Contains(t, out, "validator --> end_graph")
}

func TestDrawMermaidDirection(t *testing.T) {
	out := DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
	assert.True(t, strings.HasPrefix(out, "flowchart LR"))
}

func TestDrawDOT(t *testing.T) {
	out := DrawDOT()
	assert.True(t, strings.HasPrefix(out, "digraph G {"))
	assert.Contains(t, out, "START -> planner;")
	assert.Contains(t, out, "executor -> validator;")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
}

func TestDrawASCII(t *testing.T) {
	out := DrawASCII()
	assert.Contains(t, out, "START")
	assert.Contains(t, out, "planner")
	// The executor/tool-runner loop shows up as a cycle marker rather
	// than infinite recursion.
	assert.Contains(t, out, "(cycle)")
}

func TestRenderProgress(t *testing.T) {
	state := NewState("check balance")
	done := task.New("first task")
	done.Status = task.StatusCompleted
	active := task.New("second task")
	active.AppendStep(task.Step{Tool: task.ToolCall{Name: "get_balance", Status: task.StatusCompleted}})
	state.Tasks = append(state.Tasks, *done, *active)
	state.CurrentTaskIndex = 1
	state.CurrentGraphStep = 4

	out := RenderProgress(state)
	assert.Contains(t, out, "graph step 4")
	assert.Contains(t, out, "first task")
	assert.Contains(t, out, "second task")
	assert.Contains(t, out, "get_balance")

	state.Pending = &HumanPrompt{Question: "ok?"}
	out = RenderProgress(state)
	assert.Contains(t, out, "awaiting human input")
}
