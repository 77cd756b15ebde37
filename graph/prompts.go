package graph

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/memory"
	"github.com/helixstack/agentgraph/policy"
	"github.com/helixstack/agentgraph/task"
)

func plannerSystemPrompt() string {
	return `You are the planning stage of an autonomous agent. Decompose the user's objective into the single next task to perform.

Respond with JSON in this exact format:
{
  "text": "the task to perform",
  "reasoning": "why this task comes next",
  "plan": "short bullet plan for carrying it out",
  "criticism": "constructive self-criticism",
  "speak": "one sentence to say to the user"
}`
}

func executorSystemPrompt(active *task.Task) string {
	var b strings.Builder
	b.WriteString("You are the execution stage of an autonomous agent. Work on the current task using the tools you are given, one decision at a time.\n\n")
	fmt.Fprintf(&b, "Current task: %s\n", active.Text)
	if active.Plan != "" {
		fmt.Fprintf(&b, "Plan: %s\n", active.Plan)
	}
	b.WriteString("\nWhen the task is done, call end_task. If you cannot proceed without human input, call block_task with your question. Otherwise call the most appropriate tool.")
	return b.String()
}

func validatorSystemPrompt() string {
	return `You are the validation stage of an autonomous agent. Given a task and the steps taken, decide whether the task completed and whether the overall objective is now met.

Respond with JSON in this exact format:
{
  "completed": true or false,
  "objective_complete": true or false,
  "summary": "what was accomplished, or what is still missing"
}`
}

func validatorUserPrompt(active *task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nSteps taken:\n", active.Text)
	for i, step := range active.Steps {
		fmt.Fprintf(&b, "%d. %s [%s]: %s\n", i+1, step.Tool.Name, step.Tool.Status, truncate(step.Tool.Result, 300))
	}
	return b.String()
}

// contextBlock renders retrieved memory snippets for the planner.
func contextBlock(snippets []memory.Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant context from memory:\n")
	for _, s := range snippets {
		fmt.Fprintf(&b, "- %s\n", truncate(s.Content, 400))
	}
	return b.String()
}

// terminalToolDefs are the terminal actions bound alongside the real
// tool catalog on every executor turn.
func terminalToolDefs() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        policy.ToolEndTask,
				Description: "Mark the current task as complete. Only call this after acting on the task.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"reason": map[string]any{
							"type":        "string",
							"description": "Why the task is complete",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        policy.ToolBlockTask,
				Description: "Pause the current task and ask the user a question you cannot answer yourself.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question for the user",
						},
					},
					"required": []string{"question"},
				},
			},
		},
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
