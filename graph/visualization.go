package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/helixstack/agentgraph/task"
)

// MermaidOptions defines configuration for Mermaid diagram generation.
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR").
	Direction string
}

// DrawMermaid generates a Mermaid diagram of the execution graph.
func DrawMermaid() string {
	return DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
func DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	sb.WriteString("    START([\"START\"])\n")
	sb.WriteString("    style START fill:#90EE90\n")
	fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", NodePlanner, NodePlanner)
	fmt.Fprintf(&sb, "    START --> %s\n", NodePlanner)

	for _, id := range sortedNodes() {
		if id == NodePlanner || id == NodeEndGraph {
			continue
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, id)
	}

	fmt.Fprintf(&sb, "    %s([\"END\"])\n", NodeEndGraph)
	fmt.Fprintf(&sb, "    style %s fill:#FFB6C1\n", NodeEndGraph)

	for _, from := range sortedNodes() {
		for _, to := range edges[from] {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
		}
	}

	fmt.Fprintf(&sb, "    style %s fill:#87CEEB\n", NodePlanner)
	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the graph.
func DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("    START [label=\"START\", shape=ellipse, style=filled, fillcolor=lightgreen];\n")
	fmt.Fprintf(&sb, "    START -> %s;\n", NodePlanner)
	fmt.Fprintf(&sb, "    %s [style=filled, fillcolor=lightblue];\n", NodePlanner)
	fmt.Fprintf(&sb, "    %s [label=\"END\", shape=ellipse, style=filled, fillcolor=lightpink];\n", NodeEndGraph)

	for _, from := range sortedNodes() {
		for _, to := range edges[from] {
			fmt.Fprintf(&sb, "    %s -> %s;\n", from, to)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// DrawASCII generates an ASCII tree of the graph starting at the planner.
func DrawASCII() string {
	var sb strings.Builder
	visited := make(map[NodeID]bool)

	sb.WriteString("Graph Execution Flow:\n")
	sb.WriteString("├── START\n")
	drawASCIINode(NodePlanner, "│   ", true, visited, &sb)
	return sb.String()
}

func drawASCIINode(id NodeID, prefix string, isLast bool, visited map[NodeID]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	if visited[id] {
		fmt.Fprintf(sb, "%s%s %s (cycle)\n", prefix, connector, id)
		return
	}
	visited[id] = true

	fmt.Fprintf(sb, "%s%s %s\n", prefix, connector, id)

	targets := append([]NodeID(nil), edges[id]...)
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	for i, target := range targets {
		drawASCIINode(target, nextPrefix, i == len(targets)-1, visited, sb)
	}
}

var (
	runHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	nodeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	activeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// RenderProgress renders a styled terminal view of a thread's progress
// from its checkpointed state: the node about to run, each task and its
// tool steps.
func RenderProgress(state State) string {
	var sb strings.Builder

	sb.WriteString(runHeaderStyle.Render(fmt.Sprintf("graph step %d", state.CurrentGraphStep)))
	sb.WriteString("  ")
	if state.Pending != nil {
		sb.WriteString(activeStyle.Render("⏸ awaiting human input"))
	} else {
		sb.WriteString(nodeStyle.Render("→ " + state.Current.String()))
	}
	sb.WriteString("\n")

	for i, t := range state.Tasks {
		style := nodeStyle
		marker := "•"
		switch {
		case t.Status == task.StatusCompleted:
			style = doneStyle
			marker = "✓"
		case t.Status == task.StatusFailed:
			style = failedStyle
			marker = "✗"
		case i == state.CurrentTaskIndex:
			style = activeStyle
			marker = "▶"
		}
		sb.WriteString(style.Render(fmt.Sprintf("%s %s", marker, t.Text)))
		sb.WriteString("\n")
		for _, step := range t.Steps {
			sb.WriteString(fmt.Sprintf("    %s [%s]\n", step.Tool.Name, step.Tool.Status))
		}
	}

	if state.FinalAnswer != "" {
		sb.WriteString(doneStyle.Render("final: " + state.FinalAnswer))
		sb.WriteString("\n")
	}
	return sb.String()
}

func sortedNodes() []NodeID {
	ids := make([]NodeID, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
