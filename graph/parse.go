package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helixstack/agentgraph/task"
)

// verdict is the validator's parsed decision.
type verdict struct {
	Completed         bool   `json:"completed"`
	ObjectiveComplete bool   `json:"objective_complete"`
	Summary           string `json:"summary"`
}

// extractJSON finds the outermost JSON object in free-form model text.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("no JSON object found in text")
	}
	return text[startIdx : endIdx+1], nil
}

// parseThoughts parses the planner's reply. On parse failure the raw
// content becomes the task text, so a chatty model still yields a
// usable task.
func parseThoughts(text string) task.Thoughts {
	jsonText, err := extractJSON(text)
	if err != nil {
		return task.Thoughts{Text: strings.TrimSpace(text)}
	}

	var parsed struct {
		Text      string `json:"text"`
		Reasoning string `json:"reasoning"`
		Plan      string `json:"plan"`
		Criticism string `json:"criticism"`
		Speak     string `json:"speak"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil || parsed.Text == "" {
		return task.Thoughts{Text: strings.TrimSpace(text)}
	}
	return task.Thoughts{
		Text:      parsed.Text,
		Reasoning: parsed.Reasoning,
		Criticism: parsed.Criticism,
		Speak:     parsed.Speak,
	}
}

// parsePlanField re-parses the plan field the planner format carries
// alongside the shared thought fields.
func parsePlanField(text string) string {
	jsonText, err := extractJSON(text)
	if err != nil {
		return ""
	}
	var parsed struct {
		Plan string `json:"plan"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return ""
	}
	return parsed.Plan
}

// parseVerdict parses the validator's reply. Parse failures count as
// not-completed so a malformed reply can never complete a task.
func parseVerdict(text string) verdict {
	jsonText, err := extractJSON(text)
	if err != nil {
		return verdict{Summary: strings.TrimSpace(text)}
	}
	var v verdict
	if err := json.Unmarshal([]byte(jsonText), &v); err != nil {
		return verdict{Summary: strings.TrimSpace(text)}
	}
	if v.Summary == "" {
		v.Summary = strings.TrimSpace(text)
	}
	return v
}

// parseQuestion pulls the question argument from a block_task call.
func parseQuestion(args string) string {
	var parsed struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(args), &parsed); err != nil || parsed.Question == "" {
		return "The agent needs your input to continue."
	}
	return parsed.Question
}
