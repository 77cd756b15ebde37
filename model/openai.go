package model

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/task"
)

// OpenAICaller adapts the sashabaranov/go-openai client to the Caller
// capability, for deployments that talk to the OpenAI API directly
// instead of going through langchaingo.
type OpenAICaller struct {
	client *openai.Client
	model  string
}

var _ Caller = (*OpenAICaller)(nil)

// NewOpenAICaller creates a caller backed by the given client and model
// name (e.g. openai.GPT4oMini).
func NewOpenAICaller(client *openai.Client, model string) *OpenAICaller {
	return &OpenAICaller{client: client, model: model}
}

// Invoke generates one decision from the conversation so far.
func (c *OpenAICaller) Invoke(ctx context.Context, messages []llms.MessageContent, boundTools []llms.Tool) (*Decision, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: convertMessages(messages),
		Tools:    convertTools(boundTools),
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	msg := resp.Choices[0].Message
	decision := &Decision{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		decision.ToolCalls = append(decision.ToolCalls, task.ToolCall{
			ID:     tc.ID,
			Name:   tc.Function.Name,
			Args:   tc.Function.Arguments,
			Status: task.StatusPending,
		})
	}
	return decision, nil
}

func convertMessages(messages []llms.MessageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case llms.ChatMessageTypeSystem:
			role = openai.ChatMessageRoleSystem
		case llms.ChatMessageTypeAI:
			role = openai.ChatMessageRoleAssistant
		case llms.ChatMessageTypeTool:
			role = openai.ChatMessageRoleTool
		}

		msg := openai.ChatCompletionMessage{Role: role}
		for _, part := range m.Parts {
			switch p := part.(type) {
			case llms.TextContent:
				msg.Content += p.Text
			case llms.ToolCall:
				if p.FunctionCall == nil {
					continue
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   p.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      p.FunctionCall.Name,
						Arguments: p.FunctionCall.Arguments,
					},
				})
			case llms.ToolCallResponse:
				msg.ToolCallID = p.ToolCallID
				msg.Name = p.Name
				msg.Content = p.Content
			}
		}
		out = append(out, msg)
	}
	return out
}

func convertTools(boundTools []llms.Tool) []openai.Tool {
	if len(boundTools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(boundTools))
	for _, t := range boundTools {
		if t.Function == nil {
			continue
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}
