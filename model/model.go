package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/helixstack/agentgraph/task"
)

// Decision is one model turn: plain content, tool calls, or both.
type Decision struct {
	// Content is the plain-text part of the reply, if any.
	Content string

	// ToolCalls are the calls the model proposed this turn, in the
	// order proposed.
	ToolCalls []task.ToolCall
}

// Caller is the opaque model-call capability consumed by the graph.
// Implementations bind the advertised tools and return one decision.
type Caller interface {
	Invoke(ctx context.Context, messages []llms.MessageContent, boundTools []llms.Tool) (*Decision, error)
}

// ErrTokenLimit marks a model failure caused by the context exceeding
// the provider's token budget. Not retried; the caller must shorten
// context.
var ErrTokenLimit = errors.New("model context exceeds token limit")

// tokenLimitMarkers are provider substrings that identify a
// context-length failure.
var tokenLimitMarkers = []string{
	"context_length_exceeded",
	"maximum context length",
	"token limit",
	"context window",
}

// classify wraps provider errors, tagging token-limit failures so the
// graph can distinguish them from generic retryable failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range tokenLimitMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrTokenLimit, err)
		}
	}
	return err
}

// IsTokenLimit reports whether err is a token-limit failure.
func IsTokenLimit(err error) bool {
	return errors.Is(err, ErrTokenLimit)
}

// LangchainCaller adapts a langchaingo llms.Model to the Caller
// capability.
type LangchainCaller struct {
	model llms.Model
	opts  []llms.CallOption
}

var _ Caller = (*LangchainCaller)(nil)

// NewLangchainCaller wraps a langchaingo model. Extra call options
// (temperature, model name) are applied on every invocation.
func NewLangchainCaller(m llms.Model, opts ...llms.CallOption) *LangchainCaller {
	return &LangchainCaller{model: m, opts: opts}
}

// Invoke generates one decision from the conversation so far.
func (c *LangchainCaller) Invoke(ctx context.Context, messages []llms.MessageContent, boundTools []llms.Tool) (*Decision, error) {
	opts := make([]llms.CallOption, 0, len(c.opts)+1)
	opts = append(opts, c.opts...)
	if len(boundTools) > 0 {
		opts = append(opts, llms.WithTools(boundTools))
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	choice := resp.Choices[0]
	decision := &Decision{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		decision.ToolCalls = append(decision.ToolCalls, task.ToolCall{
			ID:     tc.ID,
			Name:   tc.FunctionCall.Name,
			Args:   tc.FunctionCall.Arguments,
			Status: task.StatusPending,
		})
	}
	return decision, nil
}
