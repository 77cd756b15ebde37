package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel replays a canned response or error.
type fakeModel struct {
	resp    *llms.ContentResponse
	err     error
	gotOpts llms.CallOptions
	gotMsgs []llms.MessageContent
	invoked int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.invoked++
	f.gotMsgs = messages
	for _, opt := range options {
		opt(&f.gotOpts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestClassifyTokenLimit(t *testing.T) {
	err := classify(errors.New("openai: context_length_exceeded (code 400)"))
	assert.True(t, IsTokenLimit(err))

	err = classify(errors.New("This model's maximum context length is 128000 tokens"))
	assert.True(t, IsTokenLimit(err))

	err = classify(errors.New("connection reset by peer"))
	assert.False(t, IsTokenLimit(err))

	assert.NoError(t, classify(nil))
}

func TestLangchainCallerMapsToolCalls(t *testing.T) {
	fake := &fakeModel{
		resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{
				Content: "checking your balance",
				ToolCalls: []llms.ToolCall{
					{
						ID: "call_1",
						FunctionCall: &llms.FunctionCall{
							Name:      "get_balance",
							Arguments: `{"input":"0xabc"}`,
						},
					},
					{ID: "call_skip"}, // no function payload: dropped
				},
			}},
		},
	}
	caller := NewLangchainCaller(fake)

	boundTools := []llms.Tool{{
		Type:     "function",
		Function: &llms.FunctionDefinition{Name: "get_balance"},
	}}
	d, err := caller.Invoke(context.Background(), []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "hi")}, boundTools)
	require.NoError(t, err)

	assert.Equal(t, "checking your balance", d.Content)
	require.Len(t, d.ToolCalls, 1)
	assert.Equal(t, "call_1", d.ToolCalls[0].ID)
	assert.Equal(t, "get_balance", d.ToolCalls[0].Name)
	assert.Equal(t, `{"input":"0xabc"}`, d.ToolCalls[0].Args)

	// Tools were bound on the call.
	require.Len(t, fake.gotOpts.Tools, 1)
	assert.Equal(t, "get_balance", fake.gotOpts.Tools[0].Function.Name)
}

func TestLangchainCallerNoChoices(t *testing.T) {
	fake := &fakeModel{resp: &llms.ContentResponse{}}
	caller := NewLangchainCaller(fake)

	_, err := caller.Invoke(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestLangchainCallerPropagatesTokenLimit(t *testing.T) {
	fake := &fakeModel{err: errors.New("maximum context length exceeded")}
	caller := NewLangchainCaller(fake)

	_, err := caller.Invoke(context.Background(), nil, nil)
	assert.True(t, IsTokenLimit(err))
}
