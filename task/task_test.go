package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	tk := New("check the balance")
	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "check the balance", tk.Text)
	assert.Equal(t, StatusPending, tk.Status)
	assert.Empty(t, tk.Steps)
	assert.Nil(t, tk.LastStep())

	other := New("check the balance")
	assert.NotEqual(t, tk.ID, other.ID)
}

func TestAppendStepAndLastStep(t *testing.T) {
	tk := New("t")
	tk.AppendStep(Step{Tool: ToolCall{Name: "a"}})
	tk.AppendStep(Step{Tool: ToolCall{Name: "b"}})

	require.Len(t, tk.Steps, 2)
	assert.Equal(t, "b", tk.LastStep().Tool.Name)
}

func TestNewErrorContext(t *testing.T) {
	ec := NewErrorContext(ErrTimeout, "tool_runner", errors.New("deadline exceeded"))
	assert.Equal(t, ErrTimeout, ec.Kind)
	assert.Equal(t, "tool_runner", ec.Source)
	assert.Equal(t, "deadline exceeded", ec.Message)
	assert.False(t, ec.Timestamp.IsZero())

	ec = NewErrorContext(ErrInternal, "planner", nil)
	assert.Empty(t, ec.Message)
}

func TestErrorContextRetryable(t *testing.T) {
	assert.True(t, NewErrorContext(ErrTimeout, "x", nil).Retryable())
	assert.False(t, NewErrorContext(ErrTokenLimit, "x", nil).Retryable())
	assert.False(t, NewErrorContext(ErrValidation, "x", nil).Retryable())
	assert.False(t, NewErrorContext(ErrInternal, "x", nil).Retryable())
}
