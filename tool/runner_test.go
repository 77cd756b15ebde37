package tool

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/tools"

	"github.com/helixstack/agentgraph/task"
)

// echoTool returns its input. Optionally sleeps to exercise timeouts.
type echoTool struct {
	name  string
	delay time.Duration
	fail  error
	calls atomic.Int32
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echoes its input" }

func (e *echoTool) Call(ctx context.Context, input string) (string, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if e.fail != nil {
		return "", e.fail
	}
	return "echo: " + input, nil
}

// schemaTool advertises an explicit JSON schema.
type schemaTool struct{ echoTool }

func (*schemaTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"address": map[string]any{"type": "string"},
		},
		"required": []string{"address"},
	}
}

func TestRunnerExecuteSuccess(t *testing.T) {
	r, err := NewRunner([]tools.Tool{&echoTool{name: "echo"}}, Options{})
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Execute(context.Background(), task.ToolCall{ID: "1", Name: "echo", Args: "hi"})
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, out.Status)
	assert.Equal(t, "echo: hi", out.Result)
}

func TestRunnerExecuteUnknownTool(t *testing.T) {
	r, err := NewRunner(nil, Options{})
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Execute(context.Background(), task.ToolCall{Name: "nope"})
	assert.Error(t, err)
	assert.Equal(t, task.StatusFailed, out.Status)
	assert.Contains(t, out.Result, "unknown tool")
}

func TestRunnerExecuteFailureRecordedOnCall(t *testing.T) {
	boom := errors.New("rpc unavailable")
	r, err := NewRunner([]tools.Tool{&echoTool{name: "echo", fail: boom}}, Options{})
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Execute(context.Background(), task.ToolCall{Name: "echo"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, task.StatusFailed, out.Status)
	assert.Equal(t, "Error: rpc unavailable", out.Result)
}

func TestRunnerExecuteTimeout(t *testing.T) {
	r, err := NewRunner([]tools.Tool{&echoTool{name: "slow", delay: time.Second}}, Options{
		CallTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Execute(context.Background(), task.ToolCall{Name: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, task.StatusFailed, out.Status)
}

func TestRunnerExecuteBatchIndependent(t *testing.T) {
	a := &echoTool{name: "a"}
	b := &echoTool{name: "b"}
	r, err := NewRunner([]tools.Tool{a, b}, Options{PoolSize: 4})
	require.NoError(t, err)
	defer r.Close()

	calls := []task.ToolCall{
		{ID: "call_1", Name: "a", Args: `{"input":"x"}`},
		{ID: "call_2", Name: "b", Args: `{"input":"y"}`},
	}
	results, errs := r.ExecuteBatch(context.Background(), calls)

	require.Len(t, results, 2)
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	// Results keep proposal order regardless of completion order.
	assert.Equal(t, "call_1", results[0].ID)
	assert.Equal(t, "call_2", results[1].ID)
	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestRunnerExecuteBatchSerializesDependent(t *testing.T) {
	a := &echoTool{name: "a"}
	r, err := NewRunner([]tools.Tool{a}, Options{})
	require.NoError(t, err)
	defer r.Close()

	// The second call references the first call's id: serialized, both
	// still execute to completion (barrier semantics).
	calls := []task.ToolCall{
		{ID: "call_1", Name: "a", Args: `{"input":"x"}`},
		{ID: "call_2", Name: "a", Args: `{"input":"use call_1 output"}`},
	}
	results, errs := r.ExecuteBatch(context.Background(), calls)

	require.Len(t, results, 2)
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestRunnerExecuteBatchPartialFailure(t *testing.T) {
	ok := &echoTool{name: "ok"}
	bad := &echoTool{name: "bad", fail: errors.New("boom")}
	r, err := NewRunner([]tools.Tool{ok, bad}, Options{})
	require.NoError(t, err)
	defer r.Close()

	calls := []task.ToolCall{
		{ID: "call_1", Name: "ok", Args: `{"input":"x"}`},
		{ID: "call_2", Name: "bad", Args: `{"input":"y"}`},
	}
	results, errs := r.ExecuteBatch(context.Background(), calls)

	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.Equal(t, task.StatusCompleted, results[0].Status)
	assert.Equal(t, task.StatusFailed, results[1].Status)
}

func TestRunnerDefinitions(t *testing.T) {
	st := &schemaTool{}
	st.name = "with_schema"
	r, err := NewRunner([]tools.Tool{&echoTool{name: "plain"}, st}, Options{})
	require.NoError(t, err)
	defer r.Close()

	defs := r.Definitions()
	require.Len(t, defs, 2)

	byName := map[string]map[string]any{}
	for _, d := range defs {
		assert.Equal(t, "function", d.Type)
		byName[d.Function.Name] = d.Function.Parameters.(map[string]any)
	}

	// Plain tools get the default single-input shape.
	props := byName["plain"]["properties"].(map[string]any)
	_, hasInput := props["input"]
	assert.True(t, hasInput)

	// Schema tools advertise their own parameters.
	props = byName["with_schema"]["properties"].(map[string]any)
	_, hasAddress := props["address"]
	assert.True(t, hasAddress)
}

func TestRunnerMaxRisk(t *testing.T) {
	r, err := NewRunner([]tools.Tool{
		&echoTool{name: "safe"},
		riskyTool{},
	}, Options{})
	require.NoError(t, err)
	defer r.Close()

	// Unknown and unscored tools contribute zero.
	sig := r.MaxRisk([]task.ToolCall{{Name: "safe"}, {Name: "missing"}})
	assert.Zero(t, sig)

	sig = r.MaxRisk([]task.ToolCall{{Name: "safe"}, {Name: "risky"}})
	assert.Equal(t, 0.9, sig)
}

type riskyTool struct{}

func (riskyTool) Name() string        { return "risky" }
func (riskyTool) Description() string { return "does something irreversible" }
func (riskyTool) Call(ctx context.Context, input string) (string, error) {
	return strings.ToUpper(input), nil
}
func (riskyTool) RiskSignal() float64 { return 0.9 }
