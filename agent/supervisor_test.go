package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/helixstack/agentgraph/graph"
	"github.com/helixstack/agentgraph/model"
	"github.com/helixstack/agentgraph/store"
	"github.com/helixstack/agentgraph/store/memory"
	"github.com/helixstack/agentgraph/task"
	"github.com/helixstack/agentgraph/tool"
)

const planTurn = `{"text":"handle the request","reasoning":"","plan":"","criticism":"","speak":""}`

// scriptedCaller replays model turns; the last turn repeats.
type scriptedCaller struct {
	mu    sync.Mutex
	turns []*model.Decision
	idx   int
}

func (c *scriptedCaller) Invoke(ctx context.Context, messages []llms.MessageContent, boundTools []llms.Tool) (*model.Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.turns[c.idx]
	if c.idx < len(c.turns)-1 {
		c.idx++
	}
	return d, nil
}

func (c *scriptedCaller) rescript(turns ...*model.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = turns
	c.idx = 0
}

// blockingCaller parks every invocation until its context is
// cancelled, simulating a model call in flight.
type blockingCaller struct{}

func (blockingCaller) Invoke(ctx context.Context, messages []llms.MessageContent, boundTools []llms.Tool) (*model.Decision, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// countingCaller answers every turn with a final text and tracks how
// many model invocations are in flight at once.
type countingCaller struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (c *countingCaller) Invoke(ctx context.Context, messages []llms.MessageContent, boundTools []llms.Tool) (*model.Decision, error) {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	c.mu.Unlock()

	select {
	case <-time.After(5 * time.Millisecond):
	case <-ctx.Done():
	}

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &model.Decision{Content: "All done."}, nil
}

func (c *countingCaller) peakInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []InterruptPayload
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, agentID string, payload InterruptPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payloads)
}

type riskyTool struct{}

func (riskyTool) Name() string        { return "transfer" }
func (riskyTool) Description() string { return "moves funds" }
func (riskyTool) Call(ctx context.Context, input string) (string, error) {
	return "sent", nil
}
func (riskyTool) RiskSignal() float64 { return 0.9 }

func newSupervisor(t *testing.T, caller model.Caller, notifier Notifier, cfg graph.Config, catalog []tools.Tool) (*Supervisor, *memory.MemoryCheckpointStore) {
	t.Helper()

	runner, err := tool.NewRunner(catalog, tool.Options{CallTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(runner.Close)

	checkpoints := memory.NewMemoryCheckpointStore()
	engine, err := graph.NewEngine(graph.EngineOptions{
		Caller:      caller,
		Runner:      runner,
		Checkpoints: checkpoints,
		Config:      cfg,
	})
	require.NoError(t, err)

	s, err := NewSupervisor(Options{Engine: engine, Notifier: notifier})
	require.NoError(t, err)
	return s, checkpoints
}

func drain(t *testing.T, ch <-chan graph.ChunkOutput) []graph.ChunkOutput {
	t.Helper()
	var chunks []graph.ChunkOutput
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return chunks
			}
			chunks = append(chunks, chunk)
		case <-timeout:
			t.Fatal("stream did not close in time")
		}
	}
}

func TestSupervisorExecuteCleansUpFinishedThread(t *testing.T) {
	caller := &scriptedCaller{turns: []*model.Decision{
		{Content: planTurn},
		{Content: "All done."},
	}}
	s, checkpoints := newSupervisor(t, caller, nil, graph.DefaultConfig(), nil)

	stream, err := s.Execute(context.Background(), Request{ThreadID: "t1", Input: "hello"})
	require.NoError(t, err)

	chunks := drain(t, stream)
	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.Equal(t, graph.EventEnd, last.Event)
	assert.Equal(t, true, last.Metadata["final"])

	// Non-interrupted completion: nothing left to resume.
	_, err = checkpoints.GetLatest(context.Background(), "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSupervisorInterruptNotifiesOnceAndResumes(t *testing.T) {
	caller := &scriptedCaller{turns: []*model.Decision{
		{Content: planTurn},
		{ToolCalls: []task.ToolCall{{ID: "call_1", Name: "transfer", Args: `{"input":"0.5 ETH"}`}}},
	}}
	notifier := &recordingNotifier{}
	cfg := graph.DefaultConfig()
	cfg.HITLThreshold = 0.5

	s, checkpoints := newSupervisor(t, caller, notifier, cfg, []tools.Tool{riskyTool{}})
	ctx := context.Background()

	// Phase 1: the run pauses and the human is alerted exactly once.
	stream, err := s.Execute(ctx, Request{UserID: "u1", AgentID: "a1", ThreadID: "t1", Input: "send funds"})
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.NotEmpty(t, chunks)
	assert.Equal(t, graph.EventInterrupt, chunks[len(chunks)-1].Event)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "t1", notifier.payloads[0].ThreadID)
	assert.Contains(t, notifier.payloads[0].Question, "transfer")
	assert.Equal(t, 0.9, notifier.payloads[0].Signal)

	// Interrupted: checkpoints are retained for the resume.
	cp, err := checkpoints.GetLatest(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, graph.IsInterrupt(cp))

	// Phase 2: the same thread resumes off the human's reply, then
	// completes and is cleaned up.
	caller.rescript(&model.Decision{Content: "Transfer approved and sent."})
	stream, err = s.Execute(ctx, Request{UserID: "u1", AgentID: "a1", ThreadID: "t1", Input: "approved"})
	require.NoError(t, err)
	chunks = drain(t, stream)
	last := chunks[len(chunks)-1]
	assert.Equal(t, graph.EventEnd, last.Event)
	require.NotNil(t, last.Message)
	assert.Contains(t, *last.Message, "approved")

	assert.Equal(t, 1, notifier.count())
	_, err = checkpoints.GetLatest(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSupervisorNilNotifierTerminatesInterrupt(t *testing.T) {
	caller := &scriptedCaller{turns: []*model.Decision{
		{Content: planTurn},
		{ToolCalls: []task.ToolCall{{ID: "call_1", Name: "transfer", Args: `{"input":"x"}`}}},
	}}
	cfg := graph.DefaultConfig()
	cfg.HITLThreshold = 0.5

	s, _ := newSupervisor(t, caller, nil, cfg, []tools.Tool{riskyTool{}})

	stream, err := s.Execute(context.Background(), Request{ThreadID: "t1", Input: "send funds"})
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.NotEmpty(t, chunks)

	last := chunks[len(chunks)-1]
	assert.Equal(t, graph.EventEnd, last.Event)
	errCtx, ok := last.Metadata["error"].(*task.ErrorContext)
	require.True(t, ok)
	assert.Equal(t, task.ErrInterruptUnhandled, errCtx.Kind)
}

func TestSupervisorRejectsEmptyRequest(t *testing.T) {
	caller := &scriptedCaller{turns: []*model.Decision{{Content: "x"}}}
	s, _ := newSupervisor(t, caller, nil, graph.DefaultConfig(), nil)

	_, err := s.Execute(context.Background(), Request{Input: "hi"})
	assert.Error(t, err)

	_, err = s.Execute(context.Background(), Request{ThreadID: "t1"})
	assert.Error(t, err)
}

func TestSupervisorSecondExecuteCancelsPrior(t *testing.T) {
	s, _ := newSupervisor(t, blockingCaller{}, nil, graph.DefaultConfig(), nil)
	ctx := context.Background()

	first, err := s.Execute(ctx, Request{ThreadID: "t1", Input: "one"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		drain(t, first)
		close(done)
	}()

	// The second call on the same thread preempts the first.
	second, err := s.Execute(ctx, Request{ThreadID: "t1", Input: "two"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first run was not cancelled")
	}

	assert.True(t, s.Cancel("t1"))
	drain(t, second)
	assert.False(t, s.Cancel("t1"))
}

func TestSupervisorConcurrentExecutesOneRunPerThread(t *testing.T) {
	caller := &countingCaller{}
	s, _ := newSupervisor(t, caller, nil, graph.DefaultConfig(), nil)

	// Hammer one thread from many goroutines: every Execute must retire
	// the run it displaces before starting its own.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stream, err := s.Execute(context.Background(), Request{ThreadID: "t1", Input: "hello"})
			if err != nil {
				return
			}
			for range stream {
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, caller.peakInFlight(), 1)
	assert.False(t, s.Cancel("t1"))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(graph.DefaultConfig()))

	cfg := graph.DefaultConfig()
	cfg.MaxGraphSteps = 0
	assert.Error(t, ValidateConfig(cfg))

	cfg = graph.DefaultConfig()
	cfg.HITLThreshold = 1.5
	assert.Error(t, ValidateConfig(cfg))

	cfg = graph.DefaultConfig()
	cfg.CallTimeout = 0
	assert.Error(t, ValidateConfig(cfg))
}
