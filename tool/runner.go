package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/helixstack/agentgraph/log"
	"github.com/helixstack/agentgraph/policy"
	"github.com/helixstack/agentgraph/task"
)

// Options configures the runner.
type Options struct {
	// CallTimeout bounds each individual tool call. Zero disables the
	// per-call deadline.
	CallTimeout time.Duration

	// PoolSize is the number of workers available for parallel
	// dispatch. Defaults to 8.
	PoolSize int

	// Logger defaults to the package-level logger.
	Logger log.Logger
}

// Runner invokes validated tool calls and collects results or errors.
// It never decides control flow; the graph owns that.
type Runner struct {
	tools   map[string]tools.Tool
	pool    *ants.Pool
	timeout time.Duration
	logger  log.Logger
}

// NewRunner builds a runner over the given tool catalog.
func NewRunner(catalog []tools.Tool, opts Options) (*Runner, error) {
	size := opts.PoolSize
	if size <= 0 {
		size = 8
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(v any) {
		logger.Error("panic in tool worker: %v", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	r := &Runner{
		tools:   make(map[string]tools.Tool, len(catalog)),
		pool:    pool,
		timeout: opts.CallTimeout,
		logger:  logger,
	}
	for _, t := range catalog {
		r.tools[t.Name()] = t
	}
	return r, nil
}

// Register adds or replaces a tool in the catalog.
func (r *Runner) Register(t tools.Tool) {
	r.tools[t.Name()] = t
}

// Lookup returns the named tool.
func (r *Runner) Lookup(name string) (tools.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Close releases the worker pool.
func (r *Runner) Close() {
	r.pool.Release()
}

// parametrized is implemented by tools that advertise a real JSON
// schema for their arguments.
type parametrized interface {
	Parameters() map[string]any
}

// Definitions returns the tool catalog in the shape the model binds.
// Tools without an explicit schema get the default single-input shape.
func (r *Runner) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		params := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{
					"type":        "string",
					"description": "The input for the tool",
				},
			},
			"required":             []string{"input"},
			"additionalProperties": false,
		}
		if p, ok := t.(parametrized); ok {
			params = p.Parameters()
		}
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return defs
}

// Execute runs one call and records its outcome on the returned copy.
// Tool failures are recorded as status=failed with the error text as
// result; the error is also returned so the caller can classify it.
func (r *Runner) Execute(ctx context.Context, call task.ToolCall) (task.ToolCall, error) {
	t, ok := r.tools[call.Name]
	if !ok {
		call.Status = task.StatusFailed
		call.Result = fmt.Sprintf("unknown tool: %s", call.Name)
		return call, fmt.Errorf("unknown tool: %s", call.Name)
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := t.Call(callCtx, call.Args)
	if err != nil {
		call.Status = task.StatusFailed
		call.Result = fmt.Sprintf("Error: %v", err)
		return call, err
	}

	call.Status = task.StatusCompleted
	call.Result = result
	return call, nil
}

// ExecuteBatch runs one batch of calls proposed in the same model turn.
// Independent batches are dispatched concurrently on the worker pool;
// dependent or ambiguous batches are serialized in proposal order. The
// batch is a barrier: all calls complete (or fail) before it returns.
func (r *Runner) ExecuteBatch(ctx context.Context, calls []task.ToolCall) ([]task.ToolCall, []error) {
	results := make([]task.ToolCall, len(calls))
	errs := make([]error, len(calls))

	if !policy.Independent(calls) {
		r.logger.Debug("serializing dependent tool batch of %d calls", len(calls))
		for i, call := range calls {
			results[i], errs[i] = r.Execute(ctx, call)
		}
		return results, errs
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		if submitErr := r.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = r.Execute(ctx, call)
		}); submitErr != nil {
			// Pool saturated or released: run inline.
			results[i], errs[i] = r.Execute(ctx, call)
			wg.Done()
		}
	}
	wg.Wait()
	return results, errs
}
