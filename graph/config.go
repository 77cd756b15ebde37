package graph

import "time"

// Config is the configuration surface consumed by the graph. It is
// validated by the caller before construction and read-only here.
type Config struct {
	// MaxGraphSteps bounds the number of transitions in one thread.
	// Reaching it forces a clean termination with a synthetic final
	// message, not an error.
	MaxGraphSteps int

	// MaxIterations bounds the number of steps recorded on one task.
	MaxIterations int

	// MaxRetries bounds how many retryable failures a run may consume.
	MaxRetries int

	// CallTimeout bounds each external call (model call, tool call).
	CallTimeout time.Duration

	// HITLThreshold (0-1) selects which human-in-the-loop constraint
	// tier applies. See policy.TierFor.
	HITLThreshold float64

	// BufferSize is the capacity of the output chunk channel.
	BufferSize int
}

// DefaultConfig returns the default graph configuration.
func DefaultConfig() Config {
	return Config{
		MaxGraphSteps: 50,
		MaxIterations: 20,
		MaxRetries:    3,
		CallTimeout:   60 * time.Second,
		HITLThreshold: 0,
		BufferSize:    64,
	}
}
