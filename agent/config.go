package agent

import (
	"github.com/pkg/errors"

	"github.com/helixstack/agentgraph/graph"
)

// ValidateConfig checks a graph configuration before it reaches the
// engine. The engine itself treats its config as read-only and trusts
// it; validation belongs to the layer that assembled it.
func ValidateConfig(cfg graph.Config) error {
	if cfg.MaxGraphSteps <= 0 {
		return errors.Errorf("max graph steps must be positive, got %d", cfg.MaxGraphSteps)
	}
	if cfg.MaxIterations <= 0 {
		return errors.Errorf("max iterations must be positive, got %d", cfg.MaxIterations)
	}
	if cfg.MaxRetries < 0 {
		return errors.Errorf("max retries must be non-negative, got %d", cfg.MaxRetries)
	}
	if cfg.CallTimeout <= 0 {
		return errors.New("per-call timeout must be positive")
	}
	if cfg.HITLThreshold < 0 || cfg.HITLThreshold > 1 {
		return errors.Errorf("hitl threshold must be in [0,1], got %g", cfg.HITLThreshold)
	}
	if cfg.BufferSize <= 0 {
		return errors.Errorf("stream buffer size must be positive, got %d", cfg.BufferSize)
	}
	return nil
}
