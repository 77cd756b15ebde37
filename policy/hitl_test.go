package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForHalfOpenIntervals(t *testing.T) {
	// Intervals are lower-inclusive: the floor value belongs to the
	// higher tier.
	assert.Equal(t, TierNone, TierFor(0))
	assert.Equal(t, TierNone, TierFor(0.329))
	assert.Equal(t, TierConfirm, TierFor(0.33))
	assert.Equal(t, TierConfirm, TierFor(0.5))
	assert.Equal(t, TierConfirm, TierFor(0.659))
	assert.Equal(t, TierAlways, TierFor(0.66))
	assert.Equal(t, TierAlways, TierFor(1))
}

func TestRequiresHuman(t *testing.T) {
	// TierNone never escalates, whatever the signal says.
	assert.False(t, RequiresHuman(0, 1.0))

	// TierConfirm escalates when the signal reaches the threshold.
	assert.False(t, RequiresHuman(0.5, 0.4))
	assert.True(t, RequiresHuman(0.5, 0.5))
	assert.True(t, RequiresHuman(0.5, 0.9))

	// TierAlways escalates every step.
	assert.True(t, RequiresHuman(0.9, 0))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "none", TierNone.String())
	assert.Equal(t, "confirm", TierConfirm.String())
	assert.Equal(t, "always", TierAlways.String())
	assert.Equal(t, "unknown", HITLTier(42).String())
}
