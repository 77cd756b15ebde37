package policy

// HITLTier selects how aggressively the graph routes execution to a
// human before proceeding.
type HITLTier int

const (
	// TierNone never escalates.
	TierNone HITLTier = iota
	// TierConfirm escalates when a step's risk signal reaches the
	// configured threshold.
	TierConfirm
	// TierAlways escalates every step.
	TierAlways
)

// Tier boundaries. Intervals are half-open and lower-inclusive:
// [0, tierConfirmFloor) selects TierNone, [tierConfirmFloor,
// tierAlwaysFloor) selects TierConfirm, [tierAlwaysFloor, 1] selects
// TierAlways.
const (
	tierConfirmFloor = 0.33
	tierAlwaysFloor  = 0.66
)

// TierFor maps the configured threshold (0-1) onto a constraint tier.
func TierFor(threshold float64) HITLTier {
	switch {
	case threshold < tierConfirmFloor:
		return TierNone
	case threshold < tierAlwaysFloor:
		return TierConfirm
	default:
		return TierAlways
	}
}

// RequiresHuman reports whether the current step must pause for human
// review, given the configured threshold and the step's risk signal.
func RequiresHuman(threshold, signal float64) bool {
	switch TierFor(threshold) {
	case TierAlways:
		return true
	case TierConfirm:
		return signal >= threshold
	default:
		return false
	}
}

func (t HITLTier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierConfirm:
		return "confirm"
	case TierAlways:
		return "always"
	default:
		return "unknown"
	}
}
