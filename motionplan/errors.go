package motionplan

import "github.com/pkg/errors"

// Planning failures carry one of these sentinels so callers can distinguish
// the failure mode without string matching.
var (
	// ErrNoSeedPath means the seed planner could not produce a guide
	// polyline, so the tree planner has no corridor to sample.
	ErrNoSeedPath = errors.New("seed planner found no guide path")

	// ErrFrontierExhausted means the grid search ran out of reachable cells
	// before getting within tolerance of the goal.
	ErrFrontierExhausted = errors.New("grid search frontier exhausted before reaching goal")

	// ErrIterationBudget means the tree planner used its full iteration
	// budget without connecting to the goal.
	ErrIterationBudget = errors.New("iteration budget exhausted before reaching goal")

	// ErrSamplingExhausted means no acceptable sample appeared within the
	// attempt budget; the corridor is degenerate or fully blocked.
	ErrSamplingExhausted = errors.New("sampling budget exhausted without a valid sample")

	// ErrSmoothingStalled means the shortcut smoother could make no forward
	// progress on its input polyline.
	ErrSmoothingStalled = errors.New("path smoothing made no forward progress")
)
