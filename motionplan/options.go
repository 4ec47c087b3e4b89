package motionplan

const (
	// defaultMaxIter bounds the tree planner's growth iterations.
	defaultMaxIter = 300

	// defaultSearchRadius caps a single tree extension; half of it is the
	// sampling corridor margin around the seed path.
	defaultSearchRadius = 10.

	// defaultGoalTolerance is how close the grid search must get before
	// declaring arrival.
	defaultGoalTolerance = 1.
)

// ProgressFunc observes planner progress. It is called synchronously from
// the search loop, once per iteration, with the iteration count and the
// number of nodes held so far; a slow hook slows the planner.
type ProgressFunc func(iteration, nodes int)

// PlannerOptions tunes a single planning invocation. All values are pre-set
// to reasonable defaults, but can be tweaked if needed.
type PlannerOptions struct {
	// MaxIter caps tree growth iterations. A budget of zero fails planning
	// immediately rather than planning forever.
	MaxIter int `json:"max_iter"`

	// SearchRadius bounds one tree extension and scales both the corridor
	// margin and the rewire neighborhood.
	SearchRadius float64 `json:"search_radius"`

	// GoalTolerance is the grid search's arrival distance.
	GoalTolerance float64 `json:"goal_tolerance"`

	// Progress, when set, observes each search iteration.
	Progress ProgressFunc `json:"-"`
}

// NewBasicPlannerOptions specifies a set of default planner options.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		MaxIter:       defaultMaxIter,
		SearchRadius:  defaultSearchRadius,
		GoalTolerance: defaultGoalTolerance,
	}
}
