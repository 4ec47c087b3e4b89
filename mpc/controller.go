// Package mpc tracks planned routes with a receding-horizon controller. Each
// tick it searches a small acceleration-by-steering control grid, rolls the
// bicycle model out over a short horizon against a window of the reference
// trajectory, filters the rollouts through the obstacle map, and applies the
// cheapest surviving control.
package mpc

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
	"github.com/parclab/driveplan/utils"
)

const (
	// defaultHorizon is how many model steps each rollout simulates.
	defaultHorizon = 10

	// defaultDt is the model integration step in seconds.
	defaultDt = 0.1

	// defaultWheelbase is the controlled vehicle's axle distance.
	defaultWheelbase = 2.5

	// defaultWindow bounds how far the reference anchor may move per tick.
	defaultWindow = 10

	// defaultGoalTolerance is the arrival distance for trajectory following.
	defaultGoalTolerance = 2.

	// minFollowSteps floors the derived step cap for very short references.
	minFollowSteps = 100

	// controlGridDim² candidate controls are evaluated per tick.
	controlGridDim = 7
	maxAccel       = 1.
	maxSteer       = math.Pi / 6

	// fallbackAccel is applied when every candidate rollout collides:
	// pushing through keeps the vehicle live and lets later ticks recover.
	fallbackAccel = 0.5
)

// Options tunes the controller. All values are pre-set to reasonable
// defaults, but can be tweaked if needed.
type Options struct {
	Horizon       int     `json:"horizon"`
	Dt            float64 `json:"dt"`
	Wheelbase     float64 `json:"wheelbase"`
	Window        int     `json:"window"`
	GoalTolerance float64 `json:"goal_tolerance"`

	// MaxSteps caps the follower's control ticks; zero derives the cap from
	// the reference length.
	MaxSteps int `json:"max_steps"`
}

// NewBasicOptions specifies a set of default controller options.
func NewBasicOptions() *Options {
	return &Options{
		Horizon:       defaultHorizon,
		Dt:            defaultDt,
		Wheelbase:     defaultWheelbase,
		Window:        defaultWindow,
		GoalTolerance: defaultGoalTolerance,
	}
}

// Result is one completed trajectory-following run.
type Result struct {
	// Reached reports arrival, whether natural or by the final snap.
	Reached bool

	// Distance is the gap to the goal when the follower stopped, measured
	// before any snap.
	Distance float64

	Trajectory []State
	Steering   []float64
	Throttle   []float64
}

// Controller drives a vehicle along a reference trajectory on a single map.
type Controller struct {
	m      gridmap.Map
	nCPU   int
	logger golog.Logger
}

// NewController creates a Controller object. nCPU bounds the parallelism of
// each tick's rollout evaluation.
func NewController(m gridmap.Map, nCPU int, logger golog.Logger) (*Controller, error) {
	if m == nil {
		return nil, errors.New("cannot create controller: no map provided")
	}
	if nCPU < 1 {
		nCPU = 1
	}
	return &Controller{m: m, nCPU: nCPU, logger: logger}, nil
}

type rolloutEval struct {
	idx      int
	cost     float64
	states   []State
	feasible bool
}

// evaluate scores one candidate control: constant-control rollout states
// against the reference window, infeasible the moment a hop crosses an
// obstacle.
func (c *Controller) evaluate(s State, ctrl Control, ref []State, opts *Options) rolloutEval {
	steps := opts.Horizon
	if len(ref) < steps {
		steps = len(ref)
	}
	ev := rolloutEval{states: make([]State, 0, steps), feasible: true}
	cur := s
	for i := 0; i < steps; i++ {
		next := step(cur, ctrl, opts.Wheelbase, opts.Dt)
		if !c.m.IsNotCrossedObstacle(gridmap.CellAt(cur.X, cur.Y), gridmap.CellAt(next.X, next.Y)) {
			ev.feasible = false
			return ev
		}
		r := ref[i]
		dx, dy, dth, dv := next.X-r.X, next.Y-r.Y, next.Theta-r.Theta, next.V-r.V
		ev.cost += dx*dx + dy*dy + dth*dth + dv*dv
		ev.states = append(ev.states, next)
		cur = next
	}
	return ev
}

// rollout simulates one control for a number of ticks with no collision
// checks.
func (c *Controller) rollout(s State, ctrl Control, steps int, opts *Options) []State {
	states := make([]State, 0, steps)
	cur := s
	for i := 0; i < steps; i++ {
		cur = step(cur, ctrl, opts.Wheelbase, opts.Dt)
		states = append(states, cur)
	}
	return states
}

// OptimizeControl picks the cheapest collision-free control for the current
// state against a reference window. The candidate grid is evaluated in
// parallel groups and per-group minima are merged in index order, so the
// winner always matches a serial scan. When every candidate collides it
// returns the fallback control and its unchecked rollout with ok false;
// recovery is the caller's next tick, not an error.
func (c *Controller) OptimizeControl(ctx context.Context, s State, ref []State, opts *Options) (Control, []State, bool) {
	if opts == nil {
		opts = NewBasicOptions()
	}
	candidates := candidateControls()

	var groupBest []rolloutEval
	err := utils.GroupWorkParallel(ctx, len(candidates), c.nCPU,
		func(numGroups int) {
			groupBest = make([]rolloutEval, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			best := rolloutEval{idx: -1}
			return func(memberNum, workNum int) {
					ev := c.evaluate(s, candidates[workNum], ref, opts)
					ev.idx = workNum
					if ev.feasible && (best.idx < 0 || ev.cost < best.cost) {
						best = ev
					}
				}, func() {
					groupBest[groupNum] = best
				}
		})
	if err != nil {
		c.logger.Debugw("rollout evaluation interrupted", "error", err)
	}

	winner := rolloutEval{idx: -1}
	for _, g := range groupBest {
		if g.idx >= 0 && (winner.idx < 0 || g.cost < winner.cost) {
			winner = g
		}
	}
	if winner.idx < 0 {
		fallback := Control{Accel: fallbackAccel}
		return fallback, c.rollout(s, fallback, opts.Horizon, opts), false
	}
	return candidates[winner.idx], winner.states, true
}

// FollowTrajectory drives from start along the reference until the vehicle
// is within the goal tolerance. The start state is oriented toward the
// second reference point. If the step cap runs out first, the final state
// snaps onto the goal exactly and the run still reports reached; Distance
// preserves the pre-snap gap. A nil opts uses defaults.
func (c *Controller) FollowTrajectory(
	ctx context.Context,
	start geometry.Pose,
	ref []State,
	goal geometry.Pose,
	opts *Options,
) (*Result, error) {
	if opts == nil {
		opts = NewBasicOptions()
	}
	if len(ref) == 0 {
		return nil, errors.New("cannot follow an empty reference trajectory")
	}

	state := State{X: start.X, Y: start.Y, Theta: start.Theta}
	if len(ref) >= 2 {
		state.Theta = geometry.Heading(
			r2.Point{X: start.X, Y: start.Y},
			r2.Point{X: ref[1].X, Y: ref[1].Y},
		)
	}

	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 10*len(ref) + opts.Horizon
		if maxSteps < minFollowSteps {
			maxSteps = minFollowSteps
		}
	}

	result := &Result{Trajectory: []State{state}}
	anchor := 0
	for tick := 0; tick < maxSteps; tick++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		dist := math.Hypot(state.X-goal.X, state.Y-goal.Y)
		if dist <= opts.GoalTolerance {
			result.Reached = true
			result.Distance = dist
			c.logger.Debugf("goal reached after %d controls, %.3f away", len(result.Steering), dist)
			return result, nil
		}

		anchor = nearestRefIndex(ref, state, anchor, opts.Window)
		window := referenceWindow(ref, anchor, opts.Horizon)
		ctrl, _, feasible := c.OptimizeControl(ctx, state, window, opts)
		if !feasible {
			c.logger.Debugw("no collision-free rollout, applying fallback control", "tick", tick)
		}

		state = step(state, ctrl, opts.Wheelbase, opts.Dt)
		result.Trajectory = append(result.Trajectory, state)
		result.Steering = append(result.Steering, ctrl.Steer)
		result.Throttle = append(result.Throttle, ctrl.Accel)
	}

	// Step cap hit: close enough is exact enough. Snap the final state onto
	// the goal, pointing it from wherever the vehicle actually was.
	result.Distance = math.Hypot(state.X-goal.X, state.Y-goal.Y)
	theta := state.Theta
	if result.Distance > 0 {
		theta = geometry.Heading(
			r2.Point{X: state.X, Y: state.Y},
			r2.Point{X: goal.X, Y: goal.Y},
		)
	}
	result.Trajectory = append(result.Trajectory, State{X: goal.X, Y: goal.Y, Theta: theta, V: state.V})
	result.Reached = true
	c.logger.Debugf("step cap hit %.3f from goal, snapping onto it", result.Distance)
	return result, nil
}

// nearestRefIndex re-anchors the reference index to the nearest reference
// point within window indices of the previous anchor, so the follower can
// neither skip ahead past a loop nor rewind to the start.
func nearestRefIndex(ref []State, s State, prev, window int) int {
	lo, hi := prev-window, prev+window
	if lo < 0 {
		lo = 0
	}
	if hi > len(ref)-1 {
		hi = len(ref) - 1
	}
	best := lo
	bestDist := math.Hypot(s.X-ref[lo].X, s.Y-ref[lo].Y)
	for i := lo + 1; i <= hi; i++ {
		if d := math.Hypot(s.X-ref[i].X, s.Y-ref[i].Y); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// referenceWindow slices horizon reference states starting at the anchor,
// padding with the final state once the reference runs out.
func referenceWindow(ref []State, anchor, horizon int) []State {
	window := make([]State, 0, horizon)
	for i := 0; i < horizon; i++ {
		idx := anchor + i
		if idx > len(ref)-1 {
			idx = len(ref) - 1
		}
		window = append(window, ref[idx])
	}
	return window
}
