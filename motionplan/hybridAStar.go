package motionplan

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
)

const (
	// defaultWheelbase is the axle distance driving the arc primitives.
	defaultWheelbase = 2.7

	// headingWeight and steeringWeight bias the frontier ordering toward
	// nodes already facing the goal and toward gentle steering. The result
	// is weighted best-first search, not admissible A*.
	headingWeight  = 0.1
	steeringWeight = 10.
)

// Motion primitives: the steering fan is paired with two chord lengths so
// the search can take both long and short arcs.
var (
	primitiveSteerings = []float64{
		geometry.DegToRad(-40), geometry.DegToRad(-20), geometry.DegToRad(-10), 0,
		geometry.DegToRad(10), geometry.DegToRad(20), geometry.DegToRad(40),
	}
	primitiveChords = []float64{2, 1}
)

// HybridAStarPlanner searches a discretized grid while expanding continuous
// kinematic arcs, so every pose along the returned route is reachable by a
// car-like vehicle. Cells are closed on first expansion and never reopened;
// paired with the weighted heuristic this trades optimality for speed.
type HybridAStarPlanner struct {
	m      gridmap.Map
	logger golog.Logger
}

// NewHybridAStarPlanner creates a HybridAStarPlanner object over the given map.
func NewHybridAStarPlanner(m gridmap.Map, logger golog.Logger) (*HybridAStarPlanner, error) {
	if m == nil {
		return nil, errors.New("cannot create planner: no map provided")
	}
	return &HybridAStarPlanner{m: m, logger: logger}, nil
}

// Plan searches for a kinematically drivable route from start to goal. A nil
// planOpts uses defaults.
func (mp *HybridAStarPlanner) Plan(
	ctx context.Context,
	start, goal geometry.Pose,
	planOpts *PlannerOptions,
) (*Route, error) {
	solutionChan := make(chan *gridPlanReturn, 1)
	utils.PanicCapturingGo(func() {
		mp.planRunner(ctx, start, goal, planOpts, solutionChan)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case plan := <-solutionChan:
		return plan.route, plan.err
	}
}

// FindPath lets the grid planner stand in as a seed planner for the tree
// planner, discarding headings from the route.
func (mp *HybridAStarPlanner) FindPath(ctx context.Context, start, goal geometry.Pose) ([]r2.Point, error) {
	route, err := mp.Plan(ctx, start, goal, nil)
	if err != nil {
		return nil, err
	}
	path := make([]r2.Point, 0, len(route.Poses))
	for _, pose := range route.Poses {
		path = append(path, pose.Point())
	}
	return path, nil
}

// planRunner will execute the plan. When Plan() is called, it will call planRunner in a separate thread and wait for the results.
func (mp *HybridAStarPlanner) planRunner(
	ctx context.Context,
	start, goal geometry.Pose,
	planOpts *PlannerOptions,
	solutionChan chan *gridPlanReturn,
) {
	defer close(solutionChan)

	if planOpts == nil {
		planOpts = NewBasicPlannerOptions()
	}

	root := &gridNode{
		pose:   start,
		cell:   gridmap.CellAt(start.X, start.Y),
		h:      mp.heuristic(start, goal, 0),
		parent: -1,
	}
	rootKey := mp.m.GridIndex(root.cell.X, root.cell.Y)
	open := map[int]*gridNode{rootKey: root}
	closed := map[int]*gridNode{}

	expansions := 0
	for len(open) > 0 {
		select {
		case <-ctx.Done():
			solutionChan <- &gridPlanReturn{err: ctx.Err()}
			return
		default:
		}

		key, current := popBest(open)
		closed[key] = current

		if current.pose.DistanceTo(goal) <= planOpts.GoalTolerance {
			mp.logger.Debugf("route found after %d expansions, length %.3f", expansions, current.cost)
			solutionChan <- &gridPlanReturn{route: extractRoute(closed, key)}
			return
		}

		expansions++
		if planOpts.Progress != nil {
			planOpts.Progress(expansions, len(closed))
		}

		for _, steering := range primitiveSteerings {
			for _, chord := range primitiveChords {
				next := advance(current.pose, steering, chord)
				cell := gridmap.CellAt(next.X, next.Y)
				if !mp.m.IsNotCrossedObstacle(current.cell, cell) {
					continue
				}
				nextKey := mp.m.GridIndex(cell.X, cell.Y)
				if _, done := closed[nextKey]; done {
					continue
				}
				cost := current.cost + chord
				if existing, ok := open[nextKey]; ok && existing.cost <= cost {
					continue
				}
				open[nextKey] = &gridNode{
					pose:   next,
					cell:   cell,
					cost:   cost,
					h:      mp.heuristic(next, goal, steering),
					parent: key,
				}
			}
		}
	}
	solutionChan <- &gridPlanReturn{err: ErrFrontierExhausted}
}

// popBest removes and returns the open node minimizing cost plus heuristic,
// preferring the lowest grid key on ties so map iteration order never leaks
// into the result.
func popBest(open map[int]*gridNode) (int, *gridNode) {
	var bestKey int
	var best *gridNode
	for key, n := range open {
		if best == nil {
			bestKey, best = key, n
			continue
		}
		f, bestF := n.cost+n.h, best.cost+best.h
		if f < bestF || (f == bestF && key < bestKey) {
			bestKey, best = key, n
		}
	}
	delete(open, bestKey)
	return bestKey, best
}

// advance rolls the bicycle model along one arc primitive: the heading turns
// by the arc's curvature first and the chord is laid along the new heading.
func advance(pose geometry.Pose, steering, chord float64) geometry.Pose {
	theta := geometry.NormalizeAngle(pose.Theta + chord/defaultWheelbase*math.Tan(steering))
	return geometry.Pose{
		X:     pose.X + chord*math.Cos(theta),
		Y:     pose.Y + chord*math.Sin(theta),
		Theta: theta,
	}
}

func (mp *HybridAStarPlanner) heuristic(pose, goal geometry.Pose, steering float64) float64 {
	return pose.DistanceTo(goal) +
		headingWeight*math.Abs(geometry.NormalizeAngle(pose.Theta-goal.Theta)) +
		steeringWeight*math.Abs(steering)
}

func extractRoute(closed map[int]*gridNode, key int) *Route {
	length := closed[key].cost
	poses := []geometry.Pose{}
	for key >= 0 {
		n := closed[key]
		poses = append(poses, n.pose)
		key = n.parent
	}
	// reverse the slice
	for i, j := 0, len(poses)-1; i < j; i, j = i+1, j-1 {
		poses[i], poses[j] = poses[j], poses[i]
	}
	return &Route{Poses: poses, Length: length}
}
