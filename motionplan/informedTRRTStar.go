package motionplan

import (
	"context"
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
)

// goalBiasWeight penalizes parent candidates that drag the new node away
// from the goal, on top of the plain cost-to-come.
const goalBiasWeight = 1.5

// InformedTRRTStarPlanner grows a rewired sampling tree from start to goal.
// Sampling is confined to a corridor around a seed path, tree extensions are
// capped by the search radius, and parents are chosen by cost plus a
// goal-distance bias. The first connection to the goal wins; the planner
// does not keep iterating to optimize further.
type InformedTRRTStarPlanner struct {
	m           gridmap.Map
	seedPlanner SeedPlanner
	logger      golog.Logger
	randseed    *rand.Rand
}

// NewInformedTRRTStarPlanner creates an InformedTRRTStarPlanner object.
func NewInformedTRRTStarPlanner(m gridmap.Map, seedPlanner SeedPlanner, logger golog.Logger) (*InformedTRRTStarPlanner, error) {
	//nolint:gosec
	return NewInformedTRRTStarPlannerWithSeed(m, seedPlanner, rand.New(rand.NewSource(1)), logger)
}

// NewInformedTRRTStarPlannerWithSeed creates an InformedTRRTStarPlanner object
// with a user specified random seed.
func NewInformedTRRTStarPlannerWithSeed(
	m gridmap.Map,
	seedPlanner SeedPlanner,
	seed *rand.Rand,
	logger golog.Logger,
) (*InformedTRRTStarPlanner, error) {
	if m == nil {
		return nil, errors.New("cannot create planner: no map provided")
	}
	if seedPlanner == nil {
		return nil, errors.New("cannot create planner: no seed planner provided")
	}
	return &InformedTRRTStarPlanner{
		m:           m,
		seedPlanner: seedPlanner,
		logger:      logger,
		randseed:    seed,
	}, nil
}

// Plan grows the tree until the goal connects or the iteration budget runs
// out. A nil planOpts uses defaults.
func (mp *InformedTRRTStarPlanner) Plan(
	ctx context.Context,
	start, goal geometry.Pose,
	planOpts *PlannerOptions,
) (*TreeRoute, error) {
	solutionChan := make(chan *treePlanReturn, 1)
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

// planRunner will execute the plan. When Plan() is called, it will call planRunner in a separate thread and wait for the results.
func (mp *InformedTRRTStarPlanner) planRunner(
	ctx context.Context,
	start, goal geometry.Pose,
	planOpts *PlannerOptions,
	solutionChan chan *treePlanReturn,
) {
	defer close(solutionChan)

	if planOpts == nil {
		planOpts = NewBasicPlannerOptions()
	}

	seedPath, err := mp.seedPlanner.FindPath(ctx, start, goal)
	if err != nil {
		mp.logger.Debugw("seed planning failed", "error", err)
		solutionChan <- &treePlanReturn{err: ErrNoSeedPath}
		return
	}

	startPt, goalPt := start.Point(), goal.Point()
	sampler := newInformedSampler(
		mp.m, startPt, goalPt,
		newCorridor(seedPath, planOpts.SearchRadius/2),
		mp.randseed,
	)

	arena := []*treeNode{{pos: startPt, parent: -1}}
	cBest := math.Inf(1)
	cMin := goalPt.Sub(startPt).Norm()

	logIteration := planOpts.MaxIter / 10
	if logIteration == 0 {
		logIteration = 1
	}

	for i := 1; i <= planOpts.MaxIter; i++ {
		select {
		case <-ctx.Done():
			solutionChan <- &treePlanReturn{err: ctx.Err()}
			return
		default:
		}

		target, err := sampler.sample(cBest)
		if err != nil {
			solutionChan <- &treePlanReturn{err: err}
			return
		}

		var grown int
		arena, grown = mp.extend(arena, target, goalPt, cBest, cMin, planOpts.SearchRadius)

		if planOpts.Progress != nil {
			planOpts.Progress(i, len(arena))
		}

		if grown >= 0 {
			// try to finish: connect the fresh node straight to the goal
			newNode := arena[grown]
			goalDist := newNode.pos.Sub(goalPt).Norm()
			if goalDist <= planOpts.SearchRadius && segmentClear(mp.m, newNode.pos, goalPt) {
				cBest = newNode.cost + goalDist
				goalIdx := len(arena)
				arena = append(arena, &treeNode{pos: goalPt, cost: cBest, parent: grown})
				arena[grown].children = append(arena[grown].children, goalIdx)
				mp.logger.Debugf("goal connected after %d iterations, %d nodes, cost %.3f", i, len(arena), cBest)
				solutionChan <- mp.finishPlan(arena, goalIdx, seedPath)
				return
			}
		}

		if i%logIteration == 0 {
			mp.logger.Debugf("tree growth progress: %d%%\tnodes: %d", 100*i/planOpts.MaxIter, len(arena))
		}
	}
	solutionChan <- &treePlanReturn{err: ErrIterationBudget}
}

// extend tries to grow the tree toward the target, returning the updated
// arena and the new node's index, or -1 when the extension collides.
func (mp *InformedTRRTStarPlanner) extend(
	arena []*treeNode,
	target, goalPt r2.Point,
	cBest, cMin, searchRadius float64,
) ([]*treeNode, int) {
	nearest := nearestNode(arena, target)
	newPos := steer(arena[nearest].pos, target, searchRadius)
	if !segmentClear(mp.m, arena[nearest].pos, newPos) {
		return arena, -1
	}

	// The rewire neighborhood scales with how much better the current best
	// route is than the straight line; with no route yet it spans the tree.
	radius := math.Inf(1)
	if !math.IsInf(cBest, 1) && cMin > 0 {
		radius = searchRadius * (cBest / cMin)
	}
	neighbors := nearIndices(arena, newPos, radius)

	// pick the parent minimizing cost-to-come plus the goal bias
	minIndex := -1
	minCost := math.Inf(1)
	for _, idx := range neighbors {
		n := arena[idx]
		cost := n.cost + n.pos.Sub(newPos).Norm() + goalBiasWeight*newPos.Sub(goalPt).Norm()
		if cost < minCost && segmentClear(mp.m, n.pos, newPos) {
			minIndex = idx
			minCost = cost
		}
	}
	if minIndex < 0 {
		return arena, -1
	}

	// re-steer from the chosen parent so the new edge also respects the
	// extension cap
	newPos = steer(arena[minIndex].pos, newPos, searchRadius)
	if !segmentClear(mp.m, arena[minIndex].pos, newPos) {
		return arena, -1
	}

	newIdx := len(arena)
	newNode := &treeNode{
		pos:    newPos,
		cost:   arena[minIndex].cost + arena[minIndex].pos.Sub(newPos).Norm(),
		parent: minIndex,
	}
	arena = append(arena, newNode)
	arena[minIndex].children = append(arena[minIndex].children, newIdx)

	// rewire: any neighbor now cheaper through the new node moves under it
	for _, idx := range neighbors {
		if idx == minIndex {
			continue
		}
		n := arena[idx]
		cost := newNode.cost + newPos.Sub(n.pos).Norm()
		if cost < n.cost && segmentClear(mp.m, newPos, n.pos) {
			reparent(arena, idx, newIdx, cost)
		}
	}
	return arena, newIdx
}

func (mp *InformedTRRTStarPlanner) finishPlan(arena []*treeNode, goalIdx int, seedPath []r2.Point) *treePlanReturn {
	path := []r2.Point{}
	for idx := goalIdx; idx >= 0; idx = arena[idx].parent {
		path = append(path, arena[idx].pos)
	}
	// reverse the slice
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	smoothed, err := smoothPath(mp.m, path)
	if err != nil {
		return &treePlanReturn{err: err}
	}
	return &treePlanReturn{route: &TreeRoute{
		Path:     smoothed,
		SeedPath: seedPath,
		Length:   PathLength(smoothed),
	}}
}
