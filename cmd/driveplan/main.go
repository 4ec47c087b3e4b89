// Package main contains a command to plan a drive through a grid world and
// follow the planned route with the receding-horizon controller.
package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"runtime"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
	"github.com/parclab/driveplan/motionplan"
	"github.com/parclab/driveplan/mpc"
	"github.com/parclab/driveplan/thetastar"
)

var logger = golog.NewDevelopmentLogger("driveplan")

// progressEvery throttles per-iteration progress logging.
const progressEvery = 50

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	MapKind      string `flag:"map,default=parking,usage=world to drive in (parking|random)"`
	Seed         int    `flag:"seed,default=1,usage=seed for random worlds and tree sampling"`
	Scenario     string `flag:"scenario,usage=JSON scenario file (overrides the map choice)"`
	ShowProgress bool   `flag:"show-progress,usage=log planner progress"`
}

// Scenario is a start-to-goal run in a fixed grid world.
type Scenario struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Obstacles []gridmap.Rect `json:"obstacles"`
	Start     geometry.Pose  `json:"start"`
	Goal      geometry.Pose  `json:"goal"`
}

func (s *Scenario) validate() error {
	var err error
	if s.Width < 2 || s.Height < 2 {
		err = multierr.Combine(err, errors.Errorf("scenario grid %dx%d is too small", s.Width, s.Height))
	}
	for _, pt := range []struct {
		name string
		pose geometry.Pose
	}{
		{"start", s.Start},
		{"goal", s.Goal},
	} {
		cell := gridmap.CellAt(pt.pose.X, pt.pose.Y)
		if cell.X <= 0 || cell.X >= s.Width || cell.Y <= 0 || cell.Y >= s.Height {
			err = multierr.Combine(err, errors.Errorf("scenario %s %v is outside the drivable interior", pt.name, pt.pose))
		}
	}
	if gridmap.CellAt(s.Start.X, s.Start.Y) == gridmap.CellAt(s.Goal.X, s.Goal.Y) {
		err = multierr.Combine(err, errors.New("scenario start and goal share a cell"))
	}
	return err
}

type world struct {
	m     gridmap.Map
	start geometry.Pose
	goal  geometry.Pose
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	//nolint:gosec
	seed := rand.New(rand.NewSource(int64(argsParsed.Seed)))
	w, err := buildWorld(argsParsed, seed)
	if err != nil {
		return err
	}
	return planAndDrive(ctx, w, argsParsed.ShowProgress, seed, logger)
}

func buildWorld(args Arguments, seed *rand.Rand) (*world, error) {
	if args.Scenario != "" {
		data, err := os.ReadFile(args.Scenario)
		if err != nil {
			return nil, err
		}
		var scenario Scenario
		if err := json.Unmarshal(data, &scenario); err != nil {
			return nil, errors.Wrapf(err, "cannot parse scenario %s", args.Scenario)
		}
		if err := scenario.validate(); err != nil {
			return nil, err
		}
		m, err := gridmap.NewFixedGridMap(scenario.Width, scenario.Height, scenario.Obstacles)
		if err != nil {
			return nil, err
		}
		return &world{m: m, start: scenario.Start, goal: scenario.Goal}, nil
	}

	switch args.MapKind {
	case "parking":
		return &world{
			m:     gridmap.NewParkingLot(),
			start: geometry.NewPose(4, 4, 0),
			goal:  geometry.NewPose(40, 30, 0),
		}, nil
	case "random":
		m, err := gridmap.NewRandomGridMap(40, 30, 0, seed)
		if err != nil {
			return nil, err
		}
		start, err := m.RandomValidStart()
		if err != nil {
			return nil, err
		}
		goal, err := m.RandomValidGoal()
		if err != nil {
			return nil, err
		}
		return &world{m: m, start: start, goal: goal}, nil
	default:
		return nil, errors.Errorf("unknown map kind %q", args.MapKind)
	}
}

func planAndDrive(ctx context.Context, w *world, showProgress bool, seed *rand.Rand, logger golog.Logger) error {
	seedPlanner := thetastar.NewPlanner(w.m, logger)
	planner, err := motionplan.NewInformedTRRTStarPlannerWithSeed(w.m, seedPlanner, seed, logger)
	if err != nil {
		return err
	}

	planOpts := motionplan.NewBasicPlannerOptions()
	if showProgress {
		planOpts.Progress = func(iteration, nodes int) {
			if iteration%progressEvery == 0 {
				logger.Debugf("planner iteration %d, %d nodes in tree", iteration, nodes)
			}
		}
	}

	route, err := planner.Plan(ctx, w.start, w.goal, planOpts)
	if err != nil {
		return err
	}
	logger.Infow("planned route",
		"waypoints", len(route.Path),
		"length", route.Length,
		"seed_points", len(route.SeedPath))

	controller, err := mpc.NewController(w.m, runtime.NumCPU(), logger)
	if err != nil {
		return err
	}
	ref := mpc.ToReference(motionplan.AnnotateHeadings(route.Path))
	result, err := controller.FollowTrajectory(ctx, w.start, ref, w.goal, nil)
	if err != nil {
		return err
	}
	logger.Infow("drive complete",
		"reached", result.Reached,
		"controls", len(result.Steering),
		"final_distance", result.Distance)
	return nil
}
