package mpc

import (
	"math"

	"github.com/parclab/driveplan/geometry"
)

// State is the tracked vehicle state: planar position, heading, and forward
// speed. Heading stays unwrapped through rollouts so heading error remains
// continuous across the ±π seam.
type State struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
	V     float64 `json:"v"`
}

// Control is one tick of actuation for the bicycle model.
type Control struct {
	Accel float64 `json:"accel"`
	Steer float64 `json:"steer"`
}

// step advances the bicycle model one tick. Position moves along the old
// heading at the old speed; heading and speed then integrate.
func step(s State, c Control, wheelbase, dt float64) State {
	return State{
		X:     s.X + s.V*math.Cos(s.Theta)*dt,
		Y:     s.Y + s.V*math.Sin(s.Theta)*dt,
		Theta: s.Theta + s.V/wheelbase*math.Tan(c.Steer)*dt,
		V:     s.V + c.Accel*dt,
	}
}

// ToReference converts planned poses into reference states. Reference speeds
// are zero so the tracking cost penalizes speed on equal footing with
// position and heading, which keeps the follower from overshooting.
func ToReference(poses []geometry.Pose) []State {
	ref := make([]State, 0, len(poses))
	for _, p := range poses {
		ref = append(ref, State{X: p.X, Y: p.Y, Theta: p.Theta})
	}
	return ref
}

// candidateControls enumerates the acceleration-by-steering control grid in
// fixed row-major order, so index comparisons break cost ties the same way
// on every run.
func candidateControls() []Control {
	accels := linspace(-maxAccel, maxAccel, controlGridDim)
	steers := linspace(-maxSteer, maxSteer, controlGridDim)
	controls := make([]Control, 0, len(accels)*len(steers))
	for _, a := range accels {
		for _, s := range steers {
			controls = append(controls, Control{Accel: a, Steer: s})
		}
	}
	return controls
}

func linspace(min, max float64, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = min + float64(i)*(max-min)/float64(n-1)
	}
	return vals
}
