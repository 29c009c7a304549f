// Package kinematics implements the per-row constant-velocity predictor
// with exponentially smoothed velocity.
package kinematics

import (
	"math"

	"github.com/okian/trackcast/internal/domain/model"
)

// Default model constants.
const (
	DefaultAlpha     = 0.7
	DefaultDTFloor   = 1.0
	DefaultDefaultDT = 1.0
)

// DTSource names where a row's delta-time came from.
type DTSource string

// Delta-time sources in precedence order.
const (
	DTExplicit DTSource = "explicit"
	DTFrames   DTSource = "frames"
	DTDefault  DTSource = "default"
)

// Transition names the state transition a row caused.
type Transition string

// Transitions of the per-entity state machine.
const (
	Initialized Transition = "initialized"
	Blended     Transition = "blended"
	Carried     Transition = "carried"
)

// Result describes one Step.
type Result struct {
	Point      model.Point
	State      model.State
	DT         float64
	DTSource   DTSource
	Transition Transition
	// Extrapolated is set when the row had no position and the stored
	// position was advanced by the prediction.
	Extrapolated bool
}

// Predictor holds the tunable constants. It is stateless; state lives in
// the caller's store.
type Predictor struct {
	alpha     float64
	dtFloor   float64
	defaultDT float64
}

// New creates a predictor with configuration options.
func New(opts ...Option) *Predictor {
	p := &Predictor{
		alpha:     DefaultAlpha,
		dtFloor:   DefaultDTFloor,
		defaultDT: DefaultDefaultDT,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Alpha returns the smoothing factor.
func (p *Predictor) Alpha() float64 { return p.alpha }

// DTFloor returns the minimum delta-time.
func (p *Predictor) DTFloor() float64 { return p.dtFloor }

// EstimateDT returns the elapsed time for obs. Explicit dt wins, then the
// frame difference, then the default. Explicit and frame values are floored.
func (p *Predictor) EstimateDT(obs model.Observation) (float64, DTSource) {
	if finite(obs.DT).Ok {
		return math.Max(p.dtFloor, obs.DT.Val), DTExplicit
	}
	if obs.Frame.Ok && obs.PrevFrame.Ok {
		return math.Max(p.dtFloor, frameGap(obs.Frame.Val, obs.PrevFrame.Val)), DTFrames
	}
	return p.defaultDT, DTDefault
}

// Step advances one entity by one row. prior is ignored when seen is false.
// Non-finite coordinates are treated as missing.
func (p *Predictor) Step(prior model.State, seen bool, obs model.Observation) Result {
	obs.X, obs.Y = finite(obs.X), finite(obs.Y)
	dt, src := p.EstimateDT(obs)
	if !seen {
		return Result{
			Point: model.Point{X: obs.X.Or(0), Y: obs.Y.Or(0)},
			State: model.State{
				X:     obs.X,
				Y:     obs.Y,
				Frame: obs.Frame,
			},
			DT:         dt,
			DTSource:   src,
			Transition: Initialized,
		}
	}

	vx, vy := prior.VX, prior.VY
	tr := Carried
	if obs.HasPosition() && prior.HasPosition() {
		// Frame gap for the velocity blend is independent of dt above.
		denom := math.Max(p.dtFloor, frameGap(obs.Frame.Or(0), prior.Frame.Or(0)))
		vxObs := (obs.X.Val - prior.X.Val) / denom
		vyObs := (obs.Y.Val - prior.Y.Val) / denom
		vx = p.alpha*vxObs + (1-p.alpha)*vx
		vy = p.alpha*vyObs + (1-p.alpha)*vy
		tr = Blended
	}

	baseX := base(obs.X, prior.X)
	baseY := base(obs.Y, prior.Y)
	pt := model.Point{X: baseX + vx*dt, Y: baseY + vy*dt}

	next := model.State{
		X:     advance(obs.X, pt.X),
		Y:     advance(obs.Y, pt.Y),
		VX:    vx,
		VY:    vy,
		Frame: prior.Frame,
	}
	if obs.Frame.Ok {
		next.Frame = obs.Frame
	}
	return Result{
		Point:        pt,
		State:        next,
		DT:           dt,
		DTSource:     src,
		Transition:   tr,
		Extrapolated: !obs.X.Ok || !obs.Y.Ok,
	}
}

// frameGap subtracts in float64 so extreme frame ids cannot wrap.
func frameGap(cur, prev int64) float64 {
	return float64(cur) - float64(prev)
}

func finite(v model.Opt[float64]) model.Opt[float64] {
	if !v.Ok || math.IsNaN(v.Val) || math.IsInf(v.Val, 0) {
		return model.Opt[float64]{}
	}
	return v
}

func base(now, prev model.Opt[float64]) float64 {
	if now.Ok {
		return now.Val
	}
	return prev.Or(0)
}

func advance(now model.Opt[float64], predicted float64) model.Opt[float64] {
	if now.Ok {
		return now
	}
	return model.Some(predicted)
}
