package physics

import (
	"github.com/san-kum/tiltfluid/internal/engine"
	"gonum.org/v1/gonum/spatial/r2"
)

// recordingEngine keeps bodies in place and logs every call.
type recordingEngine struct {
	gravity r2.Vec
	pos     []r2.Vec
	vel     []r2.Vec
	forces  []r2.Vec
	calls   []string
	steps   []float64
	iters   []engine.Iterations
	failure error
}

var _ engine.Engine = (*recordingEngine)(nil)

func (e *recordingEngine) CreateBody(def engine.BodyDef) engine.Handle {
	e.pos = append(e.pos, def.Position)
	e.vel = append(e.vel, def.Velocity)
	e.forces = append(e.forces, r2.Vec{})
	return engine.Handle(len(e.pos) - 1)
}

func (e *recordingEngine) CreateStaticSegment(engine.Segment) engine.Handle {
	return -1
}

func (e *recordingEngine) SetWorldGravity(g r2.Vec) {
	e.gravity = g
	e.calls = append(e.calls, "gravity")
}

func (e *recordingEngine) Gravity() r2.Vec { return e.gravity }

func (e *recordingEngine) SetVelocity(h engine.Handle, v r2.Vec) {
	e.vel[h] = v
	e.calls = append(e.calls, "velocity")
}

func (e *recordingEngine) ApplyForce(h engine.Handle, _ r2.Vec, f r2.Vec) {
	e.forces[h] = r2.Add(e.forces[h], f)
	e.calls = append(e.calls, "force")
}

func (e *recordingEngine) Position(h engine.Handle) r2.Vec { return e.pos[h] }

func (e *recordingEngine) Velocity(h engine.Handle) r2.Vec { return e.vel[h] }

func (e *recordingEngine) Step(dt float64, it engine.Iterations) error {
	e.calls = append(e.calls, "step")
	e.steps = append(e.steps, dt)
	e.iters = append(e.iters, it)
	for i := range e.forces {
		e.forces[i] = r2.Vec{}
	}
	return e.failure
}

func (e *recordingEngine) Bodies() int { return len(e.pos) }

func (e *recordingEngine) Clear() {
	e.pos, e.vel, e.forces = nil, nil, nil
}

func (e *recordingEngine) reset() { e.calls = nil }
