package physics

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Step runs one tick: push gravity, damp, accumulate surface tension and
// jitter, then a single engine integration. If the engine fails, gravity and
// velocities are put back so the tick leaves no trace.
func Step(s *State, cfg *config.Config, gravity r2.Vec, dt float64) error {
	eng := s.Engine
	prevGravity := eng.Gravity()
	eng.SetWorldGravity(gravity)

	s.saved = s.Velocities(s.saved)
	Damp(s, cfg.Viscosity)

	s.pos = s.Positions(s.pos)
	s.forces = SurfaceTension(s.pos, cfg.SurfaceTension, cfg.InteractionRadius, s.forces)
	if cfg.Jitter > 0 && s.rng != nil {
		Jitter(s.rng, cfg.Jitter, s.forces)
	}
	for i, p := range s.Particles {
		if f := s.forces[i]; f != (r2.Vec{}) {
			eng.ApplyForce(p.Body, s.pos[i], f)
		}
	}

	if err := eng.Step(dt*1000, cfg.Iterations); err != nil {
		eng.SetWorldGravity(prevGravity)
		for i, p := range s.Particles {
			eng.SetVelocity(p.Body, s.saved[i])
		}
		return fmt.Errorf("engine step: %w", err)
	}
	return nil
}

// Damp scales every velocity by (1 - viscosity). The decay is per tick,
// so its rate in time depends on the frame rate.
func Damp(s *State, viscosity float64) {
	k := 1 - viscosity
	for _, p := range s.Particles {
		s.Engine.SetVelocity(p.Body, r2.Scale(k, s.Engine.Velocity(p.Body)))
	}
}

// SurfaceTension returns the pairwise attraction on every particle. For a
// pair i<j at distance 0<d<radius the force strength*(1-d/radius) pulls
// them together; coincident pairs are skipped. out is reused when large
// enough.
func SurfaceTension(pos []r2.Vec, strength, radius float64, out []r2.Vec) []r2.Vec {
	out = resize(out, len(pos))
	for i := range out {
		out[i] = r2.Vec{}
	}
	if strength == 0 {
		return out
	}
	r2max := radius * radius
	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			sep := r2.Sub(pos[i], pos[j])
			d2 := r2.Norm2(sep)
			if d2 == 0 || d2 >= r2max {
				continue
			}
			d := math.Sqrt(d2)
			f := r2.Scale(strength*(1-d/radius)/d, sep)
			out[j] = r2.Add(out[j], f)
			out[i] = r2.Sub(out[i], f)
		}
	}
	return out
}

// Jitter adds a random force of magnitude at most max to every entry, so a
// settled swarm never freezes into an exact lattice.
func Jitter(rng *rand.Rand, max float64, forces []r2.Vec) {
	for i := range forces {
		sin, cos := dynamo.FastSinCos(rng.Float64() * 2 * math.Pi)
		m := rng.Float64() * max
		forces[i] = r2.Add(forces[i], r2.Vec{X: m * cos, Y: m * sin})
	}
}
