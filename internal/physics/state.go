package physics

import (
	"math"
	"math/rand"

	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/engine"
	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is the core's view of one engine body. Its index in
// State.Particles is its identity for the whole session.
type Particle struct {
	Body        engine.Handle
	Radius      float64
	Restitution float64
	Friction    float64
	Density     float64
	AirFriction float64
}

// State is the single mutable container threaded through every per-tick
// function. Only the engine and the force functions here move particles.
type State struct {
	Engine    engine.Engine
	Particles []Particle
	Walls     []engine.Handle

	rng *rand.Rand

	// scratch reused across ticks
	pos    []r2.Vec
	forces []r2.Vec
	saved  []r2.Vec
}

// NewState builds the container walls and lays the particles out in a
// centred block. rng drives the initial offsets and the per-tick jitter.
func NewState(cfg *config.Config, eng engine.Engine, rng *rand.Rand) *State {
	s := &State{
		Engine:    eng,
		Particles: make([]Particle, 0, cfg.ParticleCount),
		rng:       rng,
	}
	for _, seg := range engine.Box(cfg.Container.Width, cfg.Container.Height) {
		s.Walls = append(s.Walls, eng.CreateStaticSegment(seg))
	}

	def := cfg.ParticleDef()
	for _, p := range Layout(cfg, rng) {
		def.Position = p
		s.Particles = append(s.Particles, Particle{
			Body:        eng.CreateBody(def),
			Radius:      def.Radius,
			Restitution: def.Restitution,
			Friction:    def.Friction,
			Density:     def.Density,
			AirFriction: def.AirFriction,
		})
	}
	return s
}

// Layout places ParticleCount positions on a slightly perturbed square
// lattice centred in the container.
func Layout(cfg *config.Config, rng *rand.Rand) []r2.Vec {
	n := cfg.ParticleCount
	r := cfg.Particle.Radius
	spacing := 2 * r * 1.05

	cols := int((cfg.Container.Width - 2*r) / spacing)
	if cols < 1 {
		cols = 1
	}
	if cols > n {
		cols = n
	}
	rows := int(math.Ceil(float64(n) / float64(cols)))

	x0 := -float64(cols-1) * spacing / 2
	y0 := -float64(rows-1) * spacing / 2
	out := make([]r2.Vec, n)
	for i := range out {
		row, col := i/cols, i%cols
		out[i] = r2.Vec{
			X: x0 + float64(col)*spacing + (rng.Float64()-0.5)*0.02*r,
			Y: y0 + float64(row)*spacing + (rng.Float64()-0.5)*0.02*r,
		}
	}
	return out
}

// Positions copies every particle position into dst, growing it if needed.
func (s *State) Positions(dst []r2.Vec) []r2.Vec {
	dst = resize(dst, len(s.Particles))
	for i, p := range s.Particles {
		dst[i] = s.Engine.Position(p.Body)
	}
	return dst
}

func (s *State) Velocities(dst []r2.Vec) []r2.Vec {
	dst = resize(dst, len(s.Particles))
	for i, p := range s.Particles {
		dst[i] = s.Engine.Velocity(p.Body)
	}
	return dst
}

// Release drops every body and the particle storage together.
func (s *State) Release() {
	if s.Engine != nil {
		s.Engine.Clear()
	}
	s.Particles = nil
	s.Walls = nil
	s.pos, s.forces, s.saved = nil, nil, nil
}

func resize(v []r2.Vec, n int) []r2.Vec {
	if cap(v) < n {
		return make([]r2.Vec, n)
	}
	return v[:n]
}
