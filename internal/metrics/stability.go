package metrics

import (
	"math"

	"github.com/san-kum/tiltfluid/internal/sim"
)

// Containment is the fraction of frames in which every particle stayed
// inside the container walls. Anything below 1 means bodies tunnelled.
type Containment struct {
	name       string
	halfW      float64
	halfH      float64
	violations int
	samples    int
}

func NewContainment(width, height float64) *Containment {
	return &Containment{name: "containment", halfW: width / 2, halfH: height / 2}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(f *sim.Frame) {
	c.samples++
	for _, p := range f.Positions {
		if math.Abs(p.X) > c.halfW || math.Abs(p.Y) > c.halfH {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

// MaxSpeed is the fastest particle seen so far.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(f *sim.Frame) { m.max = math.Max(m.max, Fastest(f.Velocities)) }

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

// Spread is the mean distance of particles from their centroid in the
// latest frame. A pooled fluid has a small spread.
type Spread struct {
	value float64
}

func NewSpread() *Spread { return &Spread{} }

func (s *Spread) Name() string { return "spread" }

func (s *Spread) Observe(f *sim.Frame) {
	if len(f.Positions) == 0 {
		s.value = 0
		return
	}
	c := Centroid(f.Positions)
	sum := 0.0
	for _, p := range f.Positions {
		sum += math.Hypot(p.X-c.X, p.Y-c.Y)
	}
	s.value = sum / float64(len(f.Positions))
}

func (s *Spread) Value() float64 { return s.value }

func (s *Spread) Reset() { s.value = 0 }

// TiltEffort is the mean gravity magnitude fed into the engine.
type TiltEffort struct {
	sum     float64
	samples int
}

func NewTiltEffort() *TiltEffort { return &TiltEffort{} }

func (t *TiltEffort) Name() string { return "tilt_effort" }

func (t *TiltEffort) Observe(f *sim.Frame) {
	t.sum += math.Hypot(f.Gravity.X, f.Gravity.Y)
	t.samples++
}

func (t *TiltEffort) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sum / float64(t.samples)
}

func (t *TiltEffort) Reset() { t.sum, t.samples = 0, 0 }

// Standard is the set every recorded run carries.
func Standard(mass, width, height float64) []Metric {
	return []Metric{
		NewKineticEnergy(mass),
		NewMaxSpeed(),
		NewSpread(),
		NewContainment(width, height),
		NewTiltEffort(),
		NewEnergySettling(mass, 120),
	}
}
