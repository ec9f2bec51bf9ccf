package metrics

import (
	"math"

	"github.com/san-kum/tiltfluid/internal/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KineticEnergy is the mean total kinetic energy over observed frames.
type KineticEnergy struct {
	name    string
	mass    float64
	last    float64
	total   float64
	samples int
}

func NewKineticEnergy(mass float64) *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy", mass: mass}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f *sim.Frame) {
	e.last = Kinetic(f.Velocities, e.mass)
	e.total += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last is the energy of the most recent frame.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.last, e.total, e.samples = 0, 0, 0
}

// EnergySettling reports how far the fluid is from rest: the standard
// deviation of kinetic energy over a trailing window of frames.
type EnergySettling struct {
	name   string
	mass   float64
	window int
	series []float64
}

func NewEnergySettling(mass float64, window int) *EnergySettling {
	if window < 2 {
		window = 2
	}
	return &EnergySettling{name: "energy_settling", mass: mass, window: window}
}

func (e *EnergySettling) Name() string { return e.name }

func (e *EnergySettling) Observe(f *sim.Frame) {
	e.series = append(e.series, Kinetic(f.Velocities, e.mass))
	if len(e.series) > e.window {
		e.series = e.series[len(e.series)-e.window:]
	}
}

func (e *EnergySettling) Value() float64 {
	if len(e.series) < 2 {
		return 0
	}
	_, sd := stat.MeanStdDev(e.series, nil)
	return sd
}

func (e *EnergySettling) Reset() { e.series = e.series[:0] }

// Summary describes a recorded series.
type Summary struct {
	Mean, StdDev, Min, Max float64
	N                      int
}

func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	s := Summary{N: len(xs), Min: floats.Min(xs), Max: floats.Max(xs)}
	if len(xs) == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s
}
