// Package metrics summarizes a session from its frames.
package metrics

import (
	"math"

	"github.com/san-kum/tiltfluid/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

type Metric interface {
	Name() string
	Observe(f *sim.Frame)
	Value() float64
	Reset()
}

// Observer feeds every frame to each metric in turn.
func Observer(ms ...Metric) sim.Observer {
	return sim.ObserverFunc(func(f *sim.Frame) {
		for _, m := range ms {
			m.Observe(f)
		}
	})
}

// Kinetic is the total kinetic energy of equal-mass particles.
func Kinetic(vel []r2.Vec, mass float64) float64 {
	sum := 0.0
	for _, v := range vel {
		sum += r2.Norm2(v)
	}
	return 0.5 * mass * sum
}

func Centroid(pos []r2.Vec) r2.Vec {
	if len(pos) == 0 {
		return r2.Vec{}
	}
	var c r2.Vec
	for _, p := range pos {
		c = r2.Add(c, p)
	}
	return r2.Scale(1/float64(len(pos)), c)
}

func Fastest(vel []r2.Vec) float64 {
	m := 0.0
	for _, v := range vel {
		m = math.Max(m, r2.Norm(v))
	}
	return m
}
