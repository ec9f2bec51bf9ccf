package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/sensor"
	"github.com/san-kum/tiltfluid/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func frame(pos, vel []r2.Vec) *sim.Frame {
	return &sim.Frame{Positions: pos, Velocities: vel}
}

func TestKineticEnergy(t *testing.T) {
	m := NewKineticEnergy(2)

	m.Observe(frame(nil, []r2.Vec{{X: 1}, {Y: 2}}))
	assert.InDelta(t, 5.0, m.Last(), 1e-12)
	m.Observe(frame(nil, []r2.Vec{{X: 1}}))
	assert.InDelta(t, 3.0, m.Value(), 1e-12)

	m.Reset()
	assert.Zero(t, m.Value())
}

func TestEnergySettling(t *testing.T) {
	m := NewEnergySettling(1, 3)
	assert.Zero(t, m.Value())

	for _, speed := range []float64{10, 0, 0, 0} {
		m.Observe(frame(nil, []r2.Vec{{X: speed}}))
	}
	assert.Zero(t, m.Value(), "window should have dropped the spike")

	m.Observe(frame(nil, []r2.Vec{{X: 2}}))
	assert.Greater(t, m.Value(), 0.0)
}

func TestContainment(t *testing.T) {
	c := NewContainment(4, 2)
	assert.Equal(t, 1.0, c.Value())

	c.Observe(frame([]r2.Vec{{X: 1.9, Y: 0.9}}, nil))
	c.Observe(frame([]r2.Vec{{X: 0}, {X: 2.5}}, nil))

	assert.Equal(t, 0.5, c.Value())
}

func TestSpreadAndMaxSpeed(t *testing.T) {
	s := NewSpread()
	s.Observe(frame([]r2.Vec{{X: -1}, {X: 1}}, nil))
	assert.InDelta(t, 1.0, s.Value(), 1e-12)

	m := NewMaxSpeed()
	m.Observe(frame(nil, []r2.Vec{{X: 3, Y: 4}}))
	m.Observe(frame(nil, []r2.Vec{{X: 1}}))
	assert.Equal(t, 5.0, m.Value())
}

func TestTiltEffort(t *testing.T) {
	e := NewTiltEffort()
	e.Observe(&sim.Frame{Gravity: r2.Vec{X: 3, Y: 4}})
	e.Observe(&sim.Frame{})
	assert.Equal(t, 2.5, e.Value())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, s.N)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, math.Sqrt(5.0/3), s.StdDev, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{N: 1, Mean: 7, Min: 7, Max: 7}, Summarize([]float64{7}))
}

func TestStandardOnLiveLoop(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ParticleCount = 40
	cfg.Container = config.ContainerConfig{Width: 8, Height: 6}
	sched := sim.NewManualScheduler(time.Unix(0, 0))
	l := sim.New(cfg, sched)

	ms := Standard(1, cfg.Container.Width, cfg.Container.Height)
	l.AddObserver(Observer(ms...))
	require.NoError(t, l.Start())
	l.OnMotion(sensor.Motion{AY: 9.8})
	for i := 0; i < 120; i++ {
		sched.Advance(16 * time.Millisecond)
	}

	byName := map[string]float64{}
	for _, m := range ms {
		byName[m.Name()] = m.Value()
	}
	assert.Equal(t, 1.0, byName["containment"])
	assert.Greater(t, byName["kinetic_energy"], 0.0)
	assert.Greater(t, byName["max_speed"], 0.0)
	assert.InDelta(t, 9.8, byName["tilt_effort"], 1e-9)
}
