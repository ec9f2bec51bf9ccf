package sensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestFusion_ZeroGravityWithoutMotion(t *testing.T) {
	f := NewFusion(2, DefaultKalmanParams())
	assert.Equal(t, r2.Vec{}, f.Gravity())

	f.OnOrientation(Orientation{Alpha: 10, Beta: 20, Gamma: 30})
	assert.Equal(t, r2.Vec{}, f.Gravity(), "orientation must not move gravity")
	assert.Equal(t, uint64(0), f.Samples())
}

func TestFusion_FirstMotionSetsScaledGravity(t *testing.T) {
	f := NewFusion(0.5, DefaultKalmanParams())
	f.OnMotion(Motion{AX: 2, AY: 4, AZ: 9.8})

	assert.Equal(t, r2.Vec{X: 1, Y: -2}, f.Gravity())
	assert.Equal(t, 9.8, f.Depth())
	assert.Equal(t, uint64(1), f.Samples())
}

func TestFusion_MissingAxesDefaultToZero(t *testing.T) {
	f := NewFusion(1, DefaultKalmanParams())
	f.OnMotion(Motion{AX: 3})

	g := f.Gravity()
	assert.Equal(t, 3.0, g.X)
	assert.Equal(t, 0.0, math.Abs(g.Y))
}

func TestFusion_GravityFollowsFilteredInput(t *testing.T) {
	f := NewFusion(1, DefaultKalmanParams())
	f.OnMotion(Motion{AX: 0, AY: 0})
	f.OnMotion(Motion{AX: 10, AY: 10})

	g := f.Gravity()
	assert.InDelta(t, 9.9751, g.X, 1e-3)
	assert.InDelta(t, -9.9751, g.Y, 1e-3)
}

func TestFusion_GravityPersistsBetweenEvents(t *testing.T) {
	f := NewFusion(1, DefaultKalmanParams())
	f.OnMotion(Motion{AX: 1, AY: 1})
	before := f.Gravity()

	f.OnOrientation(Orientation{Beta: 45})
	assert.Equal(t, before, f.Gravity())
}

func TestFusion_Tilt(t *testing.T) {
	f := NewFusion(1, DefaultKalmanParams())
	f.OnOrientation(Orientation{Alpha: 90, Beta: 180, Gamma: -45})

	tilt := f.Tilt()
	assert.InDelta(t, math.Pi, tilt.X, 1e-12)
	assert.InDelta(t, -math.Pi/4, tilt.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, tilt.Z, 1e-12)
	assert.Equal(t, Orientation{Alpha: 90, Beta: 180, Gamma: -45}, f.Orientation())
}
