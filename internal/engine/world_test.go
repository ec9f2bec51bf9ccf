package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/tiltfluid/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// unit mass for radius 1
const unitDensity = 1 / math.Pi

var defaultIters = Iterations{Position: 6, Velocity: 4, Constraint: 2}

func TestWorld_FreeFall(t *testing.T) {
	w := NewWorld()
	h := w.CreateBody(BodyDef{Radius: 1, Density: unitDensity})
	w.SetWorldGravity(r2.Vec{Y: -10})

	for i := 0; i < 100; i++ {
		require.NoError(t, w.Step(10, defaultIters))
	}

	assert.InDelta(t, -10.0, w.Velocity(h).Y, 1e-9)
	assert.Equal(t, 0.0, w.Velocity(h).X)
	// semi-implicit Euler: g*dt^2*n(n+1)/2
	assert.InDelta(t, -10*0.01*0.01*100*101/2, w.Position(h).Y, 1e-9)
}

func TestWorld_ForceIsConsumedByOneStep(t *testing.T) {
	w := NewWorld()
	h := w.CreateBody(BodyDef{Radius: 1, Density: unitDensity})

	w.ApplyForce(h, w.Position(h), r2.Vec{X: 2})
	w.ApplyForce(h, w.Position(h), r2.Vec{X: 1})
	require.NoError(t, w.Step(100, defaultIters))
	assert.InDelta(t, 0.3, w.Velocity(h).X, 1e-12)

	require.NoError(t, w.Step(100, defaultIters))
	assert.InDelta(t, 0.3, w.Velocity(h).X, 1e-12, "force must not persist")
}

func TestWorld_AirFriction(t *testing.T) {
	w := NewWorld()
	h := w.CreateBody(BodyDef{Radius: 1, Density: unitDensity, AirFriction: 0.1, Velocity: r2.Vec{X: 1}})

	require.NoError(t, w.Step(16, defaultIters))
	assert.InDelta(t, 0.9, w.Velocity(h).X, 1e-12)
}

func TestWorld_InvalidStep(t *testing.T) {
	tests := []struct {
		name string
		dt   float64
	}{
		{"zero", 0},
		{"negative", -5},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			h := w.CreateBody(BodyDef{Radius: 1, Density: unitDensity, Position: r2.Vec{X: 1, Y: 2}})
			w.ApplyForce(h, r2.Vec{}, r2.Vec{X: 5})

			err := w.Step(tt.dt, defaultIters)
			assert.True(t, errors.Is(err, dynamo.ErrInvalidStep))
			assert.Equal(t, r2.Vec{X: 1, Y: 2}, w.Position(h))

			require.NoError(t, w.Step(10, defaultIters))
			assert.Equal(t, 0.0, w.Velocity(h).X, "pending force must be discarded")
		})
	}
}

func TestWorld_DivergedStepRollsBack(t *testing.T) {
	w := NewWorld()
	h := w.CreateBody(BodyDef{Radius: 1, Density: unitDensity, Position: r2.Vec{X: 3}, Velocity: r2.Vec{Y: 1}})

	w.ApplyForce(h, r2.Vec{}, r2.Vec{X: math.Inf(1)})
	err := w.Step(10, defaultIters)

	require.ErrorIs(t, err, dynamo.ErrEngineDiverged)
	assert.Equal(t, r2.Vec{X: 3}, w.Position(h))
	assert.Equal(t, r2.Vec{Y: 1}, w.Velocity(h))

	require.NoError(t, w.Step(10, defaultIters))
	assert.InDelta(t, 0.01, w.Position(h).Y, 1e-12)
}

func TestWorld_OverlapSeparates(t *testing.T) {
	w := NewWorld()
	a := w.CreateBody(BodyDef{Radius: 0.5, Density: 1, Position: r2.Vec{X: -0.1}})
	b := w.CreateBody(BodyDef{Radius: 0.5, Density: 1, Position: r2.Vec{X: 0.1}})

	before := r2.Norm(r2.Sub(w.Position(b), w.Position(a)))
	require.NoError(t, w.Step(16, defaultIters))
	after := r2.Norm(r2.Sub(w.Position(b), w.Position(a)))

	assert.Greater(t, after, before)
	assert.Less(t, w.Position(a).X, -0.1)
	assert.Greater(t, w.Position(b).X, 0.1)
}

func TestWorld_ElasticHeadOn(t *testing.T) {
	w := NewWorld()
	def := BodyDef{Radius: 0.3, Density: 1, Restitution: 1}

	def.Position, def.Velocity = r2.Vec{}, r2.Vec{X: 1}
	a := w.CreateBody(def)
	def.Position, def.Velocity = r2.Vec{X: 0.55}, r2.Vec{X: -1}
	b := w.CreateBody(def)

	require.NoError(t, w.Step(1, Iterations{Velocity: 1}))

	assert.InDelta(t, -1.0, w.Velocity(a).X, 1e-9)
	assert.InDelta(t, 1.0, w.Velocity(b).X, 1e-9)
}

func TestWorld_StaysInsideBox(t *testing.T) {
	w := NewWorld()
	for _, s := range Box(4, 4) {
		w.CreateStaticSegment(s)
	}
	var hs []Handle
	for i := 0; i < 12; i++ {
		hs = append(hs, w.CreateBody(BodyDef{
			Radius:      0.2,
			Density:     1,
			Restitution: 0.3,
			Friction:    0.1,
			Position:    r2.Vec{X: -1.5 + 0.25*float64(i), Y: 1},
			Velocity:    r2.Vec{X: 3 * float64(i%3-1)},
		}))
	}
	w.SetWorldGravity(r2.Vec{X: 2, Y: -9.8})

	for i := 0; i < 600; i++ {
		require.NoError(t, w.Step(16, defaultIters))
	}

	for _, h := range hs {
		p := w.Position(h)
		assert.LessOrEqual(t, math.Abs(p.X), 2.0, "x escaped: %v", p)
		assert.LessOrEqual(t, math.Abs(p.Y), 2.0, "y escaped: %v", p)
	}
	assert.Equal(t, 16, w.Bodies())
}

func TestWorld_WallContactStopsFall(t *testing.T) {
	w := NewWorld()
	w.CreateStaticSegment(Segment{A: r2.Vec{X: -5}, B: r2.Vec{X: 5}})
	h := w.CreateBody(BodyDef{Radius: 0.5, Density: 1, Position: r2.Vec{Y: 0.5}})
	w.SetWorldGravity(r2.Vec{Y: -9.8})

	for i := 0; i < 120; i++ {
		require.NoError(t, w.Step(16, defaultIters))
	}

	assert.InDelta(t, 0.5, w.Position(h).Y, 0.05)
	assert.InDelta(t, 0.0, w.Velocity(h).Y, 0.5)
}

func TestWorld_UnknownHandle(t *testing.T) {
	w := NewWorld()
	w.SetVelocity(42, r2.Vec{X: 1})
	w.ApplyForce(-1, r2.Vec{}, r2.Vec{X: 1})
	assert.Equal(t, r2.Vec{}, w.Position(42))
	assert.Equal(t, r2.Vec{}, w.Velocity(-1))
}

func TestWorld_Clear(t *testing.T) {
	w := NewWorld()
	w.CreateBody(BodyDef{Radius: 1, Density: 1})
	for _, s := range Box(2, 2) {
		w.CreateStaticSegment(s)
	}
	w.SetWorldGravity(r2.Vec{Y: -1})

	w.Clear()

	assert.Equal(t, 0, w.Bodies())
	assert.Equal(t, r2.Vec{}, w.Gravity())
	require.NoError(t, w.Step(16, defaultIters))
}
