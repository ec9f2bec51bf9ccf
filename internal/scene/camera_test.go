package scene

import (
	"math"
	"testing"

	"github.com/san-kum/tiltfluid/internal/physics"
	"github.com/san-kum/tiltfluid/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestContainerRotation(t *testing.T) {
	tilt := ContainerRotation(sensor.Orientation{Alpha: 180, Beta: 90, Gamma: -45})
	assert.InDelta(t, math.Pi/2, tilt.X, 1e-12)
	assert.InDelta(t, -math.Pi/4, tilt.Y, 1e-12)
	assert.InDelta(t, math.Pi, tilt.Z, 1e-12)
}

func TestCamera_RotateRoundTrip(t *testing.T) {
	c := NewCamera(30, 1.5)
	c.Rotation = sensor.Tilt{X: 0.3, Y: -0.7, Z: 1.1}
	p := r3.Vec{X: 1, Y: -2, Z: 3}

	back := c.Unrotate(c.Rotate(p))
	assert.InDelta(t, p.X, back.X, 1e-12)
	assert.InDelta(t, p.Y, back.Y, 1e-12)
	assert.InDelta(t, p.Z, back.Z, 1e-12)
}

func TestCamera_ProjectCentre(t *testing.T) {
	c := NewCamera(30, 2)
	x, y, depth, ok := c.Project(r3.Vec{})
	require.True(t, ok)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
	assert.Equal(t, 30.0, depth)

	_, _, _, ok = c.Project(r3.Vec{Z: 40})
	assert.False(t, ok)
}

func TestCamera_RayHitsProjectedPoint(t *testing.T) {
	tilts := []sensor.Tilt{{}, {X: 0.4}, {Y: -0.3, Z: 0.8}}
	points := []r2.Vec{{X: 0, Y: 0}, {X: 3, Y: -2}, {X: -5, Y: 4}}

	for _, tilt := range tilts {
		c := NewCamera(25, 1.6)
		c.Rotation = tilt
		c.ZoomIn()
		for _, p := range points {
			x, y, _, ok := c.Project(r3.Vec{X: p.X, Y: p.Y})
			require.True(t, ok)
			assert.InDelta(t, 0, physics.RayDistance(c.Ray(x, y), p), 1e-9, "tilt %v point %v", tilt, p)
		}
	}
}

func TestCamera_TouchThroughLoopProjector(t *testing.T) {
	c := NewCamera(20, 1)
	ray := c.Ray(0, 0)
	assert.InDelta(t, 0, physics.RayDistance(ray, r2.Vec{}), 1e-12)
	assert.InDelta(t, 1, physics.RayDistance(ray, r2.Vec{X: 1}), 1e-12)
}

func TestZoomBounds(t *testing.T) {
	c := NewCamera(20, 1)
	for i := 0; i < 50; i++ {
		c.ZoomIn()
	}
	assert.Equal(t, 10.0, c.Zoom)
	for i := 0; i < 100; i++ {
		c.ZoomOut()
	}
	assert.Equal(t, 0.1, c.Zoom)
}

func TestPixel(t *testing.T) {
	x, y := Pixel(-1, 1, 80, 40)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})
	x, y = Pixel(0, 0, 80, 40)
	assert.Equal(t, [2]int{40, 20}, [2]int{x, y})
}

func TestProjectEdges(t *testing.T) {
	c := NewCamera(30, 2)
	segs := ProjectEdges(c, ContainerWireframe(20, 14, 2), 160, 80)

	require.Len(t, segs, 12)
	for i := 1; i < len(segs); i++ {
		assert.GreaterOrEqual(t, segs[i-1].Depth, segs[i].Depth)
	}
	for _, s := range segs {
		assert.True(t, s.X1 >= 0 && s.X1 <= 160 && s.Y1 >= 0 && s.Y1 <= 80, "%+v", s)
	}
}

func TestFitCamera(t *testing.T) {
	for _, aspect := range []float64{0.5, 1, 2.5} {
		c := FitCamera(20, 14, aspect)
		for _, corner := range []r3.Vec{{X: -10, Y: -7}, {X: 10, Y: 7}, {X: 10, Y: -7}} {
			x, y, _, ok := c.Project(corner)
			require.True(t, ok)
			assert.LessOrEqual(t, math.Abs(x), 1.0, "aspect %v", aspect)
			assert.LessOrEqual(t, math.Abs(y), 1.0, "aspect %v", aspect)
		}
	}
}
