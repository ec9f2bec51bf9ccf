// Package scene holds the view of the container: a pinhole camera looking
// down on the z=0 simulation plane, tilted with the device.
package scene

import (
	"math"

	"github.com/san-kum/tiltfluid/internal/physics"
	"github.com/san-kum/tiltfluid/internal/sensor"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects world points to normalized device coordinates and back.
// The container is rotated by Rotation before projection, so a tilted
// device shows a tilted box while touches still land on the z=0 plane.
type Camera struct {
	Eye      r3.Vec
	FOV      float64 // vertical, radians
	Aspect   float64 // width / height
	Near     float64
	Zoom     float64
	Rotation sensor.Tilt
}

func NewCamera(distance, aspect float64) *Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return &Camera{
		Eye:    r3.Vec{Z: distance},
		FOV:    math.Pi / 4,
		Aspect: aspect,
		Near:   0.1,
		Zoom:   1,
	}
}

// FitCamera places the eye so the whole container is in view with a small
// margin at the given aspect ratio.
func FitCamera(width, height, aspect float64) *Camera {
	c := NewCamera(1, aspect)
	half := math.Max(height/2, width/2/c.Aspect) * 1.15
	c.Eye.Z = half / math.Tan(c.FOV/2)
	return c
}

var _ physics.Projector = (*Camera)(nil)

// ContainerRotation maps device orientation onto the container:
// beta about X, gamma about Y, alpha about Z.
func ContainerRotation(o sensor.Orientation) sensor.Tilt {
	return sensor.TiltFrom(o)
}

func (c *Camera) SetOrientation(o sensor.Orientation) { c.Rotation = ContainerRotation(o) }

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Rotate applies the container rotation: X, then Y, then Z.
func (c *Camera) Rotate(p r3.Vec) r3.Vec {
	sx, cx := math.Sincos(c.Rotation.X)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	sy, cy := math.Sincos(c.Rotation.Y)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	sz, cz := math.Sincos(c.Rotation.Z)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Unrotate inverts Rotate.
func (c *Camera) Unrotate(p r3.Vec) r3.Vec {
	sz, cz := math.Sincos(-c.Rotation.Z)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	sy, cy := math.Sincos(-c.Rotation.Y)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	sx, cx := math.Sincos(-c.Rotation.X)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

func (c *Camera) halfExtent() (float64, float64) {
	h := math.Tan(c.FOV/2) / c.Zoom
	return h * c.Aspect, h
}

// Project returns the normalized device coordinates of p and its distance
// in front of the eye. ok is false for points behind the near plane.
func (c *Camera) Project(p r3.Vec) (x, y, depth float64, ok bool) {
	v := r3.Sub(c.Rotate(p), c.Eye)
	depth = -v.Z
	if depth < c.Near {
		return 0, 0, depth, false
	}
	hx, hy := c.halfExtent()
	return v.X / (depth * hx), v.Y / (depth * hy), depth, true
}

// Ray is the world-space ray through a point in normalized device
// coordinates.
func (c *Camera) Ray(ndcX, ndcY float64) physics.Ray {
	hx, hy := c.halfExtent()
	dir := r3.Vec{X: ndcX * hx, Y: ndcY * hy, Z: -1}
	return physics.Ray{
		Origin:    c.Unrotate(c.Eye),
		Direction: c.Unrotate(dir),
	}
}

// Pixel maps normalized device coordinates onto a w x h grid, y down.
func Pixel(ndcX, ndcY float64, w, h int) (int, int) {
	px := int(math.Floor((ndcX + 1) / 2 * float64(w)))
	py := int(math.Floor((1 - ndcY) / 2 * float64(h)))
	return px, py
}
