package physics

import (
	"math"

	"github.com/san-kum/tiltfluid/internal/config"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half-line in world space. Direction need not be normalized.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// Projector turns normalized device coordinates into a world ray. It is
// supplied by whatever renders the scene.
type Projector interface {
	Ray(ndcX, ndcY float64) Ray
}

// Viewport is the pixel size of the surface touches arrive on.
type Viewport struct {
	Width, Height float64
}

// NDC maps pixel coordinates (origin top-left, y down) to normalized device
// coordinates in [-1, 1] with y up.
func (v Viewport) NDC(px, py float64) (x, y float64) {
	if v.Width <= 0 || v.Height <= 0 {
		return 0, 0
	}
	return px/v.Width*2 - 1, -(py/v.Height)*2 + 1
}

// RayDistance is the shortest distance from the ray to p lifted onto the
// simulation plane z=0. A zero-length direction never hits anything.
func RayDistance(ray Ray, p r2.Vec) float64 {
	n := r3.Norm(ray.Direction)
	if n == 0 {
		return math.Inf(1)
	}
	dir := r3.Scale(1/n, ray.Direction)
	rel := r3.Sub(r3.Vec{X: p.X, Y: p.Y}, ray.Origin)
	t := math.Max(0, r3.Dot(rel, dir))
	closest := r3.Add(ray.Origin, r3.Scale(t, dir))
	return r3.Norm(r3.Sub(r3.Vec{X: p.X, Y: p.Y}, closest))
}

// TouchImpulse is the magnitude a particle dist away from the ray receives.
// It falls linearly to zero at radius and stays zero beyond.
func TouchImpulse(dist, force, radius float64) float64 {
	if dist >= radius || radius <= 0 {
		return 0
	}
	return force * (1 - dist/radius)
}

// ApplyTouch pushes every particle near the ray along the ray's direction
// in the plane and returns how many were pushed. Each push has exactly the
// TouchImpulse magnitude. A ray straight down has no planar direction, so
// particles are pushed radially away from where it meets z=0 and one lying
// exactly under it is left alone. The forces are picked up by the next
// engine step.
func ApplyTouch(s *State, cfg *config.Config, ray Ray) int {
	n := r3.Norm(ray.Direction)
	if n == 0 {
		return 0
	}
	planar := r2.Vec{X: ray.Direction.X, Y: ray.Direction.Y}
	vertical := r2.Norm(planar) <= verticalTolerance*n
	var dir, center r2.Vec
	if vertical {
		center = planeHit(ray)
	} else {
		dir = r2.Unit(planar)
	}

	hit := 0
	for _, p := range s.Particles {
		pos := s.Engine.Position(p.Body)
		mag := TouchImpulse(RayDistance(ray, pos), cfg.TouchForce, cfg.TouchRadius)
		if mag == 0 {
			continue
		}
		d := dir
		if vertical {
			out := r2.Sub(pos, center)
			if r2.Norm(out) == 0 {
				continue
			}
			d = r2.Unit(out)
		}
		s.Engine.ApplyForce(p.Body, pos, r2.Scale(mag, d))
		hit++
	}
	return hit
}

// verticalTolerance is the planar share of a ray direction below which the
// ray counts as pointing straight down.
const verticalTolerance = 1e-9

// planeHit is where a ray with non-zero z direction crosses z=0.
func planeHit(ray Ray) r2.Vec {
	t := -ray.Origin.Z / ray.Direction.Z
	return r2.Vec{X: ray.Origin.X + t*ray.Direction.X, Y: ray.Origin.Y + t*ray.Direction.Y}
}

// TouchScreen converts a pixel touch to a ray through proj and applies it.
func TouchScreen(s *State, cfg *config.Config, vp Viewport, px, py float64, proj Projector) int {
	x, y := vp.NDC(px, py)
	return ApplyTouch(s, cfg, proj.Ray(x, y))
}
