package viz

import (
	"github.com/san-kum/tiltfluid/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer draws a tilted container and its particles onto a canvas.
type Renderer struct {
	Camera    *scene.Camera
	Container *scene.Wireframe
}

func NewRenderer(width, height float64, c *Canvas) *Renderer {
	w, h := c.Dots()
	return &Renderer{
		Camera:    scene.FitCamera(width, height, float64(w)/float64(h)),
		Container: scene.ContainerWireframe(width, height, 0.4*minf(width, height)),
	}
}

// Fit updates the camera aspect after the canvas was resized.
func (r *Renderer) Fit(c *Canvas) {
	w, h := c.Dots()
	r.Camera.Aspect = float64(w) / float64(h)
}

// Draw clears c and renders the walls then every particle as one dot.
// It returns the number of particles that landed on the canvas.
func (r *Renderer) Draw(c *Canvas, positions []r2.Vec) int {
	c.Clear()
	w, h := c.Dots()
	for _, s := range scene.ProjectEdges(r.Camera, r.Container, w, h) {
		c.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
	}

	shown := 0
	for _, p := range positions {
		x, y, _, ok := r.Camera.Project(r3.Vec{X: p.X, Y: p.Y})
		if !ok {
			continue
		}
		px, py := scene.Pixel(x, y, w, h)
		if px < 0 || py < 0 || px >= w || py >= h {
			continue
		}
		c.Set(px, py)
		shown++
	}
	return shown
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
