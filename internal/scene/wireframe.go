package scene

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

type Edge struct {
	Start, End r3.Vec
}

type Wireframe struct{ Edges []Edge }

func (w *Wireframe) AddEdge(s, e r3.Vec) { w.Edges = append(w.Edges, Edge{s, e}) }

// ContainerWireframe outlines the container walls with a shallow depth so
// that rotation about X or Y reads as a box rather than a flat line.
func ContainerWireframe(width, height, depth float64) *Wireframe {
	w := &Wireframe{}
	hw, hh, hd := width/2, height/2, depth/2
	v := []r3.Vec{
		{X: -hw, Y: -hh, Z: -hd}, {X: hw, Y: -hh, Z: -hd}, {X: hw, Y: hh, Z: -hd}, {X: -hw, Y: hh, Z: -hd},
		{X: -hw, Y: -hh, Z: hd}, {X: hw, Y: -hh, Z: hd}, {X: hw, Y: hh, Z: hd}, {X: -hw, Y: hh, Z: hd},
	}
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}} {
		w.AddEdge(v[e[0]], v[e[1]])
	}
	return w
}

// Segment is an edge in pixel space.
type Segment struct {
	X1, Y1, X2, Y2 int
	Depth          float64
}

// ProjectEdges projects every edge with at least one visible end onto a
// w x h grid, farthest first.
func ProjectEdges(cam *Camera, wf *Wireframe, w, h int) []Segment {
	out := make([]Segment, 0, len(wf.Edges))
	for _, e := range wf.Edges {
		x1, y1, d1, ok1 := cam.Project(e.Start)
		x2, y2, d2, ok2 := cam.Project(e.End)
		if !ok1 || !ok2 {
			continue
		}
		px1, py1 := Pixel(x1, y1, w, h)
		px2, py2 := Pixel(x2, y2, w, h)
		out = append(out, Segment{px1, py1, px2, py2, (d1 + d2) / 2})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Depth > out[j].Depth })
	return out
}
