package engine

import (
	"fmt"
	"math"

	"github.com/san-kum/tiltfluid/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	correctionPercent = 0.8
	penetrationSlop   = 0.001
	// relative normal speed under which contacts stop bouncing
	restingSpeed = 0.2
)

type body struct {
	pos, vel, force r2.Vec

	radius      float64
	invMass     float64
	restitution float64
	friction    float64
	airFriction float64

	static bool
	seg    Segment
}

type contact struct {
	a, b        int
	wall        bool
	normal      r2.Vec
	penetration float64
}

// World is an impulse-based solver for non-rotating circles inside static
// segments. It is not safe for concurrent use.
type World struct {
	gravity r2.Vec
	bodies  []body
	dynamic []int
	walls   []int

	maxRadius float64
	grid      map[[2]int][]int
	pairs     [][2]int
	contacts  []contact

	savedPos []r2.Vec
	savedVel []r2.Vec
}

var _ Engine = (*World)(nil)

func NewWorld() *World {
	return &World{grid: make(map[[2]int][]int)}
}

func (w *World) CreateBody(def BodyDef) Handle {
	b := body{
		pos:         def.Position,
		vel:         def.Velocity,
		radius:      def.Radius,
		restitution: def.Restitution,
		friction:    def.Friction,
		airFriction: def.AirFriction,
	}
	if mass := def.Density * math.Pi * def.Radius * def.Radius; mass > 0 {
		b.invMass = 1 / mass
	}
	if def.Radius > w.maxRadius {
		w.maxRadius = def.Radius
	}
	w.bodies = append(w.bodies, b)
	h := Handle(len(w.bodies) - 1)
	w.dynamic = append(w.dynamic, int(h))
	return h
}

func (w *World) CreateStaticSegment(seg Segment) Handle {
	w.bodies = append(w.bodies, body{static: true, seg: seg, restitution: 1, friction: 1})
	h := Handle(len(w.bodies) - 1)
	w.walls = append(w.walls, int(h))
	return h
}

func (w *World) SetWorldGravity(g r2.Vec) { w.gravity = g }

func (w *World) Gravity() r2.Vec { return w.gravity }

func (w *World) lookup(h Handle) *body {
	if h < 0 || int(h) >= len(w.bodies) {
		return nil
	}
	return &w.bodies[h]
}

func (w *World) SetVelocity(h Handle, v r2.Vec) {
	if b := w.lookup(h); b != nil && !b.static {
		b.vel = v
	}
}

func (w *World) ApplyForce(h Handle, _ r2.Vec, f r2.Vec) {
	if b := w.lookup(h); b != nil && !b.static {
		b.force = r2.Add(b.force, f)
	}
}

func (w *World) Position(h Handle) r2.Vec {
	if b := w.lookup(h); b != nil {
		return b.pos
	}
	return r2.Vec{}
}

func (w *World) Velocity(h Handle) r2.Vec {
	if b := w.lookup(h); b != nil {
		return b.vel
	}
	return r2.Vec{}
}

func (w *World) Bodies() int { return len(w.bodies) }

func (w *World) Clear() {
	w.bodies = nil
	w.dynamic = nil
	w.walls = nil
	w.pairs = nil
	w.contacts = nil
	w.savedPos = nil
	w.savedVel = nil
	w.maxRadius = 0
	w.gravity = r2.Vec{}
	clear(w.grid)
}

// Step advances every dynamic body by dtMillis. On failure the world is
// rolled back to its pre-step state.
func (w *World) Step(dtMillis float64, it Iterations) error {
	if !(dtMillis > 0) || math.IsInf(dtMillis, 0) {
		w.discardForces()
		return fmt.Errorf("%w: %v ms", dynamo.ErrInvalidStep, dtMillis)
	}
	dt := dtMillis / 1000

	w.save()

	for _, i := range w.dynamic {
		b := &w.bodies[i]
		acc := r2.Add(w.gravity, r2.Scale(b.invMass, b.force))
		b.vel = r2.Add(r2.Scale(1-b.airFriction, b.vel), r2.Scale(dt, acc))
		b.pos = r2.Add(b.pos, r2.Scale(dt, b.vel))
		b.force = r2.Vec{}
	}

	w.broadphase()

	for k := 0; k < it.Position; k++ {
		w.collectContacts()
		for _, c := range w.contacts {
			w.correct(c)
		}
	}
	for k := 0; k < it.Velocity; k++ {
		w.collectContacts()
		for _, c := range w.contacts {
			w.resolve(c)
		}
	}
	for k := 0; k < it.Constraint; k++ {
		w.contain()
	}

	if !w.finite() {
		w.restore()
		return dynamo.ErrEngineDiverged
	}
	return nil
}

func (w *World) discardForces() {
	for _, i := range w.dynamic {
		w.bodies[i].force = r2.Vec{}
	}
}

func (w *World) save() {
	n := len(w.dynamic)
	if cap(w.savedPos) < n {
		w.savedPos = make([]r2.Vec, n)
		w.savedVel = make([]r2.Vec, n)
	}
	w.savedPos, w.savedVel = w.savedPos[:n], w.savedVel[:n]
	for k, i := range w.dynamic {
		w.savedPos[k] = w.bodies[i].pos
		w.savedVel[k] = w.bodies[i].vel
	}
}

func (w *World) restore() {
	for k, i := range w.dynamic {
		w.bodies[i].pos = w.savedPos[k]
		w.bodies[i].vel = w.savedVel[k]
		w.bodies[i].force = r2.Vec{}
	}
}

func (w *World) finite() bool {
	for _, i := range w.dynamic {
		b := &w.bodies[i]
		for _, v := range [...]float64{b.pos.X, b.pos.Y, b.vel.X, b.vel.Y} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// broadphase buckets circles into a uniform grid sized to the largest
// diameter and records every pair sharing a cell neighbourhood.
func (w *World) broadphase() {
	w.pairs = w.pairs[:0]
	if len(w.dynamic) < 2 {
		return
	}
	cell := 2*w.maxRadius + penetrationSlop
	if !(cell > 0) {
		return
	}
	for k, v := range w.grid {
		w.grid[k] = v[:0]
	}
	key := func(p r2.Vec) [2]int {
		return [2]int{int(math.Floor(p.X / cell)), int(math.Floor(p.Y / cell))}
	}
	for _, i := range w.dynamic {
		k := key(w.bodies[i].pos)
		w.grid[k] = append(w.grid[k], i)
	}
	for _, i := range w.dynamic {
		k := key(w.bodies[i].pos)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range w.grid[[2]int{k[0] + dx, k[1] + dy}] {
					if j > i {
						w.pairs = append(w.pairs, [2]int{i, j})
					}
				}
			}
		}
	}
}

func (w *World) collectContacts() {
	w.contacts = w.contacts[:0]
	for _, p := range w.pairs {
		a, b := &w.bodies[p[0]], &w.bodies[p[1]]
		delta := r2.Sub(b.pos, a.pos)
		sum := a.radius + b.radius
		d2 := r2.Norm2(delta)
		if d2 >= sum*sum {
			continue
		}
		d := math.Sqrt(d2)
		n := r2.Vec{X: 1}
		if d > 0 {
			n = r2.Scale(1/d, delta)
		}
		w.contacts = append(w.contacts, contact{a: p[0], b: p[1], normal: n, penetration: sum - d})
	}
	for _, i := range w.dynamic {
		c := &w.bodies[i]
		for _, s := range w.walls {
			seg := w.bodies[s].seg
			q := closestOnSegment(seg, c.pos)
			delta := r2.Sub(c.pos, q)
			d2 := r2.Norm2(delta)
			if d2 >= c.radius*c.radius {
				continue
			}
			d := math.Sqrt(d2)
			var n r2.Vec
			if d > 0 {
				n = r2.Scale(-1/d, delta)
			} else {
				n = r2.Scale(-1, segmentNormal(seg))
			}
			// normal points from body (a) toward the wall (b)
			w.contacts = append(w.contacts, contact{a: i, b: s, wall: true, normal: n, penetration: c.radius - d})
		}
	}
}

func (w *World) correct(c contact) {
	if c.penetration <= penetrationSlop {
		return
	}
	a, b := &w.bodies[c.a], &w.bodies[c.b]
	inv := a.invMass + b.invMass
	if inv == 0 {
		return
	}
	amount := (c.penetration - penetrationSlop) / inv * correctionPercent
	a.pos = r2.Sub(a.pos, r2.Scale(amount*a.invMass, c.normal))
	b.pos = r2.Add(b.pos, r2.Scale(amount*b.invMass, c.normal))
}

func (w *World) resolve(c contact) {
	a, b := &w.bodies[c.a], &w.bodies[c.b]
	inv := a.invMass + b.invMass
	if inv == 0 {
		return
	}
	rel := r2.Sub(b.vel, a.vel)
	vn := r2.Dot(rel, c.normal)
	if vn > 0 {
		return
	}

	e := math.Min(a.restitution, b.restitution)
	if -vn < restingSpeed {
		e = 0
	}
	j := -(1 + e) * vn / inv
	impulse := r2.Scale(j, c.normal)
	a.vel = r2.Sub(a.vel, r2.Scale(a.invMass, impulse))
	b.vel = r2.Add(b.vel, r2.Scale(b.invMass, impulse))

	rel = r2.Sub(b.vel, a.vel)
	tangent := r2.Sub(rel, r2.Scale(r2.Dot(rel, c.normal), c.normal))
	tn := r2.Norm(tangent)
	if tn < 1e-9 {
		return
	}
	tangent = r2.Scale(1/tn, tangent)
	jt := -r2.Dot(rel, tangent) / inv
	mu := math.Sqrt(a.friction * b.friction)
	if limit := mu * math.Abs(j); math.Abs(jt) > limit {
		jt = math.Copysign(limit, jt)
	}
	fi := r2.Scale(jt, tangent)
	a.vel = r2.Sub(a.vel, r2.Scale(a.invMass, fi))
	b.vel = r2.Add(b.vel, r2.Scale(b.invMass, fi))
}

// contain pushes bodies that escaped through a wall back inside the hull
// bounding box and removes their outward velocity.
func (w *World) contain() {
	if len(w.walls) == 0 {
		return
	}
	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, s := range w.walls {
		seg := w.bodies[s].seg
		for _, p := range [...]r2.Vec{seg.A, seg.B} {
			lo = r2.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y)}
			hi = r2.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y)}
		}
	}
	for _, i := range w.dynamic {
		b := &w.bodies[i]
		if hi.X-lo.X > 2*b.radius {
			b.pos.X, b.vel.X = containAxis(b.pos.X, b.vel.X, lo.X+b.radius, hi.X-b.radius, b.restitution)
		}
		if hi.Y-lo.Y > 2*b.radius {
			b.pos.Y, b.vel.Y = containAxis(b.pos.Y, b.vel.Y, lo.Y+b.radius, hi.Y-b.radius, b.restitution)
		}
	}
}

func containAxis(p, v, lo, hi, e float64) (float64, float64) {
	switch {
	case p < lo:
		p = lo
		if v < 0 {
			v = -v * e
		}
	case p > hi:
		p = hi
		if v > 0 {
			v = -v * e
		}
	}
	return p, v
}

func closestOnSegment(s Segment, p r2.Vec) r2.Vec {
	ab := r2.Sub(s.B, s.A)
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return s.A
	}
	t := dynamo.Clamp(r2.Dot(r2.Sub(p, s.A), ab)/l2, 0, 1)
	return r2.Add(s.A, r2.Scale(t, ab))
}

// segmentNormal is the unit left normal of A->B; for Box walls wound
// counter-clockwise it points into the container.
func segmentNormal(s Segment) r2.Vec {
	ab := r2.Sub(s.B, s.A)
	l := r2.Norm(ab)
	if l == 0 {
		return r2.Vec{Y: 1}
	}
	return r2.Vec{X: -ab.Y / l, Y: ab.X / l}
}
