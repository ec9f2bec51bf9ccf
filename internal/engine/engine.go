// Package engine defines the rigid-body capability the fluid core delegates
// integration and collision handling to, plus a default 2D implementation.
package engine

import "gonum.org/v1/gonum/spatial/r2"

// Handle identifies a body inside one engine instance.
type Handle int

// BodyDef describes a dynamic circular body. Material values are fixed at
// creation.
type BodyDef struct {
	Position    r2.Vec
	Velocity    r2.Vec
	Radius      float64
	Restitution float64
	Friction    float64
	Density     float64
	AirFriction float64
}

// Segment is a static wall from A to B.
type Segment struct {
	A, B r2.Vec
}

// Iterations are fixed solver pass counts per step.
type Iterations struct {
	Position   int `yaml:"position"`
	Velocity   int `yaml:"velocity"`
	Constraint int `yaml:"constraint"`
}

// Engine integrates bodies and resolves their collisions.
//
// Forces passed to ApplyForce accumulate until the next Step consumes them.
// A Step that returns an error must leave every body as it was before the
// call and discard pending forces.
type Engine interface {
	CreateBody(def BodyDef) Handle
	CreateStaticSegment(seg Segment) Handle
	SetWorldGravity(g r2.Vec)
	Gravity() r2.Vec
	SetVelocity(h Handle, v r2.Vec)
	// ApplyForce accumulates f on the body. Bodies are non-rotating circles,
	// so the application point carries no torque.
	ApplyForce(h Handle, at r2.Vec, f r2.Vec)
	Position(h Handle) r2.Vec
	Velocity(h Handle) r2.Vec
	Step(dtMillis float64, it Iterations) error
	// Bodies counts live bodies, static ones included.
	Bodies() int
	Clear()
}

// Box returns the four walls of an axis-aligned container centred on the
// origin.
func Box(width, height float64) []Segment {
	hw, hh := width/2, height/2
	bl := r2.Vec{X: -hw, Y: -hh}
	br := r2.Vec{X: hw, Y: -hh}
	tr := r2.Vec{X: hw, Y: hh}
	tl := r2.Vec{X: -hw, Y: hh}
	return []Segment{{bl, br}, {br, tr}, {tr, tl}, {tl, bl}}
}
