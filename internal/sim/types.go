package sim

import (
	"time"

	"github.com/san-kum/tiltfluid/internal/sensor"
	"gonum.org/v1/gonum/spatial/r2"
)

// Phase is the lifecycle state of a session.
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Disposed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// FrameFunc is invoked by the host once per display frame.
type FrameFunc func(now time.Time)

// Scheduler is the host's frame-callback capability. Each RequestFrame
// call asks for exactly one future invocation of fn, on the same goroutine
// that delivers sensor and touch events.
type Scheduler interface {
	RequestFrame(fn FrameFunc)
}

// Frame is what the renderer receives after every tick. Slices are reused
// by the next tick; observers copy what they keep.
type Frame struct {
	Tick       uint64
	Elapsed    time.Duration
	Dt         time.Duration
	Positions  []r2.Vec
	Velocities []r2.Vec
	Gravity    r2.Vec
	Tilt       sensor.Tilt
}

type Observer interface {
	OnFrame(f *Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f *Frame)

func (fn ObserverFunc) OnFrame(f *Frame) { fn(f) }
