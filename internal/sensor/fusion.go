// Package sensor turns raw device motion and orientation samples into the
// gravity vector that steers the particles.
package sensor

import (
	"github.com/san-kum/tiltfluid/internal/filter"
	"gonum.org/v1/gonum/spatial/r2"
)

// Motion is a raw accelerometer sample including gravity. Absent axes are
// zero; hosts must not forward NaN.
type Motion struct {
	AX float64 `json:"ax" yaml:"ax"`
	AY float64 `json:"ay" yaml:"ay"`
	AZ float64 `json:"az" yaml:"az"`
}

// Orientation holds device angles in degrees.
type Orientation struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
}

// KalmanParams configures the per-axis estimators.
type KalmanParams struct {
	R, Q, A, B, C float64
}

func DefaultKalmanParams() KalmanParams {
	return KalmanParams{
		R: filter.DefaultR,
		Q: filter.DefaultQ,
		A: filter.DefaultA,
		B: filter.DefaultB,
		C: filter.DefaultC,
	}
}

// Fusion owns one estimator per acceleration axis and the last raw
// orientation. Gravity is last-value-wins: it only changes when a motion
// sample arrives and is (0,0) until the first one does.
type Fusion struct {
	scale float64
	kx    *filter.Kalman
	ky    *filter.Kalman
	kz    *filter.Kalman

	gravity     r2.Vec
	depth       float64
	orientation Orientation
	samples     uint64
}

func NewFusion(gravityScale float64, p KalmanParams) *Fusion {
	return &Fusion{
		scale: gravityScale,
		kx:    filter.NewKalman(p.R, p.Q, p.A, p.B, p.C),
		ky:    filter.NewKalman(p.R, p.Q, p.A, p.B, p.C),
		kz:    filter.NewKalman(p.R, p.Q, p.A, p.B, p.C),
	}
}

// OnMotion filters each axis and recomputes gravity. Screen y points up,
// so device "down" acceleration reduces upward gravity.
func (f *Fusion) OnMotion(m Motion) {
	ax := f.kx.Filter(m.AX)
	ay := f.ky.Filter(m.AY)
	// z is filtered to keep its estimator warm but does not feed 2D gravity.
	f.depth = f.kz.Filter(m.AZ)

	f.gravity = r2.Vec{X: ax * f.scale, Y: -ay * f.scale}
	f.samples++
}

// OnOrientation stores the raw angles unfiltered.
func (f *Fusion) OnOrientation(o Orientation) {
	f.orientation = o
}

func (f *Fusion) Gravity() r2.Vec { return f.gravity }

func (f *Fusion) Orientation() Orientation { return f.orientation }

// Depth is the filtered z acceleration. Nothing consumes it yet.
func (f *Fusion) Depth() float64 { return f.depth }

// Samples counts motion samples folded in so far.
func (f *Fusion) Samples() uint64 { return f.samples }

// Tilt returns the container rotation implied by the last orientation:
// beta about X, gamma about Y, alpha about Z, in radians.
func (f *Fusion) Tilt() Tilt {
	return TiltFrom(f.orientation)
}
