// Package filter smooths noisy scalar sensor channels.
package filter

// Defaults tuned for accelerometer axes: process noise is large relative to
// measurement noise so the estimate follows real changes with little lag
// while a single-sample spike is still damped.
const (
	DefaultR = 0.01
	DefaultQ = 3.0
	DefaultA = 1.0
	DefaultB = 0.0
	DefaultC = 1.0
)

// Kalman is a one-dimensional Kalman filter over a linear model
// x' = A*x + B, z = C*x. The estimate and covariance are initialized
// together by the first measurement.
type Kalman struct {
	R, Q, A, B, C float64

	x     float64
	cov   float64
	ready bool
}

func NewKalman(r, q, a, b, c float64) *Kalman {
	return &Kalman{R: r, Q: q, A: a, B: b, C: c}
}

func NewDefaultKalman() *Kalman {
	return NewKalman(DefaultR, DefaultQ, DefaultA, DefaultB, DefaultC)
}

// Filter folds one measurement into the estimate and returns it.
// Callers substitute 0 for missing samples; NaN is not guarded.
func (k *Kalman) Filter(z float64) float64 {
	if !k.ready {
		k.x = z / k.C
		k.cov = 1
		k.ready = true
		return k.x
	}

	predX := k.A*k.x + k.B
	predCov := k.A*k.A*k.cov + k.Q

	gain := predCov * k.C / (k.C*predCov*k.C + k.R)
	k.x = predX + gain*(z-k.C*predX)
	k.cov = predCov - gain*k.C*predCov

	return k.x
}

// Estimate returns the current estimate; zero before the first sample.
func (k *Kalman) Estimate() float64 { return k.x }

// Covariance returns the current error covariance; zero before the first sample.
func (k *Kalman) Covariance() float64 { return k.cov }

func (k *Kalman) Ready() bool { return k.ready }

// Reset forgets the estimate so the next sample re-initializes it.
func (k *Kalman) Reset() {
	k.x, k.cov, k.ready = 0, 0, false
}
