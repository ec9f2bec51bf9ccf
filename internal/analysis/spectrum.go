package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: need at least 4 samples")

// Spectrum is the one-sided power spectrum of a uniformly sampled series.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum removes the mean from xs and transforms it. sampleRate is
// in samples per second, so Freqs come out in hertz.
func PowerSpectrum(xs []float64, sampleRate float64) (Spectrum, error) {
	if len(xs) < 4 {
		return Spectrum{}, ErrShortSeries
	}
	mean := stat.Mean(xs, nil)
	seq := make([]float64, len(xs))
	for i, x := range xs {
		seq[i] = x - mean
	}

	coeffs := fft.FFTReal(seq)
	half := len(seq)/2 + 1
	s := Spectrum{
		Freqs: make([]float64, half),
		Power: make([]float64, half),
	}
	n := float64(len(seq))
	for i := 0; i < half; i++ {
		s.Freqs[i] = float64(i) * sampleRate / n
		a := cmplx.Abs(coeffs[i])
		s.Power[i] = a * a / n
	}
	return s, nil
}

// Dominant returns the strongest non-zero frequency and its power. A flat
// series has no dominant frequency and returns zeros.
func (s Spectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			freq, power = s.Freqs[i], s.Power[i]
		}
	}
	return freq, power
}
