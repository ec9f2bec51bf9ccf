package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerSpectrum_FindsSine(t *testing.T) {
	const rate = 60.0
	xs := make([]float64, 600)
	for i := range xs {
		ts := float64(i) / rate
		xs[i] = 3 + math.Sin(2*math.Pi*1.5*ts)
	}

	s, err := PowerSpectrum(xs, rate)
	require.NoError(t, err)
	assert.Len(t, s.Freqs, len(xs)/2+1)
	assert.InDelta(t, rate/2, s.Freqs[len(s.Freqs)-1], 1e-9)

	freq, power := s.Dominant()
	assert.InDelta(t, 1.5, freq, 0.1)
	assert.Greater(t, power, 0.0)
	assert.InDelta(t, 0, s.Power[0], 1e-6, "mean is removed")
}

func TestPowerSpectrum_Flat(t *testing.T) {
	s, err := PowerSpectrum([]float64{2, 2, 2, 2, 2, 2, 2, 2}, 10)
	require.NoError(t, err)
	freq, power := s.Dominant()
	assert.Zero(t, freq)
	assert.Zero(t, power)
}

func TestPowerSpectrum_Short(t *testing.T) {
	_, err := PowerSpectrum([]float64{1, 2}, 10)
	assert.ErrorIs(t, err, ErrShortSeries)
}
