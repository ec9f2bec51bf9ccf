package dynamo

import "math"

const twoPi = 2 * math.Pi

// trigTable holds precomputed sin/cos values. Values between entries are
// linearly interpolated.
type trigTable struct {
	sin []float64
	cos []float64
	n   int
}

// 4096 entries is about 0.0015 rad resolution.
var defaultTrigTable = newTrigTable(4096)

func newTrigTable(n int) *trigTable {
	if n < 2 {
		n = 2
	}
	t := &trigTable{
		sin: make([]float64, n),
		cos: make([]float64, n),
		n:   n,
	}
	for i := 0; i < n; i++ {
		angle := float64(i) * twoPi / float64(n)
		t.sin[i] = math.Sin(angle)
		t.cos[i] = math.Cos(angle)
	}
	return t
}

// index maps an angle onto the table, returning the two neighbouring
// entries and the interpolation weight of the second.
func (t *trigTable) index(x float64) (i0, i1 int, frac float64) {
	x = math.Mod(x, twoPi)
	if x < 0 {
		x += twoPi
	}
	idx := x * float64(t.n) / twoPi
	i := int(idx)
	frac = idx - float64(i)
	return i % t.n, (i + 1) % t.n, frac
}

func (t *trigTable) sinCos(x float64) (sin, cos float64) {
	i0, i1, f := t.index(x)
	sin = t.sin[i0]*(1-f) + t.sin[i1]*f
	cos = t.cos[i0]*(1-f) + t.cos[i1]*f
	return
}

// FastSinCos is a table lookup accurate to about 1e-6, enough for random
// jitter directions.
func FastSinCos(x float64) (float64, float64) {
	return defaultTrigTable.sinCos(x)
}

// DegToRad converts device orientation degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
