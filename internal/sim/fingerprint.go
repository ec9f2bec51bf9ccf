package sim

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/spatial/r2"
)

// Fingerprint hashes the exact bits of positions and velocities. Two runs
// with the same seed, config and inputs produce the same value.
func Fingerprint(pos, vel []r2.Vec) uint64 {
	d := xxhash.New()
	var buf [8]byte
	write := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		d.Write(buf[:])
	}
	for _, p := range pos {
		write(p.X)
		write(p.Y)
	}
	for _, v := range vel {
		write(v.X)
		write(v.Y)
	}
	return d.Sum64()
}

// Fingerprint of the live session, or 0 once disposed.
func (l *Loop) Fingerprint() uint64 {
	if l.state == nil {
		return 0
	}
	return Fingerprint(l.state.Positions(nil), l.state.Velocities(nil))
}
