// Package physics holds the per-tick force model of the fluid toy.
//
// Each tick, in order:
//
//   - the sensor gravity is pushed into the engine
//   - every velocity is damped by (1 - viscosity)
//   - pairwise surface tension and a tiny random jitter are accumulated
//   - the engine integrates once and resolves collisions
//
// Touches ([ApplyTouch]) add forces between ticks; the next [Step] consumes
// them together with everything else. All functions operate on one [State]
// and must be called from the goroutine that owns it.
package physics
