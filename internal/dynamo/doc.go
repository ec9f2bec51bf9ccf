// Package dynamo holds the primitives shared by every layer of the fluid
// simulation: domain errors and small math helpers.
//
//   - sentinel errors ([ErrEngineDiverged], [ErrDisposed], ...) matched with errors.Is
//   - [TickError]: wraps a failure with the tick that aborted
//   - [FastSinCos]: table sin/cos for per-particle jitter directions
//   - [DegToRad], [Clamp]
//
// # Example
//
//	if err := loop.Err(); errors.Is(err, dynamo.ErrEngineDiverged) {
//	    var te *dynamo.TickError
//	    errors.As(err, &te)
//	}
package dynamo
