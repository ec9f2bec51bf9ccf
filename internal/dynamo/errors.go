package dynamo

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrEngineDiverged indicates the rigid-body step produced NaN or Inf.
	ErrEngineDiverged = errors.New("dynamo: engine step diverged (NaN or Inf detected)")

	// ErrInvalidStep indicates a non-positive or non-finite step duration.
	ErrInvalidStep = errors.New("dynamo: invalid step duration")

	// ErrDisposed indicates an operation on a disposed session.
	ErrDisposed = errors.New("dynamo: session disposed")

	// ErrNotIdle indicates Start was called on a session that already started.
	ErrNotIdle = errors.New("dynamo: session already started")

	// ErrUnknownPreset indicates a preset name with no configuration.
	ErrUnknownPreset = errors.New("dynamo: unknown preset")

	// ErrRunNotFound indicates a recorded run id with no data on disk.
	ErrRunNotFound = errors.New("dynamo: run not found")
)

// TickError wraps an error with the tick it aborted.
type TickError struct {
	Tick    uint64
	Elapsed time.Duration
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (t=%s): %v", e.Tick, e.Elapsed, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
