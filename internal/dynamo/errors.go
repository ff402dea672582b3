package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for trajectory and descriptor handling.
var (
	// ErrDimensionMismatch indicates trajectory, feature or matrix shapes that
	// disagree with the system descriptor.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrInvalidSystem indicates a malformed system descriptor.
	ErrInvalidSystem = errors.New("dynamo: invalid system descriptor")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// TrajectoryError wraps an error with the index of the offending trajectory.
type TrajectoryError struct {
	Index   int
	Wrapped error
}

func (e *TrajectoryError) Error() string {
	return fmt.Sprintf("trajectory %d: %v", e.Index, e.Wrapped)
}

func (e *TrajectoryError) Unwrap() error {
	return e.Wrapped
}
