package ode

import (
	"errors"
	"fmt"
)

// Integration failure modes.
var (
	// ErrStepUnderflow indicates the adaptive timestep shrank below the
	// minimum resolvable step for the requested span.
	ErrStepUnderflow = errors.New("ode: adaptive timestep below minimum")

	// ErrTooManySteps indicates the step budget was exhausted before the
	// end of the span.
	ErrTooManySteps = errors.New("ode: step budget exhausted")

	// ErrNonFinite indicates the state picked up a NaN or Inf component.
	ErrNonFinite = errors.New("ode: state is not finite")
)

// SimulationError wraps an integration failure with the point of failure.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
