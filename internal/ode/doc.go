// Package ode integrates the second-order roll equation of motion.
//
// The package provides an adaptive Dormand-Prince RK45 initial value
// solver with dense output, plus a fixed-step RK4 for cross-checks:
//
//   - [State]: roll angle and roll rate (phi, phi1d)
//   - [Deriv]: right-hand side of the first-order system
//   - [Solve]: adaptive integration sampled at a caller-supplied grid
//   - [SolveFixed]: classical RK4 over the same grid
//
// The time grid is shifted internally so integration starts at zero;
// results are reported against the caller's original time values. Grids
// need not be uniform, only strictly increasing.
//
// # Failure
//
// Integration failures are reported as [*SimulationError] wrapping one
// of the package sentinels ([ErrStepUnderflow], [ErrTooManySteps],
// [ErrNonFinite]), never as a silently degraded result.
package ode
