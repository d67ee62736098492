// Package lsq solves bounded nonlinear least-squares problems.
//
// The solver is a Levenberg-Marquardt iteration with optional robust
// loss, built for the shapes that parameter identification produces:
// a few parameters, many residuals, box bounds on some coefficients.
//
//   - [Problem]: residual callback, starting point, bounds, loss
//   - [Solve]: runs the iteration within an evaluation budget
//   - [Result]: best parameters, final residuals, convergence status
//
// The robust soft_l1 loss down-weights outlier residuals through
// iteratively reweighted least squares, so a handful of bad samples do
// not dominate the fit. Residual callbacks may report +Inf residuals
// for unreachable parameter regions; such trial points are rejected and
// the search continues elsewhere.
package lsq
