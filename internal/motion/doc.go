// Package motion holds measured and simulated roll-decay records and the
// preprocessing steps applied before parameter estimation.
//
// A [Series] carries the roll angle phi with optional angular velocity
// and acceleration channels on a shared time grid. Preprocessing follows
// the usual model-basin workflow:
//
//   - [Cut] removes the release transient and windows by roll amplitude
//   - [Lowpass] removes measurement noise with a zero-phase filter and
//     recomputes the derivative channels from the filtered angle
//   - [ScaleToFull] converts a model-scale record to full scale by
//     Froude scaling
//
// Derivative channels are estimated with second order central
// differences on possibly non-uniform time grids.
package motion
