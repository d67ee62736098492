// Package estimator fits roll-decay equation variants to measured
// motion and simulates them forward.
//
// An [Estimator] is built for one variant and configured through
// functional options:
//
//	est, err := estimator.New(equations.QuadraticB,
//		estimator.WithMethod(equations.MethodIntegration),
//		estimator.WithGuesses(equations.Params{"C_1A": 0.1}),
//	)
//
// [Estimator.Fit] recovers the coefficients from an observed series,
// [Estimator.Simulate] and [Estimator.Predict] integrate the governing
// equation forward, [Estimator.Score] reports how well the fit
// reproduces the observed angle and [Estimator.ResultForDatabase]
// converts the normalized coefficients to dimensional ship quantities.
//
// # Fit methods
//
// The derivation method matches the closed-form acceleration against
// the measured acceleration pointwise and needs the phi1d and phi2d
// channels. The integration method re-simulates the decay from the
// first observed angle for every parameter trial and matches the angle
// series; it needs only phi and tolerates far noisier records. Both
// minimize a soft L1 robust loss under coefficient bounds.
//
// An Estimator is not safe for concurrent use.
package estimator
