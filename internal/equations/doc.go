// Package equations holds the closed-form roll equations of motion.
//
// Each model variant is described by a [Descriptor]: the coefficient
// names it declares, its acceleration function, and the relations tying
// its nondimensional coefficients to physical ship quantities:
//
//   - [Linear]: viscous damping, linear restoring (zeta, omega0)
//   - [QuadraticB]: linear + quadratic damping (B_1A, B_2A, C_1A)
//   - [QuadraticBandC]: quadratic damping, cubic restoring (adds C_3A)
//   - [Cubic]: full Himeno form (B_1A..B_3A, C_1A..C_5A)
//
// Descriptors are fixed at package initialization; [Get] looks one up
// by tag. All functions are pure and allocation-free, so they are safe
// to call from inner optimization loops.
//
// # Normalization
//
// Coefficients carry an A suffix because the governing equation is
// normalized by the effective roll inertia A_44:
//
//	phi'' + B(phi')/A_44 + C(phi)/A_44 = 0
//
// [Descriptor.EffectiveInertia] recovers A_44 from the fitted stiffness
// and the ship's hydrostatics, which lets callers restore dimensional
// coefficients.
package equations
