package estimator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/hydrolab/rolldecay/internal/equations"
	"github.com/hydrolab/rolldecay/internal/motion"
	"github.com/hydrolab/rolldecay/internal/ode"
)

var (
	ErrNotFitted          = errors.New("estimator: no fit stored")
	ErrUnknownMethod      = errors.New("estimator: unknown fit method")
	ErrUnknownIntegrator  = errors.New("estimator: unknown integrator")
	ErrUnknownCoefficient = errors.New("estimator: unknown coefficient")
	ErrMissingDerivatives = errors.New("estimator: derivation method needs phi1d and phi2d channels")
	ErrMissingMetadata    = errors.New("estimator: ship metadata needs positive Volume and GM")
)

// Integrator names accepted by WithIntegrator.
const (
	IntegratorRK45 = "rk45"
	IntegratorRK4  = "rk4"
)

const (
	defaultMaxEval = 4000
	defaultFTol    = 1e-15
	defaultGuess   = 0.5
	robustScale    = 0.1
	fixedSubsteps  = 8
)

// Estimator fits and simulates one roll-decay equation variant. The
// variant is fixed at construction and a later Fit replaces any earlier
// result. An Estimator is not safe for concurrent use.
type Estimator struct {
	desc *equations.Descriptor

	method     string
	integrator string
	maxEval    int
	ftol       float64
	fixedOmega bool
	assert     bool
	bounds     map[string][2]float64
	guesses    equations.Params

	fit *FitResult
}

// Option configures an Estimator at construction.
type Option func(*Estimator)

// WithMethod selects the fit residual definition, either
// equations.MethodDerivation or equations.MethodIntegration.
func WithMethod(method string) Option {
	return func(e *Estimator) { e.method = method }
}

// WithMaxEvaluations caps the residual evaluations the optimizer may
// spend, Jacobian probes included.
func WithMaxEvaluations(n int) Option {
	return func(e *Estimator) { e.maxEval = n }
}

// WithTolerance sets the optimizer's relative cost reduction tolerance.
func WithTolerance(ftol float64) Option {
	return func(e *Estimator) { e.ftol = ftol }
}

// WithBounds constrains coefficients to [lower, upper] intervals,
// overriding the variant's default bounds for the named coefficients.
func WithBounds(bounds map[string][2]float64) Option {
	return func(e *Estimator) {
		for name, b := range bounds {
			e.bounds[name] = b
		}
	}
}

// WithGuesses overrides the optimizer starting point for the named
// coefficients.
func WithGuesses(guesses equations.Params) Option {
	return func(e *Estimator) {
		for name, g := range guesses {
			e.guesses[name] = g
		}
	}
}

// WithFixedOmega pins the natural frequency to a spectral estimate of
// the observed series instead of fitting it. Variants that do not
// declare omega0 as a coefficient are unaffected.
func WithFixedOmega() Option {
	return func(e *Estimator) { e.fixedOmega = true }
}

// WithoutSuccessAssertion stores best-so-far parameters from a fit that
// missed its convergence criterion instead of failing.
func WithoutSuccessAssertion() Option {
	return func(e *Estimator) { e.assert = false }
}

// WithIntegrator selects the forward integrator, IntegratorRK45 (the
// default) or IntegratorRK4.
func WithIntegrator(name string) Option {
	return func(e *Estimator) { e.integrator = name }
}

// New builds an estimator for the variant. Every bounds and guess key is
// validated against the variant's declared coefficient set.
func New(variant equations.Variant, opts ...Option) (*Estimator, error) {
	desc, err := equations.Get(variant)
	if err != nil {
		return nil, err
	}

	e := &Estimator{
		desc:       desc,
		method:     desc.DefaultMethod,
		integrator: IntegratorRK45,
		maxEval:    defaultMaxEval,
		ftol:       defaultFTol,
		assert:     true,
		bounds:     make(map[string][2]float64),
		guesses:    equations.Params{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.method != equations.MethodDerivation && e.method != equations.MethodIntegration {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, e.method)
	}
	if e.integrator != IntegratorRK45 && e.integrator != IntegratorRK4 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, e.integrator)
	}
	if e.maxEval <= 0 {
		return nil, fmt.Errorf("estimator: max evaluations must be positive, got %d", e.maxEval)
	}
	for name, b := range e.bounds {
		if !desc.HasCoefficient(name) {
			return nil, fmt.Errorf("%w: bound for %q (variant %s)", ErrUnknownCoefficient, name, variant)
		}
		if b[0] > b[1] {
			return nil, fmt.Errorf("estimator: bound for %q has lower %g above upper %g", name, b[0], b[1])
		}
	}
	for name := range e.guesses {
		if !desc.HasCoefficient(name) {
			return nil, fmt.Errorf("%w: guess for %q (variant %s)", ErrUnknownCoefficient, name, variant)
		}
	}
	return e, nil
}

// Variant returns the tag fixed at construction.
func (e *Estimator) Variant() equations.Variant { return e.desc.Variant }

// Method returns the fitting method in effect, after defaulting.
func (e *Estimator) Method() string { return e.method }

// Simulate integrates the variant forward over the time grid from the
// given initial angle and rate. The parameter set must contain exactly
// the declared coefficients.
func (e *Estimator) Simulate(t []float64, phi0, phi1d0 float64, p equations.Params) (motion.Series, error) {
	if err := e.desc.ValidateParams(p); err != nil {
		return motion.Series{}, err
	}
	phi, phi1d, err := e.integrate(t, ode.State{Phi: phi0, Phi1d: phi1d0}, p)
	if err != nil {
		return motion.Series{}, err
	}
	return motion.Series{
		T:     append([]float64(nil), t...),
		Phi:   phi,
		Phi1d: phi1d,
	}, nil
}

// Predict re-simulates the fitted variant on the observed series' time
// grid, starting from the first observed angle and rate (zero rate when
// the channel is absent).
func (e *Estimator) Predict(x motion.Series) (motion.Series, error) {
	if e.fit == nil {
		return motion.Series{}, ErrNotFitted
	}
	if err := x.Validate(); err != nil {
		return motion.Series{}, err
	}
	phi1d0 := 0.0
	if len(x.Phi1d) > 0 {
		phi1d0 = x.Phi1d[0]
	}
	return e.Simulate(x.T, x.Phi[0], phi1d0, e.fit.Parameters)
}

// Score reports the coefficient of determination between the observed
// roll angle and the fitted variant's prediction.
func (e *Estimator) Score(x motion.Series) (float64, error) {
	pred, err := e.Predict(x)
	if err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(pred.Phi, x.Phi, nil), nil
}

func (e *Estimator) integrate(t []float64, s0 ode.State, p equations.Params) ([]float64, []float64, error) {
	fn := func(_ float64, s ode.State) ode.State {
		return ode.State{Phi: s.Phi1d, Phi1d: e.desc.Accel(s.Phi, s.Phi1d, p)}
	}
	if e.integrator == IntegratorRK4 {
		return ode.SolveFixed(fn, t, s0, fixedSubsteps)
	}
	return ode.Solve(fn, t, s0, ode.Options{})
}
