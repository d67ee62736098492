package estimator

import (
	"errors"
	"fmt"
	"math"

	"github.com/hydrolab/rolldecay/internal/equations"
	"github.com/hydrolab/rolldecay/internal/lsq"
	"github.com/hydrolab/rolldecay/internal/motion"
	"github.com/hydrolab/rolldecay/internal/ode"
	"github.com/hydrolab/rolldecay/internal/spectral"
)

// Fit estimates the variant's coefficients from an observed decay. A
// prior fit result is replaced, never merged. With the success
// assertion on (the default) an optimizer that misses its convergence
// criterion stores nothing and returns a *ConvergenceError; with it off
// the best parameters found are stored flagged as not converged.
func (e *Estimator) Fit(x motion.Series) error {
	if err := x.Validate(); err != nil {
		return err
	}

	fixed := equations.Params{}
	if e.fixedOmega && e.desc.HasCoefficient("omega0") {
		omega, err := spectral.NaturalFrequency(x.T, x.Phi)
		if err != nil {
			return fmt.Errorf("estimator: fixed-frequency estimate: %w", err)
		}
		fixed["omega0"] = omega
	}

	names := make([]string, 0, len(e.desc.Coefficients))
	for _, name := range e.desc.Coefficients {
		if _, ok := fixed[name]; ok {
			continue
		}
		names = append(names, name)
	}

	x0 := make([]float64, len(names))
	lower := make([]float64, len(names))
	upper := make([]float64, len(names))
	for i, name := range names {
		x0[i] = defaultGuess
		if g, ok := e.guesses[name]; ok {
			x0[i] = g
		}
		lower[i], upper[i] = math.Inf(-1), math.Inf(1)
		for _, nn := range e.desc.NonNegative {
			if nn == name {
				lower[i] = 0
			}
		}
		if b, ok := e.bounds[name]; ok {
			lower[i], upper[i] = b[0], b[1]
		}
	}

	residuals, err := e.residualFunc(x, names, fixed)
	if err != nil {
		return err
	}

	res, err := lsq.Solve(lsq.Problem{
		Residuals:    residuals,
		NumResiduals: len(x.T),
		X0:           x0,
		Lower:        lower,
		Upper:        upper,
		Loss:         lsq.LossSoftL1,
		FScale:       robustScale,
		FTol:         e.ftol,
		MaxEval:      e.maxEval,
	})
	if err != nil {
		return err
	}

	if !res.Converged && e.assert {
		return &ConvergenceError{Variant: e.desc.Variant, Status: res.Status, Evaluations: res.Evaluations}
	}

	params := fixed.Clone()
	for i, name := range names {
		params[name] = res.X[i]
	}
	e.fit = &FitResult{
		Variant:     e.desc.Variant,
		Method:      e.method,
		Parameters:  params,
		Converged:   res.Converged,
		Residuals:   res.Residuals,
		Omega0Fixed: len(fixed) > 0,
		Evaluations: res.Evaluations,
	}
	return nil
}

// residualFunc builds the optimizer callback for the configured method.
// Trial parameter sets are assembled from the optimizer vector plus any
// pinned coefficients.
func (e *Estimator) residualFunc(x motion.Series, names []string, fixed equations.Params) (func(v, out []float64) error, error) {
	switch e.method {
	case equations.MethodDerivation:
		if !x.HasDerivatives() {
			return nil, ErrMissingDerivatives
		}
		return func(v, out []float64) error {
			p := e.trialParams(names, v, fixed)
			for i := range x.T {
				out[i] = x.Phi2d[i] - e.desc.Accel(x.Phi[i], x.Phi1d[i], p)
			}
			return nil
		}, nil

	case equations.MethodIntegration:
		// TODO: seed the trial rate from Phi1d[0] when the channel is
		// present; the zero seed assumes the record starts at release
		// from rest.
		s0 := ode.State{Phi: x.Phi[0]}
		return func(v, out []float64) error {
			p := e.trialParams(names, v, fixed)
			phi, _, err := e.integrate(x.T, s0, p)
			if err != nil {
				var simErr *ode.SimulationError
				if errors.As(err, &simErr) {
					// An unintegrable trial region scores infinitely
					// bad instead of aborting the whole fit.
					for i := range out {
						out[i] = math.Inf(1)
					}
					return nil
				}
				return err
			}
			for i := range out {
				out[i] = x.Phi[i] - phi[i]
			}
			return nil
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, e.method)
}

func (e *Estimator) trialParams(names []string, v []float64, fixed equations.Params) equations.Params {
	p := fixed.Clone()
	for i, name := range names {
		p[name] = v[i]
	}
	return p
}
