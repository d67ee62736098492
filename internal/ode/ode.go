package ode

import (
	"fmt"
	"math"
)

// State holds roll angle and roll rate.
type State struct {
	Phi   float64
	Phi1d float64
}

func (s State) IsValid() bool {
	return !math.IsNaN(s.Phi) && !math.IsInf(s.Phi, 0) &&
		!math.IsNaN(s.Phi1d) && !math.IsInf(s.Phi1d, 0)
}

// Deriv evaluates the first-order system: the returned State carries
// d(phi)/dt in Phi and d(phi1d)/dt in Phi1d.
type Deriv func(t float64, s State) State

// Options tunes the adaptive solver. Zero values select defaults.
type Options struct {
	Tol      float64 // local error tolerance, default 1e-8
	InitStep float64 // first trial step, default span/1000
	MaxSteps int     // step attempt budget, default 100000
}

func (o Options) withDefaults(span float64) Options {
	if o.Tol <= 0 {
		o.Tol = 1e-8
	}
	if o.InitStep <= 0 {
		o.InitStep = span / 1000
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = 100000
	}
	return o
}

// Solve integrates fn from s0 across the time grid t and returns phi and
// phi1d sampled at every grid point. The grid must be strictly
// increasing; it need not be uniform. Integration runs on the grid
// shifted to start at zero and samples between accepted steps come from
// cubic Hermite interpolation.
func Solve(fn Deriv, t []float64, s0 State, opts Options) ([]float64, []float64, error) {
	if len(t) == 0 {
		return nil, nil, fmt.Errorf("ode: empty time grid")
	}
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return nil, nil, fmt.Errorf("ode: time grid must be strictly increasing (index %d)", i)
		}
	}

	n := len(t)
	phi := make([]float64, n)
	phi1d := make([]float64, n)
	phi[0], phi1d[0] = s0.Phi, s0.Phi1d
	if n == 1 {
		return phi, phi1d, nil
	}

	tau := make([]float64, n)
	for i := range t {
		tau[i] = t[i] - t[0]
	}
	end := tau[n-1]
	opts = opts.withDefaults(end)
	minStep := 1e-12 * end

	y := [2]float64{s0.Phi, s0.Phi1d}
	k1 := eval(fn, 0, y)
	h := opts.InitStep
	tcur := 0.0
	next := 1

	for steps := 0; next < n; steps++ {
		if steps >= opts.MaxSteps {
			return nil, nil, &SimulationError{Step: steps, Time: tcur + t[0], State: State{y[0], y[1]}, Wrapped: ErrTooManySteps}
		}
		if h < minStep {
			return nil, nil, &SimulationError{Step: steps, Time: tcur + t[0], State: State{y[0], y[1]}, Wrapped: ErrStepUnderflow}
		}

		last := false
		if tcur+h >= end {
			h = end - tcur
			last = true
		}

		yNew, k7, errRatio, hNext := rk45Step(fn, tcur, y, k1, h, opts.Tol)
		if !(errRatio <= 1) {
			// Rejected (including a non-finite error estimate): retry
			// with the shrunken step.
			h = hNext
			continue
		}

		if !(State{yNew[0], yNew[1]}).IsValid() {
			return nil, nil, &SimulationError{Step: steps, Time: tcur + h + t[0], State: State{yNew[0], yNew[1]}, Wrapped: ErrNonFinite}
		}

		tNew := tcur + h
		if last {
			tNew = end
		}
		for next < n && tau[next] <= tNew {
			theta := (tau[next] - tcur) / h
			phi[next] = hermite(y[0], yNew[0], k1[0], k7[0], h, theta)
			phi1d[next] = hermite(y[1], yNew[1], k1[1], k7[1], h, theta)
			next++
		}

		y = yNew
		k1 = k7
		tcur = tNew
		h = hNext
	}

	return phi, phi1d, nil
}

func eval(fn Deriv, t float64, y [2]float64) [2]float64 {
	d := fn(t, State{Phi: y[0], Phi1d: y[1]})
	return [2]float64{d.Phi, d.Phi1d}
}

// hermite interpolates inside an accepted step; endpoint derivatives
// come from the first and last stage evaluations.
func hermite(y0, y1, f0, f1, h, theta float64) float64 {
	t2 := theta * theta
	t3 := t2 * theta
	return (2*t3-3*t2+1)*y0 + (t3-2*t2+theta)*h*f0 + (-2*t3+3*t2)*y1 + (t3-t2)*h*f1
}
