package ode

import "fmt"

// rk4Step advances one classical Runge-Kutta step of size h.
func rk4Step(fn Deriv, t float64, y [2]float64, h float64) [2]float64 {
	var x [2]float64

	k1 := eval(fn, t, y)

	for i := 0; i < 2; i++ {
		x[i] = y[i] + h*0.5*k1[i]
	}
	k2 := eval(fn, t+h*0.5, x)

	for i := 0; i < 2; i++ {
		x[i] = y[i] + h*0.5*k2[i]
	}
	k3 := eval(fn, t+h*0.5, x)

	for i := 0; i < 2; i++ {
		x[i] = y[i] + h*k3[i]
	}
	k4 := eval(fn, t+h, x)

	h6 := h / 6.0
	var out [2]float64
	for i := 0; i < 2; i++ {
		out[i] = y[i] + h6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}

// SolveFixed integrates fn across the grid with classical RK4, taking
// substeps fixed subdivisions between consecutive grid points. It serves
// as a cross-check for the adaptive solver and as a cheap alternative on
// dense grids.
func SolveFixed(fn Deriv, t []float64, s0 State, substeps int) ([]float64, []float64, error) {
	if len(t) == 0 {
		return nil, nil, fmt.Errorf("ode: empty time grid")
	}
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return nil, nil, fmt.Errorf("ode: time grid must be strictly increasing (index %d)", i)
		}
	}
	if substeps < 1 {
		substeps = 1
	}

	n := len(t)
	phi := make([]float64, n)
	phi1d := make([]float64, n)
	phi[0], phi1d[0] = s0.Phi, s0.Phi1d

	y := [2]float64{s0.Phi, s0.Phi1d}
	for i := 1; i < n; i++ {
		h := (t[i] - t[i-1]) / float64(substeps)
		tcur := t[i-1] - t[0]
		for k := 0; k < substeps; k++ {
			y = rk4Step(fn, tcur, y, h)
			tcur += h
		}
		if !(State{y[0], y[1]}).IsValid() {
			return nil, nil, &SimulationError{Step: i, Time: t[i], State: State{y[0], y[1]}, Wrapped: ErrNonFinite}
		}
		phi[i] = y[0]
		phi1d[i] = y[1]
	}

	return phi, phi1d, nil
}
