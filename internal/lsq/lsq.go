package lsq

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Loss selects how residuals enter the cost.
type Loss string

const (
	LossLinear Loss = "linear"
	LossSoftL1 Loss = "soft_l1"
)

// Problem describes one bounded least-squares fit.
type Problem struct {
	// Residuals fills out (length NumResiduals) with the residual vector
	// at x. It must not retain either slice. +Inf entries mark x as
	// unreachable; a returned error aborts the whole solve.
	Residuals    func(x, out []float64) error
	NumResiduals int

	X0           []float64
	Lower, Upper []float64 // nil means unbounded on that side

	Loss    Loss
	FScale  float64 // robust loss scale, default 1
	FTol    float64 // relative cost-reduction stop, default 1e-8
	MaxEval int     // residual evaluation budget incl. Jacobian probes, default 100*dim
}

// Result carries the outcome of a solve. X is always the best point
// seen, whether or not the iteration converged.
type Result struct {
	X           []float64
	Residuals   []float64
	Cost        float64
	Evaluations int
	Converged   bool
	Status      string
}

var ErrBadStart = errors.New("lsq: residuals not finite at starting point")

const (
	machEps     = 2.220446049250313e-16
	xtol        = 1e-8
	gtol        = 1e-8
	lambdaInit  = 1e-3
	lambdaUp    = 4.0
	lambdaDown  = 0.3
	lambdaFloor = 1e-12
	lambdaCeil  = 1e12
)

// Solve runs the Levenberg-Marquardt iteration on p.
func Solve(p Problem) (*Result, error) {
	n := len(p.X0)
	m := p.NumResiduals
	if n == 0 {
		return nil, fmt.Errorf("lsq: empty starting point")
	}
	if m < n {
		return nil, fmt.Errorf("lsq: %d residuals cannot determine %d parameters", m, n)
	}
	if p.Residuals == nil {
		return nil, fmt.Errorf("lsq: nil residual function")
	}

	lower, upper, err := expandBounds(p.Lower, p.Upper, n)
	if err != nil {
		return nil, err
	}

	loss := p.Loss
	if loss == "" {
		loss = LossLinear
	}
	fscale := p.FScale
	if fscale <= 0 {
		fscale = 1.0
	}
	ftol := p.FTol
	if ftol <= 0 {
		ftol = 1e-8
	}
	maxEval := p.MaxEval
	if maxEval <= 0 {
		maxEval = 100 * n
	}

	s := &solver{
		p:       p,
		m:       m,
		n:       n,
		lower:   lower,
		upper:   upper,
		loss:    loss,
		fscale:  fscale,
		ftol:    ftol,
		maxEval: maxEval,
	}
	return s.run()
}

type solver struct {
	p            Problem
	m, n         int
	lower, upper []float64
	loss         Loss
	fscale       float64
	ftol         float64
	maxEval      int

	evals int
}

var errBudget = errors.New("lsq: evaluation budget exhausted")

func (s *solver) evaluate(x, out []float64) error {
	if s.evals >= s.maxEval {
		return errBudget
	}
	s.evals++
	return s.p.Residuals(x, out)
}

func (s *solver) run() (*Result, error) {
	n, m := s.n, s.m

	// The starting point is projected into the feasible box.
	x := make([]float64, n)
	copy(x, s.p.X0)
	clamp(x, s.lower, s.upper)

	f := make([]float64, m)
	if err := s.evaluate(x, f); err != nil {
		return nil, err
	}
	cost := s.cost(f)
	if math.IsInf(cost, 0) || math.IsNaN(cost) {
		return nil, ErrBadStart
	}

	scale := make([]float64, n) // Moré column scaling, grows monotonically
	lambda := lambdaInit

	result := func(status string, converged bool) *Result {
		res := make([]float64, m)
		copy(res, f)
		xOut := make([]float64, n)
		copy(xOut, x)
		return &Result{
			X:           xOut,
			Residuals:   res,
			Cost:        cost,
			Evaluations: s.evals,
			Converged:   converged,
			Status:      status,
		}
	}

	ft := make([]float64, m)
	xt := make([]float64, n)

	for {
		jac, err := s.jacobian(x, f)
		if err == errBudget {
			return result("max evaluations", false), nil
		}
		if err != nil {
			return nil, err
		}

		w := s.weights(f)
		fw := make([]float64, m)
		for i := 0; i < m; i++ {
			fw[i] = w[i] * f[i]
		}
		jw := mat.NewDense(m, n, nil)
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				jw.Set(i, j, w[i]*jac.At(i, j))
			}
		}

		// Projected gradient: components pinned at an active bound do
		// not count against convergence.
		grad := make([]float64, n)
		for j := 0; j < n; j++ {
			g := 0.0
			for i := 0; i < m; i++ {
				g += jw.At(i, j) * fw[i]
			}
			if x[j] <= s.lower[j] && g > 0 {
				g = 0
			}
			if x[j] >= s.upper[j] && g < 0 {
				g = 0
			}
			grad[j] = g
		}
		if floats.Norm(grad, math.Inf(1)) < gtol {
			return result("gtol", true), nil
		}

		for j := 0; j < n; j++ {
			colNorm := 0.0
			for i := 0; i < m; i++ {
				v := jw.At(i, j)
				colNorm += v * v
			}
			colNorm = math.Sqrt(colNorm)
			if colNorm > scale[j] {
				scale[j] = colNorm
			}
			if scale[j] == 0 {
				scale[j] = 1
			}
		}

		// Inner loop: adapt lambda until a step is accepted or the
		// iteration stalls.
		for {
			dx, err := solveDamped(jw, fw, scale, lambda)
			if err != nil {
				// Rank problems behave like an over-large step.
				lambda *= lambdaUp
				if lambda > lambdaCeil {
					return result("stalled", false), nil
				}
				continue
			}

			if floats.Norm(dx, 2) < xtol*(floats.Norm(x, 2)+xtol) {
				return result("xtol", true), nil
			}

			copy(xt, x)
			floats.Add(xt, dx)
			clamp(xt, s.lower, s.upper)

			err = s.evaluate(xt, ft)
			if err == errBudget {
				return result("max evaluations", false), nil
			}
			if err != nil {
				return nil, err
			}

			costT := s.cost(ft)
			if !math.IsNaN(costT) && costT < cost {
				reduction := (cost - costT) / math.Max(cost, 1e-300)
				copy(x, xt)
				copy(f, ft)
				cost = costT
				lambda = math.Max(lambda*lambdaDown, lambdaFloor)
				if reduction < s.ftol {
					return result("ftol", true), nil
				}
				break
			}

			// Rejected: infinite or increased cost shrinks the trust
			// region and retries.
			lambda *= lambdaUp
			if lambda > lambdaCeil {
				return result("stalled", false), nil
			}
		}
	}
}

// jacobian computes forward differences around x, flipping to backward
// against an active upper bound. A probe that produces non-finite
// residuals contributes a zero column entry: no descent information.
func (s *solver) jacobian(x, f []float64) (*mat.Dense, error) {
	n, m := s.n, s.m
	jac := mat.NewDense(m, n, nil)
	xp := make([]float64, n)
	fp := make([]float64, m)
	step := math.Sqrt(machEps)

	for j := 0; j < n; j++ {
		h := step * math.Max(1.0, math.Abs(x[j]))
		if x[j]+h > s.upper[j] {
			h = -h
		}

		copy(xp, x)
		xp[j] += h
		if err := s.evaluate(xp, fp); err != nil {
			return nil, err
		}

		for i := 0; i < m; i++ {
			d := (fp[i] - f[i]) / h
			if math.IsNaN(d) || math.IsInf(d, 0) {
				d = 0
			}
			jac.Set(i, j, d)
		}
	}
	return jac, nil
}

// weights produces the IRLS row weights for the active loss: residual i
// is scaled by rho'(z_i)^(1/2) so the weighted Gauss-Newton system
// matches the robust cost gradient.
func (s *solver) weights(f []float64) []float64 {
	w := make([]float64, s.m)
	if s.loss == LossSoftL1 {
		for i, v := range f {
			z := (v / s.fscale) * (v / s.fscale)
			w[i] = math.Pow(1+z, -0.25)
		}
		return w
	}
	for i := range w {
		w[i] = 1
	}
	return w
}

func (s *solver) cost(f []float64) float64 {
	if s.loss == LossSoftL1 {
		sum := 0.0
		for _, v := range f {
			z := (v / s.fscale) * (v / s.fscale)
			sum += s.fscale * s.fscale * (math.Sqrt(1+z) - 1)
		}
		return sum
	}
	sum := 0.0
	for _, v := range f {
		sum += 0.5 * v * v
	}
	return sum
}

// solveDamped solves the augmented system [J; sqrt(lambda)*D] dx = [-f; 0]
// by QR, the damped Gauss-Newton step.
func solveDamped(jw *mat.Dense, fw, scale []float64, lambda float64) ([]float64, error) {
	m, n := jw.Dims()
	a := mat.NewDense(m+n, n, nil)
	b := mat.NewVecDense(m+n, nil)

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, jw.At(i, j))
		}
		b.SetVec(i, -fw[i])
	}
	sqrtLambda := math.Sqrt(lambda)
	for j := 0; j < n; j++ {
		a.Set(m+j, j, sqrtLambda*scale[j])
	}

	qr := new(mat.QR)
	qr.Factorize(a)

	dxVec := mat.NewVecDense(n, nil)
	if err := qr.SolveVecTo(dxVec, false, b); err != nil {
		return nil, fmt.Errorf("lsq: damped system solve: %w", err)
	}

	dx := make([]float64, n)
	for j := 0; j < n; j++ {
		dx[j] = dxVec.AtVec(j)
	}
	for _, v := range dx {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("lsq: damped system produced non-finite step")
		}
	}
	return dx, nil
}

func expandBounds(lower, upper []float64, n int) ([]float64, []float64, error) {
	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := range lo {
		lo[i] = math.Inf(-1)
		hi[i] = math.Inf(1)
	}
	if lower != nil {
		if len(lower) != n {
			return nil, nil, fmt.Errorf("lsq: lower bounds have length %d, want %d", len(lower), n)
		}
		copy(lo, lower)
	}
	if upper != nil {
		if len(upper) != n {
			return nil, nil, fmt.Errorf("lsq: upper bounds have length %d, want %d", len(upper), n)
		}
		copy(hi, upper)
	}
	for i := range lo {
		if lo[i] >= hi[i] {
			return nil, nil, fmt.Errorf("lsq: empty bound interval for parameter %d", i)
		}
	}
	return lo, hi, nil
}

func clamp(x, lower, upper []float64) {
	for i := range x {
		if x[i] < lower[i] {
			x[i] = lower[i]
		}
		if x[i] > upper[i] {
			x[i] = upper[i]
		}
	}
}
