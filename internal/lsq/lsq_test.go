package lsq

import (
	"errors"
	"math"
	"testing"
)

func TestSolveLinearModel(t *testing.T) {
	// y = 2x - 3 sampled exactly; the fit must recover both parameters.
	xs := make([]float64, 30)
	ys := make([]float64, 30)
	for i := range xs {
		xs[i] = float64(i) * 0.5
		ys[i] = 2*xs[i] - 3
	}

	p := Problem{
		Residuals: func(x, out []float64) error {
			for i := range xs {
				out[i] = ys[i] - (x[0]*xs[i] + x[1])
			}
			return nil
		},
		NumResiduals: len(xs),
		X0:           []float64{0, 0},
	}

	res, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, got status %q", res.Status)
	}
	if math.Abs(res.X[0]-2) > 1e-6 {
		t.Errorf("slope: got %.8f, expected 2", res.X[0])
	}
	if math.Abs(res.X[1]+3) > 1e-6 {
		t.Errorf("intercept: got %.8f, expected -3", res.X[1])
	}
}

func TestSolveExponentialDecay(t *testing.T) {
	// y = A*exp(-k*t) with A=2, k=0.3.
	n := 50
	ts := make([]float64, n)
	ys := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) * 0.2
		ys[i] = 2 * math.Exp(-0.3*ts[i])
	}

	p := Problem{
		Residuals: func(x, out []float64) error {
			for i := range ts {
				out[i] = ys[i] - x[0]*math.Exp(-x[1]*ts[i])
			}
			return nil
		},
		NumResiduals: n,
		X0:           []float64{1, 0.1},
		MaxEval:      1000,
	}

	res, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, got status %q", res.Status)
	}
	if math.Abs(res.X[0]-2) > 1e-6 || math.Abs(res.X[1]-0.3) > 1e-6 {
		t.Errorf("expected (2, 0.3), got (%.8f, %.8f)", res.X[0], res.X[1])
	}
	if res.Evaluations >= 1000 {
		t.Errorf("budget exhausted: %d evaluations", res.Evaluations)
	}
}

func TestSolveRespectsBounds(t *testing.T) {
	// Unconstrained optimum at 5, upper bound at 2: the solution pins to
	// the bound and still reports convergence.
	p := Problem{
		Residuals: func(x, out []float64) error {
			out[0] = x[0] - 5
			out[1] = x[0] - 5
			return nil
		},
		NumResiduals: 2,
		X0:           []float64{0},
		Upper:        []float64{2},
	}

	res, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, got status %q", res.Status)
	}
	if math.Abs(res.X[0]-2) > 1e-9 {
		t.Errorf("expected solution at bound 2, got %.9f", res.X[0])
	}
}

func TestSolveClampsStartingPoint(t *testing.T) {
	p := Problem{
		Residuals: func(x, out []float64) error {
			out[0] = x[0] - 1
			out[1] = x[0] - 1
			return nil
		},
		NumResiduals: 2,
		X0:           []float64{-5},
		Lower:        []float64{0},
	}

	res, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Converged || math.Abs(res.X[0]-1) > 1e-6 {
		t.Errorf("expected 1, got %.8f (status %q)", res.X[0], res.Status)
	}
}

func TestSolveSoftL1DownweightsOutlier(t *testing.T) {
	n := 20
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i + 1)
		ys[i] = 2 * xs[i]
	}
	ys[9] += 50 // single corrupted sample

	residuals := func(x, out []float64) error {
		for i := range xs {
			out[i] = ys[i] - x[0]*xs[i]
		}
		return nil
	}

	plain, err := Solve(Problem{Residuals: residuals, NumResiduals: n, X0: []float64{1}})
	if err != nil {
		t.Fatalf("linear loss: %v", err)
	}
	robust, err := Solve(Problem{
		Residuals:    residuals,
		NumResiduals: n,
		X0:           []float64{1},
		Loss:         LossSoftL1,
		FScale:       0.1,
		MaxEval:      1000,
	})
	if err != nil {
		t.Fatalf("soft_l1: %v", err)
	}

	plainErr := math.Abs(plain.X[0] - 2)
	robustErr := math.Abs(robust.X[0] - 2)
	if robustErr >= plainErr {
		t.Errorf("robust loss did not help: plain %.6f vs robust %.6f", plainErr, robustErr)
	}
	if robustErr > 0.02 {
		t.Errorf("robust slope too far off: %.6f", robust.X[0])
	}
}

func TestSolveInfiniteRegionRejected(t *testing.T) {
	// Trial points beyond 3 are unreachable; the search must settle
	// against that frontier instead of aborting.
	p := Problem{
		Residuals: func(x, out []float64) error {
			if x[0] > 3 {
				out[0] = math.Inf(1)
				out[1] = math.Inf(1)
				return nil
			}
			out[0] = x[0] - 5
			out[1] = x[0] - 5
			return nil
		},
		NumResiduals: 2,
		X0:           []float64{0},
		MaxEval:      2000,
	}

	res, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence near the frontier, got status %q", res.Status)
	}
	if res.X[0] < 2.5 || res.X[0] > 3.0000001 {
		t.Errorf("expected solution just below 3, got %.8f", res.X[0])
	}
}

func TestSolveBadStart(t *testing.T) {
	p := Problem{
		Residuals: func(x, out []float64) error {
			out[0] = math.Inf(1)
			out[1] = math.Inf(1)
			return nil
		},
		NumResiduals: 2,
		X0:           []float64{1},
	}

	_, err := Solve(p)
	if !errors.Is(err, ErrBadStart) {
		t.Fatalf("expected ErrBadStart, got %v", err)
	}
}

func TestSolveBudgetExhausted(t *testing.T) {
	p := Problem{
		Residuals: func(x, out []float64) error {
			for i := range out {
				out[i] = float64(i)*x[0] + x[1] - 1
			}
			return nil
		},
		NumResiduals: 10,
		X0:           []float64{5, 5},
		MaxEval:      3,
	}

	res, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Converged {
		t.Error("expected non-convergence on a 3-evaluation budget")
	}
	if res.Status != "max evaluations" {
		t.Errorf("expected max evaluations status, got %q", res.Status)
	}
	if res.Evaluations != 3 {
		t.Errorf("expected exactly 3 evaluations, got %d", res.Evaluations)
	}
}

func TestSolveCallbackError(t *testing.T) {
	boom := errors.New("sensor gap")
	p := Problem{
		Residuals: func(x, out []float64) error {
			return boom
		},
		NumResiduals: 2,
		X0:           []float64{1},
	}

	_, err := Solve(p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error to propagate, got %v", err)
	}
}

func TestSolveValidation(t *testing.T) {
	ok := func(x, out []float64) error { return nil }

	tests := []struct {
		name string
		p    Problem
	}{
		{"empty x0", Problem{Residuals: ok, NumResiduals: 3}},
		{"underdetermined", Problem{Residuals: ok, NumResiduals: 1, X0: []float64{1, 2}}},
		{"nil residuals", Problem{NumResiduals: 3, X0: []float64{1}}},
		{"bad bounds", Problem{Residuals: ok, NumResiduals: 3, X0: []float64{1}, Lower: []float64{2}, Upper: []float64{1}}},
		{"bound length", Problem{Residuals: ok, NumResiduals: 3, X0: []float64{1}, Lower: []float64{0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Solve(tt.p); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
