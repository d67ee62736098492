package estimator

import (
	"fmt"
	"strings"

	"github.com/hydrolab/rolldecay/internal/equations"
)

// FitResult is the outcome of one Fit call.
type FitResult struct {
	Variant     equations.Variant
	Method      string
	Parameters  equations.Params
	Converged   bool
	Residuals   []float64
	Omega0Fixed bool
	Evaluations int
}

// ConvergenceError reports an optimizer that missed its convergence
// criterion within the evaluation budget.
type ConvergenceError struct {
	Variant     equations.Variant
	Status      string
	Evaluations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("estimator: %s fit did not converge after %d evaluations (%s)",
		e.Variant, e.Evaluations, e.Status)
}

// ShipMetadata carries the hull quantities needed to convert normalized
// coefficients to dimensional ones. Rho and G default to 1000 kg/m3 and
// 9.81 m/s2 when zero.
type ShipMetadata struct {
	Volume float64 // displaced volume [m^3]
	GM     float64 // metacentric height [m]
	Rho    float64 // water density [kg/m^3]
	G      float64 // gravity [m/s^2]
}

// Fitted returns a copy of the stored fit result.
func (e *Estimator) Fitted() (FitResult, error) {
	if e.fit == nil {
		return FitResult{}, ErrNotFitted
	}
	out := *e.fit
	out.Parameters = e.fit.Parameters.Clone()
	out.Residuals = append([]float64(nil), e.fit.Residuals...)
	return out, nil
}

// ResultForDatabase flattens the stored fit into a persistence-ready
// mapping: the fitted coefficients, the natural frequency, the
// effective roll inertia A_44 and each damping/restoring coefficient
// scaled back to dimensional form (trailing A stripped from the name).
func (e *Estimator) ResultForDatabase(meta ShipMetadata) (map[string]float64, error) {
	if e.fit == nil {
		return nil, ErrNotFitted
	}
	return Dimensional(e.desc.Variant, e.fit.Parameters, meta)
}

// Dimensional performs the same conversion as ResultForDatabase for a
// parameter set recovered from storage rather than a live fit.
func Dimensional(variant equations.Variant, p equations.Params, meta ShipMetadata) (map[string]float64, error) {
	desc, err := equations.Get(variant)
	if err != nil {
		return nil, err
	}
	if err := desc.ValidateParams(p); err != nil {
		return nil, err
	}
	if meta.Volume <= 0 || meta.GM <= 0 {
		return nil, fmt.Errorf("%w (volume %g, gm %g)", ErrMissingMetadata, meta.Volume, meta.GM)
	}
	rho := meta.Rho
	if rho == 0 {
		rho = 1000
	}
	g := meta.G
	if g == 0 {
		g = 9.81
	}

	mass := meta.Volume * rho
	omega0 := desc.NaturalFrequency(p)
	a44 := desc.EffectiveInertia(p, meta.GM, g, mass)

	out := make(map[string]float64, 2*len(p)+2)
	for name, v := range p {
		out[name] = v
	}
	out["omega0"] = omega0
	out["A_44"] = a44
	for name, v := range p {
		if strings.HasSuffix(name, "A") {
			out[strings.TrimSuffix(name, "A")] = v * a44
		}
	}
	if desc.Variant == equations.Linear {
		out["B_1"] = 2 * p["zeta"] * omega0 * a44
		out["C_1"] = omega0 * omega0 * a44
	}
	return out, nil
}
