package equations

import (
	"errors"
	"math"
	"testing"
)

func TestGetUnknownVariant(t *testing.T) {
	_, err := Get("pentic")
	if err == nil {
		t.Fatal("expected error for unknown variant")
	}
	if !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestVariantsSorted(t *testing.T) {
	tags := Variants()
	if len(tags) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(tags))
	}
	for i := 1; i < len(tags); i++ {
		if tags[i-1] >= tags[i] {
			t.Errorf("variants not sorted: %v", tags)
		}
	}
}

func TestCoefficientSets(t *testing.T) {
	tests := []struct {
		variant Variant
		coeffs  []string
	}{
		{Linear, []string{"zeta", "omega0"}},
		{QuadraticB, []string{"B_1A", "B_2A", "C_1A"}},
		{QuadraticBandC, []string{"B_1A", "B_2A", "C_1A", "C_3A"}},
		{Cubic, []string{"B_1A", "B_2A", "B_3A", "C_1A", "C_3A", "C_5A"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			d, err := Get(tt.variant)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if len(d.Coefficients) != len(tt.coeffs) {
				t.Fatalf("expected %d coefficients, got %d", len(tt.coeffs), len(d.Coefficients))
			}
			for i, name := range tt.coeffs {
				if d.Coefficients[i] != name {
					t.Errorf("coefficient %d: expected %s, got %s", i, name, d.Coefficients[i])
				}
			}
		})
	}
}

func TestLinearAcceleration(t *testing.T) {
	d, _ := Get(Linear)
	p := Params{"zeta": 0.044, "omega0": 2 * math.Pi / 20}

	phi := 0.03
	phi1d := -0.01
	want := -2*0.044*p["omega0"]*phi1d - p["omega0"]*p["omega0"]*phi

	got := d.Accel(phi, phi1d, p)
	if math.Abs(got-want) > 1e-15 {
		t.Errorf("expected %g, got %g", want, got)
	}
}

func TestCubicAcceleration(t *testing.T) {
	d, _ := Get(Cubic)
	p := Params{"B_1A": 0.3, "B_2A": 0.6, "B_3A": 0.1, "C_1A": 0.5, "C_3A": 0.05, "C_5A": 0.01}

	phi := 0.1
	phi1d := -0.2
	want := -(0.3*phi1d + 0.6*phi1d*0.2 + 0.1*phi1d*phi1d*phi1d +
		0.5*phi + 0.05*math.Pow(phi, 3) + 0.01*math.Pow(phi, 5))

	got := d.Accel(phi, phi1d, p)
	if math.Abs(got-want) > 1e-15 {
		t.Errorf("expected %g, got %g", want, got)
	}
}

// The phi1d*|phi1d| damping term must vanish exactly at zero rate, with
// no sign-handling artifact on either side.
func TestQuadraticDampingAtZeroRate(t *testing.T) {
	for _, variant := range []Variant{QuadraticB, QuadraticBandC, Cubic} {
		t.Run(string(variant), func(t *testing.T) {
			d, _ := Get(variant)
			p := Params{}
			noDamping := Params{}
			for _, c := range d.Coefficients {
				p[c] = 1.0
				if c[0] == 'B' {
					noDamping[c] = 0.0
				} else {
					noDamping[c] = 1.0
				}
			}

			// Zero rate with full damping must equal any rate with zero
			// damping: exactly the restoring contribution, bit for bit.
			at := d.Accel(0.05, 0, p)
			want := d.Accel(0.05, 0.7, noDamping)
			if at != want {
				t.Errorf("expected pure restoring %g at zero rate, got %g", want, at)
			}

			eps := 1e-9
			plus := d.Accel(0.05, eps, p)
			minus := d.Accel(0.05, -eps, p)
			if math.Abs(plus+minus-2*at) > 1e-8 {
				t.Errorf("damping not odd through zero rate: %g vs %g", plus, minus)
			}
		})
	}
}

func TestValidateParams(t *testing.T) {
	d, _ := Get(QuadraticB)

	ok := Params{"B_1A": 1, "B_2A": 2, "C_1A": 3}
	if err := d.ValidateParams(ok); err != nil {
		t.Errorf("expected valid params, got %v", err)
	}

	extra := ok.Clone()
	extra["C_3A"] = 4
	if err := d.ValidateParams(extra); err == nil {
		t.Error("expected error for undeclared coefficient")
	}

	missing := Params{"B_1A": 1, "B_2A": 2}
	if err := d.ValidateParams(missing); err == nil {
		t.Error("expected error for missing coefficient")
	}
}

func TestNaturalFrequency(t *testing.T) {
	lin, _ := Get(Linear)
	w := lin.NaturalFrequency(Params{"zeta": 0.044, "omega0": 0.31})
	if math.Abs(w-0.31) > 1e-15 {
		t.Errorf("expected omega0 0.31, got %g", w)
	}

	quad, _ := Get(QuadraticB)
	w = quad.NaturalFrequency(Params{"B_1A": 0.1, "B_2A": 0.2, "C_1A": 0.25})
	if math.Abs(w-0.5) > 1e-15 {
		t.Errorf("expected omega0 0.5, got %g", w)
	}
}

func TestEffectiveInertia(t *testing.T) {
	// A_44 = GM*g*m / omega0^2 for every variant.
	gm, g, mass := 2.0, 9.81, 4000.0

	quad, _ := Get(QuadraticB)
	p := Params{"B_1A": 0.1, "B_2A": 0.2, "C_1A": 0.25}
	want := gm * g * mass / 0.25
	got := quad.EffectiveInertia(p, gm, g, mass)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected A_44 %g, got %g", want, got)
	}

	lin, _ := Get(Linear)
	pl := Params{"zeta": 0.05, "omega0": 0.5}
	want = gm * g * mass / 0.25
	got = lin.EffectiveInertia(pl, gm, g, mass)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected A_44 %g, got %g", want, got)
	}
}
