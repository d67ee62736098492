package equations

import "math"

// The governing equation is phi'' + B(phi')/A_44 + C(phi)/A_44 = 0 with
// polynomial damping B and restoring C. Variants differ only in which
// polynomial terms they keep. The quadratic damping term is written
// phi1d*|phi1d| so it vanishes smoothly at phi1d = 0.

func linearAccel(phi, phi1d float64, p Params) float64 {
	zeta, omega0 := p["zeta"], p["omega0"]
	return -2*zeta*omega0*phi1d - omega0*omega0*phi
}

func quadraticBAccel(phi, phi1d float64, p Params) float64 {
	return -(p["B_1A"]*phi1d + p["B_2A"]*phi1d*math.Abs(phi1d) + p["C_1A"]*phi)
}

func quadraticBandCAccel(phi, phi1d float64, p Params) float64 {
	return -(p["B_1A"]*phi1d + p["B_2A"]*phi1d*math.Abs(phi1d) +
		p["C_1A"]*phi + p["C_3A"]*phi*phi*phi)
}

func cubicAccel(phi, phi1d float64, p Params) float64 {
	phi2 := phi * phi
	return -(p["B_1A"]*phi1d + p["B_2A"]*phi1d*math.Abs(phi1d) + p["B_3A"]*phi1d*phi1d*phi1d +
		p["C_1A"]*phi + p["C_3A"]*phi2*phi + p["C_5A"]*phi2*phi2*phi)
}

func omega0FromC1A(p Params) float64 { return math.Sqrt(p["C_1A"]) }

func init() {
	register(&Descriptor{
		Variant:       Linear,
		Coefficients:  []string{"zeta", "omega0"},
		DefaultMethod: MethodDerivation,
		Accel:         linearAccel,
		omega0:        func(p Params) float64 { return p["omega0"] },
	})
	register(&Descriptor{
		Variant:       QuadraticB,
		Coefficients:  []string{"B_1A", "B_2A", "C_1A"},
		NonNegative:   []string{"B_1A"},
		DefaultMethod: MethodIntegration,
		Accel:         quadraticBAccel,
		omega0:        omega0FromC1A,
	})
	register(&Descriptor{
		Variant:       QuadraticBandC,
		Coefficients:  []string{"B_1A", "B_2A", "C_1A", "C_3A"},
		NonNegative:   []string{"B_1A"},
		DefaultMethod: MethodIntegration,
		Accel:         quadraticBandCAccel,
		omega0:        omega0FromC1A,
	})
	register(&Descriptor{
		Variant:       Cubic,
		Coefficients:  []string{"B_1A", "B_2A", "B_3A", "C_1A", "C_3A", "C_5A"},
		NonNegative:   []string{"B_1A"},
		DefaultMethod: MethodIntegration,
		Accel:         cubicAccel,
		omega0:        omega0FromC1A,
	})
}
