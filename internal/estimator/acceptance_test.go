package estimator

import (
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hydrolab/rolldecay/internal/equations"
	"github.com/hydrolab/rolldecay/internal/motion"
)

// buildDecay simulates a release from rest and fills the acceleration
// channel from the closed form, so both fit methods see exact inputs.
func buildDecay(v equations.Variant, ts []float64, phi0 float64, truth equations.Params) motion.Series {
	est, err := New(v)
	Expect(err).NotTo(HaveOccurred())
	s, err := est.Simulate(ts, phi0, 0, truth)
	Expect(err).NotTo(HaveOccurred())
	d, err := equations.Get(v)
	Expect(err).NotTo(HaveOccurred())
	s.Phi2d = make([]float64, len(s.T))
	for i := range s.T {
		s.Phi2d[i] = d.Accel(s.Phi[i], s.Phi1d[i], truth)
	}
	return s
}

func maxAbsDiff(a, b []float64) float64 {
	worst := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > worst {
			worst = d
		}
	}
	return worst
}

type roundTripCase struct {
	variant equations.Variant
	truth   equations.Params
	phi0    float64
	ts      []float64
	start   equations.Params // warm start for the re-simulation fits
}

func roundTripCases() []roundTripCase {
	return []roundTripCase{
		{
			variant: equations.Linear,
			truth:   equations.Params{"zeta": 0.044, "omega0": 2 * math.Pi / 20},
			phi0:    2 * math.Pi / 180,
			ts:      linspace(0, 120, 1000),
		},
		{
			variant: equations.QuadraticB,
			truth:   equations.Params{"B_1A": 0.02, "B_2A": 0.25, "C_1A": 0.1},
			phi0:    0.25,
			ts:      linspace(0, 60, 600),
			start:   equations.Params{"B_1A": 0.03, "B_2A": 0.35, "C_1A": 0.115},
		},
		{
			variant: equations.QuadraticBandC,
			truth:   equations.Params{"B_1A": 0.02, "B_2A": 0.25, "C_1A": 0.1, "C_3A": 0.08},
			phi0:    0.25,
			ts:      linspace(0, 60, 600),
			start:   equations.Params{"B_1A": 0.03, "B_2A": 0.35, "C_1A": 0.115, "C_3A": 0.09},
		},
		{
			variant: equations.Cubic,
			truth: equations.Params{"B_1A": 0.02, "B_2A": 0.2, "B_3A": 0.15,
				"C_1A": 0.1, "C_3A": 0.08, "C_5A": 0.05},
			phi0: 0.3,
			ts:   linspace(0, 60, 600),
			start: equations.Params{"B_1A": 0.03, "B_2A": 0.28, "B_3A": 0.2,
				"C_1A": 0.115, "C_3A": 0.09, "C_5A": 0.06},
		},
	}
}

var _ = Describe("Roll decay estimation", func() {

	Describe("round-trip recovery", func() {
		for _, tc := range roundTripCases() {
			tc := tc
			Describe(string(tc.variant), func() {
				var observed motion.Series

				BeforeEach(func() {
					observed = buildDecay(tc.variant, tc.ts, tc.phi0, tc.truth)
				})

				It("recovers the parameters from exact derivative channels", func() {
					est, err := New(tc.variant, WithMethod(equations.MethodDerivation))
					Expect(err).NotTo(HaveOccurred())
					Expect(est.Fit(observed)).To(Succeed())

					fit, err := est.Fitted()
					Expect(err).NotTo(HaveOccurred())
					Expect(fit.Converged).To(BeTrue())
					for name, want := range tc.truth {
						Expect(fit.Parameters[name]).To(BeNumerically("~", want, 1e-6), name)
					}

					score, err := est.Score(observed)
					Expect(err).NotTo(HaveOccurred())
					Expect(score).To(BeNumerically(">", 0.999))
				})

				It("recovers the parameters by re-simulating the decay", func() {
					opts := []Option{WithMethod(equations.MethodIntegration)}
					if tc.start != nil {
						opts = append(opts, WithGuesses(tc.start))
					}
					est, err := New(tc.variant, opts...)
					Expect(err).NotTo(HaveOccurred())
					Expect(est.Fit(observed)).To(Succeed())

					fit, err := est.Fitted()
					Expect(err).NotTo(HaveOccurred())
					Expect(fit.Converged).To(BeTrue())
					for name, want := range tc.truth {
						tol := 0.01 * math.Abs(want)
						if tol < 1e-4 {
							tol = 1e-4
						}
						Expect(fit.Parameters[name]).To(BeNumerically("~", want, tol), name)
					}

					pred, err := est.Predict(observed)
					Expect(err).NotTo(HaveOccurred())
					Expect(maxAbsDiff(pred.Phi, observed.Phi)).To(BeNumerically("<", 5e-4))

					score, err := est.Score(observed)
					Expect(err).NotTo(HaveOccurred())
					Expect(score).To(BeNumerically(">", 0.999))
				})
			})
		}
	})

	Describe("a two degree linear release", func() {
		It("is reproduced to three decimals by an integration fit with free frequency", func() {
			ts := linspace(0, 120, 1000)
			truth := equations.Params{"zeta": 0.044, "omega0": 2 * math.Pi / 20}

			source, err := New(equations.Linear)
			Expect(err).NotTo(HaveOccurred())
			observed, err := source.Simulate(ts, 2*math.Pi/180, 0, truth)
			Expect(err).NotTo(HaveOccurred())

			est, err := New(equations.Linear, WithMethod(equations.MethodIntegration))
			Expect(err).NotTo(HaveOccurred())
			Expect(est.Fit(observed)).To(Succeed())

			pred, err := est.Predict(observed)
			Expect(err).NotTo(HaveOccurred())
			Expect(maxAbsDiff(pred.Phi, observed.Phi)).To(BeNumerically("<", 5e-4))

			score, err := est.Score(observed)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically(">", 0.999))

			fit, err := est.Fitted()
			Expect(err).NotTo(HaveOccurred())
			Expect(fit.Parameters["zeta"]).To(BeNumerically("~", 0.044, 1e-3))
			Expect(fit.Parameters["omega0"]).To(BeNumerically("~", 2*math.Pi/20, 1e-3))
		})
	})

	Describe("fixed natural frequency", func() {
		truth := equations.Params{"zeta": 0.044, "omega0": 2 * math.Pi / 20}
		var observed motion.Series

		BeforeEach(func() {
			observed = buildDecay(equations.Linear, linspace(0, 120, 1000), 2*math.Pi/180, truth)
		})

		for _, method := range []string{equations.MethodDerivation, equations.MethodIntegration} {
			method := method
			It("pins omega0 to the spectral peak under the "+method+" method", func() {
				est, err := New(equations.Linear, WithMethod(method), WithFixedOmega())
				Expect(err).NotTo(HaveOccurred())
				Expect(est.Fit(observed)).To(Succeed())

				fit, err := est.Fitted()
				Expect(err).NotTo(HaveOccurred())
				Expect(fit.Converged).To(BeTrue())
				Expect(fit.Omega0Fixed).To(BeTrue())
				// The spectral estimate lands on a frequency bin, so it
				// carries a bin-width bias rather than fit noise.
				Expect(fit.Parameters["omega0"]).To(BeNumerically("~", 2*math.Pi/20, 0.01*2*math.Pi/20))
				Expect(fit.Parameters["zeta"]).To(BeNumerically("~", 0.044, 5e-3))

				score, err := est.Score(observed)
				Expect(err).NotTo(HaveOccurred())
				Expect(score).To(BeNumerically(">", 0.999))
			})
		}
	})

	Describe("simulator consistency", func() {
		It("produces a series whose numerical second derivative matches the closed form", func() {
			truth := equations.Params{"zeta": 0.044, "omega0": 2 * math.Pi / 20}
			observed := buildDecay(equations.Linear, linspace(0, 120, 1000), 2*math.Pi/180, truth)

			numeric, err := motion.Derivatives(motion.Series{T: observed.T, Phi: observed.Phi})
			Expect(err).NotTo(HaveOccurred())

			// Edge samples use one-sided first-order differences; compare
			// the interior only.
			n := len(observed.T)
			worst := maxAbsDiff(numeric.Phi2d[2:n-2], observed.Phi2d[2:n-2])
			Expect(worst).To(BeNumerically("<", 1e-5))
		})

		It("evaluates the rate-dependent damping to exactly zero at zero rate", func() {
			params := map[equations.Variant]equations.Params{
				equations.QuadraticB:     {"B_1A": 0.3, "B_2A": 0.4, "C_1A": 0.1},
				equations.QuadraticBandC: {"B_1A": 0.3, "B_2A": 0.4, "C_1A": 0.1, "C_3A": 0.08},
				equations.Cubic:          {"B_1A": 0.3, "B_2A": 0.4, "B_3A": 0.5, "C_1A": 0.1, "C_3A": 0.08, "C_5A": 0.05},
			}
			for v, p := range params {
				d, err := equations.Get(v)
				Expect(err).NotTo(HaveOccurred())

				noDamping := p.Clone()
				for name := range noDamping {
					if strings.HasPrefix(name, "B_") {
						noDamping[name] = 0
					}
				}
				for _, phi := range []float64{0.3, -0.2, 0.05} {
					Expect(d.Accel(phi, 0, p)).To(Equal(d.Accel(phi, 0, noDamping)), string(v))
				}
			}
		})
	})

	Describe("optimizer failure handling", func() {
		truth := equations.Params{"zeta": 0.044, "omega0": 0.4}
		var observed motion.Series

		BeforeEach(func() {
			observed = buildDecay(equations.Linear, linspace(0, 60, 400), 0.2, truth)
		})

		It("raises a convergence error when hopeless bounds meet a tiny budget", func() {
			est, err := New(equations.Linear,
				WithBounds(map[string][2]float64{"zeta": {5, 6}}),
				WithMaxEvaluations(3))
			Expect(err).NotTo(HaveOccurred())

			err = est.Fit(observed)
			var ce *ConvergenceError
			Expect(errors.As(err, &ce)).To(BeTrue(), "got %v", err)
			Expect(ce.Variant).To(Equal(equations.Linear))

			_, err = est.Fitted()
			Expect(err).To(MatchError(ErrNotFitted))
		})

		It("stores the flagged best effort when the assertion is off", func() {
			est, err := New(equations.Linear,
				WithBounds(map[string][2]float64{"zeta": {5, 6}}),
				WithMaxEvaluations(3),
				WithoutSuccessAssertion())
			Expect(err).NotTo(HaveOccurred())

			Expect(est.Fit(observed)).To(Succeed())
			fit, err := est.Fitted()
			Expect(err).NotTo(HaveOccurred())
			Expect(fit.Converged).To(BeFalse())
			Expect(fit.Parameters["zeta"]).To(BeNumerically(">=", 5))
		})
	})

	Describe("dimensional conversion", func() {
		It("reports inertia and frequency consistent with the closed forms", func() {
			truth := equations.Params{"zeta": 0.044, "omega0": 2 * math.Pi / 20}
			observed := buildDecay(equations.Linear, linspace(0, 120, 1000), 2*math.Pi/180, truth)

			est, err := New(equations.Linear)
			Expect(err).NotTo(HaveOccurred())
			Expect(est.Fit(observed)).To(Succeed())

			out, err := est.ResultForDatabase(ShipMetadata{Volume: 6712, GM: 1.18})
			Expect(err).NotTo(HaveOccurred())

			Expect(out["A_44"]).To(BeNumerically(">", 0))
			Expect(out["omega0"]).To(BeNumerically(">", 0))

			// C_1 = omega0^2 * A_44 collapses to GM*g*mass for any fitted
			// frequency.
			restoring := 1.18 * 9.81 * 6712 * 1000
			Expect(out["C_1"]).To(BeNumerically("~", restoring, 1e-6*restoring))

			damping := 2 * out["zeta"] * out["omega0"] * out["A_44"]
			Expect(out["B_1"]).To(BeNumerically("~", damping, 1e-6*damping))
		})
	})
})
