package config

import (
	"math"
	"sort"
)

// Presets are partial configurations keyed by variant tag and preset
// name. Unset fields inherit the estimator defaults.
var Presets = map[string]map[string]*Config{
	"linear": {
		"reference": {
			Variant: "linear", Method: "integration",
			Simulation: SimulationConfig{
				Duration: 120, Samples: 1000, Phi0: 2 * math.Pi / 180,
				Parameters: map[string]float64{"zeta": 0.044, "omega0": 2 * math.Pi / 20},
			},
		},
		"quick": {
			Variant: "linear", Method: "derivation", MaxEvaluations: 500,
			Simulation: SimulationConfig{
				Duration: 60, Samples: 600, Phi0: 2 * math.Pi / 180,
				Parameters: map[string]float64{"zeta": 0.044, "omega0": 2 * math.Pi / 20},
			},
		},
		"fixed-frequency": {
			Variant: "linear", Method: "derivation", FixedOmega: true,
			Simulation: SimulationConfig{
				Duration: 120, Samples: 1000, Phi0: 2 * math.Pi / 180,
				Parameters: map[string]float64{"zeta": 0.044, "omega0": 2 * math.Pi / 20},
			},
		},
	},
	"quadratic_b": {
		"robust": {
			Variant: "quadratic_b", Method: "integration",
			Guesses: map[string]float64{"B_1A": 0.03, "B_2A": 0.3, "C_1A": 0.12},
			Simulation: SimulationConfig{
				Duration: 90, Samples: 900, Phi0: 0.25,
				Parameters: map[string]float64{"B_1A": 0.02, "B_2A": 0.25, "C_1A": 0.1},
			},
			Ship: ShipConfig{Volume: 6712, GM: 1.18},
		},
	},
	"quadratic_bc": {
		"robust": {
			Variant: "quadratic_bc", Method: "integration",
			Guesses: map[string]float64{"B_1A": 0.03, "B_2A": 0.3, "C_1A": 0.12, "C_3A": 0.09},
			Simulation: SimulationConfig{
				Duration: 90, Samples: 900, Phi0: 0.25,
				Parameters: map[string]float64{"B_1A": 0.02, "B_2A": 0.25, "C_1A": 0.1, "C_3A": 0.08},
			},
		},
	},
	"cubic": {
		"full": {
			Variant: "cubic", Method: "integration",
			Guesses: map[string]float64{
				"B_1A": 0.03, "B_2A": 0.25, "B_3A": 0.2,
				"C_1A": 0.12, "C_3A": 0.09, "C_5A": 0.06,
			},
			Simulation: SimulationConfig{
				Duration: 90, Samples: 900, Phi0: 0.3,
				Parameters: map[string]float64{
					"B_1A": 0.02, "B_2A": 0.2, "B_3A": 0.15,
					"C_1A": 0.1, "C_3A": 0.08, "C_5A": 0.05,
				},
			},
		},
	},
}

func GetPreset(variant, preset string) *Config {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	cfg, ok := variantPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(variant string) []string {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(variantPresets))
	for name := range variantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
