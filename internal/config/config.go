package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hydrolab/rolldecay/internal/equations"
	"github.com/hydrolab/rolldecay/internal/estimator"
)

const (
	DefaultMaxEvaluations = 4000
	DefaultTolerance      = 1e-15
	DefaultDuration       = 120.0
	DefaultSamples        = 1000
	DefaultPhi0           = 2 * math.Pi / 180
	DefaultRho            = 1000.0
	DefaultG              = 9.81
)

type Config struct {
	Variant        string                `yaml:"variant"`
	Method         string                `yaml:"method"` // empty selects the variant's default
	Integrator     string                `yaml:"integrator"`
	FixedOmega     bool                  `yaml:"fixed_omega"`
	MaxEvaluations int                   `yaml:"max_evaluations"`
	Tolerance      float64               `yaml:"tolerance"`
	Bounds         map[string][2]float64 `yaml:"bounds"`
	Guesses        map[string]float64    `yaml:"guesses"`
	Simulation     SimulationConfig      `yaml:"simulation"`
	Ship           ShipConfig            `yaml:"ship"`
	OutputDir      string                `yaml:"output_dir"`
}

type SimulationConfig struct {
	Duration   float64            `yaml:"duration"`
	Samples    int                `yaml:"samples"`
	Phi0       float64            `yaml:"phi0"`
	Phi1d0     float64            `yaml:"phi1d0"`
	Parameters map[string]float64 `yaml:"parameters"`
}

type ShipConfig struct {
	Volume float64 `yaml:"volume"`
	GM     float64 `yaml:"gm"`
	Rho    float64 `yaml:"rho"`
	G      float64 `yaml:"g"`
}

func DefaultConfig() *Config {
	return &Config{
		Variant:        string(equations.Linear),
		Integrator:     estimator.IntegratorRK45,
		MaxEvaluations: DefaultMaxEvaluations,
		Tolerance:      DefaultTolerance,
		Simulation: SimulationConfig{
			Duration: DefaultDuration,
			Samples:  DefaultSamples,
			Phi0:     DefaultPhi0,
		},
		Ship: ShipConfig{
			Rho: DefaultRho,
			G:   DefaultG,
		},
		OutputDir: "runs",
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := equations.Get(equations.Variant(c.Variant)); err != nil {
		return err
	}
	switch c.Method {
	case "", equations.MethodDerivation, equations.MethodIntegration:
	default:
		return fmt.Errorf("config: unknown fit method %q", c.Method)
	}
	switch c.Integrator {
	case "", estimator.IntegratorRK45, estimator.IntegratorRK4:
	default:
		return fmt.Errorf("config: unknown integrator %q", c.Integrator)
	}
	if c.MaxEvaluations < 0 {
		return fmt.Errorf("config: max_evaluations must not be negative, got %d", c.MaxEvaluations)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("config: tolerance must not be negative, got %g", c.Tolerance)
	}
	if c.Simulation.Duration <= 0 {
		return fmt.Errorf("config: simulation duration must be positive, got %g", c.Simulation.Duration)
	}
	if c.Simulation.Samples < 2 {
		return fmt.Errorf("config: simulation needs at least 2 samples, got %d", c.Simulation.Samples)
	}
	return nil
}

// EstimatorOptions translates the configuration into construction
// options. Zero-valued fields are dropped so partial presets inherit the
// estimator defaults.
func (c *Config) EstimatorOptions() []estimator.Option {
	var opts []estimator.Option
	if c.Method != "" {
		opts = append(opts, estimator.WithMethod(c.Method))
	}
	if c.Integrator != "" {
		opts = append(opts, estimator.WithIntegrator(c.Integrator))
	}
	if c.MaxEvaluations > 0 {
		opts = append(opts, estimator.WithMaxEvaluations(c.MaxEvaluations))
	}
	if c.Tolerance > 0 {
		opts = append(opts, estimator.WithTolerance(c.Tolerance))
	}
	if len(c.Bounds) > 0 {
		opts = append(opts, estimator.WithBounds(c.Bounds))
	}
	if len(c.Guesses) > 0 {
		opts = append(opts, estimator.WithGuesses(equations.Params(c.Guesses)))
	}
	if c.FixedOmega {
		opts = append(opts, estimator.WithFixedOmega())
	}
	return opts
}

// Metadata translates the ship section for dimensionalization.
func (c *Config) Metadata() estimator.ShipMetadata {
	return estimator.ShipMetadata{
		Volume: c.Ship.Volume,
		GM:     c.Ship.GM,
		Rho:    c.Ship.Rho,
		G:      c.Ship.G,
	}
}

// TimeGrid expands the simulation section into a uniform grid.
func (c *Config) TimeGrid() []float64 {
	n := c.Simulation.Samples
	t := make([]float64, n)
	step := c.Simulation.Duration / float64(n-1)
	for i := range t {
		t[i] = float64(i) * step
	}
	return t
}

// SimulationParams returns the configured coefficients as a parameter set.
func (c *Config) SimulationParams() equations.Params {
	p := make(equations.Params, len(c.Simulation.Parameters))
	for name, v := range c.Simulation.Parameters {
		p[name] = v
	}
	return p
}
