package equations

import (
	"errors"
	"fmt"
	"sort"
)

// Variant tags one of the supported roll-decay equation forms.
type Variant string

const (
	Linear         Variant = "linear"
	QuadraticB     Variant = "quadratic_b"
	QuadraticBandC Variant = "quadratic_bc"
	Cubic          Variant = "cubic"
)

// Params maps coefficient names to values.
type Params map[string]float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Fit residual modes. The default per variant is recorded on its descriptor.
const (
	MethodDerivation  = "derivation"
	MethodIntegration = "integration"
)

var ErrUnknownVariant = errors.New("equations: unknown variant")

// AccelFunc evaluates roll acceleration phi'' for the current state.
type AccelFunc func(phi, phi1d float64, p Params) float64

// Descriptor is the full definition of one model variant.
type Descriptor struct {
	Variant       Variant
	Coefficients  []string // declared names, fixed order
	NonNegative   []string // coefficients bounded [0, inf) by default
	DefaultMethod string

	Accel  AccelFunc
	omega0 func(p Params) float64
}

// HasCoefficient reports whether name is part of the declared set.
func (d *Descriptor) HasCoefficient(name string) bool {
	for _, c := range d.Coefficients {
		if c == name {
			return true
		}
	}
	return false
}

// ValidateParams checks that p contains exactly the declared coefficients.
func (d *Descriptor) ValidateParams(p Params) error {
	for name := range p {
		if !d.HasCoefficient(name) {
			return fmt.Errorf("equations: %s does not take coefficient %q", d.Variant, name)
		}
	}
	for _, name := range d.Coefficients {
		if _, ok := p[name]; !ok {
			return fmt.Errorf("equations: %s requires coefficient %q", d.Variant, name)
		}
	}
	return nil
}

// NaturalFrequency returns omega0 implied by the fitted coefficients.
func (d *Descriptor) NaturalFrequency(p Params) float64 {
	return d.omega0(p)
}

// EffectiveInertia solves the linear restoring term for A_44 given the
// metacentric height, gravity and displaced mass.
func (d *Descriptor) EffectiveInertia(p Params, gm, g, mass float64) float64 {
	w := d.omega0(p)
	return gm * g * mass / (w * w)
}

var registry = make(map[Variant]*Descriptor)

func register(d *Descriptor) {
	registry[d.Variant] = d
}

// Get returns the descriptor for v.
func Get(v Variant) (*Descriptor, error) {
	d, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	return d, nil
}

// Variants returns all registered tags in sorted order.
func Variants() []Variant {
	tags := make([]Variant, 0, len(registry))
	for v := range registry {
		tags = append(tags, v)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
