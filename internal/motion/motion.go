package motion

import (
	"errors"
	"fmt"
)

// ErrNotIncreasing reports a time grid that does not increase strictly.
var ErrNotIncreasing = errors.New("motion: time not strictly increasing")

// Series is a roll-decay record on a shared time grid. Phi is the roll
// angle [rad]; the velocity and acceleration channels are optional and
// either empty or as long as the time grid.
type Series struct {
	T     []float64
	Phi   []float64
	Phi1d []float64
	Phi2d []float64
}

// Validate checks the channel lengths and the time grid.
func (s Series) Validate() error {
	n := len(s.T)
	if n == 0 {
		return fmt.Errorf("motion: empty series")
	}
	if len(s.Phi) != n {
		return fmt.Errorf("motion: phi has %d samples, time has %d", len(s.Phi), n)
	}
	if s.Phi1d != nil && len(s.Phi1d) != n {
		return fmt.Errorf("motion: phi1d has %d samples, time has %d", len(s.Phi1d), n)
	}
	if s.Phi2d != nil && len(s.Phi2d) != n {
		return fmt.Errorf("motion: phi2d has %d samples, time has %d", len(s.Phi2d), n)
	}
	for i := 1; i < n; i++ {
		if s.T[i] <= s.T[i-1] {
			return fmt.Errorf("%w at sample %d", ErrNotIncreasing, i)
		}
	}
	return nil
}

// HasDerivatives reports whether both derivative channels are present.
func (s Series) HasDerivatives() bool {
	n := len(s.T)
	return n > 0 && len(s.Phi1d) == n && len(s.Phi2d) == n
}

// Duration returns the time span of the record.
func (s Series) Duration() float64 {
	if len(s.T) == 0 {
		return 0
	}
	return s.T[len(s.T)-1] - s.T[0]
}

// Clone returns a deep copy.
func (s Series) Clone() Series {
	out := Series{
		T:   append([]float64(nil), s.T...),
		Phi: append([]float64(nil), s.Phi...),
	}
	if s.Phi1d != nil {
		out.Phi1d = append([]float64(nil), s.Phi1d...)
	}
	if s.Phi2d != nil {
		out.Phi2d = append([]float64(nil), s.Phi2d...)
	}
	return out
}

// slice copies the half-open sample range [start, stop).
func (s Series) slice(start, stop int) Series {
	out := Series{
		T:   append([]float64(nil), s.T[start:stop]...),
		Phi: append([]float64(nil), s.Phi[start:stop]...),
	}
	if s.Phi1d != nil {
		out.Phi1d = append([]float64(nil), s.Phi1d[start:stop]...)
	}
	if s.Phi2d != nil {
		out.Phi2d = append([]float64(nil), s.Phi2d[start:stop]...)
	}
	return out
}

// Gradient differentiates y with respect to x using second order central
// differences in the interior and one sided differences at the edges.
// The grid may be non-uniform but must be strictly increasing.
func Gradient(y, x []float64) ([]float64, error) {
	n := len(y)
	if len(x) != n {
		return nil, fmt.Errorf("motion: gradient lengths differ (%d vs %d)", n, len(x))
	}
	if n < 2 {
		return nil, fmt.Errorf("motion: gradient needs at least 2 samples, got %d", n)
	}

	out := make([]float64, n)
	out[0] = (y[1] - y[0]) / (x[1] - x[0])
	out[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])
	for i := 1; i < n-1; i++ {
		hs := x[i] - x[i-1]
		hd := x[i+1] - x[i]
		out[i] = (hs*hs*y[i+1] + (hd*hd-hs*hs)*y[i] - hd*hd*y[i-1]) / (hs * hd * (hd + hs))
	}
	return out, nil
}

// Derivatives returns a copy of the record with the velocity and
// acceleration channels recomputed from the angle.
func Derivatives(s Series) (Series, error) {
	if err := s.Validate(); err != nil {
		return Series{}, err
	}

	out := s.Clone()
	phi1d, err := Gradient(out.Phi, out.T)
	if err != nil {
		return Series{}, err
	}
	phi2d, err := Gradient(phi1d, out.T)
	if err != nil {
		return Series{}, err
	}
	out.Phi1d = phi1d
	out.Phi2d = phi2d
	return out, nil
}
