package motion

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// Cut trims a record to its free-decay portion. Everything up to and
// including the first two extrema is removed, since those still carry
// the release transient. Samples are then dropped from the start while
// the roll amplitude is at or above ceiling, and from the end once it
// stays below floor. Angles are in radians.
func Cut(s Series, ceiling, floor float64) (Series, error) {
	if err := s.Validate(); err != nil {
		return Series{}, err
	}

	minAbs, maxAbs := math.Inf(1), 0.0
	for _, v := range s.Phi {
		a := math.Abs(v)
		if a < minAbs {
			minAbs = a
		}
		if a > maxAbs {
			maxAbs = a
		}
	}
	if ceiling < minAbs {
		return Series{}, fmt.Errorf("motion: cut ceiling %g rad is below the smallest roll amplitude %g rad", ceiling, minAbs)
	}
	if floor > maxAbs {
		return Series{}, fmt.Errorf("motion: cut floor %g rad is above the largest roll amplitude %g rad", floor, maxAbs)
	}

	// The record starts at the largest swing.
	start := argmaxAbs(s.Phi)

	// The opposite extreme after it ends the release transient.
	rest := s.Phi[start:]
	if s.Phi[start] > 0 {
		start += argmin(rest)
	} else {
		start += argmax(rest)
	}

	// Keep from the last sample still at or above the ceiling.
	for i := len(s.Phi) - 1; i >= start; i-- {
		if math.Abs(s.Phi[i]) >= ceiling {
			start = i
			break
		}
	}

	// Keep up to the last sample still at or above the floor.
	stop := len(s.Phi) - 1
	for i := len(s.Phi) - 1; i >= start; i-- {
		if math.Abs(s.Phi[i]) >= floor {
			stop = i
			break
		}
	}

	return s.slice(start, stop+1), nil
}

// Lowpass filters the roll angle with a zero-phase brick-wall filter and
// recomputes the derivative channels from the filtered angle. The record
// is treated as uniformly sampled at its mean time delta.
func Lowpass(s Series, cutoffHz float64) (Series, error) {
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	n := len(s.T)
	if n < 4 {
		return Series{}, fmt.Errorf("motion: need at least 4 samples to filter, got %d", n)
	}
	if cutoffHz <= 0 {
		return Series{}, fmt.Errorf("motion: cutoff must be positive, got %g Hz", cutoffHz)
	}
	dt := (s.T[n-1] - s.T[0]) / float64(n-1)
	nyquist := 1 / (2 * dt)
	if cutoffHz >= nyquist {
		return Series{}, fmt.Errorf("motion: cutoff %g Hz is at or above the nyquist frequency %g Hz", cutoffHz, nyquist)
	}

	spectrum := fft.FFTReal(s.Phi)
	for k := 1; k <= n/2; k++ {
		freq := float64(k) / (float64(n) * dt)
		if freq > cutoffHz {
			spectrum[k] = 0
			spectrum[n-k] = 0
		}
	}
	inverse := fft.IFFT(spectrum)

	out := Series{
		T:   append([]float64(nil), s.T...),
		Phi: make([]float64, n),
	}
	for i, c := range inverse {
		out.Phi[i] = real(c)
	}

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

// FilterScore reports the coefficient of determination between a raw
// angle series and its filtered counterpart. Both records must share the
// same time grid.
func FilterScore(raw, filtered Series) float64 {
	return stat.RSquaredFrom(filtered.Phi, raw.Phi, nil)
}

// ScaleToFull converts a model-scale record to full scale by Froude
// scaling with the given geometric scale factor. Time stretches with the
// square root of the factor, angles are unchanged, and the derivative
// channels shrink accordingly.
func ScaleToFull(s Series, scaleFactor float64) (Series, error) {
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	if scaleFactor <= 0 {
		return Series{}, fmt.Errorf("motion: scale factor must be positive, got %g", scaleFactor)
	}

	root := math.Sqrt(scaleFactor)
	out := s.Clone()
	for i := range out.T {
		out.T[i] *= root
	}
	for i := range out.Phi1d {
		out.Phi1d[i] /= root
	}
	for i := range out.Phi2d {
		out.Phi2d[i] /= scaleFactor
	}
	return out, nil
}

func argmaxAbs(x []float64) int {
	best := 0
	for i, v := range x {
		if math.Abs(v) > math.Abs(x[best]) {
			best = i
		}
	}
	return best
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func argmin(x []float64) int {
	best := 0
	for i, v := range x {
		if v < x[best] {
			best = i
		}
	}
	return best
}
