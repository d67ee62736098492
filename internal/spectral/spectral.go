// Package spectral estimates roll natural frequency from measured series.
package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// NaturalFrequency estimates omega0 [rad/s] as the dominant frequency of
// the roll-angle series. The series is treated as uniformly sampled at
// the mean time delta and de-meaned before the transform; the zero bin
// is excluded from the peak search.
func NaturalFrequency(t, phi []float64) (float64, error) {
	n := len(phi)
	if len(t) != n {
		return 0, fmt.Errorf("spectral: time and angle lengths differ (%d vs %d)", len(t), n)
	}
	if n < 4 {
		return 0, fmt.Errorf("spectral: need at least 4 samples, got %d", n)
	}

	dt := meanDelta(t)
	if dt <= 0 {
		return 0, fmt.Errorf("spectral: non-positive mean time delta")
	}

	spectrum := fft.FFTReal(demean(phi))

	best := 1
	bestMag := 0.0
	for k := 1; k <= n/2; k++ {
		mag := cmplx.Abs(spectrum[k])
		if mag > bestMag {
			bestMag = mag
			best = k
		}
	}

	freq := float64(best) / (float64(n) * dt)
	return 2 * math.Pi * freq, nil
}

// PowerSpectrum returns the single-sided magnitude spectrum of the
// de-meaned roll-angle series with its frequency axis [Hz].
func PowerSpectrum(t, phi []float64) ([]float64, []float64, error) {
	n := len(phi)
	if len(t) != n {
		return nil, nil, fmt.Errorf("spectral: time and angle lengths differ (%d vs %d)", len(t), n)
	}
	if n < 4 {
		return nil, nil, fmt.Errorf("spectral: need at least 4 samples, got %d", n)
	}
	dt := meanDelta(t)
	if dt <= 0 {
		return nil, nil, fmt.Errorf("spectral: non-positive mean time delta")
	}

	spectrum := fft.FFTReal(demean(phi))

	freqs := make([]float64, n/2+1)
	power := make([]float64, n/2+1)
	for k := 0; k <= n/2; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		power[k] = cmplx.Abs(spectrum[k])
	}
	return freqs, power, nil
}

func meanDelta(t []float64) float64 {
	return (t[len(t)-1] - t[0]) / float64(len(t)-1)
}

func demean(x []float64) []float64 {
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - mean
	}
	return out
}
