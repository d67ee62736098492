package motion

import (
	"fmt"
	"math"
)

// Peaks returns the sample indices of local extrema of the roll angle.
func Peaks(s Series) []int {
	var idx []int
	for i := 1; i < len(s.Phi)-1; i++ {
		prev, cur, next := s.Phi[i-1], s.Phi[i], s.Phi[i+1]
		if (cur > prev && cur > next) || (cur < prev && cur < next) {
			idx = append(idx, i)
		}
	}
	return idx
}

// LogarithmicDecrement estimates the amplitude decrement per full roll
// period from the ratio of consecutive extrema. Consecutive extrema sit
// half a period apart, so the mean half-period decrement is doubled.
func LogarithmicDecrement(s Series) (float64, error) {
	peaks := Peaks(s)
	if len(peaks) < 2 {
		return 0, fmt.Errorf("motion: need at least 2 extrema, got %d", len(peaks))
	}

	sum := 0.0
	count := 0
	for i := 0; i+1 < len(peaks); i++ {
		a0 := math.Abs(s.Phi[peaks[i]])
		a1 := math.Abs(s.Phi[peaks[i+1]])
		if a0 == 0 || a1 == 0 {
			continue
		}
		sum += math.Log(a0 / a1)
		count++
	}
	if count == 0 {
		return 0, fmt.Errorf("motion: no usable extremum pairs")
	}

	return 2 * sum / float64(count), nil
}

// DampingRatio converts a logarithmic decrement to the equivalent linear
// damping ratio.
func DampingRatio(decrement float64) float64 {
	return decrement / math.Sqrt(4*math.Pi*math.Pi+decrement*decrement)
}
