package cleaner

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Single-channel transforms. Every function takes a series in and
// returns a new series out; the input is never modified. Missing
// values are NaN throughout.

// Interpolate fills missing values by linear interpolation between the
// nearest valid neighbors. Runs of missing samples longer than maxGap
// are only filled for their first maxGap positions; maxGap <= 0 means
// unbounded. Missing values before the first valid sample are left
// missing; missing values after the last valid sample are filled with
// the last valid value.
func Interpolate(s []float64, maxGap int) []float64 {
	out := append([]float64(nil), s...)
	n := len(out)

	prev := -1 // index of last valid sample seen
	for i := 0; i < n; i++ {
		if !math.IsNaN(out[i]) {
			prev = i
			continue
		}

		// Find the end of this missing run.
		j := i
		for j < n && math.IsNaN(out[j]) {
			j++
		}

		runLen := j - i
		limit := runLen
		if maxGap > 0 && maxGap < runLen {
			limit = maxGap
		}

		switch {
		case prev < 0:
			// Leading gap: no left anchor, leave missing.
		case j >= n:
			// Trailing gap: hold the last valid value.
			for k := i; k < i+limit; k++ {
				out[k] = out[prev]
			}
		default:
			slope := (out[j] - out[prev]) / float64(j-prev)
			for k := i; k < i+limit; k++ {
				out[k] = out[prev] + slope*float64(k-prev)
			}
		}

		i = j - 1
	}
	return out
}

// FillEdges fills remaining missing values with the nearest valid
// neighbor, backward first then forward. Interior gaps should already
// have been interpolated.
func FillEdges(s []float64) []float64 {
	out := append([]float64(nil), s...)
	n := len(out)

	// Backward fill.
	for i := n - 2; i >= 0; i-- {
		if math.IsNaN(out[i]) && !math.IsNaN(out[i+1]) {
			out[i] = out[i+1]
		}
	}
	// Forward fill.
	for i := 1; i < n; i++ {
		if math.IsNaN(out[i]) && !math.IsNaN(out[i-1]) {
			out[i] = out[i-1]
		}
	}
	return out
}

// RollingStd computes a centered rolling sample standard deviation with
// the given window size. Positions whose window extends past the series
// bounds are NaN.
func RollingStd(s []float64, window int) []float64 {
	n := len(s)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if window < 2 || window > n {
		return out
	}

	half := (window - 1) / 2
	buf := make([]float64, 0, window)
	for i := 0; i < n; i++ {
		lo := i - half
		hi := lo + window
		if lo < 0 || hi > n {
			continue
		}
		buf = buf[:0]
		valid := true
		for j := lo; j < hi; j++ {
			if math.IsNaN(s[j]) {
				valid = false
				break
			}
			buf = append(buf, s[j])
		}
		if valid {
			out[i] = stat.StdDev(buf, nil)
		}
	}
	return out
}

// nanMean returns the mean of the valid samples, NaN if there are none.
func nanMean(s []float64) float64 {
	sum, count := 0.0, 0
	for _, v := range s {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// nanStd returns the sample standard deviation of the valid samples,
// NaN if there are fewer than two.
func nanStd(s []float64) float64 {
	buf := make([]float64, 0, len(s))
	for _, v := range s {
		if !math.IsNaN(v) {
			buf = append(buf, v)
		}
	}
	if len(buf) < 2 {
		return math.NaN()
	}
	return stat.StdDev(buf, nil)
}

// nanMin returns the smallest valid sample, NaN if there are none.
func nanMin(s []float64) float64 {
	min := math.NaN()
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}

// nanMax returns the largest valid sample, NaN if there are none.
func nanMax(s []float64) float64 {
	max := math.NaN()
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max
}
