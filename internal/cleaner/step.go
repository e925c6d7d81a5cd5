package cleaner

import "math"

// stepKernelLen is the length of the handcrafted step-matching kernel:
// 100 samples of +1 followed by 100 samples of -1. Convolving a signal
// against it produces large magnitudes wherever the mean level shifts.
const stepKernelLen = 200

// SuppressSteps detects abrupt sustained shifts of the mean signal
// level and aligns the segments between detected step boundaries by
// removing each segment's own mean. The series is min-max normalized
// first so convThreshold is comparable across links. Series shorter
// than the step kernel are returned unchanged.
func SuppressSteps(s []float64, convThreshold float64) []float64 {
	n := len(s)
	if n < stepKernelLen {
		return append([]float64(nil), s...)
	}

	min, max := nanMin(s), nanMax(s)
	if math.IsNaN(min) || math.IsNaN(max) || max == min {
		// Flat or empty channel, nothing to align.
		return append([]float64(nil), s...)
	}

	out := make([]float64, n)
	hasGaps := false
	for i, v := range s {
		out[i] = (v - min) / (max - min)
		if math.IsNaN(v) {
			hasGaps = true
		}
	}

	// Step boundaries are the local maxima of the thresholded
	// convolution magnitude; index 0 opens the first segment. A series
	// with remaining gaps cannot be convolved, so it keeps a single
	// segment.
	bounds := []int{0}
	if !hasGaps {
		conv := stepConvolve(out)
		masked := make([]float64, n)
		for i, v := range conv {
			if v > convThreshold {
				masked[i] = v
			} else {
				masked[i] = math.NaN()
			}
		}
		bounds = append(bounds, findPeaks(masked, 1.0)...)
	}

	for i, start := range bounds {
		end := n
		if i < len(bounds)-1 {
			end = bounds[i+1]
		}
		if start >= end {
			continue
		}
		m := nanMean(out[start:end])
		if math.IsNaN(m) {
			continue
		}
		for j := start; j < end; j++ {
			out[j] -= m
		}
	}
	return out
}

// stepConvolve computes |signal * kernel| in "valid" mode and pads the
// result back to the input length with zeros (100 leading, 99
// trailing), so convolution indices line up with signal indices.
func stepConvolve(s []float64) []float64 {
	n := len(s)
	half := stepKernelLen / 2
	out := make([]float64, n)

	// First valid window sum: +1 over the first half, -1 over the second.
	sum := 0.0
	for i := 0; i < half; i++ {
		sum += s[i]
	}
	for i := half; i < stepKernelLen; i++ {
		sum -= s[i]
	}

	for j := 0; j+stepKernelLen <= n; j++ {
		out[j+half] = math.Abs(sum)
		if j+stepKernelLen < n {
			// Slide the window: sample j leaves the +1 span, sample
			// j+half moves from the +1 span to the -1 span, sample
			// j+kernel enters the -1 span.
			sum += -s[j] + 2*s[j+half] - s[j+stepKernelLen]
		}
	}
	return out
}

// findPeaks returns the indices of local maxima with at least the
// given prominence. NaN samples act as hard boundaries, so peaks are
// searched within each contiguous run of valid samples.
func findPeaks(s []float64, prominence float64) []int {
	n := len(s)
	var peaks []int

	higherOrInvalid := func(i int, ref float64) bool {
		if i < 0 || i >= n {
			return true
		}
		return math.IsNaN(s[i]) || s[i] < ref
	}

	for i := 0; i < n; i++ {
		if math.IsNaN(s[i]) {
			continue
		}
		// Local maximum: strictly above both neighbors; series edges
		// and NaN neighbors count as lower.
		if !higherOrInvalid(i-1, s[i]) || !higherOrInvalid(i+1, s[i]) {
			continue
		}
		if peakProminence(s, i) >= prominence {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// peakProminence measures how far a peak rises above its surrounding
// bases. Walking outward from the peak in each direction, the base is
// the lowest sample reached before a higher sample, a NaN, or the
// series edge; prominence is the peak height above the higher base.
func peakProminence(s []float64, peak int) float64 {
	height := s[peak]

	walk := func(step int) float64 {
		base := height
		for i := peak + step; i >= 0 && i < len(s); i += step {
			if math.IsNaN(s[i]) || s[i] > height {
				break
			}
			if s[i] < base {
				base = s[i]
			}
		}
		return base
	}

	left := walk(-1)
	right := walk(1)
	base := math.Max(left, right)
	return height - base
}
