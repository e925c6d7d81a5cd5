// Package reference derives boolean wet/dry labels from a rain-rate
// reference series and compensates for artifacts introduced when a
// coarse reference is upsampled to the link's sampling interval.
package reference

import "math"

// Config controls the label corrections.
type Config struct {
	// SuppressSingleZeros replaces isolated zero samples inside a wet
	// spell with a small nonzero placeholder.
	SuppressSingleZeros bool

	// CompLinInterp zeroes residual interpolated values at the end of
	// each rain period; requires UpsampledNTimes >= 2.
	CompLinInterp   bool
	UpsampledNTimes int
}

// singleZeroPlaceholder is the rain rate substituted for a spurious
// single dry sample inside a wet spell.
const singleZeroPlaceholder = 0.1

// Labels applies the configured corrections to the rain series and
// returns the corrected series together with the wet/dry flag,
// true exactly where the corrected rain rate is nonzero.
func Labels(rain []float64, cfg Config) ([]float64, []bool) {
	out := append([]float64(nil), rain...)

	if cfg.SuppressSingleZeros {
		out = suppressSingleZeros(out)
	}
	if cfg.CompLinInterp && cfg.UpsampledNTimes >= 2 {
		out = compensateUpsampling(out, cfg.UpsampledNTimes)
	}

	wd := make([]bool, len(out))
	for i, v := range out {
		wd[i] = v != 0 && !math.IsNaN(v)
	}
	return out, wd
}

// suppressSingleZeros replaces a zero sample whose successor is wet and
// whose predecessor (directly, or one position further back) is wet.
// Such one-sample dry gaps during light precipitation are treated as
// reference noise rather than a real end of the rain event.
func suppressSingleZeros(rain []float64) []float64 {
	out := append([]float64(nil), rain...)
	wet := func(i int) bool {
		return i >= 0 && i < len(rain) && rain[i] != 0 && !math.IsNaN(rain[i])
	}
	for i := range out {
		if rain[i] != 0 || !wet(i+1) {
			continue
		}
		if wet(i-1) || wet(i-2) {
			out[i] = singleZeroPlaceholder
		}
	}
	return out
}

// compensateUpsampling zeroes the last n-2 samples before every
// wet-to-dry transition. Linear upsampling of an n-times coarser
// reference smears the final nonzero reading across the following
// interpolated samples, leaking false wet samples past the true end of
// the rain event. The window start is clamped to the series start.
func compensateUpsampling(rain []float64, n int) []float64 {
	out := append([]float64(nil), rain...)
	wet := func(i int) bool {
		return rain[i] != 0 && !math.IsNaN(rain[i])
	}
	for i := 0; i < len(out)-1; i++ {
		if !wet(i) || wet(i+1) {
			continue
		}
		start := i - (n - 2)
		if start < 0 {
			start = 0
		}
		for j := start; j <= i; j++ {
			out[j] = 0
		}
	}
	return out
}

// Upsample linearly interpolates a coarse reference series to n times
// its resolution, so it can be aligned with a finer RSL index. The
// result has (len(rain)-1)*n + 1 samples; n <= 1 returns a copy.
func Upsample(rain []float64, n int) []float64 {
	if n <= 1 || len(rain) == 0 {
		return append([]float64(nil), rain...)
	}
	out := make([]float64, (len(rain)-1)*n+1)
	for i := 0; i < len(rain)-1; i++ {
		step := (rain[i+1] - rain[i]) / float64(n)
		for k := 0; k < n; k++ {
			out[i*n+k] = rain[i] + step*float64(k)
		}
	}
	out[len(out)-1] = rain[len(rain)-1]
	return out
}
