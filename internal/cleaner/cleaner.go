// Package cleaner implements the received-signal-level preprocessing
// pipeline for commercial microwave links: gap interpolation, step
// detection and alignment, outlier suppression and normalization.
// Each stage is a pure value-in/value-out transform over one channel.
package cleaner

import "math"

// Preprocess runs the cleaning pipeline over both RSL channels of a
// link table and returns a new table: interpolate gaps, drop rows
// missing in both channels, optionally suppress steps and outliers,
// then scale each channel by its own maximum. The rain reference is
// interpolated alongside so its index stays aligned.
func Preprocess(t *LinkTable, cfg Config) *LinkTable {
	out := t.Copy()

	// First pass: bounded interpolation, then drop rows still missing
	// in both RSL channels and re-interpolate the survivors without a
	// gap limit.
	out.RSLA = Interpolate(out.RSLA, cfg.InterpMaxGap)
	out.RSLB = Interpolate(out.RSLB, cfg.InterpMaxGap)
	out.Rain = Interpolate(out.Rain, cfg.InterpMaxGap)
	out = dropAllMissing(out)
	// Unbounded interpolation still leaves leading gaps open, so fill
	// the edges afterwards to hand the later stages gap-free channels.
	out.RSLA = FillEdges(Interpolate(out.RSLA, 0))
	out.RSLB = FillEdges(Interpolate(out.RSLB, 0))
	out.Rain = Interpolate(out.Rain, 0)

	forEachChannel(out, func(ch []float64) []float64 {
		if cfg.SuppressStep {
			ch = SuppressSteps(ch, cfg.ConvThreshold)
		}
		if cfg.StdMethod {
			ch = SuppressExtremesStd(ch, cfg.WindowSize, cfg.StdThreshold)
		}
		if cfg.ZMethod {
			ch = SuppressExtremesZ(ch, cfg.ZThreshold)
		}
		return Normalize(ch)
	})

	return out
}

// forEachChannel applies a single-channel transform to both RSL
// channels of the table.
func forEachChannel(t *LinkTable, fn func([]float64) []float64) {
	t.RSLA = fn(t.RSLA)
	t.RSLB = fn(t.RSLB)
}

// dropAllMissing removes rows where both RSL channels are missing and
// compacts the index.
func dropAllMissing(t *LinkTable) *LinkTable {
	out := &LinkTable{}
	for i := 0; i < t.Len(); i++ {
		if math.IsNaN(t.RSLA[i]) && math.IsNaN(t.RSLB[i]) {
			continue
		}
		if len(t.Times) > i {
			out.Times = append(out.Times, t.Times[i])
		}
		out.RSLA = append(out.RSLA, t.RSLA[i])
		out.RSLB = append(out.RSLB, t.RSLB[i])
		out.Rain = append(out.Rain, t.Rain[i])
	}
	return out
}

// SuppressExtremesStd nulls samples whose centered rolling standard
// deviation exceeds the threshold and re-interpolates them. Edge
// positions of the rolling window are filled backward then forward. A
// channel whose rolling std cannot be computed at all is returned
// unchanged.
func SuppressExtremesStd(s []float64, windowSize int, stdThreshold float64) []float64 {
	rstd := FillEdges(RollingStd(s, windowSize))
	if math.IsNaN(nanMax(rstd)) {
		// Degenerate channel, leave untouched.
		return append([]float64(nil), s...)
	}

	out := append([]float64(nil), s...)
	for i, v := range rstd {
		if !math.IsNaN(v) && math.Abs(v) >= stdThreshold {
			out[i] = math.NaN()
		}
	}
	return FillEdges(Interpolate(out, 0))
}

// SuppressExtremesZ nulls samples whose whole-series Z-score exceeds
// the configured upper threshold or falls below -3.0, then
// re-interpolates them. The asymmetric lower bound keeps deep signal
// drops (rain attenuation) while still catching implausible spikes in
// either direction. A channel with undefined or zero std is returned
// unchanged.
func SuppressExtremesZ(s []float64, zThreshold float64) []float64 {
	mean := nanMean(s)
	std := nanStd(s)
	if math.IsNaN(std) || std == 0 {
		// Degenerate statistics, leave untouched.
		return append([]float64(nil), s...)
	}

	out := append([]float64(nil), s...)
	for i, v := range s {
		if math.IsNaN(v) {
			continue
		}
		z := (v - mean) / std
		if z >= zThreshold || z <= -3.0 {
			out[i] = math.NaN()
		}
	}
	return FillEdges(Interpolate(out, 0))
}

// Normalize scales the channel by its own maximum so values end up in
// (0, 1] for positive series. A channel whose maximum is zero or
// undefined is returned unchanged.
func Normalize(s []float64) []float64 {
	max := nanMax(s)
	if math.IsNaN(max) || max == 0 {
		return append([]float64(nil), s...)
	}
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v / max
	}
	return out
}
