package cleaner

import "time"

// LinkTable holds the aligned time series for one commercial microwave
// link: the received signal level of both channel ends plus the rain
// rate reference. Missing values are NaN.
type LinkTable struct {
	Times []time.Time
	RSLA  []float64
	RSLB  []float64
	Rain  []float64
}

// Len returns the number of rows in the table.
func (t *LinkTable) Len() int {
	return len(t.RSLA)
}

// Copy returns a deep copy of the table.
func (t *LinkTable) Copy() *LinkTable {
	out := &LinkTable{
		Times: append([]time.Time(nil), t.Times...),
		RSLA:  append([]float64(nil), t.RSLA...),
		RSLB:  append([]float64(nil), t.RSLB...),
		Rain:  append([]float64(nil), t.Rain...),
	}
	return out
}

// Config controls the preprocessing pipeline. Every anomaly-handling
// stage is independently toggleable.
type Config struct {
	// InterpMaxGap is the longest run of consecutive missing samples
	// the first interpolation pass will fill.
	InterpMaxGap int

	// SuppressStep enables step detection and per-segment mean alignment.
	SuppressStep  bool
	ConvThreshold float64

	// StdMethod enables outlier removal by centered rolling standard deviation.
	StdMethod    bool
	WindowSize   int
	StdThreshold float64

	// ZMethod enables outlier removal by whole-series Z-score.
	ZMethod    bool
	ZThreshold float64
}

// DefaultConfig returns the pipeline defaults: interpolation only, all
// anomaly suppression off.
func DefaultConfig() Config {
	return Config{
		InterpMaxGap:  10,
		SuppressStep:  false,
		ConvThreshold: 20.0,
		StdMethod:     false,
		WindowSize:    10,
		StdThreshold:  5.0,
		ZMethod:       false,
		ZThreshold:    10.0,
	}
}
