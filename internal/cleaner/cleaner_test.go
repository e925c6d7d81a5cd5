package cleaner

import (
	"math"
	"testing"
	"time"
)

func makeTable(rslA, rslB, rain []float64) *LinkTable {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(rslA))
	for i := range times {
		times[i] = t0.Add(time.Duration(i) * time.Minute)
	}
	return &LinkTable{Times: times, RSLA: rslA, RSLB: rslB, Rain: rain}
}

func TestPreprocessCleanInputOnlyNormalizes(t *testing.T) {
	// No missing values, no anomaly suppression configured: the output
	// must equal the input scaled by the channel maximum.
	rsl := []float64{20, 22, 24, 26, 28, 30}
	table := makeTable(rsl, rsl, make([]float64, len(rsl)))

	got := Preprocess(table, DefaultConfig())

	expected := make([]float64, len(rsl))
	for i, v := range rsl {
		expected[i] = v / 30.0
	}
	seriesEqual(t, got.RSLA, expected, 1e-12)
	seriesEqual(t, got.RSLB, expected, 1e-12)
}

func TestPreprocessNormalizationPostcondition(t *testing.T) {
	table := makeTable(
		[]float64{41.5, 42.0, 40.25, 43.75, 39.5},
		[]float64{11, 12, 13, 12, 11},
		make([]float64, 5),
	)

	got := Preprocess(table, DefaultConfig())

	for _, ch := range [][]float64{got.RSLA, got.RSLB} {
		max := 0.0
		for i, v := range ch {
			if v <= 0 || v > 1 {
				t.Errorf("sample %d: %v outside (0, 1]", i, v)
			}
			if v > max {
				max = v
			}
		}
		if math.Abs(max-1.0) > 1e-12 {
			t.Errorf("channel max: expected 1.0, got %v", max)
		}
	}
}

func TestPreprocessDropsRowsMissingInBothChannels(t *testing.T) {
	table := makeTable(
		[]float64{10, nan(), nan(), nan(), nan(), 10},
		[]float64{10, nan(), nan(), nan(), nan(), 10},
		make([]float64, 6),
	)
	cfg := DefaultConfig()
	cfg.InterpMaxGap = 2

	got := Preprocess(table, cfg)

	// The bounded pass fills the first two missing rows; the remaining
	// two all-missing rows are dropped.
	if got.Len() != 4 {
		t.Fatalf("expected 4 rows after drop, got %d", got.Len())
	}
	if len(got.Times) != 4 {
		t.Fatalf("expected times compacted alongside, got %d", len(got.Times))
	}
	for i, v := range got.RSLA {
		if math.IsNaN(v) {
			t.Errorf("sample %d still missing after preprocessing", i)
		}
	}
}

func TestPreprocessZMethodSuppressesSpike(t *testing.T) {
	rsl := []float64{10, 10, 10, 10, 60, 10, 10, 10, 10}
	table := makeTable(rsl, append([]float64(nil), rsl...), make([]float64, len(rsl)))

	cfg := DefaultConfig()
	cfg.ZMethod = true
	cfg.ZThreshold = 2.0

	got := Preprocess(table, cfg)

	// The spike is replaced by interpolation between its neighbors and
	// the channel is scaled by the new maximum (10), so every sample
	// comes out at 1.0.
	for i, v := range got.RSLA {
		if math.Abs(v-1.0) > 1e-9 {
			t.Errorf("sample %d: expected 1.0, got %v", i, v)
		}
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	rsl := []float64{10, 10, 10, 10, 60, 10, 10, 10, 10}
	table := makeTable(rsl, append([]float64(nil), rsl...), make([]float64, len(rsl)))

	cfg := DefaultConfig()
	cfg.ZMethod = true
	cfg.ZThreshold = 2.0

	once := Preprocess(table, cfg)
	twice := Preprocess(once, cfg)

	seriesEqual(t, twice.RSLA, once.RSLA, 1e-9)
	seriesEqual(t, twice.RSLB, once.RSLB, 1e-9)
}

func TestSuppressExtremesZ(t *testing.T) {
	t.Run("replacement stays within unflagged range", func(t *testing.T) {
		s := []float64{10, 10, 10, 10, 60, 10, 10, 10, 10}
		got := SuppressExtremesZ(s, 2.0)

		lo, hi := 10.0, 10.0
		for i, v := range got {
			if math.IsNaN(v) {
				t.Fatalf("sample %d left missing", i)
			}
			if v < lo-1e-9 || v > hi+1e-9 {
				t.Errorf("sample %d: replacement %v outside unflagged range [%v, %v]", i, v, lo, hi)
			}
		}
	})

	t.Run("degenerate zero variance is a no-op", func(t *testing.T) {
		s := []float64{5, 5, 5, 5}
		seriesEqual(t, SuppressExtremesZ(s, 2.0), s, 0)
	})

	t.Run("clean input unchanged", func(t *testing.T) {
		s := []float64{1, 2, 3, 2, 1}
		seriesEqual(t, SuppressExtremesZ(s, 10.0), s, 1e-12)
	})
}

func TestSuppressExtremesStd(t *testing.T) {
	t.Run("volatile region re-interpolated", func(t *testing.T) {
		s := []float64{10, 10, 10, 10, 80, 10, 10, 10, 10, 10}
		got := SuppressExtremesStd(s, 3, 5.0)

		for i, v := range got {
			if math.IsNaN(v) {
				t.Fatalf("sample %d left missing", i)
			}
			if math.Abs(v-10.0) > 1e-9 {
				t.Errorf("sample %d: expected 10, got %v", i, v)
			}
		}
	})

	t.Run("quiet series unchanged", func(t *testing.T) {
		s := []float64{10, 10.1, 10.2, 10.1, 10, 10.1, 10}
		seriesEqual(t, SuppressExtremesStd(s, 3, 5.0), s, 1e-12)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       []float64
		expected []float64
	}{
		{
			name:     "positive series",
			in:       []float64{1, 2, 4},
			expected: []float64{0.25, 0.5, 1.0},
		},
		{
			name:     "zero max unchanged",
			in:       []float64{0, 0, 0},
			expected: []float64{0, 0, 0},
		},
		{
			name:     "all missing unchanged",
			in:       []float64{nan(), nan()},
			expected: []float64{nan(), nan()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seriesEqual(t, Normalize(tt.in), tt.expected, 1e-12)
		})
	}
}
