package cleaner

import (
	"math"
	"testing"
)

func TestSuppressStepsAlignsSegments(t *testing.T) {
	// 150 samples at level 0, then 150 at level 1: a single clean step.
	s := make([]float64, 300)
	for i := 150; i < 300; i++ {
		s[i] = 1.0
	}

	got := SuppressSteps(s, 20.0)

	if len(got) != len(s) {
		t.Fatalf("expected %d samples, got %d", len(s), len(got))
	}

	// Each segment must be mean-centered after alignment.
	firstMean := nanMean(got[:150])
	secondMean := nanMean(got[150:])
	if math.Abs(firstMean) > 1e-9 {
		t.Errorf("first segment mean: expected 0, got %v", firstMean)
	}
	if math.Abs(secondMean) > 1e-9 {
		t.Errorf("second segment mean: expected 0, got %v", secondMean)
	}

	// The level offset itself must be gone: both segments should sit at
	// the same level now.
	if diff := math.Abs(got[50] - got[250]); diff > 1e-9 {
		t.Errorf("segments still offset by %v after alignment", diff)
	}
}

func TestSuppressStepsShortSeriesUnchanged(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	got := SuppressSteps(s, 20.0)
	seriesEqual(t, got, s, 0)
}

func TestSuppressStepsFlatSeriesUnchanged(t *testing.T) {
	s := make([]float64, 400)
	for i := range s {
		s[i] = 7.5
	}
	got := SuppressSteps(s, 20.0)
	seriesEqual(t, got, s, 0)
}

func TestSuppressStepsNoStepDemeansWholeSeries(t *testing.T) {
	// A gentle ramp produces no convolution peak above the threshold,
	// so the whole series is treated as one segment: min-max normalized
	// and mean-centered.
	s := make([]float64, 300)
	for i := range s {
		s[i] = float64(i) / 300.0
	}
	got := SuppressSteps(s, 80.0)

	if m := nanMean(got); math.Abs(m) > 1e-9 {
		t.Errorf("expected zero mean, got %v", m)
	}
	// Ordering is preserved.
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("ramp ordering broken at %d", i)
		}
	}
}

func TestStepConvolvePeakLocation(t *testing.T) {
	s := make([]float64, 300)
	for i := 150; i < 300; i++ {
		s[i] = 1.0
	}
	conv := stepConvolve(s)

	peak, peakVal := 0, 0.0
	for i, v := range conv {
		if v > peakVal {
			peak, peakVal = i, v
		}
	}
	if peak != 150 {
		t.Errorf("expected convolution peak at the step index 150, got %d", peak)
	}
	if math.Abs(peakVal-100.0) > 1e-9 {
		t.Errorf("expected peak magnitude 100, got %v", peakVal)
	}
	// Padding keeps the result aligned with the input.
	if len(conv) != len(s) {
		t.Errorf("expected conv length %d, got %d", len(s), len(conv))
	}
	if conv[0] != 0 || conv[len(conv)-1] != 0 {
		t.Error("expected zero padding at series edges")
	}
}

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name       string
		in         []float64
		prominence float64
		expected   []int
	}{
		{
			name:       "single triangle",
			in:         []float64{0, 1, 2, 3, 2, 1, 0},
			prominence: 1.0,
			expected:   []int{3},
		},
		{
			name:       "small bump rejected by prominence",
			in:         []float64{0, 0.3, 0, 5, 0},
			prominence: 1.0,
			expected:   []int{3},
		},
		{
			name:       "nan splits regions",
			in:         []float64{0, 3, 0, nan(), 0, 4, 0},
			prominence: 1.0,
			expected:   []int{1, 5},
		},
		{
			name:       "monotonic has no peaks",
			in:         []float64{0, 1, 2, 3},
			prominence: 0.5,
			expected:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findPeaks(tt.in, tt.prominence)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected peaks %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected peaks %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}
