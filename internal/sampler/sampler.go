// Package sampler slices aligned link data into fixed-length training
// windows and rebalances the wet/dry class counts.
package sampler

import (
	"math/rand"
	"time"

	"github.com/telcosense/cmlrain/internal/cleaner"
)

// Window is one fixed-length slice of the aligned two-channel series,
// paired with its per-timestep wet/dry label vector. It is the unit
// consumed by the classifier. Index and Start identify the window's
// position in the source table, which balancing shuffles.
type Window struct {
	Index  int
	Start  time.Time
	RSLA   []float64
	RSLB   []float64
	Labels []bool
}

// Wet reports whether the window contains any wet timestep.
func (w Window) Wet() bool {
	for _, v := range w.Labels {
		if v {
			return true
		}
	}
	return false
}

// Windows slices the cleaned table and the wet/dry flags into
// consecutive non-overlapping windows of sampleSize. The ragged tail
// shorter than sampleSize is dropped.
func Windows(t *cleaner.LinkTable, wd []bool, sampleSize int) []Window {
	if sampleSize <= 0 {
		return nil
	}
	n := t.Len()
	if len(wd) < n {
		n = len(wd)
	}

	var out []Window
	for start := 0; start+sampleSize <= n; start += sampleSize {
		end := start + sampleSize
		w := Window{
			Index:  len(out),
			RSLA:   t.RSLA[start:end],
			RSLB:   t.RSLB[start:end],
			Labels: wd[start:end],
		}
		if start < len(t.Times) {
			w.Start = t.Times[start]
		}
		out = append(out, w)
	}
	return out
}

// Balance undersamples the majority class so wet and dry window counts
// come out equal, then shuffles the kept windows. A window counts as
// wet when any of its timesteps is wet. The same index selection is
// applied to the whole window, so CML data and reference labels stay
// aligned. The rng seed is explicit so balancing is reproducible.
func Balance(ws []Window, seed int64) []Window {
	var wet, dry []int
	for i, w := range ws {
		if w.Wet() {
			wet = append(wet, i)
		} else {
			dry = append(dry, i)
		}
	}

	rng := rand.New(rand.NewSource(seed))

	major, minor := dry, wet
	if len(wet) > len(dry) {
		major, minor = wet, dry
	}
	rng.Shuffle(len(major), func(i, j int) {
		major[i], major[j] = major[j], major[i]
	})
	major = major[:len(minor)]

	kept := append(append([]int(nil), minor...), major...)
	rng.Shuffle(len(kept), func(i, j int) {
		kept[i], kept[j] = kept[j], kept[i]
	})

	out := make([]Window, 0, len(kept))
	for _, i := range kept {
		out = append(out, ws[i])
	}
	return out
}
