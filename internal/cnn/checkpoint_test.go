package cnn

import (
	"math"
	"path/filepath"
	"testing"
)

func TestCheckpointRoundTrip(t *testing.T) {
	params := testParams()
	original, err := NewSeeded(params, 11)
	if err != nil {
		t.Fatalf("NewSeeded failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.ckpt")
	if err := SaveCheckpoint(original, path); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	restored, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if restored.Params() != params {
		t.Fatalf("params mismatch: %+v vs %+v", restored.Params(), params)
	}

	batch := makeBatch(3, params.Channels, params.SampleSize)
	want, err := original.Forward(batch)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	got, err := restored.Forward(batch)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	for n := range want {
		for i := range want[n] {
			if math.Abs(want[n][i]-got[n][i]) > 1e-12 {
				t.Fatalf("output (%d, %d) differs after reload: %v vs %v", n, i, want[n][i], got[n][i])
			}
		}
	}
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	if _, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope.ckpt")); err == nil {
		t.Error("expected error for missing checkpoint file")
	}
}
