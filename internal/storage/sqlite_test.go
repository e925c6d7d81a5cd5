package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	run := &Run{
		ID:        "test-run",
		StartedAt: started,
		Results: []WindowResult{
			{
				LinkName:     "link-1",
				WindowIndex:  0,
				StartTime:    started,
				MeanProb:     0.12,
				MaxProb:      0.4,
				PredictedWet: false,
				ReferenceWet: false,
			},
			{
				LinkName:     "link-1",
				WindowIndex:  1,
				StartTime:    started.Add(time.Hour),
				MeanProb:     0.81,
				MaxProb:      0.97,
				PredictedWet: true,
				ReferenceWet: true,
			},
		},
	}

	if err := store.StoreRun(context.Background(), run); err != nil {
		t.Fatalf("StoreRun failed: %v", err)
	}

	var count int
	if err := store.db.QueryRow(
		`SELECT COUNT(*) FROM window_results WHERE run_id = ?`, run.ID,
	).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 stored windows, got %d", count)
	}

	var meanProb float64
	var predicted bool
	if err := store.db.QueryRow(
		`SELECT mean_prob, predicted_wet FROM window_results WHERE run_id = ? AND window_index = 1`, run.ID,
	).Scan(&meanProb, &predicted); err != nil {
		t.Fatalf("row query failed: %v", err)
	}
	if meanProb != 0.81 || !predicted {
		t.Errorf("stored values mismatch: mean_prob=%v predicted=%v", meanProb, predicted)
	}
}

func TestSQLiteStoreDuplicateRun(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	run := &Run{ID: "dup", StartedAt: time.Now()}
	if err := store.StoreRun(context.Background(), run); err != nil {
		t.Fatalf("first StoreRun failed: %v", err)
	}
	if err := store.StoreRun(context.Background(), run); err == nil {
		t.Error("expected duplicate run insert to fail")
	}
}
