// Package storage persists classification results. A local SQLite
// database is the default backend; TimescaleDB is available for
// setups that aggregate many links.
package storage

import (
	"context"
	"time"
)

// WindowResult is the stored outcome of classifying one sample window.
type WindowResult struct {
	LinkName     string
	WindowIndex  int
	StartTime    time.Time
	MeanProb     float64
	MaxProb      float64
	PredictedWet bool
	ReferenceWet bool
}

// Run groups the results of one pipeline invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Results   []WindowResult
}

// Store is the interface results backends implement.
type Store interface {
	StoreRun(ctx context.Context, run *Run) error
	Close() error
}
