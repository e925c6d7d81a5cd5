package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs to a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS window_results (
	run_id TEXT NOT NULL REFERENCES runs(id),
	link_name TEXT NOT NULL,
	window_index INTEGER NOT NULL,
	start_time TIMESTAMP NOT NULL,
	mean_prob REAL NOT NULL,
	max_prob REAL NOT NULL,
	predicted_wet BOOLEAN NOT NULL,
	reference_wet BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, link_name, window_index)
);
`

// NewSQLiteStore opens (and if needed initializes) a SQLite results
// database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create results schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// StoreRun inserts the run and all of its window results in one
// transaction.
func (s *SQLiteStore) StoreRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		run.ID, run.StartedAt,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO window_results
		 (run_id, link_name, window_index, start_time, mean_prob, max_prob, predicted_wet, reference_wet)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		if _, err := stmt.ExecContext(ctx,
			run.ID, r.LinkName, r.WindowIndex, r.StartTime,
			r.MeanProb, r.MaxProb, r.PredictedWet, r.ReferenceWet,
		); err != nil {
			return fmt.Errorf("failed to insert window result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
