package config

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func writeConfigDB(t *testing.T, settings map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE links (name TEXT, path TEXT);
CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO links (name, path) VALUES ('link-1', 'data/link-1.csv')`); err != nil {
		t.Fatalf("failed to insert link: %v", err)
	}
	for k, v := range settings {
		if _, err := db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			t.Fatalf("failed to insert setting %s: %v", k, err)
		}
	}
	return path
}

func TestSQLiteProviderLoadConfig(t *testing.T) {
	path := writeConfigDB(t, map[string]string{
		"preprocess.z_method":         "true",
		"preprocess.z_threshold":      "3.5",
		"classifier.sample_size":      "60",
		"classifier.n_filters":        "8, 16, 32, 64",
		"sampler.seed":                "99",
		"storage.sqlite.path":         "results.db",
		"reference.upsampled_n_times": "5",
		"an.unknown.key":              "ignored",
	})

	provider, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatalf("NewSQLiteProvider failed: %v", err)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Links) != 1 || cfg.Links[0].Path != "data/link-1.csv" {
		t.Errorf("links misparsed: %+v", cfg.Links)
	}
	if !cfg.Preprocess.ZMethod || cfg.Preprocess.ZThreshold != 3.5 {
		t.Errorf("z method settings misparsed: %+v", cfg.Preprocess)
	}
	if cfg.Classifier.SampleSize != 60 {
		t.Errorf("sample_size: expected 60, got %d", cfg.Classifier.SampleSize)
	}
	want := []int{8, 16, 32, 64}
	if len(cfg.Classifier.Filters) != 4 {
		t.Fatalf("filters misparsed: %v", cfg.Classifier.Filters)
	}
	for i, f := range want {
		if cfg.Classifier.Filters[i] != f {
			t.Errorf("filters: expected %v, got %v", want, cfg.Classifier.Filters)
			break
		}
	}
	if cfg.Sampler.Seed != 99 {
		t.Errorf("seed: expected 99, got %d", cfg.Sampler.Seed)
	}
	if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path != "results.db" {
		t.Errorf("storage misparsed: %+v", cfg.Storage)
	}
	// Defaults survive for untouched options.
	if cfg.Preprocess.InterpMaxGap != 10 {
		t.Errorf("defaults not applied: %+v", cfg.Preprocess)
	}
}

func TestSQLiteProviderBadValue(t *testing.T) {
	path := writeConfigDB(t, map[string]string{
		"preprocess.window_size": "wide",
	})

	provider, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatalf("NewSQLiteProvider failed: %v", err)
	}
	defer provider.Close()

	if _, err := provider.LoadConfig(); err == nil {
		t.Error("expected an error for an unparseable setting value")
	}
}
