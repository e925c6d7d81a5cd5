package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider for SQLite database configuration.
// The database carries a `links` table (name, path) and a `settings`
// key/value table using the option names of the YAML layout, e.g.
// `preprocess.z_threshold` or `classifier.n_filters`.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := defaults()

	rows, err := s.db.Query(`SELECT name, path FROM links ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l LinkData
		if err := rows.Scan(&l.Name, &l.Path); err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		config.Links = append(config.Links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}

	settings, err := s.loadSettings()
	if err != nil {
		return nil, err
	}
	if err := applySettings(config, settings); err != nil {
		return nil, err
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", s.dbPath, err)
	}
	return config, nil
}

func (s *SQLiteProvider) loadSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	defer rows.Close()

	settings := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// applySettings copies recognized settings keys onto the config struct.
// Unknown keys are ignored so newer tools can write extra settings.
func applySettings(c *ConfigData, settings map[string]string) error {
	for key, value := range settings {
		var err error
		switch key {
		case "preprocess.interp_max_gap":
			c.Preprocess.InterpMaxGap, err = strconv.Atoi(value)
		case "preprocess.suppress_step":
			c.Preprocess.SuppressStep, err = strconv.ParseBool(value)
		case "preprocess.conv_threshold":
			c.Preprocess.ConvThreshold, err = strconv.ParseFloat(value, 64)
		case "preprocess.std_method":
			c.Preprocess.StdMethod, err = strconv.ParseBool(value)
		case "preprocess.window_size":
			c.Preprocess.WindowSize, err = strconv.Atoi(value)
		case "preprocess.std_threshold":
			c.Preprocess.StdThreshold, err = strconv.ParseFloat(value, 64)
		case "preprocess.z_method":
			c.Preprocess.ZMethod, err = strconv.ParseBool(value)
		case "preprocess.z_threshold":
			c.Preprocess.ZThreshold, err = strconv.ParseFloat(value, 64)
		case "reference.supress_single_zeros":
			c.Reference.SuppressSingleZeros, err = strconv.ParseBool(value)
		case "reference.comp_lin_interp":
			c.Reference.CompLinInterp, err = strconv.ParseBool(value)
		case "reference.upsampled_n_times":
			c.Reference.UpsampledNTimes, err = strconv.Atoi(value)
		case "sampler.balance":
			c.Sampler.Balance, err = strconv.ParseBool(value)
		case "sampler.seed":
			c.Sampler.Seed, err = strconv.ParseInt(value, 10, 64)
		case "classifier.channels":
			c.Classifier.Channels, err = strconv.Atoi(value)
		case "classifier.sample_size":
			c.Classifier.SampleSize, err = strconv.Atoi(value)
		case "classifier.kernel_size":
			c.Classifier.KernelSize, err = strconv.Atoi(value)
		case "classifier.dropout":
			c.Classifier.Dropout, err = strconv.ParseFloat(value, 64)
		case "classifier.n_fc_neurons":
			c.Classifier.FCNeurons, err = strconv.Atoi(value)
		case "classifier.n_filters":
			c.Classifier.Filters, err = parseIntList(value)
		case "classifier.checkpoint":
			c.Classifier.Checkpoint = value
		case "classifier.wet_threshold":
			c.Classifier.WetThreshold, err = strconv.ParseFloat(value, 64)
		case "storage.sqlite.path":
			c.Storage.SQLite = &SQLiteData{Path: value}
		case "storage.timescaledb.connection-string":
			c.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: value}
		}
		if err != nil {
			return fmt.Errorf("setting %s: bad value %q: %w", key, value, err)
		}
	}
	return nil
}

func parseIntList(value string) ([]int, error) {
	var out []int
	field := ""
	flush := func() error {
		if field == "" {
			return nil
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return err
		}
		out = append(out, n)
		field = ""
		return nil
	}
	for _, r := range value {
		if r == ',' || r == ' ' || r == '[' || r == ']' {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		field += string(r)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsReadOnly returns false; SQLite configurations can be updated by
// tooling.
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
