// Package config loads the rain-detection pipeline configuration from
// pluggable backends: YAML files for hand-edited setups and SQLite
// databases for generated ones.
package config

// Provider defines the interface for configuration data sources
type Provider interface {
	// LoadConfig loads the complete configuration
	LoadConfig() (*ConfigData, error)

	// IsReadOnly reports whether the backend can be written through
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Links      []LinkData     `yaml:"links"`
	Preprocess PreprocessData `yaml:"preprocess"`
	Reference  ReferenceData  `yaml:"reference"`
	Sampler    SamplerData    `yaml:"sampler"`
	Classifier ClassifierData `yaml:"classifier"`
	Storage    StorageData    `yaml:"storage,omitempty"`
}

// LinkData names one commercial microwave link and the CSV table
// holding its signal-level and rain-reference series.
type LinkData struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// PreprocessData holds the signal-cleaning options.
type PreprocessData struct {
	InterpMaxGap  int     `yaml:"interp_max_gap"`
	SuppressStep  bool    `yaml:"suppress_step"`
	ConvThreshold float64 `yaml:"conv_threshold"`
	StdMethod     bool    `yaml:"std_method"`
	WindowSize    int     `yaml:"window_size"`
	StdThreshold  float64 `yaml:"std_threshold"`
	ZMethod       bool    `yaml:"z_method"`
	ZThreshold    float64 `yaml:"z_threshold"`
}

// ReferenceData holds the wet/dry labeling options.
type ReferenceData struct {
	SuppressSingleZeros bool `yaml:"supress_single_zeros"`
	CompLinInterp       bool `yaml:"comp_lin_interp"`
	UpsampledNTimes     int  `yaml:"upsampled_n_times"`
}

// SamplerData holds the windowing and class-balancing options.
type SamplerData struct {
	Balance bool  `yaml:"balance"`
	Seed    int64 `yaml:"seed"`
}

// ClassifierData holds the CNN hyperparameters and inference options.
type ClassifierData struct {
	Channels     int     `yaml:"channels"`
	SampleSize   int     `yaml:"sample_size"`
	KernelSize   int     `yaml:"kernel_size"`
	Dropout      float64 `yaml:"dropout"`
	FCNeurons    int     `yaml:"n_fc_neurons"`
	Filters      []int   `yaml:"n_filters"`
	Checkpoint   string  `yaml:"checkpoint,omitempty"`
	WetThreshold float64 `yaml:"wet_threshold"`
}

// StorageData holds the configuration for results storage backends
type StorageData struct {
	SQLite      *SQLiteData      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `yaml:"timescaledb,omitempty"`
}

// SQLiteData holds configuration specific to the local SQLite store
type SQLiteData struct {
	Path string `yaml:"path"`
}

// TimescaleDBData holds configuration specific to TimescaleDB storage
type TimescaleDBData struct {
	ConnectionString string `yaml:"connection-string"`
}
