package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config := defaults()
	if err := yaml.Unmarshal(cfgFile, config); err != nil {
		return nil, err
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", y.filename, err)
	}
	return config, nil
}

// IsReadOnly returns true; YAML files are edited by hand
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML files
func (y *YAMLProvider) Close() error {
	return nil
}

// defaults returns a ConfigData pre-filled with the reference pipeline
// settings, so a YAML file only needs to state what it changes.
func defaults() *ConfigData {
	return &ConfigData{
		Preprocess: PreprocessData{
			InterpMaxGap:  10,
			ConvThreshold: 20.0,
			WindowSize:    10,
			StdThreshold:  5.0,
			ZThreshold:    10.0,
		},
		Classifier: ClassifierData{
			Channels:     2,
			SampleSize:   100,
			KernelSize:   3,
			Dropout:      0.2,
			FCNeurons:    64,
			Filters:      []int{16, 32, 96, 192},
			WetThreshold: 0.5,
		},
	}
}

func validate(c *ConfigData) error {
	if len(c.Links) == 0 {
		return fmt.Errorf("no links configured")
	}
	for i, l := range c.Links {
		if l.Path == "" {
			return fmt.Errorf("link %d (%s) has no path", i, l.Name)
		}
	}
	if n := len(c.Classifier.Filters); n != 4 {
		return fmt.Errorf("classifier needs exactly 4 filter widths, got %d", n)
	}
	if c.Reference.CompLinInterp && c.Reference.UpsampledNTimes < 2 {
		return fmt.Errorf("comp_lin_interp requires upsampled_n_times >= 2, got %d", c.Reference.UpsampledNTimes)
	}
	return nil
}
