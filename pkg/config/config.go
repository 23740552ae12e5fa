// Package config provides configuration loading and management for fracdim.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Estimation parameters
	Estimation struct {
		// BlurRadius is the Gaussian smoothing standard deviation applied
		// before thresholding; zero disables smoothing
		BlurRadius float64 `yaml:"blurRadius"`

		// Resamples is the number of bootstrap replicates
		Resamples int `yaml:"resamples"`

		// Seed seeds the bootstrap random source; zero draws a fresh seed
		// per run
		Seed uint64 `yaml:"seed"`

		// NumCores bounds how many CPU cores the bootstrap uses
		NumCores int `yaml:"numCores"`
	} `yaml:"estimation"`

	// Output parameters
	Output struct {
		// SaveIntermediary determines whether the smoothed and binary
		// fields are written out as images
		SaveIntermediary bool `yaml:"saveIntermediary"`

		// IntermediaryDir is where intermediary images are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Estimation.BlurRadius = 1.0
	cfg.Estimation.Resamples = 1000
	cfg.Estimation.Seed = 0
	cfg.Estimation.NumCores = runtime.NumCPU()

	cfg.Output.SaveIntermediary = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
