// Package util provides utility functions for Log Doctor.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/supporttools/log-doctor/pkg/types"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a file (YAML or JSON).
// The file format is determined by extension (.yaml, .yml, .json).
// Environment variables are substituted, defaults are applied, and
// validation is performed.
func LoadConfig(path string) (*types.LogDoctorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Substitute environment variables in the raw data BEFORE parsing so
	// env vars work in non-string fields (e.g. port: ${PORT})
	data = []byte(os.ExpandEnv(string(data)))

	ext := filepath.Ext(path)

	var config types.LogDoctorConfig

	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		// Try YAML first, then JSON
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			err = json.Unmarshal(data, &config)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.SubstituteEnvVars()

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads configuration from a file, or returns the
// default configuration for watchPath if the file doesn't exist.
func LoadConfigOrDefault(path, watchPath string) (*types.LogDoctorConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(watchPath)
	}
	return LoadConfig(path)
}

// DefaultConfig returns a default configuration watching the given path.
func DefaultConfig(watchPath string) (*types.LogDoctorConfig, error) {
	config := &types.LogDoctorConfig{
		APIVersion: "log-doctor.io/v1alpha1",
		Kind:       "LogDoctorConfig",
		Metadata: types.ConfigMetadata{
			Name: "default",
		},
		Watch: types.WatchConfig{
			Path: watchPath,
		},
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("default configuration is invalid: %w", err)
	}

	return config, nil
}
