// Package config loads scrape settings from defaults, an optional YAML file
// and NEWSGRAB_* environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads the YAML file at path on top of Default(). Returns nil if
// the file doesn't exist (not an error). Returns error if the file exists
// but cannot be parsed. Request headers in the file are added to the
// default headers.
func LoadFile(path string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
