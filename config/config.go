// Package config loads and validates the agency's static configuration:
// this peer's id, the cluster's endpoint table, and the election timing
// bounds.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration is the on-disk shape of an agency peer's config file.
type Configuration struct {
	ID            uint64   `yaml:"id"`
	Size          int      `yaml:"size"`
	Endpoints     []string `yaml:"endpoints"`
	MinPing       float64  `yaml:"min_ping"`
	MaxPing       float64  `yaml:"max_ping"`
	NotifyOnStart bool     `yaml:"notify_on_start"`
	DataDir       string   `yaml:"data_dir"`
	ListenAddr    string   `yaml:"listen_addr"`
}

// Load reads and validates a Configuration from a YAML file at path.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks internal consistency. A peer with an invalid
// configuration must refuse to start.
func (c *Configuration) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d", c.Size)
	}
	if int(c.ID) >= c.Size {
		return fmt.Errorf("id %d out of range for size %d", c.ID, c.Size)
	}
	if len(c.Endpoints) != c.Size {
		return fmt.Errorf("endpoints has %d entries, want %d (size)", len(c.Endpoints), c.Size)
	}
	if c.MinPing <= 0 {
		return fmt.Errorf("min_ping must be positive, got %f", c.MinPing)
	}
	if c.MaxPing < c.MinPing {
		return fmt.Errorf("max_ping (%f) must be >= min_ping (%f)", c.MaxPing, c.MinPing)
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	return nil
}
