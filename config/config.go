// Package config defines the structures used to configure the pcindex tools.
package config

import (
	"go.uber.org/multierr"

	"go.viam.com/pcindex/logging"
	"go.viam.com/pcindex/octree"
)

// Config describes how points are loaded and indexed.
type Config struct {
	Octree  octree.Config `json:"octree" yaml:"octree"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Input   InputConfig   `json:"input" yaml:"input"`
}

// LoggingConfig sets the level of the root logger.
type LoggingConfig struct {
	Level logging.Level `json:"level" yaml:"level"`
}

// InputConfig describes the point cloud file to index.
type InputConfig struct {
	// File is a .pcd or .las file.
	File string `json:"file" yaml:"file"`
	// Padding grows the root cube beyond the bounds of the points.
	Padding float64 `json:"padding" yaml:"padding"`
}

// Default returns the config used when no file is given.
func Default() *Config {
	return &Config{
		Octree:  octree.DefaultConfig(),
		Logging: LoggingConfig{Level: logging.INFO},
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	errs := cfg.Octree.Validate("octree")
	if cfg.Input.Padding < 0 {
		errs = multierr.Append(errs, newValidationError("input", "padding", "must not be negative"))
	}
	return errs
}
