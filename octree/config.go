package octree

import (
	"fmt"

	"go.uber.org/multierr"
)

const (
	defaultThreshold = 500
	defaultMaxDepth  = 8
)

// Config describes how finely an octree subdivides its points.
type Config struct {
	// Threshold is the most points a node may hold before it is subdivided.
	Threshold int `json:"threshold" yaml:"threshold"`
	// MaxDepth caps subdivision; nodes at this depth are leaves regardless of their size.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
}

// DefaultConfig returns the config used when none is given.
func DefaultConfig() Config {
	return Config{Threshold: defaultThreshold, MaxDepth: defaultMaxDepth}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	if cfg.Threshold < 1 {
		errs = multierr.Append(errs, newConfigValidationError(path, "threshold", "must be at least 1"))
	}
	if cfg.MaxDepth < 1 || cfg.MaxDepth > MaxDepth {
		errs = multierr.Append(errs, newConfigValidationError(path, "max_depth", fmt.Sprintf("must be between 1 and %d", MaxDepth)))
	}
	return errs
}
