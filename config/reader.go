package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/pcindex/octree"
)

// Read reads a config from the given file after expanding environment variable references in it.
// Files ending in .yaml or .yml are read as YAML, everything else as JSON.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file
// the reader originated from. Fields absent from the input keep their defaults.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(originalPath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
		}
	}

	if cfg.Input.File != "" && !filepath.IsAbs(cfg.Input.File) && originalPath != "" {
		cfg.Input.File = filepath.Join(filepath.Dir(originalPath), cfg.Input.File)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newValidationError(path, field, reason string) error {
	return errors.Wrapf(octree.ErrInvalidConfig, "%q %s", fmt.Sprintf("%s.%s", path, field), reason)
}
