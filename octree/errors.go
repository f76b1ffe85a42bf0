package octree

import (
	"github.com/pkg/errors"

	"go.viam.com/pcindex/spatialmath"
)

var (
	// ErrNodeNotFound is returned when a location code does not address a node of the tree.
	ErrNodeNotFound = errors.New("octree node not found")
	// ErrInvalidBounds is returned when the root cube handed to Build is missing or degenerate.
	ErrInvalidBounds = spatialmath.ErrInvalidBounds
	// ErrInvalidConfig is returned when an octree config fails validation.
	ErrInvalidConfig = errors.New("invalid octree config")
)

// NewNodeNotFoundError returns an error wrapping ErrNodeNotFound for the given code.
func NewNodeNotFoundError(code LocationCode) error {
	return errors.Wrapf(ErrNodeNotFound, "location code %d (%s)", uint64(code), code)
}

func newConfigValidationError(path, field, reason string) error {
	if path != "" {
		field = path + "." + field
	}
	return errors.Wrapf(ErrInvalidConfig, "%q %s", field, reason)
}

func errPointOutOfRange(idx, n int) error {
	return errors.Errorf("point index %d out of range [0, %d)", idx, n)
}
