package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pcindex/utils"
)

// Ray is a picking ray handed in by the camera layer. Direction need not be unit length: the ray
// parameter is always measured in world units along the normalized direction. Near and Far bound
// that parameter and Threshold is the pick radius around the ray.
type Ray struct {
	Source    r3.Vector
	Direction r3.Vector
	Near      float64
	Far       float64
	Threshold float64
}

// NewRay normalizes direction and validates the clipping range and pick radius.
func NewRay(source, direction r3.Vector, near, far, threshold float64) (*Ray, error) {
	norm := direction.Norm()
	if norm == 0 || !utils.IsFinite(norm) {
		return nil, errors.Errorf("invalid ray direction %v", direction)
	}
	if near < 0 || far < near {
		return nil, errors.Errorf("invalid ray clipping range [%v, %v]", near, far)
	}
	if threshold < 0 {
		return nil, errors.Errorf("invalid ray threshold %v", threshold)
	}
	return &Ray{
		Source:    source,
		Direction: direction.Mul(1 / norm),
		Near:      near,
		Far:       far,
		Threshold: threshold,
	}, nil
}

// UnitDirection returns the direction scaled to unit length.
func (r *Ray) UnitDirection() r3.Vector {
	return r.Direction.Normalize()
}

// InverseDirection returns the component-wise inverse of the unit direction. Zero components map
// to an infinity.
func (r *Ray) InverseDirection() r3.Vector {
	d := r.UnitDirection()
	return r3.Vector{X: 1 / d.X, Y: 1 / d.Y, Z: 1 / d.Z}
}

// At returns the point at distance t along the ray.
func (r *Ray) At(t float64) r3.Vector {
	return r.Source.Add(r.UnitDirection().Mul(t))
}

// ClosestApproach returns the ray parameter of the point on the infinite line closest to p and
// the squared distance between the two.
func (r *Ray) ClosestApproach(p r3.Vector) (t, distSq float64) {
	d := r.UnitDirection()
	t = p.Sub(r.Source).Dot(d)
	return t, r.Source.Add(d.Mul(t)).Sub(p).Norm2()
}

// Intersects reports whether p lies within Threshold of the ray with its closest approach
// inside [Near, Far], returning the ray parameter of that approach.
func (r *Ray) Intersects(p r3.Vector) (float64, bool) {
	t, distSq := r.ClosestApproach(p)
	if t < r.Near || t > r.Far {
		return t, false
	}
	return t, distSq <= r.Threshold*r.Threshold && !math.IsNaN(distSq)
}
