// Package spatialmath defines the axis aligned cube and ray geometry that the point cloud index
// is built from.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pcindex/utils"
)

// ErrInvalidBounds is returned when a cube would have a non-positive or non-finite radius.
var ErrInvalidBounds = errors.New("invalid bounds")

// octantSigns holds, per octant or corner index, the sign applied to each axis. Bit 2 selects
// +x, bit 1 selects +y and bit 0 selects +z.
var octantSigns = [8]r3.Vector{
	{X: -1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: 1, Z: 1},
}

// The 12 edges of a cube, as pairs of corner indices (corners differing in exactly one coordinate).
var cubeEdgeIndices = [12][2]int{
	{0, 1}, {0, 2}, {0, 4},
	{1, 3}, {1, 5},
	{2, 3}, {2, 6},
	{3, 7},
	{4, 5}, {4, 6},
	{5, 7},
	{6, 7},
}

// AABB is an axis aligned cube described by its center and radius (half the edge length). The
// shape never changes once constructed; only the location code of the octree node that owns it
// is assigned afterwards.
type AABB struct {
	center       r3.Vector
	radius       float64
	min          r3.Vector
	max          r3.Vector
	locationCode uint64
}

// NewAABB instantiates a new cube. The radius must be positive and finite.
func NewAABB(center r3.Vector, radius float64) (*AABB, error) {
	if !(radius > 0) || !utils.IsFinite(radius, center.X, center.Y, center.Z) {
		return nil, errors.Wrapf(ErrInvalidBounds, "cube radius %v at %v", radius, center)
	}
	return newAABB(center, radius), nil
}

func newAABB(center r3.Vector, radius float64) *AABB {
	extent := r3.Vector{X: radius, Y: radius, Z: radius}
	return &AABB{
		center: center,
		radius: radius,
		min:    center.Sub(extent),
		max:    center.Add(extent),
	}
}

// BoundingCube returns the smallest cube centered on the given extent that encloses it, grown by
// padding on every side.
func BoundingCube(minPt, maxPt r3.Vector, padding float64) (*AABB, error) {
	if minPt.X > maxPt.X || minPt.Y > maxPt.Y || minPt.Z > maxPt.Z {
		return nil, errors.Wrapf(ErrInvalidBounds, "empty extent [%v, %v]", minPt, maxPt)
	}
	half := maxPt.Sub(minPt).Mul(0.5)
	radius := math.Max(half.X, math.Max(half.Y, half.Z)) + padding
	return NewAABB(minPt.Add(half), radius)
}

// Center returns the center of the cube.
func (b *AABB) Center() r3.Vector {
	return b.center
}

// Radius returns half the edge length of the cube.
func (b *AABB) Radius() float64 {
	return b.radius
}

// Min returns the corner with the smallest coordinates.
func (b *AABB) Min() r3.Vector {
	return b.min
}

// Max returns the corner with the largest coordinates.
func (b *AABB) Max() r3.Vector {
	return b.max
}

// LocationCode returns the code of the octree node this cube was assigned to, 0 if unassigned.
func (b *AABB) LocationCode() uint64 {
	return b.locationCode
}

// SetLocationCode assigns the cube to an octree node.
func (b *AABB) SetLocationCode(code uint64) {
	b.locationCode = code
}

// Clone returns a deep copy of the cube, including its location code.
func (b *AABB) Clone() *AABB {
	c := *b
	return &c
}

// Child returns the cube occupying the given octant (0-7) of b, with half its radius.
func (b *AABB) Child(octant int) *AABB {
	half := b.radius / 2
	return newAABB(b.center.Add(octantSigns[octant].Mul(half)), half)
}

// Octant returns the octant of b that p falls into. A coordinate at or above the center on an
// axis sets that axis' bit: x is bit 2, y is bit 1 and z is bit 0.
func (b *AABB) Octant(p r3.Vector) int {
	octant := 0
	if p.X >= b.center.X {
		octant |= 4
	}
	if p.Y >= b.center.Y {
		octant |= 2
	}
	if p.Z >= b.center.Z {
		octant |= 1
	}
	return octant
}

// ContainsPoint reports whether p lies inside the closed cube.
func (b *AABB) ContainsPoint(p r3.Vector) bool {
	return p.X >= b.min.X && p.X <= b.max.X &&
		p.Y >= b.min.Y && p.Y <= b.max.Y &&
		p.Z >= b.min.Z && p.Z <= b.max.Z
}

// DistanceSqToPoint returns the squared distance from the nearest point of the cube to p, 0 when
// p is inside.
func (b *AABB) DistanceSqToPoint(p r3.Vector) float64 {
	return utils.Square(axisDistance(p.X, b.min.X, b.max.X)) +
		utils.Square(axisDistance(p.Y, b.min.Y, b.max.Y)) +
		utils.Square(axisDistance(p.Z, b.min.Z, b.max.Z))
}

func axisDistance(k, lo, hi float64) float64 {
	if k < lo {
		return lo - k
	}
	if k <= hi {
		return 0
	}
	return k - hi
}

// DistanceFromCenterToPointSq returns the squared distance between the center of the cube and p.
func (b *AABB) DistanceFromCenterToPointSq(p r3.Vector) float64 {
	return b.center.Sub(p).Norm2()
}

// TestAABB reports whether the two closed cubes overlap on all three axes. Touching faces,
// edges or corners count as overlap.
func (b *AABB) TestAABB(other *AABB) bool {
	return b.min.X <= other.max.X && b.max.X >= other.min.X &&
		b.min.Y <= other.max.Y && b.max.Y >= other.min.Y &&
		b.min.Z <= other.max.Z && b.max.Z >= other.min.Z
}

// CylinderTest approximates the intersection of a cylinder of the given threshold radius around
// the ray [source, source+maxDistance*direction] with the cube, by slab-testing the ray against
// the cube grown by threshold. inverseDirection is the component-wise inverse of the unit ray
// direction. The test may accept cubes the cylinder misses but never rejects a cube holding a
// point within threshold of the ray segment.
func (b *AABB) CylinderTest(source, inverseDirection r3.Vector, maxDistance, threshold float64) bool {
	// slack absorbs rounding in child centers so points on shared faces are never lost
	grow := threshold + b.radius*1e-9
	lo := [3]float64{b.min.X - grow, b.min.Y - grow, b.min.Z - grow}
	hi := [3]float64{b.max.X + grow, b.max.Y + grow, b.max.Z + grow}
	src := [3]float64{source.X, source.Y, source.Z}
	inv := [3]float64{inverseDirection.X, inverseDirection.Y, inverseDirection.Z}

	tMin, tMax := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if math.IsInf(inv[axis], 0) || math.IsNaN(inv[axis]) {
			// parallel to this slab
			if src[axis] < lo[axis] || src[axis] > hi[axis] {
				return false
			}
			continue
		}
		t1 := (lo[axis] - src[axis]) * inv[axis]
		t2 := (hi[axis] - src[axis]) * inv[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
	}
	return tMax >= math.Max(0, tMin) && tMin <= maxDistance
}

// Corners returns the eight corners of the cube in the fixed order (-,-,-), (-,-,+), (-,+,-),
// (-,+,+), (+,-,-), (+,-,+), (+,+,-), (+,+,+).
func (b *AABB) Corners() [8]r3.Vector {
	var corners [8]r3.Vector
	for i, sign := range octantSigns {
		corners[i] = b.center.Add(sign.Mul(b.radius))
	}
	return corners
}

// Edges returns the twelve cube edges as pairs of indices into Corners.
func (b *AABB) Edges() [12][2]int {
	return cubeEdgeIndices
}

// String returns a human readable string that represents the cube.
func (b *AABB) String() string {
	return fmt.Sprintf("Type: AABB | Center: X:%.3f, Y:%.3f, Z:%.3f | Radius: %.3f",
		b.center.X, b.center.Y, b.center.Z, b.radius)
}
