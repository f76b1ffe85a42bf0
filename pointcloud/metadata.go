package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/pcindex/spatialmath"
)

// MetaData is data about what's stored in a point buffer.
type MetaData struct {
	HasColor bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	totalX, totalY, totalZ float64
	count                  int
}

// NewMetaData returns an empty MetaData whose bounds widen with the first merged point.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the bounds and centroid to include p.
func (meta *MetaData) Merge(p r3.Vector, hasColor bool) {
	if hasColor {
		meta.HasColor = true
	}

	if p.X > meta.MaxX {
		meta.MaxX = p.X
	}
	if p.Y > meta.MaxY {
		meta.MaxY = p.Y
	}
	if p.Z > meta.MaxZ {
		meta.MaxZ = p.Z
	}

	if p.X < meta.MinX {
		meta.MinX = p.X
	}
	if p.Y < meta.MinY {
		meta.MinY = p.Y
	}
	if p.Z < meta.MinZ {
		meta.MinZ = p.Z
	}

	meta.totalX += p.X
	meta.totalY += p.Y
	meta.totalZ += p.Z
	meta.count++
}

// Count returns how many points were merged.
func (meta MetaData) Count() int {
	return meta.count
}

// Center returns the centroid of the merged points.
func (meta MetaData) Center() r3.Vector {
	if meta.count == 0 {
		return r3.Vector{}
	}
	return r3.Vector{
		X: meta.totalX / float64(meta.count),
		Y: meta.totalY / float64(meta.count),
		Z: meta.totalZ / float64(meta.count),
	}
}

// BoundingCube returns a cube enclosing every merged point, grown by padding. It fails with
// spatialmath.ErrInvalidBounds when nothing was merged or when all points coincide and padding
// is zero.
func (meta MetaData) BoundingCube(padding float64) (*spatialmath.AABB, error) {
	return spatialmath.BoundingCube(
		r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ},
		r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ},
		padding,
	)
}
