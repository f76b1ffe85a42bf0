// Package pointcloud holds the flat vertex and color buffers the spatial index is built over,
// together with the readers that fill them from point cloud files.
//
// The buffers are owned by the caller. The index only ever refers to points by their position
// in these buffers.
package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
)

// Positions is a flat buffer of x, y, z coordinates, three values per point.
type Positions []float64

// NewPositionsFromVectors flattens the given vectors into a position buffer.
func NewPositionsFromVectors(vs []r3.Vector) Positions {
	positions := make(Positions, 0, 3*len(vs))
	for _, v := range vs {
		positions = append(positions, v.X, v.Y, v.Z)
	}
	return positions
}

// Len returns the number of points in the buffer.
func (p Positions) Len() int {
	return len(p) / 3
}

// At returns the coordinates of the i-th point.
func (p Positions) At(i int) r3.Vector {
	return r3.Vector{X: p[3*i], Y: p[3*i+1], Z: p[3*i+2]}
}

// Indices returns the identity index set 0..Len()-1.
func (p Positions) Indices() []int {
	indices := make([]int, p.Len())
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Colors is a flat buffer of r, g, b bytes parallel to a Positions buffer.
type Colors []uint8

// At returns the color of the i-th point, and false if the buffer holds no color for it.
func (c Colors) At(i int) (color.NRGBA, bool) {
	if 3*i+2 >= len(c) {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: c[3*i], G: c[3*i+1], B: c[3*i+2], A: 255}, true
}

// Buffer pairs a position buffer with its optional color buffer and tracks their bounds.
type Buffer struct {
	Positions Positions
	Colors    Colors
	meta      MetaData
}

// NewBuffer returns an empty buffer with room for size points.
func NewBuffer(size int) *Buffer {
	return &Buffer{
		Positions: make(Positions, 0, 3*size),
		meta:      NewMetaData(),
	}
}

// NewBufferFromPositions wraps an existing position buffer.
func NewBufferFromPositions(positions Positions) *Buffer {
	b := &Buffer{Positions: positions, meta: NewMetaData()}
	for i := 0; i < positions.Len(); i++ {
		b.meta.Merge(positions.At(i), false)
	}
	return b
}

// Size returns the number of points in the buffer.
func (b *Buffer) Size() int {
	return b.Positions.Len()
}

// MetaData returns the bounds of the buffer.
func (b *Buffer) MetaData() MetaData {
	return b.meta
}

// Append adds a point. Once any point carries a color, the color buffer is kept parallel to the
// position buffer, with uncolored points stored as white.
func (b *Buffer) Append(p r3.Vector, c *color.NRGBA) {
	if c != nil && b.Colors == nil {
		b.Colors = make(Colors, 0, cap(b.Positions))
		for i := 0; i < b.Size(); i++ {
			b.Colors = append(b.Colors, 255, 255, 255)
		}
	}
	b.Positions = append(b.Positions, p.X, p.Y, p.Z)
	switch {
	case c != nil:
		b.Colors = append(b.Colors, c.R, c.G, c.B)
	case b.Colors != nil:
		b.Colors = append(b.Colors, 255, 255, 255)
	}
	b.meta.Merge(p, c != nil)
}
