package pointcloud

import (
	"image/color"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/pcindex/spatialmath"
)

func TestPositions(t *testing.T) {
	positions := NewPositionsFromVectors([]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -1, Y: 0, Z: 5}})
	test.That(t, positions.Len(), test.ShouldEqual, 2)
	test.That(t, positions.At(1), test.ShouldResemble, r3.Vector{X: -1, Y: 0, Z: 5})
	test.That(t, positions.Indices(), test.ShouldResemble, []int{0, 1})
	test.That(t, []float64(positions), test.ShouldResemble, []float64{1, 2, 3, -1, 0, 5})
}

func TestBufferAppend(t *testing.T) {
	buf := NewBuffer(3)
	buf.Append(r3.Vector{X: 0, Y: 0, Z: 0}, nil)
	test.That(t, buf.Colors, test.ShouldBeNil)
	test.That(t, buf.MetaData().HasColor, test.ShouldBeFalse)

	red := color.NRGBA{R: 255, A: 255}
	buf.Append(r3.Vector{X: 2, Y: 4, Z: -2}, &red)
	buf.Append(r3.Vector{X: 1, Y: 1, Z: 1}, nil)

	test.That(t, buf.Size(), test.ShouldEqual, 3)
	test.That(t, len(buf.Colors), test.ShouldEqual, 9)
	c, ok := buf.Colors.At(0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c, test.ShouldResemble, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	c, ok = buf.Colors.At(1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c, test.ShouldResemble, red)
	_, ok = buf.Colors.At(3)
	test.That(t, ok, test.ShouldBeFalse)

	meta := buf.MetaData()
	test.That(t, meta.HasColor, test.ShouldBeTrue)
	test.That(t, meta.Count(), test.ShouldEqual, 3)
	test.That(t, meta.MinZ, test.ShouldEqual, -2.)
	test.That(t, meta.MaxY, test.ShouldEqual, 4.)
	test.That(t, meta.Center(), test.ShouldResemble, r3.Vector{X: 1, Y: 5. / 3, Z: -1. / 3})
}

func TestMetaDataBoundingCube(t *testing.T) {
	buf := NewBufferFromPositions(NewPositionsFromVectors([]r3.Vector{{X: -1, Y: 0, Z: 0}, {X: 3, Y: 1, Z: 2}}))
	cube, err := buf.MetaData().BoundingCube(0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cube.Center(), test.ShouldResemble, r3.Vector{X: 1, Y: 0.5, Z: 1})
	test.That(t, cube.Radius(), test.ShouldEqual, 2.5)
	for i := 0; i < buf.Size(); i++ {
		test.That(t, cube.ContainsPoint(buf.Positions.At(i)), test.ShouldBeTrue)
	}

	_, err = NewMetaData().BoundingCube(1)
	test.That(t, errors.Is(err, spatialmath.ErrInvalidBounds), test.ShouldBeTrue)
}

func TestRampColor(t *testing.T) {
	near := RampColor(0)
	far := RampColor(1)
	test.That(t, near, test.ShouldNotResemble, far)
	test.That(t, RampColor(-3), test.ShouldResemble, near)
	test.That(t, RampColor(7), test.ShouldResemble, far)
	test.That(t, near.A, test.ShouldEqual, uint8(255))
}
