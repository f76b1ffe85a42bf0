package octree

import (
	"image/color"
	"math/rand"
	"slices"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/pcindex/pointcloud"
	"go.viam.com/pcindex/spatialmath"
)

func randomRay(t *testing.T, rng *rand.Rand) *spatialmath.Ray {
	t.Helper()
	source := r3.Vector{X: rng.Float64()*40 - 20, Y: rng.Float64()*40 - 20, Z: 15}
	target := r3.Vector{X: rng.Float64()*16 - 8, Y: rng.Float64()*16 - 8, Z: rng.Float64()*16 - 8}
	ray, err := spatialmath.NewRay(source, target.Sub(source), rng.Float64()*5, 20+rng.Float64()*30, 0.2+rng.Float64()*2)
	test.That(t, err, test.ShouldBeNil)
	return ray
}

func bruteForceRayHits(ray *spatialmath.Ray, positions pointcloud.Positions) ([]int, []float64) {
	var indices []int
	var ts []float64
	for i := 0; i < positions.Len(); i++ {
		if t, ok := ray.Intersects(positions.At(i)); ok {
			indices = append(indices, i)
			ts = append(ts, t)
		}
	}
	return indices, ts
}

func TestRaySearchNoFalseNegatives(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, threshold := range []int{1, 8, 64} {
		octree, positions := buildRandomOctree(t, rng, 1000, threshold)
		for i := 0; i < 50; i++ {
			ray := randomRay(t, rng)
			candidates := octree.RaySearch(ray)

			found := map[int]LocationCode{}
			for _, c := range candidates {
				_, dup := found[c.Index]
				test.That(t, dup, test.ShouldBeFalse)
				found[c.Index] = c.LocationCode
				points, err := octree.Points(c.LocationCode)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, slices.Contains(points, c.Index), test.ShouldBeTrue)
			}

			expected, _ := bruteForceRayHits(ray, positions)
			for _, idx := range expected {
				_, ok := found[idx]
				test.That(t, ok, test.ShouldBeTrue)
			}
		}
	}
}

func TestRaySearchRootLeaf(t *testing.T) {
	octree := newTestOctree(t, 10, 4)
	root, err := spatialmath.NewAABB(r3.Vector{}, 8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, octree.Build(clusterPositions.Indices(), clusterPositions, root), test.ShouldBeNil)

	// a ray pointing away still gets the points held by the root
	ray, err := spatialmath.NewRay(r3.Vector{X: 100}, r3.Vector{X: 1}, 0, 10, 0.1)
	test.That(t, err, test.ShouldBeNil)
	candidates := octree.RaySearch(ray)
	test.That(t, len(candidates), test.ShouldEqual, 5)
	for i, c := range candidates {
		test.That(t, c, test.ShouldResemble, Candidate{Index: i, LocationCode: Root})
	}
}

func TestRaySearchPrunes(t *testing.T) {
	octree := buildClusterOctree(t)

	ray, err := spatialmath.NewRay(r3.Vector{X: 5, Y: 5, Z: 20}, r3.Vector{Z: -1}, 0, 100, 0.5)
	test.That(t, err, test.ShouldBeNil)
	candidates := octree.RaySearch(ray)
	test.That(t, candidates, test.ShouldResemble, []Candidate{{Index: 4, LocationCode: Root.Child(7).Child(7)}})

	hits, err := octree.RayIntersect(ray, clusterPositions)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(hits), test.ShouldEqual, 1)
	test.That(t, hits[0].Index, test.ShouldEqual, 4)
	test.That(t, hits[0].Distance, test.ShouldAlmostEqual, 15.)
	test.That(t, hits[0].Position, test.ShouldResemble, r3.Vector{X: 5, Y: 5, Z: 5})
	test.That(t, hits[0].Color, test.ShouldBeNil)
}

func TestRayUnnormalizedDirection(t *testing.T) {
	positions := pointcloud.NewPositionsFromVectors([]r3.Vector{
		{X: 0, Y: 0, Z: 5},
		{X: 3, Y: 3, Z: 3},
		{X: -3, Y: -3, Z: -3},
		{X: 3, Y: -3, Z: -3},
	})
	octree := newTestOctree(t, 1, 6)
	root, err := spatialmath.NewAABB(r3.Vector{}, 8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, octree.Build(positions.Indices(), positions, root), test.ShouldBeNil)

	for _, scale := range []float64{0.1, 1, 10} {
		ray := &spatialmath.Ray{
			Source:    r3.Vector{Z: -10},
			Direction: r3.Vector{Z: scale},
			Far:       20,
			Threshold: 0.1,
		}
		found := false
		for _, c := range octree.RaySearch(ray) {
			found = found || c.Index == 0
		}
		test.That(t, found, test.ShouldBeTrue)

		hits, err := octree.RayIntersect(ray, positions)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(hits), test.ShouldEqual, 1)
		test.That(t, hits[0].Index, test.ShouldEqual, 0)
		test.That(t, hits[0].Distance, test.ShouldAlmostEqual, 15.)
	}
}

func TestRayIntersect(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	octree, positions := buildRandomOctree(t, rng, 1000, 16)

	for i := 0; i < 50; i++ {
		ray := randomRay(t, rng)
		hits, err := octree.RayIntersect(ray, positions)
		test.That(t, err, test.ShouldBeNil)

		expected, _ := bruteForceRayHits(ray, positions)
		got := make([]int, 0, len(hits))
		for j, hit := range hits {
			if j > 0 {
				test.That(t, hit.Distance, test.ShouldBeGreaterThanOrEqualTo, hits[j-1].Distance)
			}
			test.That(t, hit.Position, test.ShouldResemble, positions.At(hit.Index))
			got = append(got, hit.Index)
		}
		slices.Sort(got)
		test.That(t, len(got), test.ShouldEqual, len(expected))
		if len(expected) > 0 {
			test.That(t, got, test.ShouldResemble, expected)
		}
	}
}

func TestRayIntersectOptions(t *testing.T) {
	positions := pointcloud.NewPositionsFromVectors([]r3.Vector{
		{X: 0, Y: 0, Z: 3},
		{X: 0, Y: 0, Z: 1},
		{X: 0, Y: 0, Z: 2},
		{X: 3, Y: 3, Z: 3},
	})
	colors := pointcloud.Colors{
		10, 0, 0,
		20, 0, 0,
		30, 0, 0,
		40, 0, 0,
	}
	octree := newTestOctree(t, 1, 6)
	root, err := spatialmath.NewAABB(r3.Vector{}, 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, octree.Build(positions.Indices(), positions, root), test.ShouldBeNil)

	ray, err := spatialmath.NewRay(r3.Vector{Z: -5}, r3.Vector{Z: 2}, 0, 20, 0.1)
	test.That(t, err, test.ShouldBeNil)

	hits, err := octree.RayIntersect(ray, positions, WithColors(colors))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(hits), test.ShouldEqual, 3)
	for i, idx := range []int{1, 2, 0} {
		test.That(t, hits[i].Index, test.ShouldEqual, idx)
		test.That(t, *hits[i].Color, test.ShouldResemble, color.NRGBA{R: uint8(10 * (idx + 1)), A: 255})
	}

	hits, err = octree.RayIntersect(ray, positions, WithVisibility(func(index int) bool { return index != 1 }))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(hits), test.ShouldEqual, 2)
	test.That(t, hits[0].Index, test.ShouldEqual, 2)
	test.That(t, hits[1].Index, test.ShouldEqual, 0)

	clipped, err := spatialmath.NewRay(r3.Vector{Z: -5}, r3.Vector{Z: 1}, 6.5, 20, 0.1)
	test.That(t, err, test.ShouldBeNil)
	hits, err = octree.RayIntersect(clipped, positions)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(hits), test.ShouldEqual, 2)
	test.That(t, hits[0].Index, test.ShouldEqual, 2)

	_, err = octree.RayIntersect(ray, positions[:6])
	test.That(t, err, test.ShouldNotBeNil)
}
