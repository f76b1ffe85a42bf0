package octree

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/pcindex/pointcloud"
	"go.viam.com/pcindex/spatialmath"
	"go.viam.com/pcindex/utils"
)

// Candidate is a point that may be hit by a ray, together with the leaf holding it.
type Candidate struct {
	Index        int
	LocationCode LocationCode
}

// Hit is a point returned by a query. Distance is the ray parameter for ray queries and the
// Euclidean distance to the query point otherwise. Color is nil when no color buffer was given.
type Hit struct {
	Index        int
	LocationCode LocationCode
	Distance     float64
	Position     r3.Vector
	Color        *color.NRGBA
}

// RaySearch returns every point that could lie within ray.Threshold of the ray between its
// source and ray.Far. The result over-approximates: it never misses such a point but usually
// holds points that are farther away. Points held by the root are always returned.
func (octree *Octree) RaySearch(ray *spatialmath.Ray) []Candidate {
	countQuery(queryRay)
	var candidates []Candidate
	for _, idx := range octree.nodePoints[Root] {
		candidates = append(candidates, Candidate{Index: idx, LocationCode: Root})
	}

	inverseDirection := ray.InverseDirection()
	octree.traverseFrom(Root,
		func(points []int, box *spatialmath.AABB, code LocationCode) {
			for _, idx := range points {
				candidates = append(candidates, Candidate{Index: idx, LocationCode: code})
			}
		},
		func(box *spatialmath.AABB, code LocationCode) bool {
			return box.CylinderTest(ray.Source, inverseDirection, ray.Far, ray.Threshold)
		},
		false,
	)
	return candidates
}

type rayIntersectOptions struct {
	colors  pointcloud.Colors
	visible func(index int) bool
}

// RayIntersectOption configures RayIntersect.
type RayIntersectOption func(*rayIntersectOptions)

// WithColors fills the Color of every hit from the given buffer.
func WithColors(colors pointcloud.Colors) RayIntersectOption {
	return func(opts *rayIntersectOptions) {
		opts.colors = colors
	}
}

// WithVisibility drops every hit whose index the filter rejects.
func WithVisibility(visible func(index int) bool) RayIntersectOption {
	return func(opts *rayIntersectOptions) {
		opts.visible = visible
	}
}

// RayIntersect refines RaySearch into exact hits: points within ray.Threshold of the ray whose
// closest approach lies in [ray.Near, ray.Far], ordered by ascending distance along the ray.
func (octree *Octree) RayIntersect(
	ray *spatialmath.Ray,
	positions pointcloud.Positions,
	opts ...RayIntersectOption,
) ([]Hit, error) {
	var options rayIntersectOptions
	for _, opt := range opts {
		opt(&options)
	}

	unit := *ray
	unit.Direction = ray.UnitDirection()

	n := positions.Len()
	var hits []Hit
	var distances []float64
	for _, candidate := range octree.RaySearch(&unit) {
		if candidate.Index >= n {
			return nil, errPointOutOfRange(candidate.Index, n)
		}
		if options.visible != nil && !options.visible(candidate.Index) {
			continue
		}
		p := positions.At(candidate.Index)
		t, ok := unit.Intersects(p)
		if !ok {
			continue
		}
		hit := Hit{
			Index:        candidate.Index,
			LocationCode: candidate.LocationCode,
			Distance:     t,
			Position:     p,
		}
		if c, ok := options.colors.At(candidate.Index); ok {
			hit.Color = &c
		}
		hits = append(hits, hit)
		distances = append(distances, t)
	}

	_, perm := utils.RadixSortFloat64(distances)
	sorted := make([]Hit, len(hits))
	for i, idx := range perm {
		sorted[i] = hits[idx]
	}
	return sorted, nil
}

// pointDistanceSq is the squared Euclidean distance between p and the i-th position.
func pointDistanceSq(p r3.Vector, positions pointcloud.Positions, i int) float64 {
	return utils.Square(positions[3*i]-p.X) +
		utils.Square(positions[3*i+1]-p.Y) +
		utils.Square(positions[3*i+2]-p.Z)
}

func newPointHit(idx int, code LocationCode, distSq float64, positions pointcloud.Positions) *Hit {
	return &Hit{
		Index:        idx,
		LocationCode: code,
		Distance:     math.Sqrt(distSq),
		Position:     positions.At(idx),
	}
}
