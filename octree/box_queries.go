package octree

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/pcindex/pointcloud"
	"go.viam.com/pcindex/spatialmath"
)

// ClosestBox descends from start one level at a time into the child cube nearest to p, skipping
// children that hold fewer than threshold points, and returns the cube where no child qualifies.
func (octree *Octree) ClosestBox(p r3.Vector, threshold int, start LocationCode) (*spatialmath.AABB, error) {
	countQuery(queryClosestBox)
	return octree.descend(start, threshold, func(box *spatialmath.AABB) float64 {
		return box.DistanceSqToPoint(p)
	}, func(a, b float64) bool { return a < b })
}

// ClosestBoxFromCenter is ClosestBox measuring the distance from p to the cube centers.
func (octree *Octree) ClosestBoxFromCenter(p r3.Vector, threshold int, start LocationCode) (*spatialmath.AABB, error) {
	countQuery(queryClosestBox)
	return octree.descend(start, threshold, func(box *spatialmath.AABB) float64 {
		return box.DistanceFromCenterToPointSq(p)
	}, func(a, b float64) bool { return a < b })
}

// FarthestBox is ClosestBox descending into the child cube farthest from p.
func (octree *Octree) FarthestBox(p r3.Vector, threshold int, start LocationCode) (*spatialmath.AABB, error) {
	countQuery(queryFarthest)
	return octree.descend(start, threshold, func(box *spatialmath.AABB) float64 {
		return box.DistanceSqToPoint(p)
	}, func(a, b float64) bool { return a > b })
}

// descend greedily follows the child whose measure is preferred by better. Ties keep the lower
// octant.
func (octree *Octree) descend(
	start LocationCode,
	threshold int,
	measure func(*spatialmath.AABB) float64,
	better func(a, b float64) bool,
) (*spatialmath.AABB, error) {
	code := start
	box, err := octree.Box(code)
	if err != nil {
		return nil, err
	}
	for !octree.IsLeaf(code) {
		next := LocationCode(0)
		var nextBox *spatialmath.AABB
		var best float64
		for octant := 0; octant < 8; octant++ {
			child := code.Child(octant)
			childBox, ok := octree.nodeBoxes[child]
			if !ok {
				continue
			}
			if points, ok := octree.nodePoints[child]; ok && len(points) < threshold {
				continue
			}
			d := measure(childBox)
			if nextBox == nil || better(d, best) {
				next, nextBox, best = child, childBox, d
			}
		}
		if nextBox == nil {
			break
		}
		code, box = next, nextBox
	}
	return box, nil
}

// Neighbours returns the codes of every other leaf holding points whose cube touches or overlaps
// the cube of code, in traversal order.
func (octree *Octree) Neighbours(code LocationCode) ([]LocationCode, error) {
	countQuery(queryNeighbours)
	box, err := octree.Box(code)
	if err != nil {
		return nil, err
	}
	var neighbours []LocationCode
	octree.TraverseIf(
		func(points []int, _ *spatialmath.AABB, other LocationCode) {
			if other != code && len(points) > 0 {
				neighbours = append(neighbours, other)
			}
		},
		func(other *spatialmath.AABB, _ LocationCode) bool {
			return box.TestAABB(other)
		},
	)
	return neighbours, nil
}

// ClosestPoint returns the point nearest to p among those held by the cube addressed by code.
// A zero code resolves the cube with ClosestBox from the root. The hit is nil when the cube holds
// no points.
func (octree *Octree) ClosestPoint(
	p r3.Vector,
	positions pointcloud.Positions,
	threshold int,
	code LocationCode,
) (*Hit, error) {
	return octree.extremePoint(p, positions, threshold, code, octree.ClosestBox, func(a, b float64) bool { return a < b })
}

// FarthestPoint is ClosestPoint picking the point farthest from p, resolving a zero code with
// FarthestBox.
func (octree *Octree) FarthestPoint(
	p r3.Vector,
	positions pointcloud.Positions,
	threshold int,
	code LocationCode,
) (*Hit, error) {
	return octree.extremePoint(p, positions, threshold, code, octree.FarthestBox, func(a, b float64) bool { return a > b })
}

func (octree *Octree) extremePoint(
	p r3.Vector,
	positions pointcloud.Positions,
	threshold int,
	code LocationCode,
	resolve func(r3.Vector, int, LocationCode) (*spatialmath.AABB, error),
	better func(a, b float64) bool,
) (*Hit, error) {
	countQuery(queryPoint)
	if code == 0 {
		box, err := resolve(p, threshold, Root)
		if err != nil {
			return nil, err
		}
		code = LocationCode(box.LocationCode())
	}
	points, err := octree.Points(code)
	if err != nil {
		return nil, err
	}
	n := positions.Len()
	best := -1
	bestDist := math.NaN()
	for _, idx := range points {
		if idx >= n {
			return nil, errPointOutOfRange(idx, n)
		}
		d := pointDistanceSq(p, positions, idx)
		if best < 0 || better(d, bestDist) {
			best, bestDist = idx, d
		}
	}
	if best < 0 {
		return nil, nil
	}
	return newPointHit(best, code, bestDist, positions), nil
}
