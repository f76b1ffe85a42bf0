package octree

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pcindex/pointcloud"
	"go.viam.com/pcindex/spatialmath"
	"go.viam.com/pcindex/utils"
)

// KNearestNeighbours returns the k+1 indexed points nearest to p in ascending order of distance,
// or every indexed point when the tree holds fewer. The extra point leaves room for p itself,
// which is returned first when it is indexed. Equal distances keep the order in which the points
// were gathered.
//
// The search starts in the leaf addressed by code, or in the leaf whose center is nearest to p
// when code is zero, and pulls in other leaves in order of their distance to p only while they
// could still hold a closer point. visit, when non-nil, is called with the result before it is
// returned.
func (octree *Octree) KNearestNeighbours(
	k int,
	p r3.Vector,
	code LocationCode,
	positions pointcloud.Positions,
	visit func(indices []int),
) ([]int, error) {
	if k < 0 {
		return nil, errors.Errorf("negative neighbour count %d", k)
	}
	countQuery(queryKNN)
	if code == 0 {
		box, err := octree.ClosestBoxFromCenter(p, 0, Root)
		if err != nil {
			return nil, err
		}
		code = LocationCode(box.LocationCode())
	}

	candidates, distances, err := octree.PointDistancesSq(p, code, positions)
	if err != nil {
		return nil, err
	}
	cells, cellDistances := octree.CellDistancesToPoint(p, code)
	cellDistances, cellOrder := utils.RadixSortFloat64(cellDistances)
	candidates, distances = sortCandidates(candidates, distances)

	want := octree.size
	if k < octree.size {
		want = k + 1
	}
	result := make([]int, 0, want)
	next := 0
	for len(result) < want {
		bound := math.Inf(1)
		if next < len(cells) {
			bound = cellDistances[next]
		}
		consumed := 0
		for consumed < len(candidates) && len(result) < want && distances[consumed] <= bound {
			result = append(result, candidates[consumed])
			consumed++
		}
		candidates, distances = candidates[consumed:], distances[consumed:]
		if len(result) == want || next == len(cells) {
			break
		}

		cell := cells[cellOrder[next]]
		next++
		cellCandidates, cellDistancesSq, err := octree.PointDistancesSq(p, cell, positions)
		if err != nil {
			return nil, err
		}
		candidates = append(append([]int{}, candidates...), cellCandidates...)
		distances = append(append([]float64{}, distances...), cellDistancesSq...)
		candidates, distances = sortCandidates(candidates, distances)
	}

	if visit != nil {
		visit(result)
	}
	return result, nil
}

// KNearestNeighboursOfIndex is KNearestNeighbours around the indexed point at index.
func (octree *Octree) KNearestNeighboursOfIndex(
	k, index int,
	code LocationCode,
	positions pointcloud.Positions,
	visit func(indices []int),
) ([]int, error) {
	if n := positions.Len(); index < 0 || index >= n {
		return nil, errPointOutOfRange(index, n)
	}
	return octree.KNearestNeighbours(k, positions.At(index), code, positions, visit)
}

// PointDistancesSq returns the indices held by the node addressed by code and their squared
// distances to p, in the order the node holds them.
func (octree *Octree) PointDistancesSq(
	p r3.Vector,
	code LocationCode,
	positions pointcloud.Positions,
) ([]int, []float64, error) {
	points, err := octree.Points(code)
	if err != nil {
		return nil, nil, err
	}
	n := positions.Len()
	distances := make([]float64, len(points))
	for i, idx := range points {
		if idx >= n {
			return nil, nil, errPointOutOfRange(idx, n)
		}
		distances[i] = pointDistanceSq(p, positions, idx)
	}
	return points, distances, nil
}

// CellDistancesToPoint returns every leaf holding points other than exclude, with the squared
// distance from p to its cube, in traversal order.
func (octree *Octree) CellDistancesToPoint(p r3.Vector, exclude LocationCode) ([]LocationCode, []float64) {
	var cells []LocationCode
	var distances []float64
	octree.Traverse(func(points []int, box *spatialmath.AABB, code LocationCode) {
		if code == exclude || len(points) == 0 {
			return
		}
		cells = append(cells, code)
		distances = append(distances, box.DistanceSqToPoint(p))
	})
	return cells, distances
}

func sortCandidates(indices []int, distances []float64) ([]int, []float64) {
	sorted, perm := utils.RadixSortFloat64(distances)
	ordered := make([]int, len(perm))
	for i, j := range perm {
		ordered[i] = indices[j]
	}
	return ordered, sorted
}
