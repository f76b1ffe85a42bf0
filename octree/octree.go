// Package octree implements a spatial index over an unordered point set for picking and
// proximity queries.
//
// The tree is a pair of maps keyed by LocationCode: one from every node to its cube and one from
// every leaf to the indices of the points it holds. There are no child pointers; a node exists
// exactly when its code is a key of the cube map, and an internal node has no entry in the point
// map. Points are referenced by their index into a caller owned pointcloud.Positions buffer.
//
// An Octree is built once per version of the point set. Queries only read the maps and may run
// concurrently with each other, but never concurrently with Build. A rebuild replaces the maps
// wholesale, so a Clone taken before it stays valid.
package octree

import (
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/pcindex/logging"
	"go.viam.com/pcindex/pointcloud"
	"go.viam.com/pcindex/spatialmath"
)

// Octree is a point index that recursively partitions a cube into octants until each leaf holds
// at most threshold points or reaches maxDepth.
type Octree struct {
	logger     logging.Logger
	threshold  int
	maxDepth   int
	nodePoints map[LocationCode][]int
	nodeBoxes  map[LocationCode]*spatialmath.AABB
	size       int
}

// New creates an empty octree with the given subdivision config.
func New(cfg Config, logger logging.Logger) (*Octree, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return &Octree{
		logger:     logger,
		threshold:  cfg.Threshold,
		maxDepth:   cfg.MaxDepth,
		nodePoints: map[LocationCode][]int{},
		nodeBoxes:  map[LocationCode]*spatialmath.AABB{},
	}, nil
}

// Build indexes the given points, replacing whatever the tree held before. indices selects the
// points of positions to index and bounds must enclose all of them. The tree keeps its own copy
// of bounds and of the index lists.
func (octree *Octree) Build(indices []int, positions pointcloud.Positions, bounds *spatialmath.AABB) error {
	if bounds == nil {
		return errors.Wrap(ErrInvalidBounds, "no root cube given")
	}
	if !(bounds.Radius() > 0) {
		return errors.Wrapf(ErrInvalidBounds, "root cube radius %v", bounds.Radius())
	}
	n := positions.Len()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return errPointOutOfRange(idx, n)
		}
	}

	start := time.Now()
	octree.nodePoints = make(map[LocationCode][]int)
	octree.nodeBoxes = make(map[LocationCode]*spatialmath.AABB)
	octree.size = len(indices)

	forced := octree.build(append(make([]int, 0, len(indices)), indices...), positions, bounds.Clone(), Root)

	elapsed := time.Since(start)
	buildDuration.Observe(elapsed.Seconds())
	builtPoints.Add(float64(len(indices)))
	octree.logger.Debugw("built octree",
		"points", octree.size,
		"nodes", len(octree.nodeBoxes),
		"leaves", len(octree.nodePoints),
		"duration", elapsed)
	if forced > 0 {
		octree.logger.Debugw("leaves at max depth hold more points than the threshold, points may share coordinates",
			"leaves", forced, "max_depth", octree.maxDepth, "threshold", octree.threshold)
	}
	return nil
}

// build stores the subtree rooted at code and returns how many of its leaves were forced by the
// depth cap while still over the threshold.
func (octree *Octree) build(indices []int, positions pointcloud.Positions, box *spatialmath.AABB, code LocationCode) int {
	box.SetLocationCode(uint64(code))
	octree.nodeBoxes[code] = box

	if len(indices) <= octree.threshold || code.Depth() >= octree.maxDepth {
		octree.nodePoints[code] = indices
		if len(indices) > octree.threshold {
			return 1
		}
		return 0
	}

	var octants [8][]int
	for _, idx := range indices {
		octant := box.Octant(positions.At(idx))
		octants[octant] = append(octants[octant], idx)
	}

	forced := 0
	for octant, part := range octants {
		if len(part) == 0 {
			continue
		}
		forced += octree.build(part, positions, box.Child(octant), code.Child(octant))
	}
	return forced
}

// Clone returns a copy of the tree that shares the immutable index lists but owns its cubes.
func (octree *Octree) Clone() *Octree {
	clone := &Octree{
		logger:     octree.logger,
		threshold:  octree.threshold,
		maxDepth:   octree.maxDepth,
		nodePoints: make(map[LocationCode][]int, len(octree.nodePoints)),
		nodeBoxes:  make(map[LocationCode]*spatialmath.AABB, len(octree.nodeBoxes)),
		size:       octree.size,
	}
	for code, points := range octree.nodePoints {
		clone.nodePoints[code] = points
	}
	for code, box := range octree.nodeBoxes {
		clone.nodeBoxes[code] = box.Clone()
	}
	return clone
}

// Threshold returns the most points a node may hold before it is subdivided.
func (octree *Octree) Threshold() int {
	return octree.threshold
}

// MaxDepth returns the depth cap of the tree.
func (octree *Octree) MaxDepth() int {
	return octree.maxDepth
}

// Size returns the number of points indexed by the last build.
func (octree *Octree) Size() int {
	return octree.size
}

// Contains reports whether code addresses a node of the tree.
func (octree *Octree) Contains(code LocationCode) bool {
	_, ok := octree.nodeBoxes[code]
	return ok
}

// IsLeaf reports whether code addresses a node holding a point list.
func (octree *Octree) IsLeaf(code LocationCode) bool {
	_, ok := octree.nodePoints[code]
	return ok
}

// Box returns the cube of the node addressed by code.
func (octree *Octree) Box(code LocationCode) (*spatialmath.AABB, error) {
	box, ok := octree.nodeBoxes[code]
	if !ok {
		return nil, NewNodeNotFoundError(code)
	}
	return box, nil
}

// Points returns the indices held by the node addressed by code; nil for internal nodes. The
// returned slice is shared with the tree and must not be modified.
func (octree *Octree) Points(code LocationCode) ([]int, error) {
	if !octree.Contains(code) {
		return nil, NewNodeNotFoundError(code)
	}
	return octree.nodePoints[code], nil
}

// LocationCodes returns the codes of every node in ascending order.
func (octree *Octree) LocationCodes() []LocationCode {
	codes := lo.Keys(octree.nodeBoxes)
	slices.Sort(codes)
	return codes
}
