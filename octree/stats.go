package octree

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/pcindex/spatialmath"
)

// Stats summarizes the shape of a built tree.
type Stats struct {
	Nodes  int
	Leaves int
	Points int
	// Depth is the depth of the deepest node.
	Depth int
	// LeavesPerDepth counts the leaves at each depth, indexed by depth.
	LeavesPerDepth []int
	// MeanLeafPoints and StdDevLeafPoints describe how many points the leaves hold.
	MeanLeafPoints   float64
	StdDevLeafPoints float64
	// ForcedLeaves counts leaves over the threshold because they reached the depth cap.
	ForcedLeaves int
}

// Stats walks the tree and returns its shape.
func (octree *Octree) Stats() Stats {
	s := Stats{LeavesPerDepth: make([]int, octree.maxDepth+1)}
	var occupancy []float64
	octree.Traverse(func(points []int, _ *spatialmath.AABB, code LocationCode) {
		s.Nodes++
		depth := code.Depth()
		s.Depth = max(s.Depth, depth)
		if !octree.IsLeaf(code) {
			return
		}
		s.Leaves++
		s.LeavesPerDepth[depth]++
		occupancy = append(occupancy, float64(len(points)))
		if len(points) > octree.threshold {
			s.ForcedLeaves++
		}
	})
	s.Points = int(lo.Sum(occupancy))
	s.LeavesPerDepth = s.LeavesPerDepth[:s.Depth+1]
	if len(occupancy) > 0 {
		s.MeanLeafPoints, s.StdDevLeafPoints = stat.MeanStdDev(occupancy, nil)
		// a single sample has no spread
		if math.IsNaN(s.StdDevLeafPoints) {
			s.StdDevLeafPoints = 0
		}
	}
	return s
}
