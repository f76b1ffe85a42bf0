package octree

import (
	"go.viam.com/pcindex/spatialmath"
)

// Visitor is called for each visited node. points is nil for internal nodes.
type Visitor func(points []int, box *spatialmath.AABB, code LocationCode)

// Condition decides whether a node and its whole subtree are visited.
type Condition func(box *spatialmath.AABB, code LocationCode) bool

// Traverse visits every node depth first, root included, children in octant order 0 to 7.
func (octree *Octree) Traverse(visit Visitor) {
	octree.traverseFrom(Root, visit, nil, true)
}

// TraverseIf is Traverse, except that a node for which cond returns false is skipped together
// with all of its descendants.
func (octree *Octree) TraverseIf(visit Visitor, cond Condition) {
	octree.traverseFrom(Root, visit, cond, true)
}

func (octree *Octree) traverseFrom(code LocationCode, visit Visitor, cond Condition, includeStart bool) {
	if includeStart {
		box, ok := octree.nodeBoxes[code]
		if !ok {
			return
		}
		if cond != nil && !cond(box, code) {
			return
		}
		visit(octree.nodePoints[code], box, code)
	}
	// leaves have no children, and the depth cap keeps the key space below 64 bits
	if octree.IsLeaf(code) {
		return
	}
	for octant := 0; octant < 8; octant++ {
		octree.traverseFrom(code.Child(octant), visit, cond, true)
	}
}
