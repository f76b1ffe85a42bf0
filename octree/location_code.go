package octree

import (
	"math/bits"
	"strconv"
	"strings"
)

// LocationCode addresses an octree node. Read most significant bit first, it is a sentinel bit
// followed by one 3-bit octant selector per level from the root down to the node, so the root is
// 1 and a child's code is (parent << 3) | octant. Codes double as the node's map key.
type LocationCode uint64

const (
	// Root is the location code of the root node.
	Root LocationCode = 1
	// MaxDepth is the deepest level a 64 bit location code can address.
	MaxDepth = 21
)

// GenerateLocationCode returns the code of the given octant (0-7) of parent.
func GenerateLocationCode(parent LocationCode, octant int) LocationCode {
	return parent<<3 | LocationCode(octant&7)
}

// Valid reports whether the sentinel bit sits on a level boundary.
func (c LocationCode) Valid() bool {
	return c != 0 && (bits.Len64(uint64(c))-1)%3 == 0
}

// Depth returns the level of the node, 0 for the root.
func (c LocationCode) Depth() int {
	if c == 0 {
		return 0
	}
	return (bits.Len64(uint64(c)) - 1) / 3
}

// Parent returns the code of the parent node. The parent of the root is 0, which is never a
// valid code.
func (c LocationCode) Parent() LocationCode {
	return c >> 3
}

// Octant returns the octant this node occupies within its parent.
func (c LocationCode) Octant() int {
	return int(c & 7)
}

// Child returns the code of the given octant of c.
func (c LocationCode) Child(octant int) LocationCode {
	return GenerateLocationCode(c, octant)
}

// Path returns the octant selectors from the root down to c.
func (c LocationCode) Path() []int {
	depth := c.Depth()
	path := make([]int, depth)
	for i := depth - 1; i >= 0; i-- {
		path[i] = c.Octant()
		c = c.Parent()
	}
	return path
}

// String renders the code as its octant path, e.g. "1.7.0.3".
func (c LocationCode) String() string {
	var sb strings.Builder
	sb.WriteString("1")
	for _, octant := range c.Path() {
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(octant))
	}
	return sb.String()
}
