// Package terrain implements CDLOD terrain: a static quadtree over a heightfield and the
// per-frame selection of fixed-topology grid patches that are drawn at power-of-two scales.
package terrain

import "github.com/go-gl/mathgl/mgl32"

// HeightSampler provides read-only access to heightfield samples.
// Implementations must be deterministic and safe for concurrent reads.
type HeightSampler interface {
	// Height returns the sample at (x, z).
	Height(x, z int) float32
	// HeightRange returns the min and max sample over [x, x+w) × [z, z+h).
	HeightRange(x, z, w, h int) (min, max float32)
	// Valid reports whether (x, z) lies inside the heightfield.
	Valid(x, z int) bool
	// Dimensions returns the heightfield width (X) and height (Z) in samples.
	Dimensions() (width, height int)
}

// Quadrant identifies one quarter of a node. Top is -Z, left is -X.
type Quadrant int

const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

// Quadrants lists every quadrant in traversal order.
var Quadrants = [4]Quadrant{TopLeft, TopRight, BottomLeft, BottomRight}

// Bit returns the quadrant's bit in a QuadrantMask.
func (q Quadrant) Bit() QuadrantMask {
	return 1 << uint(q)
}

// direction returns the sign of the quadrant's offset from the parent center.
func (q Quadrant) direction() (dx, dz int) {
	dx, dz = -1, -1
	if q == TopRight || q == BottomRight {
		dx = 1
	}
	if q == BottomLeft || q == BottomRight {
		dz = 1
	}
	return dx, dz
}

// outerSides returns the two patch sides the quadrant touches (X side, Z side).
func (q Quadrant) outerSides() (Side, Side) {
	switch q {
	case TopLeft:
		return SideLeft, SideTop
	case TopRight:
		return SideRight, SideTop
	case BottomLeft:
		return SideLeft, SideBottom
	default:
		return SideRight, SideBottom
	}
}

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	}
	return "unknown"
}

// QuadrantMask is a set of quadrants, one bit per Quadrant.
type QuadrantMask uint8

// AllQuadrants has every quadrant bit set.
const AllQuadrants QuadrantMask = 0xF

// Has reports whether q is in the mask.
func (m QuadrantMask) Has(q Quadrant) bool {
	return m&q.Bit() != 0
}

// Count returns the number of quadrants in the mask.
func (m QuadrantMask) Count() int {
	n := 0
	for _, q := range Quadrants {
		if m.Has(q) {
			n++
		}
	}
	return n
}

// Side identifies an edge of a patch.
type Side int

const (
	SideLeft   Side = iota // -X
	SideRight              // +X
	SideTop                // -Z
	SideBottom             // +Z
)

// NodeID addresses a node in a Tree's arena.
type NodeID int32

// NoNode marks an absent child.
const NoNode NodeID = -1

// Node is one square of the quadtree. Coordinates are heightfield units.
type Node struct {
	X, Z      int // center
	Size      int // edge length, BaseDimension << Level
	Level     int // 0 = leaf
	MinHeight float32
	MaxHeight float32
	Children  [4]NodeID // indexed by Quadrant
}

// IsLeaf reports whether the node has no subdivision.
func (n Node) IsLeaf() bool {
	return n.Level == 0
}

// Present returns the mask of quadrants that have a child node.
// Leaves report all four quadrants, since a leaf patch always covers its whole footprint.
func (n Node) Present() QuadrantMask {
	if n.Level == 0 {
		return AllQuadrants
	}
	var m QuadrantMask
	for _, q := range Quadrants {
		if n.Children[q] != NoNode {
			m |= q.Bit()
		}
	}
	return m
}

// Patch is one render-list entry: a GridPatch instance drawn at a node's position and scale.
type Patch struct {
	Offset mgl32.Vec2   // node center (X, Z), heightfield units
	Scale  float32      // 1 << Level
	Level  int          // LOD level, 0 = finest
	Mask   QuadrantMask // quadrants to draw
	Stitch [4]uint8     // per Side: log2 of the coarser neighbour's vertex step, 0 = none
}

// Instance returns the per-instance vector consumed by the vertex shader.
func (p Patch) Instance() mgl32.Vec4 {
	return mgl32.Vec4{p.Offset.X(), p.Offset.Y(), p.Scale, float32(p.Level)}
}

// Extent returns the patch footprint in heightfield units for the given base dimension.
func (p Patch) Extent(baseDimension int) (x0, z0, size int) {
	size = baseDimension << uint(p.Level)
	return int(p.Offset.X()) - size/2, int(p.Offset.Y()) - size/2, size
}
