package terrain

import (
	"errors"
	"fmt"
)

// ErrInvalidGridDimension is returned for grid dimensions that are not a power of two >= 4,
// or a stitch depth the quadrant edge cannot hold.
var ErrInvalidGridDimension = errors.New("invalid grid dimension")

// IndexRange is a contiguous run of the GridPatch index buffer.
type IndexRange struct {
	First int // first index
	Count int // number of indices
}

// GridPatch is the fixed mesh template every patch is drawn with. Vertices are int16 (x, z)
// pairs centred on the origin; the vertex shader scales and offsets them per instance.
//
// The index buffer holds one triangle list per quadrant and stitch variant. A variant is the
// stitch level of the quadrant's two outer sides: vertices on a stitched side snap to a multiple
// of 1<<stitch, so the side only uses vertices it shares with the coarser neighbour. Triangles
// that collapse are left out.
type GridPatch struct {
	dim       int
	maxStitch int
	vertices  []int16
	indices   []uint32
	ranges    [4][]IndexRange // [quadrant][variant]
}

// NewGridPatch builds the template for the given dimension (cells per side).
func NewGridPatch(dimension, maxStitch int) (*GridPatch, error) {
	if dimension < 4 || dimension&(dimension-1) != 0 || dimension > 1<<14 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGridDimension, dimension)
	}
	if maxStitch < 0 || 1<<uint(maxStitch) > dimension/2 {
		return nil, fmt.Errorf("%w: stitch level %d exceeds quadrant size %d", ErrInvalidGridDimension, maxStitch, dimension/2)
	}

	g := &GridPatch{dim: dimension, maxStitch: maxStitch}
	g.buildVertices()
	variants := (maxStitch + 1) * (maxStitch + 1)
	for _, q := range Quadrants {
		g.ranges[q] = make([]IndexRange, variants)
		for a := 0; a <= maxStitch; a++ {
			for b := 0; b <= maxStitch; b++ {
				first := len(g.indices)
				g.appendQuadrant(q, a, b)
				g.ranges[q][g.variant(a, b)] = IndexRange{First: first, Count: len(g.indices) - first}
			}
		}
	}
	return g, nil
}

func (g *GridPatch) buildVertices() {
	half := g.dim / 2
	g.vertices = make([]int16, 0, 2*(g.dim+1)*(g.dim+1))
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			g.vertices = append(g.vertices, int16(x), int16(y))
		}
	}
}

// appendQuadrant emits the triangles of quadrant q with stitch level sx on its X side
// and sz on its Z side.
func (g *GridPatch) appendQuadrant(q Quadrant, sx, sz int) {
	half := g.dim / 2
	i0, j0 := 0, 0
	dx, dz := q.direction()
	if dx > 0 {
		i0 = half
	}
	if dz > 0 {
		j0 = half
	}
	xSide, zSide := q.outerSides()
	var stitch [4]int
	stitch[xSide] = sx
	stitch[zSide] = sz

	for j := j0; j < j0+half; j++ {
		for i := i0; i < i0+half; i++ {
			a := g.snap(i, j, dx, dz, stitch)
			b := g.snap(i, j+1, dx, dz, stitch)
			c := g.snap(i+1, j, dx, dz, stitch)
			d := g.snap(i+1, j+1, dx, dz, stitch)
			g.appendTriangle(a, b, c)
			g.appendTriangle(c, b, d)
		}
	}
}

// snap moves corner-relative vertex (i, j) onto a vertex shared with a coarser neighbour, for
// every stitched side it lies on. Vertices snap toward the patch corner the quadrant touches
// (dx, dz), so the two stitched sides of a quadrant never fold over each other at that corner.
func (g *GridPatch) snap(i, j, dx, dz int, stitch [4]int) [2]int {
	if i == 0 && stitch[SideLeft] > 0 {
		j = snapStep(j, stitch[SideLeft], dz > 0)
	} else if i == g.dim && stitch[SideRight] > 0 {
		j = snapStep(j, stitch[SideRight], dz > 0)
	}
	if j == 0 && stitch[SideTop] > 0 {
		i = snapStep(i, stitch[SideTop], dx > 0)
	} else if j == g.dim && stitch[SideBottom] > 0 {
		i = snapStep(i, stitch[SideBottom], dx > 0)
	}
	return [2]int{i, j}
}

// snapStep rounds v to a multiple of 1<<level, down or up.
func snapStep(v, level int, up bool) int {
	step := 1 << uint(level)
	r := v % step
	if r == 0 {
		return v
	}
	if up {
		return v - r + step
	}
	return v - r
}

// appendTriangle adds a, b, c unless they are collinear. Winding is counter-clockwise seen from +Y.
func (g *GridPatch) appendTriangle(a, b, c [2]int) {
	if cross2(a, b, c) == 0 {
		return
	}
	row := g.dim + 1
	g.indices = append(g.indices,
		uint32(a[1]*row+a[0]),
		uint32(b[1]*row+b[0]),
		uint32(c[1]*row+c[0]),
	)
}

// cross2 is twice the signed XZ area of triangle abc. Negative means the normal points to +Y.
func cross2(a, b, c [2]int) int {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func (g *GridPatch) variant(sx, sz int) int {
	return sx*(g.maxStitch+1) + sz
}

// Range returns the index subset for quadrant q given a patch's per-side stitch levels.
func (g *GridPatch) Range(q Quadrant, stitch [4]uint8) IndexRange {
	xSide, zSide := q.outerSides()
	sx := min(int(stitch[xSide]), g.maxStitch)
	sz := min(int(stitch[zSide]), g.maxStitch)
	return g.ranges[q][g.variant(sx, sz)]
}

// Index returns the vertex index of centred patch coordinates (x, y), each in [-dim/2, dim/2].
func (g *GridPatch) Index(x, y int) int {
	half := g.dim / 2
	return (g.dim+1)*(y+half) + (x + half)
}

// Dimension returns the number of cells per side.
func (g *GridPatch) Dimension() int {
	return g.dim
}

// MaxStitch returns the deepest stitch level with its own index subsets.
func (g *GridPatch) MaxStitch() int {
	return g.maxStitch
}

// Vertices returns the interleaved int16 (x, z) positions.
func (g *GridPatch) Vertices() []int16 {
	return g.vertices
}

// VertexCount returns (dim+1)².
func (g *GridPatch) VertexCount() int {
	return len(g.vertices) / 2
}

// Indices returns the whole index buffer.
func (g *GridPatch) Indices() []uint32 {
	return g.indices
}

// Vertex returns the centred position of vertex index i.
func (g *GridPatch) Vertex(i uint32) (x, z int16) {
	return g.vertices[2*i], g.vertices[2*i+1]
}
