package debug

import (
	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// PatchGridSegments is the number of line segments drawn along each quadrant edge.
const PatchGridSegments = 4

// stitchColor marks sides that snap to a coarser neighbour.
var stitchColor = [3]float32{1, 1, 1}

// PatchGridRenderer generates outline overlays for a render list.
type PatchGridRenderer struct {
	tree    *terrain.Tree
	sampler terrain.HeightSampler
	lift    float32
}

// NewPatchGridRenderer creates a new overlay generator. lift raises lines above the surface
// in world units.
func NewPatchGridRenderer(tree *terrain.Tree, sampler terrain.HeightSampler, lift float32) *PatchGridRenderer {
	if tree == nil || sampler == nil {
		return nil
	}
	return &PatchGridRenderer{tree: tree, sampler: sampler, lift: lift}
}

// GenerateOutlines returns the outline of every visible quadrant, draped over the terrain.
// Lines are colored by LOD level; outer sides with a non-zero stitch level are drawn white.
func (r *PatchGridRenderer) GenerateOutlines(patches []terrain.Patch) []LineVertex {
	if r == nil {
		return nil
	}

	base := r.tree.BaseDimension()
	var vertices []LineVertex
	for _, p := range patches {
		x0, z0, size := p.Extent(base)
		half := size / 2
		color := LevelColor(p.Level)

		for _, q := range terrain.Quadrants {
			if !p.Mask.Has(q) {
				continue
			}
			qx, qz := x0, z0
			if q == terrain.TopRight || q == terrain.BottomRight {
				qx += half
			}
			if q == terrain.BottomLeft || q == terrain.BottomRight {
				qz += half
			}

			left, right, top, bottom := color, color, color, color
			if qx == x0 && p.Stitch[terrain.SideLeft] > 0 {
				left = stitchColor
			}
			if qx != x0 && p.Stitch[terrain.SideRight] > 0 {
				right = stitchColor
			}
			if qz == z0 && p.Stitch[terrain.SideTop] > 0 {
				top = stitchColor
			}
			if qz != z0 && p.Stitch[terrain.SideBottom] > 0 {
				bottom = stitchColor
			}

			vertices = r.appendEdge(vertices, qx, qz, qx+half, qz, top)
			vertices = r.appendEdge(vertices, qx, qz+half, qx+half, qz+half, bottom)
			vertices = r.appendEdge(vertices, qx, qz, qx, qz+half, left)
			vertices = r.appendEdge(vertices, qx+half, qz, qx+half, qz+half, right)
		}
	}
	return vertices
}

// appendEdge appends a heightfield edge from (ax, az) to (bx, bz) split into segments.
func (r *PatchGridRenderer) appendEdge(dst []LineVertex, ax, az, bx, bz int, color [3]float32) []LineVertex {
	tr := r.tree.Transform()
	point := func(i int) LineVertex {
		x := ax + (bx-ax)*i/PatchGridSegments
		z := az + (bz-az)*i/PatchGridSegments
		w := tr.World(float32(x), r.sampler.Height(x, z), float32(z))
		return LineVertex{w.X(), w.Y() + r.lift, w.Z(), color[0], color[1], color[2]}
	}
	for i := 0; i < PatchGridSegments; i++ {
		dst = append(dst, point(i), point(i+1))
	}
	return dst
}

// LevelHistogram counts visible quadrants per LOD level, finest first.
func LevelHistogram(patches []terrain.Patch) []int {
	var counts []int
	for _, p := range patches {
		for len(counts) <= p.Level {
			counts = append(counts, 0)
		}
		counts[p.Level] += p.Mask.Count()
	}
	return counts
}
