// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// LineVertex is one endpoint of a colored debug line.
type LineVertex struct {
	X, Y, Z float32 // Position
	R, G, B float32 // Color
}

// LineVertexFloats is the number of float32s per LineVertex.
const LineVertexFloats = 6

// BBoxWireframeVertexCount is the number of vertices for a bbox wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// DefaultBBoxPadding keeps box lines from z-fighting with the surface.
const DefaultBBoxPadding = 0.05

// levelColors tints LOD levels; levels past the end wrap around.
var levelColors = [...][3]float32{
	{1.0, 0.2, 0.2},
	{1.0, 0.6, 0.1},
	{1.0, 1.0, 0.2},
	{0.3, 1.0, 0.3},
	{0.2, 0.8, 1.0},
	{0.3, 0.3, 1.0},
	{0.8, 0.3, 1.0},
	{1.0, 1.0, 1.0},
}

// LevelColor returns the debug color for a LOD level.
func LevelColor(level int) [3]float32 {
	if level < 0 {
		level = 0
	}
	return levelColors[level%len(levelColors)]
}

// AppendBBoxWireframe appends the 12 edges of b, grown by padding, in the given color.
func AppendBBoxWireframe(dst []LineVertex, b terrain.AABB, padding float32, color [3]float32) []LineVertex {
	pad := mgl32.Vec3{padding, padding, padding}
	lo, hi := b.Min.Sub(pad), b.Max.Add(pad)
	minX, minY, minZ := lo.Elem()
	maxX, maxY, maxZ := hi.Elem()

	corners := [8][3]float32{
		{minX, minY, minZ}, {maxX, minY, minZ}, {maxX, minY, maxZ}, {minX, minY, maxZ},
		{minX, maxY, minZ}, {maxX, maxY, minZ}, {maxX, maxY, maxZ}, {minX, maxY, maxZ},
	}
	// Bottom face, top face, then vertical edges
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		for _, i := range e {
			c := corners[i]
			dst = append(dst, LineVertex{c[0], c[1], c[2], color[0], color[1], color[2]})
		}
	}
	return dst
}

// PatchBounds returns wireframes of the node bounds behind every patch in the list,
// colored by level.
func PatchBounds(tree *terrain.Tree, patches []terrain.Patch) []LineVertex {
	tr := tree.Transform()
	verts := make([]LineVertex, 0, len(patches)*BBoxWireframeVertexCount)
	for _, p := range patches {
		node, ok := nodeAt(tree, p)
		if !ok {
			continue
		}
		verts = AppendBBoxWireframe(verts, tr.Box(&node), DefaultBBoxPadding, LevelColor(p.Level))
	}
	return verts
}

// nodeAt finds the tree node a patch was emitted for by descending toward its center.
func nodeAt(tree *terrain.Tree, p terrain.Patch) (terrain.Node, bool) {
	x, z := int(p.Offset.X()), int(p.Offset.Y())
	id := tree.Root()
	for {
		n := tree.Node(id)
		if n.Level == p.Level {
			return n, n.X == x && n.Z == z
		}
		if n.Level < p.Level {
			return terrain.Node{}, false
		}
		q := terrain.TopLeft
		switch {
		case x >= n.X && z < n.Z:
			q = terrain.TopRight
		case x < n.X && z >= n.Z:
			q = terrain.BottomLeft
		case x >= n.X && z >= n.Z:
			q = terrain.BottomRight
		}
		id = n.Children[q]
		if id == terrain.NoNode {
			return terrain.Node{}, false
		}
	}
}

// Flatten converts line vertices to interleaved floats for upload.
func Flatten(verts []LineVertex) []float32 {
	out := make([]float32, 0, len(verts)*LineVertexFloats)
	for _, v := range verts {
		out = append(out, v.X, v.Y, v.Z, v.R, v.G, v.B)
	}
	return out
}
