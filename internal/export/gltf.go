package export

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// ErrEmptyMesh is returned when no triangle of the render list lies inside the heightfield.
var ErrEmptyMesh = errors.New("render list produced no triangles")

// Mesh is world-space terrain geometry rebuilt from a render list.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32
	Indices   []uint32
}

// BuildMesh expands every visible quadrant of list through grid, sampling heights from sampler.
// Vertices past the last sample are clamped onto the heightfield edge, as the terrain shader
// discards fragments beyond it; triangles that collapse against the edge are dropped.
func BuildMesh(list *terrain.RenderList, grid *terrain.GridPatch, sampler terrain.HeightSampler, tr terrain.Transform) Mesh {
	var m Mesh
	indices := grid.Indices()
	width, height := sampler.Dimensions()
	remap := make(map[uint32]meshVertex)

	for _, p := range list.Patches {
		clear(remap)
		scale := int(p.Scale)
		ox, oz := int(p.Offset.X()), int(p.Offset.Y())

		vertex := func(i uint32) meshVertex {
			if v, ok := remap[i]; ok {
				return v
			}
			vx, vz := grid.Vertex(i)
			x := clamp(ox+int(vx)*scale, 0, width-1)
			z := clamp(oz+int(vz)*scale, 0, height-1)
			v := meshVertex{index: uint32(len(m.Positions)), x: x, z: z}
			pos := tr.World(float32(x), sampler.Height(x, z), float32(z))
			m.Positions = append(m.Positions, [3]float32(pos))
			m.Normals = append(m.Normals, normalAt(sampler, tr, x, z))
			remap[i] = v
			return v
		}

		for _, q := range terrain.Quadrants {
			if !p.Mask.Has(q) {
				continue
			}
			r := grid.Range(q, p.Stitch)
			for t := r.First; t+2 < r.First+r.Count; t += 3 {
				a, b, c := vertex(indices[t]), vertex(indices[t+1]), vertex(indices[t+2])
				// Grid triangles are counter-clockwise seen from +Y, which is a negative XZ cross.
				if (b.x-a.x)*(c.z-a.z)-(b.z-a.z)*(c.x-a.x) < 0 {
					m.Indices = append(m.Indices, a.index, b.index, c.index)
				}
			}
		}
	}
	return m
}

// meshVertex is an emitted vertex and its clamped heightfield position.
type meshVertex struct {
	index uint32
	x, z  int
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// normalAt estimates the surface normal with central differences in world units.
func normalAt(s terrain.HeightSampler, tr terrain.Transform, x, z int) [3]float32 {
	dx := (s.Height(x+1, z) - s.Height(x-1, z)) * tr.HeightScale
	dz := (s.Height(x, z+1) - s.Height(x, z-1)) * tr.HeightScale
	step := 2 * tr.HorizontalScale
	n := [3]float32{-dx, step, -dz}
	l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}

// Document wraps m in a single-mesh glTF document.
func Document(m Mesh, name string) *gltf.Document {
	doc := gltf.NewDocument()
	position := modeler.WritePosition(doc, m.Positions)
	normal := modeler.WriteNormal(doc, m.Normals)
	indices := modeler.WriteIndices(doc, m.Indices)

	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(indices),
			Attributes: gltf.PrimitiveAttributes{
				"POSITION": position,
				"NORMAL":   normal,
			},
			Mode: gltf.PrimitiveTriangles,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

// WriteGLB saves the geometry selected in list as a glTF binary at path.
func WriteGLB(path string, list *terrain.RenderList, grid *terrain.GridPatch, sampler terrain.HeightSampler, tr terrain.Transform) error {
	m := BuildMesh(list, grid, sampler, tr)
	if len(m.Indices) == 0 {
		return ErrEmptyMesh
	}
	if err := gltf.SaveBinary(Document(m, "terrain"), path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
