package terrain

import "github.com/go-gl/mathgl/mgl32"

// DrawBatch is every visible quadrant that uses the same index subset.
// An instanced renderer issues one draw per batch; a per-draw renderer one draw per instance.
type DrawBatch struct {
	Range     IndexRange
	Instances []mgl32.Vec4 // (offsetX, offsetZ, scale, level)
}

// BuildBatches groups the patches' visible quadrants by index subset.
// Batches appear in the order their subset is first used, so the output is deterministic.
func BuildBatches(patches []Patch, grid *GridPatch) []DrawBatch {
	var batches []DrawBatch
	lookup := make(map[IndexRange]int)
	for _, p := range patches {
		inst := p.Instance()
		for _, q := range Quadrants {
			if !p.Mask.Has(q) {
				continue
			}
			r := grid.Range(q, p.Stitch)
			i, ok := lookup[r]
			if !ok {
				i = len(batches)
				lookup[r] = i
				batches = append(batches, DrawBatch{Range: r})
			}
			batches[i].Instances = append(batches[i].Instances, inst)
		}
	}
	return batches
}

// CountDraws returns the number of draw calls each renderer would issue for the batches.
func CountDraws(batches []DrawBatch) (instanced, perDraw int) {
	for _, b := range batches {
		instanced++
		perDraw += len(b.Instances)
	}
	return instanced, perDraw
}
