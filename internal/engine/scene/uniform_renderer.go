package scene

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Tomius/LoD-sub000/internal/engine/camera"
	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// UniformRenderer uploads each patch's vector as a uniform and draws each visible quadrant
// with its own call. It works on contexts without instanced arrays.
type UniformRenderer struct {
	*patchMesh
}

// Mode returns ModeUniform.
func (r *UniformRenderer) Mode() string {
	return ModeUniform
}

// Draw renders the list one quadrant at a time.
func (r *UniformRenderer) Draw(list *terrain.RenderList, cam camera.Camera) int {
	batches := terrain.BuildBatches(list.Patches, r.grid)
	if len(batches) == 0 {
		return 0
	}

	saved := r.begin(cam)
	defer r.end(saved)

	loc := r.program.Uniform("uInstance")
	calls := 0
	for _, b := range batches {
		for _, inst := range b.Instances {
			gl.Uniform4f(loc, inst[0], inst[1], inst[2], inst[3])
			gl.DrawElementsWithOffset(gl.TRIANGLES, int32(b.Range.Count), gl.UNSIGNED_INT, uintptr(b.Range.First*4))
			calls++
		}
	}
	return calls
}

// Destroy releases all resources.
func (r *UniformRenderer) Destroy() {
	r.destroy()
}
