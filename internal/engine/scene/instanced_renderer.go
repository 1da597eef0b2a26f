package scene

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/camera"
	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

const instanceStride = int32(unsafe.Sizeof(mgl32.Vec4{}))

// InstancedRenderer issues one instanced draw per index subset. Per-patch vectors live in a
// stream buffer bound as vertex attribute 1 with divisor 1.
type InstancedRenderer struct {
	*patchMesh

	instanceVBO uint32
	capacity    int // instances the buffer can hold
	staging     []mgl32.Vec4
}

func newInstancedRenderer(mesh *patchMesh) *InstancedRenderer {
	r := &InstancedRenderer{patchMesh: mesh}

	gl.BindVertexArray(mesh.vao)
	gl.GenBuffers(1, &r.instanceVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, instanceStride, 0)
	gl.VertexAttribDivisor(1, 1)
	gl.BindVertexArray(0)
	return r
}

// Mode returns ModeInstanced.
func (r *InstancedRenderer) Mode() string {
	return ModeInstanced
}

// Draw uploads every batch's instances in one buffer and draws each batch with one call.
func (r *InstancedRenderer) Draw(list *terrain.RenderList, cam camera.Camera) int {
	batches := terrain.BuildBatches(list.Patches, r.grid)
	if len(batches) == 0 {
		return 0
	}

	staging, firsts := packInstances(r.staging[:0], batches)
	r.staging = staging

	saved := r.begin(cam)
	defer r.end(saved)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	size := len(r.staging) * int(instanceStride)
	if len(r.staging) > r.capacity {
		r.capacity = len(r.staging)
		gl.BufferData(gl.ARRAY_BUFFER, size, unsafe.Pointer(&r.staging[0]), gl.STREAM_DRAW)
	} else {
		// Orphan then refill
		gl.BufferData(gl.ARRAY_BUFFER, r.capacity*int(instanceStride), nil, gl.STREAM_DRAW)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, unsafe.Pointer(&r.staging[0]))
	}

	for i, b := range batches {
		gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, instanceStride, uintptr(firsts[i])*uintptr(instanceStride))
		gl.DrawElementsInstanced(gl.TRIANGLES, int32(b.Range.Count), gl.UNSIGNED_INT,
			gl.PtrOffset(b.Range.First*4), int32(len(b.Instances)))
	}
	return len(batches)
}

// Destroy releases all resources.
func (r *InstancedRenderer) Destroy() {
	if r.instanceVBO != 0 {
		gl.DeleteBuffers(1, &r.instanceVBO)
		r.instanceVBO = 0
	}
	r.destroy()
}

// packInstances concatenates the batches' instances and returns each batch's first instance.
func packInstances(dst []mgl32.Vec4, batches []terrain.DrawBatch) ([]mgl32.Vec4, []int) {
	firsts := make([]int, len(batches))
	for i, b := range batches {
		firsts[i] = len(dst)
		dst = append(dst, b.Instances...)
	}
	return dst, firsts
}
