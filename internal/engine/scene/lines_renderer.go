package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Tomius/LoD-sub000/internal/engine/camera"
	"github.com/Tomius/LoD-sub000/internal/engine/debug"
	"github.com/Tomius/LoD-sub000/internal/engine/scene/shaders"
	"github.com/Tomius/LoD-sub000/internal/engine/shader"
)

// LineRenderer draws colored debug lines, re-uploaded every frame.
type LineRenderer struct {
	program *shader.Program
	vao     uint32
	vbo     uint32
}

// NewLineRenderer creates a new debug line renderer.
func NewLineRenderer() (*LineRenderer, error) {
	program, err := shader.New(shaders.LinesVertexShader, shaders.LinesFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("lines shader: %w", err)
	}
	r := &LineRenderer{program: program}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	stride := int32(debug.LineVertexFloats * 4)
	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	// Color (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return r, nil
}

// Draw renders line pairs with the camera's view-projection.
func (r *LineRenderer) Draw(verts []debug.LineVertex, cam camera.Camera) {
	if len(verts) == 0 {
		return
	}
	data := debug.Flatten(verts)

	r.program.Use()
	r.program.SetMat4("uViewProj", camera.ViewProjection(cam))

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.STREAM_DRAW)
	gl.DrawArrays(gl.LINES, 0, int32(len(verts)))
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// Destroy releases all resources.
func (r *LineRenderer) Destroy() {
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	r.program.Delete()
}
