// Package scene renders CDLOD terrain patches with OpenGL.
package scene

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Tomius/LoD-sub000/internal/engine/camera"
	"github.com/Tomius/LoD-sub000/internal/engine/lighting"
	"github.com/Tomius/LoD-sub000/internal/engine/scene/shaders"
	"github.com/Tomius/LoD-sub000/internal/engine/shader"
	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
	"github.com/Tomius/LoD-sub000/internal/logger"
)

// Renderer modes.
const (
	ModeAuto      = "auto"
	ModeInstanced = "instanced"
	ModeUniform   = "uniform"
)

// PatchRenderer draws a selected render list. Implementations bind their program and buffers
// once per Draw and leave shared GL state as they found it.
type PatchRenderer interface {
	// Draw renders every visible quadrant of the list and returns the number of draw calls.
	Draw(list *terrain.RenderList, cam camera.Camera) int
	// Mode reports ModeInstanced or ModeUniform.
	Mode() string
	SetWireframe(enabled bool)
	Lighting() *Lighting
	Destroy()
}

// Lighting holds the terrain shading parameters.
type Lighting struct {
	LightDir   mgl32.Vec3
	Ambient    mgl32.Vec3
	Diffuse    mgl32.Vec3
	ShowLevels bool

	FogEnabled bool
	FogNear    float32
	FogFar     float32
	FogColor   mgl32.Vec3
}

// DefaultLighting returns a late-afternoon sun with fog off.
func DefaultLighting() Lighting {
	return Lighting{
		LightDir: lighting.DefaultSun().LightDir(),
		Ambient:  mgl32.Vec3{0.35, 0.37, 0.42},
		Diffuse:  mgl32.Vec3{0.9, 0.85, 0.75},
		FogNear:  2000,
		FogFar:   12000,
		FogColor: mgl32.Vec3{0.6, 0.7, 0.8},
	}
}

// ResolveMode picks the concrete renderer for a configured mode. Instanced arrays are core
// from GL 3.3 and otherwise need GL_ARB_instanced_arrays.
func ResolveMode(mode string, major, minor int, extensions []string) (string, error) {
	switch mode {
	case ModeInstanced, ModeUniform:
		return mode, nil
	case ModeAuto, "":
	default:
		return "", fmt.Errorf("unknown renderer mode %q", mode)
	}

	if major > 3 || (major == 3 && minor >= 3) {
		return ModeInstanced, nil
	}
	for _, ext := range extensions {
		if ext == "GL_ARB_instanced_arrays" {
			return ModeInstanced, nil
		}
	}
	return ModeUniform, nil
}

// parseGLVersion extracts major.minor from a GL_VERSION string such as "4.1 Metal - 88".
func parseGLVersion(s string) (major, minor int) {
	head, _, _ := strings.Cut(s, " ")
	parts := strings.SplitN(head, ".", 3)
	if len(parts) < 2 {
		return 0, 0
	}
	major, _ = strconv.Atoi(parts[0])
	minor, _ = strconv.Atoi(parts[1])
	return major, minor
}

// NewPatchRenderer creates the renderer for mode. Call once after the GL context exists.
func NewPatchRenderer(mode string, grid *terrain.GridPatch, hm *terrain.Heightmap, tr terrain.Transform) (PatchRenderer, error) {
	major, minor := parseGLVersion(gl.GoStr(gl.GetString(gl.VERSION)))
	resolved, err := ResolveMode(mode, major, minor, glExtensions())
	if err != nil {
		return nil, err
	}

	mesh, err := newPatchMesh(resolved == ModeInstanced, grid, hm, tr)
	if err != nil {
		return nil, err
	}

	logger.Info("patch renderer ready",
		zap.String("requested", mode),
		zap.String("mode", resolved),
		zap.Int("gl_major", major),
		zap.Int("gl_minor", minor),
		zap.Int("grid_dimension", grid.Dimension()),
		zap.Int("indices", len(grid.Indices())),
	)

	if resolved == ModeInstanced {
		return newInstancedRenderer(mesh), nil
	}
	return &UniformRenderer{patchMesh: mesh}, nil
}

func glExtensions() []string {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	exts := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		exts = append(exts, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return exts
}

// patchMesh is the GPU state both renderers share: the grid template, the heightmap
// texture and the terrain program.
type patchMesh struct {
	program *shader.Program
	grid    *terrain.GridPatch
	tr      terrain.Transform

	vao       uint32
	vbo       uint32
	ebo       uint32
	heightTex uint32
	fieldSize [2]int32
	wireframe bool
	lighting  Lighting
}

func newPatchMesh(instanced bool, grid *terrain.GridPatch, hm *terrain.Heightmap, tr terrain.Transform) (*patchMesh, error) {
	program, err := shader.New(shaders.TerrainVertexShader(instanced), shaders.TerrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}

	m := &patchMesh{program: program, grid: grid, tr: tr, lighting: DefaultLighting()}
	m.uploadGrid()
	m.uploadHeightmap(hm)
	return m, nil
}

func (m *patchMesh) uploadGrid() {
	verts := m.grid.Vertices()
	indices := m.grid.Indices()

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*2, unsafe.Pointer(&verts[0]), gl.STATIC_DRAW)

	// Position (location 0): two int16 converted to float
	gl.VertexAttribPointerWithOffset(0, 2, gl.SHORT, false, 4, 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
}

func (m *patchMesh) uploadHeightmap(hm *terrain.Heightmap) {
	w, h := hm.Dimensions()
	samples := hm.Samples()
	m.fieldSize = [2]int32{int32(w), int32(h)}

	gl.GenTextures(1, &m.heightTex)
	gl.BindTexture(gl.TEXTURE_2D, m.heightTex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, int32(w), int32(h), 0, gl.RED, gl.FLOAT, unsafe.Pointer(&samples[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// begin binds program, buffers and terrain state, and returns the state to restore.
func (m *patchMesh) begin(cam camera.Camera) glState {
	saved := captureState()

	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	if m.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	p := m.program
	p.Use()
	p.SetMat4("uViewProj", camera.ViewProjection(cam))
	p.SetVec2("uScale", mgl32.Vec2{m.tr.HorizontalScale, m.tr.HeightScale})
	p.SetVec3("uOffset", m.tr.Offset)
	gl.Uniform2i(p.Uniform("uHeightmapSize"), m.fieldSize[0], m.fieldSize[1])
	p.SetVec3("uCameraPos", cam.Position())

	l := &m.lighting
	p.SetVec3("uLightDir", l.LightDir)
	p.SetVec3("uAmbient", l.Ambient)
	p.SetVec3("uDiffuse", l.Diffuse)
	p.SetInt("uShowLevels", boolInt(l.ShowLevels))
	p.SetInt("uFogUse", boolInt(l.FogEnabled))
	p.SetFloat("uFogNear", l.FogNear)
	p.SetFloat("uFogFar", l.FogFar)
	p.SetVec3("uFogColor", l.FogColor)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, m.heightTex)
	p.SetInt("uHeightmap", 0)

	gl.BindVertexArray(m.vao)
	return saved
}

func (m *patchMesh) end(saved glState) {
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
	saved.restore()
}

func (m *patchMesh) SetWireframe(enabled bool) {
	m.wireframe = enabled
}

func (m *patchMesh) Lighting() *Lighting {
	return &m.lighting
}

func (m *patchMesh) destroy() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
	if m.heightTex != 0 {
		gl.DeleteTextures(1, &m.heightTex)
		m.heightTex = 0
	}
	m.program.Delete()
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// glState is the shared pipeline state a patch renderer changes.
type glState struct {
	cullFace    bool
	cullMode    int32
	frontFace   int32
	polygonMode [2]int32
}

func captureState() glState {
	var s glState
	s.cullFace = gl.IsEnabled(gl.CULL_FACE)
	gl.GetIntegerv(gl.CULL_FACE_MODE, &s.cullMode)
	gl.GetIntegerv(gl.FRONT_FACE, &s.frontFace)
	gl.GetIntegerv(gl.POLYGON_MODE, &s.polygonMode[0])
	return s
}

func (s glState) restore() {
	if s.cullFace {
		gl.Enable(gl.CULL_FACE)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
	gl.CullFace(uint32(s.cullMode))
	gl.FrontFace(uint32(s.frontFace))
	gl.PolygonMode(gl.FRONT_AND_BACK, uint32(s.polygonMode[0]))
}
