package scene

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/camera"
	"github.com/Tomius/LoD-sub000/internal/engine/debug"
	"github.com/Tomius/LoD-sub000/internal/engine/framebuffer"
	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// Config contains scene configuration options.
type Config struct {
	Mode            string // ModeAuto, ModeInstanced or ModeUniform
	RangeMultiplier float32
	MaxStitch       int
	Wireframe       bool
	ShowBounds      bool
	ShowOutlines    bool
	ShowLevels      bool
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeAuto,
		RangeMultiplier: terrain.DefaultRangeMultiplier,
		MaxStitch:       terrain.DefaultMaxStitch,
	}
}

// FrameStats describes one rendered frame.
type FrameStats struct {
	terrain.SelectStats
	DrawCalls  int
	SelectTime time.Duration
	DrawTime   time.Duration
}

// Scene selects and draws a terrain every frame.
type Scene struct {
	tree      *terrain.Tree
	heightmap *terrain.Heightmap
	grid      *terrain.GridPatch
	selector  *terrain.Selector
	list      terrain.RenderList

	renderer PatchRenderer
	lines    *LineRenderer
	outlines *debug.PatchGridRenderer

	// Debug toggles
	ShowBounds   bool
	ShowOutlines bool
	// FreezeSelection keeps the last render list so it can be inspected from elsewhere.
	FreezeSelection bool

	ClearColor mgl32.Vec3
}

// New creates GPU resources for drawing tree. Requires a current GL context.
func New(tree *terrain.Tree, hm *terrain.Heightmap, cfg Config) (*Scene, error) {
	grid, err := terrain.NewGridPatch(tree.BaseDimension(), cfg.MaxStitch)
	if err != nil {
		return nil, fmt.Errorf("grid patch: %w", err)
	}

	renderer, err := NewPatchRenderer(cfg.Mode, grid, hm, tree.Transform())
	if err != nil {
		return nil, err
	}
	renderer.SetWireframe(cfg.Wireframe)
	renderer.Lighting().ShowLevels = cfg.ShowLevels

	lines, err := NewLineRenderer()
	if err != nil {
		renderer.Destroy()
		return nil, err
	}

	return &Scene{
		tree:         tree,
		heightmap:    hm,
		grid:         grid,
		selector:     terrain.NewSelector(cfg.RangeMultiplier, cfg.MaxStitch),
		renderer:     renderer,
		lines:        lines,
		outlines:     debug.NewPatchGridRenderer(tree, hm, 0.5),
		ShowBounds:   cfg.ShowBounds,
		ShowOutlines: cfg.ShowOutlines,
		ClearColor:   mgl32.Vec3{0.6, 0.7, 0.8},
	}, nil
}

// Render selects patches for cam and draws them into the current framebuffer.
func (s *Scene) Render(cam camera.Camera) FrameStats {
	var stats FrameStats

	if !s.FreezeSelection {
		start := time.Now()
		f := camera.Frustum(cam)
		stats.SelectStats = s.selector.Select(s.tree, cam.Position(), &f, &s.list)
		stats.SelectTime = time.Since(start)
	} else {
		stats.Patches = s.list.Len()
	}

	gl.ClearColor(s.ClearColor[0], s.ClearColor[1], s.ClearColor[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)

	start := time.Now()
	stats.DrawCalls = s.renderer.Draw(&s.list, cam)

	var overlay []debug.LineVertex
	if s.ShowBounds {
		overlay = append(overlay, debug.PatchBounds(s.tree, s.list.Patches)...)
	}
	if s.ShowOutlines {
		overlay = append(overlay, s.outlines.GenerateOutlines(s.list.Patches)...)
	}
	s.lines.Draw(overlay, cam)
	stats.DrawTime = time.Since(start)

	return stats
}

// Resize sets the viewport to the framebuffer size in pixels.
func (s *Scene) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// RenderList returns the patches selected for the last frame.
func (s *Scene) RenderList() *terrain.RenderList {
	return &s.list
}

// Grid returns the patch template.
func (s *Scene) Grid() *terrain.GridPatch {
	return s.grid
}

// Renderer returns the active patch renderer.
func (s *Scene) Renderer() PatchRenderer {
	return s.renderer
}

// Selector returns the LOD selector so its tuning can change at runtime.
func (s *Scene) Selector() *terrain.Selector {
	return s.selector
}

// GroundHeight returns the world height of the terrain below world position (x, z).
func (s *Scene) GroundHeight(x, z float32) float32 {
	tr := s.tree.Transform()
	fx, fz := tr.Local(mgl32.Vec3{x, 0, z})
	return tr.Offset.Y() + s.heightmap.InterpolatedHeight(fx, fz)*tr.HeightScale
}

// CaptureImage reads back the default framebuffer as RGBA, bottom row first.
func (s *Scene) CaptureImage(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

// CaptureOffscreen renders cam into a width x height offscreen target and returns its RGBA
// pixels, bottom row first. The caller keeps cam's aspect ratio consistent with the size.
func (s *Scene) CaptureOffscreen(cam camera.Camera, width, height int) ([]byte, error) {
	fb, err := framebuffer.New(width, height)
	if err != nil {
		return nil, err
	}
	defer fb.Destroy()

	restore := fb.Bind()
	s.Render(cam)
	pixels := fb.ReadPixels()
	restore()
	return pixels, nil
}

// Destroy releases all resources.
func (s *Scene) Destroy() {
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.lines != nil {
		s.lines.Destroy()
		s.lines = nil
	}
}
