// Package viewer implements the interactive terrain viewer loop.
package viewer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Tomius/LoD-sub000/internal/config"
	"github.com/Tomius/LoD-sub000/internal/engine/camera"
	"github.com/Tomius/LoD-sub000/internal/engine/debug"
	"github.com/Tomius/LoD-sub000/internal/engine/input"
	"github.com/Tomius/LoD-sub000/internal/engine/lighting"
	"github.com/Tomius/LoD-sub000/internal/engine/picking"
	"github.com/Tomius/LoD-sub000/internal/engine/scene"
	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
	"github.com/Tomius/LoD-sub000/internal/engine/window"
	"github.com/Tomius/LoD-sub000/internal/export"
	"github.com/Tomius/LoD-sub000/internal/logger"
	"github.com/Tomius/LoD-sub000/internal/metrics"
)

const (
	title          = "CDLOD Terrain"
	groundMargin   = 2.0
	rangeStep      = 1.25
	minRange       = 0.25
	orbitPanPerSec = 60.0
	sunStep        = 5.0
	highResScale   = 2
)

// Viewer owns the window, the terrain scene and the cameras.
type Viewer struct {
	cfg     *config.Config
	running bool

	window *window.Window
	input  *input.Input
	scene  *scene.Scene
	tree   *terrain.Tree
	hm     *terrain.Heightmap

	orbit   *camera.OrbitCamera
	free    *camera.FreeCamera
	useFree bool
	sun     lighting.Sun

	metrics     *metrics.Metrics
	stopMetrics context.CancelFunc
	screenshots *debug.ScreenshotCapture

	width, height int // drawable size in pixels
}

// New loads the heightmap, builds the quadtree and opens the window.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:         cfg,
		metrics:     metrics.New(prometheus.DefaultRegisterer),
		screenshots: debug.NewScreenshotCapture("screenshots", "terrain"),
		sun:         lighting.DefaultSun(),
	}

	hm, err := terrain.LoadHeightmap(cfg.Terrain.Heightmap)
	if err != nil {
		return nil, err
	}
	w, h := hm.Dimensions()
	logger.Info("heightmap loaded", zap.String("path", cfg.Terrain.Heightmap), zap.Int("width", w), zap.Int("height", h))

	start := time.Now()
	tree, err := terrain.Build(hm, cfg.Terrain.BuildOptions())
	if err != nil {
		return nil, fmt.Errorf("building quadtree: %w", err)
	}
	v.metrics.ObserveBuild(time.Since(start), tree.Len(), tree.Depth())
	v.tree, v.hm = tree, hm

	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	sceneCfg := scene.DefaultConfig()
	sceneCfg.Mode = cfg.Graphics.Instancing
	sceneCfg.RangeMultiplier = cfg.Terrain.RangeMultiplier
	sceneCfg.MaxStitch = cfg.Terrain.MaxStitch
	sceneCfg.Wireframe = cfg.Graphics.Wireframe
	sceneCfg.ShowBounds = cfg.Graphics.ShowBounds
	v.scene, err = scene.New(tree, hm, sceneCfg)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	v.input = input.New()
	v.setupCameras()
	v.resize()

	if cfg.Metrics.Listen != "" {
		ctx, cancel := context.WithCancel(context.Background())
		v.stopMetrics = cancel
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, prometheus.DefaultGatherer); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("viewer initialized", zap.String("renderer", v.scene.Renderer().Mode()))
	return v, nil
}

func (v *Viewer) setupCameras() {
	projection := camera.Projection{
		FOV:  v.cfg.Camera.FOV,
		Near: v.cfg.Camera.Near,
		Far:  v.cfg.Camera.Far,
	}
	bounds := v.tree.Bounds(v.tree.Root())

	v.orbit = camera.NewOrbitCamera()
	v.orbit.Projection = projection
	v.orbit.FitToBounds(bounds)
	if v.cfg.Camera.Distance > 0 {
		v.orbit.Distance = v.cfg.Camera.Distance
	}
	v.orbit.RotationX = v.cfg.Camera.Pitch

	v.free = camera.NewFreeCamera(v.orbit.Position())
	v.free.Projection = projection
	v.free.Speed = v.tree.Transform().WorldSize(v.tree.BaseDimension()) * 4
}

func (v *Viewer) active() camera.Camera {
	if v.useFree {
		return v.free
	}
	return v.orbit
}

func (v *Viewer) resize() {
	v.width, v.height = v.window.GetDrawableSize()
	v.scene.Resize(v.width, v.height)
	v.orbit.SetViewport(v.width, v.height)
	v.free.SetViewport(v.width, v.height)
}

// Run starts the main loop and returns when the window closes.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var stats scene.FrameStats

	logger.Info("starting render loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.updateCamera(dt)

		stats = v.scene.Render(v.active())
		v.metrics.ObserveFrame(metrics.Frame{
			Mode:       v.scene.Renderer().Mode(),
			Visited:    stats.Visited,
			Culled:     stats.Culled,
			Patches:    stats.Patches,
			DrawCalls:  stats.DrawCalls,
			SelectTime: stats.SelectTime,
		})

		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(fmt.Sprintf("%s | %d fps | %d patches | %d draws | %s",
				title, frameCount, stats.Patches, stats.DrawCalls, v.scene.Renderer().Mode()))
			logger.Debug("frame",
				zap.Int("fps", frameCount),
				zap.Int("visited", stats.Visited),
				zap.Int("culled", stats.Culled),
				zap.Int("patches", stats.Patches),
				zap.Int("draw_calls", stats.DrawCalls),
				zap.Duration("select", stats.SelectTime),
				zap.Duration("draw", stats.DrawTime),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.resize()
		case input.EventMouseWheel:
			if !v.useFree {
				v.orbit.HandleZoom(float32(event.DeltaY))
			}
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT && !v.useFree {
				v.focusAt(event.MouseX, event.MouseY)
			}
		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	renderer := v.scene.Renderer()
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_F1:
		v.cfg.Graphics.Wireframe = !v.cfg.Graphics.Wireframe
		renderer.SetWireframe(v.cfg.Graphics.Wireframe)
	case sdl.SCANCODE_F2:
		v.scene.ShowBounds = !v.scene.ShowBounds
	case sdl.SCANCODE_F3:
		v.scene.ShowOutlines = !v.scene.ShowOutlines
	case sdl.SCANCODE_F4:
		renderer.Lighting().ShowLevels = !renderer.Lighting().ShowLevels
	case sdl.SCANCODE_F5:
		v.scene.FreezeSelection = !v.scene.FreezeSelection
		logger.Info("selection frozen", zap.Bool("frozen", v.scene.FreezeSelection))
	case sdl.SCANCODE_F6:
		renderer.Lighting().FogEnabled = !renderer.Lighting().FogEnabled
	case sdl.SCANCODE_F11:
		v.window.ToggleFullscreen()
	case sdl.SCANCODE_F12:
		v.screenshot()
	case sdl.SCANCODE_F10:
		v.highResScreenshot()
	case sdl.SCANCODE_F9:
		v.saveSettings()
	case sdl.SCANCODE_C:
		v.toggleCamera()
	case sdl.SCANCODE_X:
		v.exportSelection()
	case sdl.SCANCODE_LEFTBRACKET:
		v.moveSun(-sunStep, 0)
	case sdl.SCANCODE_RIGHTBRACKET:
		v.moveSun(sunStep, 0)
	case sdl.SCANCODE_PAGEUP:
		v.moveSun(0, sunStep)
	case sdl.SCANCODE_PAGEDOWN:
		v.moveSun(0, -sunStep)
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		v.adjustRange(rangeStep)
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		v.adjustRange(1 / rangeStep)
	}
}

func (v *Viewer) toggleCamera() {
	v.useFree = !v.useFree
	if v.useFree {
		v.free.Eye = v.orbit.Position()
		v.free.Pitch = mgl32.Clamp(-v.orbit.RotationX, -1.55, 1.55)
		v.free.Yaw = v.orbit.RotationY
	} else {
		v.orbit.Center = v.free.Eye.Add(v.free.Forward().Mul(v.orbit.Distance))
	}
	v.window.SetMouseCaptured(v.useFree)
	logger.Info("camera switched", zap.Bool("free", v.useFree))
}

func (v *Viewer) moveSun(azimuth, elevation float32) {
	v.sun.Rotate(azimuth)
	v.sun.Raise(elevation)
	v.scene.Renderer().Lighting().LightDir = v.sun.LightDir()
}

func (v *Viewer) adjustRange(factor float32) {
	sel := v.scene.Selector()
	sel.RangeMultiplier = max(sel.RangeMultiplier*factor, minRange)
	v.cfg.Terrain.RangeMultiplier = sel.RangeMultiplier
	logger.Info("lod range changed", zap.Float32("range_multiplier", sel.RangeMultiplier))
}

func (v *Viewer) updateCamera(dt float32) {
	in := v.input
	forward := in.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S)
	right := in.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A)
	up := in.Axis(sdl.SCANCODE_SPACE, sdl.SCANCODE_LCTRL)
	dx, dy := in.MouseDelta()

	if v.useFree {
		speed := dt
		if in.IsKeyHeld(sdl.SCANCODE_LSHIFT) {
			speed *= 4
		}
		v.free.HandleLook(float32(dx), float32(dy))
		v.free.HandleMovement(forward, right, up, speed)
		v.free.KeepAbove(v.scene.GroundHeight, groundMargin)
		return
	}

	if in.IsButtonHeld(sdl.BUTTON_LEFT) {
		v.orbit.HandleDrag(float32(dx), float32(dy))
	}
	step := dt * orbitPanPerSec
	v.orbit.HandleMovement(forward*step, right*step, up*step)
}

// focusAt moves the orbit center to the terrain point under window position (x, y).
func (v *Viewer) focusAt(x, y int) {
	ww, wh := v.window.GetSize()
	if ww == 0 || wh == 0 {
		return
	}
	// Window coordinates differ from pixels on HiDPI displays.
	px := float32(x) * float32(v.width) / float32(ww)
	py := float32(y) * float32(v.height) / float32(wh)

	inv := camera.ViewProjection(v.orbit).Inv()
	ray := picking.ScreenToRay(px, py, float32(v.width), float32(v.height), inv)
	hit, ok := picking.PickTerrain(ray, v.tree, v.scene.GroundHeight)
	if !ok {
		return
	}
	eye := v.orbit.Position()
	v.orbit.Center = hit
	v.orbit.Distance = mgl32.Clamp(eye.Sub(hit).Len(), v.orbit.MinDistance, v.orbit.MaxDistance)
	logger.Debug("orbit center moved", zap.Float32("x", hit.X()), zap.Float32("y", hit.Y()), zap.Float32("z", hit.Z()))
}

func (v *Viewer) screenshot() {
	pixels := v.scene.CaptureImage(v.width, v.height)
	path, err := v.screenshots.CaptureFromPixels(pixels, v.width, v.height)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// highResScreenshot renders the current view offscreen at a multiple of the window size.
func (v *Viewer) highResScreenshot() {
	w, h := v.width*highResScale, v.height*highResScale
	pixels, err := v.scene.CaptureOffscreen(v.active(), w, h)
	if err != nil {
		logger.Error("offscreen capture failed", zap.Error(err))
		return
	}
	path, err := v.screenshots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path), zap.Int("width", w), zap.Int("height", h))
}

// exportSelection writes the current render list as JSON and its geometry as GLB.
func (v *Viewer) exportSelection() {
	stamp := time.Now().Format("2006-01-02_15-04-05")
	list := v.scene.RenderList()

	jsonPath := fmt.Sprintf("selection_%s.json", stamp)
	f, err := os.Create(jsonPath)
	if err != nil {
		logger.Error("export failed", zap.Error(err))
		return
	}
	err = export.WriteRenderListJSON(f, list)
	f.Close()
	if err != nil {
		logger.Error("export failed", zap.String("path", jsonPath), zap.Error(err))
		return
	}

	glbPath := fmt.Sprintf("selection_%s.glb", stamp)
	if err := export.WriteGLB(glbPath, list, v.scene.Grid(), v.hm, v.tree.Transform()); err != nil {
		logger.Error("export failed", zap.String("path", glbPath), zap.Error(err))
		return
	}
	logger.Info("selection exported", zap.String("json", jsonPath), zap.String("glb", glbPath), zap.Int("patches", list.Len()))
}

// saveSettings writes the current toggles and LOD tuning to the user config file.
func (v *Viewer) saveSettings() {
	v.cfg.Graphics.ShowBounds = v.scene.ShowBounds
	if err := v.cfg.Save(); err != nil {
		logger.Error("saving config failed", zap.Error(err))
		return
	}
	logger.Info("config saved", zap.String("dir", config.ConfigDir()))
}

// Close releases the scene and the window.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.stopMetrics != nil {
		v.stopMetrics()
	}
	if v.scene != nil {
		v.scene.Destroy()
	}
	if v.window != nil {
		v.window.Close()
	}
}
