// terraintool builds CDLOD quadtrees from heightmaps and inspects LOD selections without a window.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Tomius/LoD-sub000/internal/config"
	"github.com/Tomius/LoD-sub000/internal/engine/camera"
	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
	"github.com/Tomius/LoD-sub000/internal/export"
	"github.com/Tomius/LoD-sub000/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "select", "sel":
		err = cmdSelect(args)
	case "export", "x":
		err = cmdExport(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terraintool - CDLOD terrain utility

Usage:
  terraintool <command> [options] <heightmap>

Commands:
  info   <heightmap>            Build the quadtree and print its shape
  select <heightmap>            Select patches for a viewpoint and print statistics
  export <heightmap>            Select patches and write them as JSON and/or GLB

Common options:
  -base N          Leaf patch size in samples (default 32)
  -range F         LOD range multiplier (default 2)
  -stitch N        Maximum stitch level (default 2)
  -hscale F        World units per sample (default 1)
  -vscale F        World units per height unit (default 128)
  -eye X,Y,Z       Camera position (default: above the terrain center)
  -target X,Y,Z    Point the camera looks at (default: terrain center)
  -all             Ignore the view frustum and select over the whole terrain
  -v               Verbose logging

Examples:
  terraintool info heightmap.png
  terraintool select -eye 0,200,0 -target 512,0,512 heightmap.png
  terraintool export -o terrain.glb -json patches.json heightmap.png`)
}

// options are the flags every subcommand shares.
type options struct {
	cfg     config.TerrainConfig
	eye     string
	target  string
	all     bool
	verbose bool
}

func newFlagSet(name string) (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	o := &options{cfg: config.Default().Terrain}
	fs.IntVar(&o.cfg.BaseDimension, "base", o.cfg.BaseDimension, "leaf patch size in samples")
	fs.IntVar(&o.cfg.ParallelDepth, "parallel", o.cfg.ParallelDepth, "tree levels built concurrently")
	fs.IntVar(&o.cfg.MaxStitch, "stitch", o.cfg.MaxStitch, "maximum stitch level")
	floatVar(fs, &o.cfg.RangeMultiplier, "range", "LOD range multiplier")
	floatVar(fs, &o.cfg.HorizontalScale, "hscale", "world units per sample")
	floatVar(fs, &o.cfg.HeightScale, "vscale", "world units per height unit")
	fs.StringVar(&o.eye, "eye", "", "camera position X,Y,Z")
	fs.StringVar(&o.target, "target", "", "camera target X,Y,Z")
	fs.BoolVar(&o.all, "all", false, "select over the whole terrain")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	return fs, o
}

func floatVar(fs *flag.FlagSet, p *float32, name, usage string) {
	fs.Func(name, fmt.Sprintf("%s (default %g)", usage, *p), func(s string) error {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return err
		}
		*p = float32(v)
		return nil
	})
}

func parseVec3(s string) (mgl32.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("expected X,Y,Z, got %q", s)
	}
	var v mgl32.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("bad component %q: %w", p, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// session is a built tree plus the selection made from it.
type session struct {
	opts    *options
	hm      *terrain.Heightmap
	tree    *terrain.Tree
	elapsed time.Duration
	list    terrain.RenderList
	stats   terrain.SelectStats
	eye     mgl32.Vec3
}

func load(fs *flag.FlagSet, o *options, args []string) (*session, error) {
	fs.Parse(args)
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("missing heightmap argument")
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		return nil, err
	}

	hm, err := terrain.LoadHeightmap(fs.Arg(0))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	tree, err := terrain.Build(hm, o.cfg.BuildOptions())
	if err != nil {
		return nil, err
	}
	s := &session{opts: o, hm: hm, tree: tree, elapsed: time.Since(start)}
	return s, nil
}

func (s *session) selectPatches() error {
	bounds := s.tree.Bounds(s.tree.Root())
	center := bounds.Center()

	target := center
	if s.opts.target != "" {
		v, err := parseVec3(s.opts.target)
		if err != nil {
			return fmt.Errorf("-target: %w", err)
		}
		target = v
	}
	s.eye = center.Add(mgl32.Vec3{0, bounds.Max.X() - bounds.Min.X(), 0})
	if s.opts.eye != "" {
		v, err := parseVec3(s.opts.eye)
		if err != nil {
			return fmt.Errorf("-eye: %w", err)
		}
		s.eye = v
	}

	var frustum terrain.Frustum
	if s.opts.all {
		frustum = terrain.BoxFrustum(bounds, 1)
	} else {
		cam := camera.NewFreeCamera(s.eye)
		cam.Aspect = 16.0 / 9.0
		cam.LookAt(target)
		frustum = camera.Frustum(cam)
	}

	start := time.Now()
	s.stats = s.opts.cfg.Selector().Select(s.tree, s.eye, &frustum, &s.list)
	logger.Debug("selection done",
		zap.Int("visited", s.stats.Visited),
		zap.Int("culled", s.stats.Culled),
		zap.Int("patches", s.stats.Patches),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func cmdInfo(args []string) error {
	fs, o := newFlagSet("info")
	s, err := load(fs, o, args)
	if err != nil {
		return err
	}

	w, h := s.hm.Dimensions()
	perLevel := make([]int, s.tree.Depth()+1)
	s.tree.Walk(func(_ terrain.NodeID, n terrain.Node) bool {
		perLevel[n.Level]++
		return true
	})
	root := s.tree.Node(s.tree.Root())
	bounds := s.tree.Bounds(s.tree.Root())

	fmt.Printf("Heightmap: %s\n", fs.Arg(0))
	fmt.Printf("Size:      %d x %d samples\n", w, h)
	fmt.Printf("Heights:   %.3f .. %.3f\n", root.MinHeight, root.MaxHeight)
	fmt.Printf("Base:      %d\n", s.tree.BaseDimension())
	fmt.Printf("Depth:     %d\n", s.tree.Depth())
	fmt.Printf("Nodes:     %d\n", s.tree.Len())
	fmt.Printf("Build:     %s\n", s.elapsed)
	fmt.Printf("Bounds:    %v .. %v\n", bounds.Min, bounds.Max)
	fmt.Println()
	fmt.Println("Nodes by level:")
	for level := len(perLevel) - 1; level >= 0; level-- {
		fmt.Printf("  %2d  size %-6d %d\n", level, s.tree.BaseDimension()<<uint(level), perLevel[level])
	}
	return nil
}

func cmdSelect(args []string) error {
	fs, o := newFlagSet("select")
	s, err := load(fs, o, args)
	if err != nil {
		return err
	}
	if err := s.selectPatches(); err != nil {
		return err
	}

	grid, err := terrain.NewGridPatch(s.tree.BaseDimension(), o.cfg.MaxStitch)
	if err != nil {
		return err
	}
	batches := terrain.BuildBatches(s.list.Patches, grid)
	instanced, perDraw := terrain.CountDraws(batches)
	rec := export.NewRenderListRecord(&s.list)

	fmt.Printf("Eye:       %v\n", s.eye)
	fmt.Printf("Visited:   %d nodes\n", s.stats.Visited)
	fmt.Printf("Culled:    %d nodes\n", s.stats.Culled)
	fmt.Printf("Patches:   %d (%d quadrants)\n", s.stats.Patches, rec.Quadrants)
	fmt.Printf("Draws:     %d instanced, %d uniform\n", instanced, perDraw)
	fmt.Println()
	fmt.Println("Patches by level:")
	for level, n := range rec.Levels {
		fmt.Printf("  %2d  %d\n", level, n)
	}
	return nil
}

func cmdExport(args []string) error {
	fs, o := newFlagSet("export")
	glbPath := fs.String("o", "terrain.glb", "GLB output path (empty to skip)")
	jsonPath := fs.String("json", "", "render list JSON output path (- for stdout)")
	s, err := load(fs, o, args)
	if err != nil {
		return err
	}
	if err := s.selectPatches(); err != nil {
		return err
	}

	if *jsonPath != "" {
		if err := writeJSON(*jsonPath, &s.list); err != nil {
			return err
		}
	}
	if *glbPath != "" {
		grid, err := terrain.NewGridPatch(s.tree.BaseDimension(), o.cfg.MaxStitch)
		if err != nil {
			return err
		}
		if err := export.WriteGLB(*glbPath, &s.list, grid, s.hm, s.tree.Transform()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d patches)\n", *glbPath, s.list.Len())
	}
	return nil
}

func writeJSON(path string, list *terrain.RenderList) error {
	if path == "-" {
		return export.WriteRenderListJSON(os.Stdout, list)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteRenderListJSON(f, list); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
