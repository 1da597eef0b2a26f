package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

func testTree(t *testing.T) (*terrain.Tree, *terrain.Heightmap) {
	t.Helper()
	samples := make([]float32, 128*128)
	for i := range samples {
		samples[i] = float32(i%128) / 128
	}
	hm, err := terrain.NewHeightmap(128, 128, samples)
	if err != nil {
		t.Fatalf("heightmap: %v", err)
	}
	tree, err := terrain.Build(hm, terrain.Options{BaseDimension: 16, Transform: terrain.DefaultTransform()})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return tree, hm
}

func selectAll(tree *terrain.Tree, cam mgl32.Vec3) []terrain.Patch {
	f := terrain.BoxFrustum(tree.Bounds(tree.Root()), 1)
	var list terrain.RenderList
	terrain.NewSelector(terrain.DefaultRangeMultiplier, terrain.DefaultMaxStitch).Select(tree, cam, &f, &list)
	return list.Patches
}

func TestAppendBBoxWireframe(t *testing.T) {
	box := terrain.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 3, 4}}
	verts := AppendBBoxWireframe(nil, box, 1, [3]float32{1, 0, 0})

	if len(verts) != BBoxWireframeVertexCount {
		t.Fatalf("expected %d vertices, got %d", BBoxWireframeVertexCount, len(verts))
	}
	for _, v := range verts {
		if v.X != -1 && v.X != 3 {
			t.Errorf("x %f not on the padded box", v.X)
		}
		if v.Y != -1 && v.Y != 4 {
			t.Errorf("y %f not on the padded box", v.Y)
		}
		if v.R != 1 || v.G != 0 {
			t.Errorf("unexpected color %v", v)
		}
	}
	if got := len(Flatten(verts)); got != BBoxWireframeVertexCount*LineVertexFloats {
		t.Errorf("flattened length %d", got)
	}
}

func TestLevelColorWraps(t *testing.T) {
	if LevelColor(0) != LevelColor(len(levelColors)) {
		t.Error("level colors should wrap")
	}
	if LevelColor(-3) != LevelColor(0) {
		t.Error("negative levels should use the finest color")
	}
}

func TestPatchBounds(t *testing.T) {
	tree, _ := testTree(t)
	patches := selectAll(tree, mgl32.Vec3{0, 0, 0})

	verts := PatchBounds(tree, patches)
	if len(verts) != len(patches)*BBoxWireframeVertexCount {
		t.Fatalf("expected a box per patch, got %d vertices for %d patches", len(verts), len(patches))
	}

	bogus := []terrain.Patch{{Offset: mgl32.Vec2{3, 3}, Level: 0}}
	if got := PatchBounds(tree, bogus); len(got) != 0 {
		t.Errorf("patch without a node should be skipped, got %d vertices", len(got))
	}
}

func TestPatchGridOutlines(t *testing.T) {
	tree, hm := testTree(t)
	if NewPatchGridRenderer(nil, hm, 0) != nil {
		t.Error("expected nil renderer without a tree")
	}
	r := NewPatchGridRenderer(tree, hm, 0.5)

	patches := selectAll(tree, mgl32.Vec3{0, 0, 0})
	verts := r.GenerateOutlines(patches)

	quadrants := 0
	stitched := 0
	for _, p := range patches {
		quadrants += p.Mask.Count()
		for _, s := range p.Stitch {
			if s > 0 {
				stitched++
			}
		}
	}
	if want := quadrants * 4 * PatchGridSegments * 2; len(verts) != want {
		t.Fatalf("expected %d vertices, got %d", want, len(verts))
	}
	if stitched == 0 {
		t.Fatal("corner camera should stitch some sides")
	}

	white := 0
	for _, v := range verts {
		if v.Y != hm.Height(int(v.X), int(v.Z))+0.5 {
			t.Fatalf("vertex %v not draped on the surface", v)
		}
		if v.R == 1 && v.G == 1 && v.B == 1 {
			white++
		}
	}
	if white == 0 {
		t.Error("stitched sides should be highlighted")
	}
}

func TestLevelHistogram(t *testing.T) {
	patches := []terrain.Patch{
		{Level: 0, Mask: terrain.AllQuadrants},
		{Level: 2, Mask: terrain.TopLeft.Bit()},
		{Level: 0, Mask: terrain.TopRight.Bit() | terrain.BottomRight.Bit()},
	}
	got := LevelHistogram(patches)
	want := []int{6, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestCaptureFromPixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "terrain")
	sc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	// 2x2, bottom row red, top row blue (GL order)
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	path, err := sc.CaptureFromPixels(pixels, 2, 2)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !strings.HasSuffix(path, "terrain_2024-05-01_12-30-00.000.png") {
		t.Errorf("unexpected filename %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, _, b, _ := img.At(0, 0).RGBA(); r != 0 || b == 0 {
		t.Errorf("top-left pixel should be blue after the flip, got r=%d b=%d", r, b)
	}

	if _, err := sc.CaptureFromPixels(pixels[:4], 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}
