package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wholeTerrain returns a frustum that contains every node of the tree.
func wholeTerrain(tree *Tree) *Frustum {
	f := BoxFrustum(tree.Bounds(tree.Root()), 1)
	return &f
}

// coverageCounts counts, per half-leaf cell inside the heightfield, how many drawn
// quadrants cover it.
func coverageCounts(tree *Tree, patches []Patch) (counts []int, cols, rows int) {
	cell := tree.BaseDimension() / 2
	width, height := tree.Dimensions()
	cols, rows = width/cell, height/cell
	counts = make([]int, cols*rows)
	for _, p := range patches {
		x0, z0, size := p.Extent(tree.BaseDimension())
		half := size / 2
		for _, q := range Quadrants {
			if !p.Mask.Has(q) {
				continue
			}
			qx, qz := x0, z0
			dx, dz := q.direction()
			if dx > 0 {
				qx += half
			}
			if dz > 0 {
				qz += half
			}
			for z := qz / cell; z < (qz+half)/cell && z < rows; z++ {
				for x := qx / cell; x < (qx+half)/cell && x < cols; x++ {
					counts[z*cols+x]++
				}
			}
		}
	}
	return counts, cols, rows
}

func TestSelectPartition(t *testing.T) {
	tree := buildTestTree(t, 256, 192, 16)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)

	cameras := []mgl32.Vec3{
		{0, 0, 0},
		{128, 2, 96},
		{250, 0.5, 10},
		{-40, 20, 300},
		{128, 5000, 96},
	}
	for _, cam := range cameras {
		var list RenderList
		sel.Select(tree, cam, wholeTerrain(tree), &list)
		require.NotZero(t, list.Len(), "camera %v", cam)

		counts, cols, _ := coverageCounts(tree, list.Patches)
		for i, c := range counts {
			assert.Equal(t, 1, c, "camera %v: cell (%d, %d) covered %d times", cam, i%cols, i/cols, c)
		}
	}
}

// With the camera over the centre every node touching the centre subdivides, so the finest
// patches form a block around it and each coarser level forms a ring outside the previous one.
func TestSelectCentreRings(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		counts map[int]int // patches per level
		rings  []int       // outer Chebyshev radius of each level's ring, finest first
	}{
		{"256", 256, map[int]int{0: 16, 1: 12}, []int{64, 128}},
		{"512", 512, map[int]int{0: 16, 1: 12, 2: 12}, []int{64, 128, 256}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := buildTestTree(t, tt.size, tt.size, 32)
			sel := NewSelector(0.5, DefaultMaxStitch)
			centre := tt.size / 2

			var list RenderList
			sel.Select(tree, mgl32.Vec3{float32(centre), 1, float32(centre)}, wholeTerrain(tree), &list)

			got := map[int]int{}
			for _, p := range list.Patches {
				got[p.Level]++
				assert.Equal(t, AllQuadrants, p.Mask, "patch %+v", p)
			}
			assert.Equal(t, tt.counts, got)

			counts, cols, _ := coverageCounts(tree, list.Patches)
			for i, c := range counts {
				assert.Equal(t, 1, c, "cell (%d, %d) covered %d times", i%cols, i/cols, c)
			}

			cell := tree.BaseDimension() / 2
			for z := cell / 2; z < tt.size; z += cell {
				for x := cell / 2; x < tt.size; x += cell {
					d := max(abs(x-centre), abs(z-centre))
					want := 0
					for want < len(tt.rings)-1 && d >= tt.rings[want] {
						want++
					}
					assert.Equal(t, want, list.CoverageLevel(tree, x, z), "point (%d, %d)", x, z)
				}
			}
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestSelectFarCameraDrawsRoot(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 32)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)

	var list RenderList
	stats := sel.Select(tree, mgl32.Vec3{128, 0, 10000}, wholeTerrain(tree), &list)

	require.Equal(t, 1, list.Len())
	p := list.Patches[0]
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, float32(8), p.Scale)
	assert.Equal(t, AllQuadrants, p.Mask)
	assert.Equal(t, mgl32.Vec2{128, 128}, p.Offset)
	assert.Equal(t, [4]uint8{}, p.Stitch)
	assert.Equal(t, SelectStats{Visited: 1, Culled: 0, Patches: 1}, stats)
}

func TestSelectNearestIsFinest(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 32)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)

	var list RenderList
	sel.Select(tree, mgl32.Vec3{100, 0, 60}, wholeTerrain(tree), &list)

	assert.Equal(t, 0, list.CoverageLevel(tree, 100, 60))
	assert.Equal(t, -1, list.CoverageLevel(tree, 300, 60))
}

func TestSelectMonotonicLOD(t *testing.T) {
	tree := buildTestTree(t, 512, 512, 16)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)
	frustum := wholeTerrain(tree)

	points := [][2]int{{256, 256}, {10, 500}, {400, 30}}
	prev := make([]int, len(points))
	var list RenderList
	for y := float32(0); y <= 4096; y += 64 {
		sel.Select(tree, mgl32.Vec3{256, y, 256}, frustum, &list)
		for i, pt := range points {
			level := list.CoverageLevel(tree, pt[0], pt[1])
			require.GreaterOrEqual(t, level, prev[i], "point %v got finer as the camera rose to %v", pt, y)
			prev[i] = level
		}
	}
	assert.Equal(t, tree.Depth(), prev[0], "a distant camera should draw the root")
}

func TestSelectEmptyFrustum(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 32)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)

	f := BoxFrustum(tree.Bounds(tree.Root()), 1)
	// x >= 1e6 and x <= -1e6 at the same time
	f.Planes[0] = Plane{Normal: mgl32.Vec3{1, 0, 0}, D: -1e6}
	f.Planes[1] = Plane{Normal: mgl32.Vec3{-1, 0, 0}, D: -1e6}

	var list RenderList
	list.Patches = append(list.Patches, Patch{Level: 7})
	stats := sel.Select(tree, mgl32.Vec3{128, 0, 128}, &f, &list)

	assert.Zero(t, list.Len())
	assert.Equal(t, SelectStats{Visited: 1, Culled: 1}, stats)
	assert.Equal(t, -1, list.CoverageLevel(tree, 128, 128))
}

func TestSelectCulling(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 16)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)

	f := BoxFrustum(tree.Bounds(tree.Root()), 1)
	f.Planes[0] = Plane{Normal: mgl32.Vec3{1, 0, 0}, D: -130} // keep x >= 130
	cam := mgl32.Vec3{140, 0, 128}

	var list RenderList
	stats := sel.Select(tree, cam, &f, &list)
	require.NotZero(t, list.Len())
	assert.NotZero(t, stats.Culled)

	// Collect every node that is culled while its parent is not.
	culled := map[[3]int]bool{}
	tree.Walk(func(_ NodeID, n Node) bool {
		if !f.IntersectsBox(tree.transform.Box(&n)) {
			culled[[3]int{n.X, n.Z, n.Level}] = true
			return false
		}
		return true
	})
	require.NotEmpty(t, culled)

	for _, p := range list.Patches {
		x0, z0, size := p.Extent(tree.BaseDimension())
		for key := range culled {
			csize := tree.BaseDimension() << uint(key[2])
			cx0, cz0 := key[0]-csize/2, key[1]-csize/2
			inside := x0 >= cx0 && z0 >= cz0 && x0+size <= cx0+csize && z0+size <= cz0+csize
			assert.False(t, inside, "patch %+v lies inside culled node %v", p, key)
		}
	}
}

func TestSelectParentCoversCulledQuadrants(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 32)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)

	f := BoxFrustum(tree.Bounds(tree.Root()), 1)
	f.Planes[0] = Plane{Normal: mgl32.Vec3{1, 0, 0}, D: -130}

	var list RenderList
	sel.Select(tree, mgl32.Vec3{140, 0, 128}, &f, &list)

	var root *Patch
	for i := range list.Patches {
		if list.Patches[i].Level == tree.Depth() {
			root = &list.Patches[i]
		}
	}
	require.NotNil(t, root, "root should emit a complement entry")
	assert.Equal(t, TopLeft.Bit()|BottomLeft.Bit(), root.Mask)
}

func TestSelectDeterministic(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 16)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)
	cam := mgl32.Vec3{37, 3, 201}

	var a, b RenderList
	sel.Select(tree, cam, wholeTerrain(tree), &a)
	sel.Select(tree, cam, wholeTerrain(tree), &b)
	assert.Equal(t, a.Patches, b.Patches)

	// Reusing a list gives the same result.
	sel.Select(tree, mgl32.Vec3{200, 0, 0}, wholeTerrain(tree), &a)
	sel.Select(tree, cam, wholeTerrain(tree), &a)
	assert.Equal(t, b.Patches, a.Patches)
}

func TestSelectStitch(t *testing.T) {
	tree := buildTestTree(t, 512, 512, 16)
	sel := NewSelector(DefaultRangeMultiplier, DefaultMaxStitch)

	var list RenderList
	sel.Select(tree, mgl32.Vec3{0, 0, 0}, wholeTerrain(tree), &list)

	stitched := 0
	for _, p := range list.Patches {
		x0, z0, size := p.Extent(tree.BaseDimension())
		probes := [4][2]int{
			SideLeft:   {x0 - 1, z0},
			SideRight:  {x0 + size, z0},
			SideTop:    {x0, z0 - 1},
			SideBottom: {x0, z0 + size},
		}
		for side, pr := range probes {
			s := int(p.Stitch[side])
			assert.LessOrEqual(t, s, DefaultMaxStitch)
			if s == 0 {
				continue
			}
			stitched++
			neighbour := list.CoverageLevel(tree, pr[0], pr[1])
			assert.Greater(t, neighbour, p.Level, "side %d of %+v stitched to a finer neighbour", side, p)
			assert.Equal(t, min(neighbour-p.Level, DefaultMaxStitch), s)
		}
	}
	assert.NotZero(t, stitched, "a corner camera should produce level transitions")
}

func TestSelectNoStitch(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 16)
	sel := NewSelector(DefaultRangeMultiplier, 0)

	var list RenderList
	sel.Select(tree, mgl32.Vec3{0, 0, 0}, wholeTerrain(tree), &list)
	for _, p := range list.Patches {
		assert.Equal(t, [4]uint8{}, p.Stitch)
	}
}

func TestSelectBoundaryCountsAsNear(t *testing.T) {
	tree := buildTestTree(t, 64, 64, 32)
	sel := NewSelector(1, DefaultMaxStitch)

	// Root box spans x in [0, 64]; lodRange is 64. A camera at x = 128 touches it exactly.
	root := tree.Bounds(tree.Root())
	cam := mgl32.Vec3{128, (root.Min.Y() + root.Max.Y()) / 2, 32}

	var list RenderList
	sel.Select(tree, cam, wholeTerrain(tree), &list)
	for _, p := range list.Patches {
		assert.Equal(t, 0, p.Level)
	}

	cam[0] += 0.5
	sel.Select(tree, cam, wholeTerrain(tree), &list)
	require.Equal(t, 1, list.Len())
	assert.Equal(t, 1, list.Patches[0].Level)
}
