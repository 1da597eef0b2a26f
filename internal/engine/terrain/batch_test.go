package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBatches(t *testing.T) {
	g, err := NewGridPatch(16, 2)
	require.NoError(t, err)

	patches := []Patch{
		{Offset: mgl32.Vec2{8, 8}, Scale: 1, Mask: AllQuadrants},
		{Offset: mgl32.Vec2{24, 8}, Scale: 1, Mask: TopLeft.Bit() | BottomRight.Bit()},
		{Offset: mgl32.Vec2{48, 16}, Scale: 2, Level: 1, Mask: TopLeft.Bit(), Stitch: [4]uint8{SideLeft: 1}},
	}
	batches := BuildBatches(patches, g)

	// Unstitched quadrants share the four plain subsets; the stitched top-left gets its own.
	require.Len(t, batches, 5)
	assert.Equal(t, g.Range(TopLeft, [4]uint8{}), batches[0].Range)
	assert.Len(t, batches[0].Instances, 2)
	assert.Equal(t, mgl32.Vec4{8, 8, 1, 0}, batches[0].Instances[0])
	assert.Equal(t, mgl32.Vec4{24, 8, 1, 0}, batches[0].Instances[1])
	assert.Len(t, batches[3].Instances, 2, "bottom-right is drawn by both leaves")
	assert.Equal(t, []mgl32.Vec4{{48, 16, 2, 1}}, batches[4].Instances)

	instanced, perDraw := CountDraws(batches)
	assert.Equal(t, 5, instanced)
	assert.Equal(t, 7, perDraw)
}

// Drawing through batches emits the same triangles as walking the patches one by one.
func TestBatchesMatchPerPatchDraws(t *testing.T) {
	tree := buildTestTree(t, 256, 256, 16)
	g, err := NewGridPatch(16, DefaultMaxStitch)
	require.NoError(t, err)

	var list RenderList
	NewSelector(DefaultRangeMultiplier, DefaultMaxStitch).Select(tree, mgl32.Vec3{20, 0, 30}, wholeTerrain(tree), &list)

	type draw struct {
		r    IndexRange
		inst mgl32.Vec4
	}
	direct := map[draw]int{}
	for _, p := range list.Patches {
		for _, q := range Quadrants {
			if p.Mask.Has(q) {
				direct[draw{g.Range(q, p.Stitch), p.Instance()}]++
			}
		}
	}

	batched := map[draw]int{}
	for _, b := range BuildBatches(list.Patches, g) {
		for _, inst := range b.Instances {
			batched[draw{b.Range, inst}]++
		}
	}
	assert.Equal(t, direct, batched)

	_, perDraw := CountDraws(BuildBatches(list.Patches, g))
	total := 0
	for _, p := range list.Patches {
		total += p.Mask.Count()
	}
	assert.Equal(t, total, perDraw)
}

func TestBuildBatchesEmpty(t *testing.T) {
	g, err := NewGridPatch(8, 1)
	require.NoError(t, err)

	assert.Empty(t, BuildBatches(nil, g))
	instanced, perDraw := CountDraws(nil)
	assert.Zero(t, instanced)
	assert.Zero(t, perDraw)
}
