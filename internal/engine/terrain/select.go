package terrain

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultRangeMultiplier scales a node's world size into the radius inside which it subdivides.
const DefaultRangeMultiplier = 2.0

// DefaultMaxStitch is the largest level difference a patch side can stitch against (step 1<<2).
const DefaultMaxStitch = 2

// Selector walks a Tree once per frame and produces the patches to draw.
// It holds only configuration; all per-frame state lives in the RenderList.
type Selector struct {
	// RangeMultiplier sets lodRange = worldSize(node) * RangeMultiplier. Larger values keep finer
	// patches out to a greater distance.
	RangeMultiplier float32
	// MaxStitch clamps the per-side stitch level. It must not exceed the GridPatch's maxStitch.
	MaxStitch int
}

// NewSelector returns a selector with the given tuning.
func NewSelector(rangeMultiplier float32, maxStitch int) *Selector {
	return &Selector{RangeMultiplier: rangeMultiplier, MaxStitch: maxStitch}
}

// SelectStats summarizes one selection pass.
type SelectStats struct {
	Visited int // nodes whose bounds were tested
	Culled  int // nodes rejected by the frustum
	Patches int // render-list entries emitted
}

// Select rebuilds list for the given viewer. The sphere test treats a node whose bounds exactly
// touch the LOD sphere as near, so it subdivides.
func (s *Selector) Select(t *Tree, cameraPos mgl32.Vec3, frustum *Frustum, list *RenderList) SelectStats {
	list.Reset()
	var stats SelectStats
	if t.Len() > 0 {
		s.selectNode(t, t.Root(), cameraPos, frustum, list, &stats)
	}
	list.stitch(t, s.MaxStitch)
	stats.Patches = len(list.Patches)
	return stats
}

// selectNode returns true if the node's footprint is covered by at least one emitted patch.
func (s *Selector) selectNode(t *Tree, id NodeID, cameraPos mgl32.Vec3, frustum *Frustum, list *RenderList, stats *SelectStats) bool {
	n := &t.nodes[id]
	stats.Visited++

	box := t.transform.Box(n)
	if !frustum.IntersectsBox(box) {
		stats.Culled++
		return false
	}

	lodRange := t.transform.WorldSize(n.Size) * math32.Abs(s.RangeMultiplier)
	if n.Level == 0 || !box.IntersectsSphere(cameraPos, lodRange) {
		list.add(n, n.Present())
		return true
	}

	// Too close for this resolution: let the children refine, then cover whatever they left.
	var uncovered QuadrantMask
	for _, q := range Quadrants {
		c := n.Children[q]
		if c == NoNode {
			continue
		}
		if !s.selectNode(t, c, cameraPos, frustum, list, stats) {
			uncovered |= q.Bit()
		}
	}
	if uncovered != 0 {
		list.add(n, uncovered)
	}
	return true
}

// RenderList is the frame-local output of Select. Reuse one per frame to avoid allocations;
// it must not be shared between concurrent selections.
type RenderList struct {
	Patches []Patch

	coverage []int8
	cols     int
	rows     int
}

// Reset discards every patch.
func (l *RenderList) Reset() {
	l.Patches = l.Patches[:0]
}

// Len returns the number of patches.
func (l *RenderList) Len() int {
	return len(l.Patches)
}

func (l *RenderList) add(n *Node, mask QuadrantMask) {
	l.Patches = append(l.Patches, Patch{
		Offset: mgl32.Vec2{float32(n.X), float32(n.Z)},
		Scale:  float32(int(1) << uint(n.Level)),
		Level:  n.Level,
		Mask:   mask,
	})
}
