package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

const refineSteps = 10

// GroundFunc returns the world height of the surface below world (x, z).
type GroundFunc func(x, z float32) float32

// PickTerrain returns the first point where r meets the surface. Only leaves whose bounds the
// ray crosses are marched, nearest hit first.
func PickTerrain(r Ray, tree *terrain.Tree, ground GroundFunc) (mgl32.Vec3, bool) {
	if tree.Len() == 0 || r.Direction.Len() == 0 {
		return mgl32.Vec3{}, false
	}
	step := tree.Transform().WorldSize(1) * 0.5
	if step <= 0 {
		return mgl32.Vec3{}, false
	}

	best := float32(math32.MaxFloat32)
	var visit func(id terrain.NodeID)
	visit = func(id terrain.NodeID) {
		tmin, tmax, hit := r.Slab(tree.Bounds(id))
		if !hit || tmin >= best {
			return
		}
		n := tree.Node(id)
		if n.IsLeaf() {
			if t, ok := march(r, math32.Max(tmin, 0), math32.Min(tmax, best), step, ground); ok {
				best = t
			}
			return
		}
		for _, c := range n.Children {
			if c != terrain.NoNode {
				visit(c)
			}
		}
	}
	visit(tree.Root())

	if best == math32.MaxFloat32 {
		return mgl32.Vec3{}, false
	}
	return r.At(best), true
}

// march steps along [t0, t1] until the ray drops below the ground, then bisects the crossing.
// Steps are counted rather than accumulated, so far from the origin a step smaller than the
// float spacing of t still terminates.
func march(r Ray, t0, t1, step float32, ground GroundFunc) (float32, bool) {
	below := func(t float32) bool {
		p := r.At(t)
		return p.Y() <= ground(p.X(), p.Z())
	}
	if below(t0) {
		return t0, true
	}
	steps := int(math32.Ceil((t1 - t0) / step))
	prev := t0
	for k := 1; k <= steps; k++ {
		t := math32.Min(t0+float32(k)*step, t1)
		if k == steps {
			t = t1
		}
		if below(t) {
			lo, hi := prev, t
			for i := 0; i < refineSteps; i++ {
				mid := (lo + hi) / 2
				if below(mid) {
					hi = mid
				} else {
					lo = mid
				}
			}
			return hi, true
		}
		prev = t
	}
	return 0, false
}
