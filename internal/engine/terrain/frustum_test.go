package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func testFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	return FrustumFromMatrix(proj.Mul4(view))
}

func TestFrustumFromMatrixPlanesNormalized(t *testing.T) {
	f := testFrustum()
	for i, p := range f.Planes {
		assert.InDelta(t, 1, p.Normal.Len(), 1e-5, "plane %d", i)
	}

	// Near plane faces away from the eye along -Z, at distance near from it.
	near := f.Planes[4]
	assert.InDelta(t, -1, near.Normal.Z(), 1e-5)
	assert.InDelta(t, 0, near.Distance(mgl32.Vec3{0, 0, 9}), 1e-4)
	far := f.Planes[5]
	assert.InDelta(t, 0, far.Distance(mgl32.Vec3{0, 0, -90}), 1e-3)
}

func TestFrustumContainsPoint(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name   string
		p      mgl32.Vec3
		inside bool
	}{
		{"target", mgl32.Vec3{0, 0, 0}, true},
		{"just past near", mgl32.Vec3{0, 0, 8.9}, true},
		{"behind eye", mgl32.Vec3{0, 0, 20}, false},
		{"between eye and near", mgl32.Vec3{0, 0, 9.5}, false},
		{"beyond far", mgl32.Vec3{0, 0, -200}, false},
		{"off to the right", mgl32.Vec3{100, 0, 0}, false},
		{"above", mgl32.Vec3{0, 50, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inside, f.ContainsPoint(tt.p))
		})
	}
}

func TestFrustumIntersectsBox(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"around target", AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}, true},
		{"far right", AABB{Min: mgl32.Vec3{1000, -1, -1}, Max: mgl32.Vec3{1001, 1, 1}}, false},
		{"behind eye", AABB{Min: mgl32.Vec3{-1, -1, 30}, Max: mgl32.Vec3{1, 1, 40}}, false},
		{"straddles left plane", AABB{Min: mgl32.Vec3{-50, -1, -1}, Max: mgl32.Vec3{0, 1, 1}}, true},
		{"contains frustum", AABB{Min: mgl32.Vec3{-1e4, -1e4, -1e4}, Max: mgl32.Vec3{1e4, 1e4, 1e4}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsBox(tt.box))
			assert.Equal(t, tt.want, tt.box.IntersectsFrustum(&f))
		})
	}
}

func TestBoxFrustum(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{10, 5, 10}}
	f := BoxFrustum(box, 1)

	assert.True(t, f.ContainsPoint(mgl32.Vec3{5, 2, 5}))
	assert.True(t, f.ContainsPoint(mgl32.Vec3{-1, -1, -1}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{-1.5, 2, 5}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{5, 6.5, 5}))
	assert.True(t, f.IntersectsBox(box))
}

func TestAABB(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 2, 2}}

	assert.Equal(t, mgl32.Vec3{1, 1, 1}, box.Center())
	assert.True(t, box.Contains(mgl32.Vec3{2, 0, 1}))
	assert.False(t, box.Contains(mgl32.Vec3{2.1, 0, 1}))

	assert.Zero(t, box.DistanceSq(mgl32.Vec3{1, 1, 1}))
	assert.Equal(t, float32(9), box.DistanceSq(mgl32.Vec3{5, 1, 1}))
	assert.Equal(t, float32(2), box.DistanceSq(mgl32.Vec3{-1, 3, 1}))

	// Touching counts.
	assert.True(t, box.IntersectsSphere(mgl32.Vec3{5, 1, 1}, 3))
	assert.False(t, box.IntersectsSphere(mgl32.Vec3{5, 1, 1}, 2.99))
}

func TestTransform(t *testing.T) {
	tr := Transform{HorizontalScale: 2, HeightScale: 10, Offset: mgl32.Vec3{100, -5, 50}}

	assert.Equal(t, mgl32.Vec3{104, 0, 56}, tr.World(2, 0.5, 3))
	x, z := tr.Local(mgl32.Vec3{104, 0, 56})
	assert.Equal(t, float32(2), x)
	assert.Equal(t, float32(3), z)
	assert.Equal(t, float32(64), tr.WorldSize(32))

	flipped := Transform{HorizontalScale: -1, HeightScale: 1}
	n := Node{X: 16, Z: 16, Size: 32, MinHeight: 1, MaxHeight: 3}
	b := flipped.Box(&n)
	assert.Equal(t, mgl32.Vec3{-32, 1, -32}, b.Min)
	assert.Equal(t, mgl32.Vec3{0, 3, 0}, b.Max)
	assert.Equal(t, float32(32), flipped.WorldSize(32))
}

func TestQuadrantMask(t *testing.T) {
	m := TopLeft.Bit() | BottomRight.Bit()

	assert.True(t, m.Has(TopLeft))
	assert.False(t, m.Has(TopRight))
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 4, AllQuadrants.Count())
	assert.Equal(t, "bottom-left", BottomLeft.String())

	leaf := Node{Children: [4]NodeID{NoNode, NoNode, NoNode, NoNode}}
	assert.Equal(t, AllQuadrants, leaf.Present())
	inner := Node{Level: 1, Children: [4]NodeID{1, NoNode, 2, NoNode}}
	assert.Equal(t, TopLeft.Bit()|BottomLeft.Bit(), inner.Present())
}

func TestPatchExtent(t *testing.T) {
	p := Patch{Offset: mgl32.Vec2{96, 32}, Scale: 2, Level: 1}
	x0, z0, size := p.Extent(32)
	assert.Equal(t, 64, x0)
	assert.Equal(t, 0, z0)
	assert.Equal(t, 64, size)
	assert.Equal(t, mgl32.Vec4{96, 32, 2, 1}, p.Instance())
}
