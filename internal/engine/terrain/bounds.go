package terrain

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Center returns the box center.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Contains reports whether p lies inside the box (inclusive).
func (b AABB) Contains(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// DistanceSq returns the squared distance from p to the closest point of the box.
func (b AABB) DistanceSq(p mgl32.Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			e := b.Min[i] - p[i]
			d += e * e
		} else if p[i] > b.Max[i] {
			e := p[i] - b.Max[i]
			d += e * e
		}
	}
	return d
}

// IntersectsSphere reports whether the sphere touches the box.
// A sphere exactly touching the box counts as intersecting.
func (b AABB) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	return b.DistanceSq(center) <= radius*radius
}

// IntersectsFrustum reports whether any part of the box may be inside the frustum.
func (b AABB) IntersectsFrustum(f *Frustum) bool {
	return f.IntersectsBox(b)
}

// Transform maps heightfield coordinates to world space.
type Transform struct {
	HorizontalScale float32    // world units per heightfield sample along X and Z
	HeightScale     float32    // world units per height unit
	Offset          mgl32.Vec3 // world position of sample (0, 0) at height 0
}

// DefaultTransform maps heightfield units 1:1 to world units.
func DefaultTransform() Transform {
	return Transform{HorizontalScale: 1, HeightScale: 1}
}

// World returns the world position of heightfield point (x, z) at height h.
func (t Transform) World(x, h, z float32) mgl32.Vec3 {
	return mgl32.Vec3{
		t.Offset.X() + x*t.HorizontalScale,
		t.Offset.Y() + h*t.HeightScale,
		t.Offset.Z() + z*t.HorizontalScale,
	}
}

// Local returns the heightfield (x, z) coordinates of a world position.
func (t Transform) Local(p mgl32.Vec3) (x, z float32) {
	if t.HorizontalScale == 0 {
		return 0, 0
	}
	return (p.X() - t.Offset.X()) / t.HorizontalScale, (p.Z() - t.Offset.Z()) / t.HorizontalScale
}

// WorldSize converts a heightfield length to world units.
func (t Transform) WorldSize(size int) float32 {
	return float32(size) * math32.Abs(t.HorizontalScale)
}

// Box returns the world-space bounds of a node.
func (t Transform) Box(n *Node) AABB {
	half := float32(n.Size) / 2
	a := t.World(float32(n.X)-half, n.MinHeight, float32(n.Z)-half)
	b := t.World(float32(n.X)+half, n.MaxHeight, float32(n.Z)+half)
	return AABB{
		Min: mgl32.Vec3{math32.Min(a.X(), b.X()), math32.Min(a.Y(), b.Y()), math32.Min(a.Z(), b.Z())},
		Max: mgl32.Vec3{math32.Max(a.X(), b.X()), math32.Max(a.Y(), b.Y()), math32.Max(a.Z(), b.Z())},
	}
}
