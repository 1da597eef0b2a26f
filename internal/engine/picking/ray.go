// Package picking provides ray casting against the terrain quadtree.
package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates with the origin at the top left.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, invViewProj)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, invViewProj)

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if math32.Abs(r.Direction.Y()) < 0.001 {
		return 0, 0, false // parallel
	}
	t := (planeY - r.Origin.Y()) / r.Direction.Y()
	if t < 0 {
		return 0, 0, false // behind the origin
	}
	p := r.At(t)
	return p.X(), p.Z(), true
}

// Slab returns the entry and exit distances of the ray through box.
func (r Ray) Slab(box terrain.AABB) (tmin, tmax float32, hit bool) {
	tmin, tmax = -math32.MaxFloat32, math32.MaxFloat32
	for i := 0; i < 3; i++ {
		if r.Direction[i] == 0 {
			if r.Origin[i] < box.Min[i] || r.Origin[i] > box.Max[i] {
				return 0, 0, false
			}
			continue
		}
		t1 := (box.Min[i] - r.Origin[i]) / r.Direction[i]
		t2 := (box.Max[i] - r.Origin[i]) / r.Direction[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}
	if tmax < tmin || tmax < 0 {
		return 0, 0, false
	}
	return tmin, tmax, true
}

// IntersectAABB returns the distance to box, or the exit distance if the ray starts inside.
func (r Ray) IntersectAABB(box terrain.AABB) (t float32, hit bool) {
	tmin, tmax, hit := r.Slab(box)
	if !hit {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
