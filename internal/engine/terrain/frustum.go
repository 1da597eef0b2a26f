package terrain

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a half-space: points with Normal·p + D >= 0 are inside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane. Positive is inside.
func (p Plane) Distance(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view volume: left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts normalized frustum planes from a projection*view matrix
// (Gribb/Hartmann). mgl32 matrices are column-major, so rows are read with Row.
func FrustumFromMatrix(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	var f Frustum
	f.Planes[0] = planeFromRow(r3.Add(r0)) // left
	f.Planes[1] = planeFromRow(r3.Sub(r0)) // right
	f.Planes[2] = planeFromRow(r3.Add(r1)) // bottom
	f.Planes[3] = planeFromRow(r3.Sub(r1)) // top
	f.Planes[4] = planeFromRow(r3.Add(r2)) // near
	f.Planes[5] = planeFromRow(r3.Sub(r2)) // far
	return f
}

func planeFromRow(r mgl32.Vec4) Plane {
	n := mgl32.Vec3{r.X(), r.Y(), r.Z()}
	l := math32.Sqrt(n.Dot(n))
	if l == 0 {
		return Plane{D: r.W()}
	}
	return Plane{Normal: n.Mul(1 / l), D: r.W() / l}
}

// IntersectsBox returns false only if the box is completely outside one of the planes.
// For each plane the box corner furthest along the normal is tested.
func (f *Frustum) IntersectsBox(b AABB) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		var v mgl32.Vec3
		for k := 0; k < 3; k++ {
			if p.Normal[k] >= 0 {
				v[k] = b.Max[k]
			} else {
				v[k] = b.Min[k]
			}
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p is inside all six planes.
func (f *Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// BoxFrustum returns a frustum whose planes are the faces of b, inflated by margin.
// Handy for headless selection over a whole terrain.
func BoxFrustum(b AABB, margin float32) Frustum {
	lo := b.Min.Sub(mgl32.Vec3{margin, margin, margin})
	hi := b.Max.Add(mgl32.Vec3{margin, margin, margin})
	return Frustum{Planes: [6]Plane{
		{Normal: mgl32.Vec3{1, 0, 0}, D: -lo.X()},
		{Normal: mgl32.Vec3{-1, 0, 0}, D: hi.X()},
		{Normal: mgl32.Vec3{0, 1, 0}, D: -lo.Y()},
		{Normal: mgl32.Vec3{0, -1, 0}, D: hi.Y()},
		{Normal: mgl32.Vec3{0, 0, 1}, D: -lo.Z()},
		{Normal: mgl32.Vec3{0, 0, -1}, D: hi.Z()},
	}}
}
