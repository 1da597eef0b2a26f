// Package camera provides the viewers that drive terrain LOD selection.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// Camera is what the terrain needs from a viewer each frame.
type Camera interface {
	Position() mgl32.Vec3
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
}

// Projection holds perspective parameters.
type Projection struct {
	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32
}

// DefaultProjection returns a 60 degree 16:9 projection.
func DefaultProjection() Projection {
	return Projection{FOV: 60, Aspect: 16.0 / 9.0, Near: 0.5, Far: 20000}
}

// Matrix returns the OpenGL perspective matrix.
func (p Projection) Matrix() mgl32.Mat4 {
	aspect := p.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(p.FOV), aspect, p.Near, p.Far)
}

// SetViewport updates the aspect ratio for a framebuffer size.
func (p *Projection) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		p.Aspect = float32(width) / float32(height)
	}
}

// ViewProjection returns projection * view.
func ViewProjection(c Camera) mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// Frustum returns the world-space view frustum of c.
func Frustum(c Camera) terrain.Frustum {
	return terrain.FrustumFromMatrix(ViewProjection(c))
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Projection

	// Point to orbit around
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Projection:      DefaultProjection(),
		Distance:        400.0,
		RotationX:       0.6,
		MinDistance:     2.0,
		MaxDistance:     15000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	sx, cx := math32.Sincos(c.RotationX)
	sy, cy := math32.Sincos(c.RotationY)
	return c.Center.Add(mgl32.Vec3{cx * sy, sx, cx * cy}.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective matrix.
func (c *OrbitCamera) ProjectionMatrix() mgl32.Mat4 {
	return c.Projection.Matrix()
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point. Speed scales with distance.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	speed := c.Distance * 0.01
	sy, cy := math32.Sincos(c.RotationY)

	// Negate forward so W moves into the scene
	c.Center[0] += (-sy*forward + cy*right) * speed
	c.Center[2] += (-cy*forward - sy*right) * speed
	c.Center[1] += up * speed
}

// FitToBounds centers the camera on a box and backs off far enough to see it.
func (c *OrbitCamera) FitToBounds(b terrain.AABB) {
	c.Center = b.Center()
	size := math32.Max(b.Max.X()-b.Min.X(), b.Max.Z()-b.Min.Z())
	c.Distance = mgl32.Clamp(size*0.75, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6 // ~35 degrees down
	c.RotationY = 0
}

// FreeCamera is a first-person fly camera.
type FreeCamera struct {
	Projection

	Eye   mgl32.Vec3
	Yaw   float32 // radians, 0 looks down -Z
	Pitch float32 // radians, positive looks up

	Speed           float32 // world units per second
	LookSensitivity float32
}

// NewFreeCamera creates a fly camera at eye.
func NewFreeCamera(eye mgl32.Vec3) *FreeCamera {
	return &FreeCamera{
		Projection:      DefaultProjection(),
		Eye:             eye,
		Speed:           50,
		LookSensitivity: 0.003,
	}
}

// Position returns the eye position.
func (c *FreeCamera) Position() mgl32.Vec3 {
	return c.Eye
}

// Forward returns the unit view direction.
func (c *FreeCamera) Forward() mgl32.Vec3 {
	sp, cp := math32.Sincos(c.Pitch)
	sy, cy := math32.Sincos(c.Yaw)
	return mgl32.Vec3{-sy * cp, sp, -cy * cp}
}

// Right returns the unit direction to the right of the view, on the XZ plane.
func (c *FreeCamera) Right() mgl32.Vec3 {
	sy, cy := math32.Sincos(c.Yaw)
	return mgl32.Vec3{cy, 0, -sy}
}

// ViewMatrix returns the view matrix.
func (c *FreeCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Eye.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective matrix.
func (c *FreeCamera) ProjectionMatrix() mgl32.Mat4 {
	return c.Projection.Matrix()
}

// HandleLook turns the camera by a mouse delta. Pitch stops short of straight up or down.
func (c *FreeCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.LookSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch-deltaY*c.LookSensitivity, -1.55, 1.55)
}

// HandleMovement moves the eye for dt seconds of input along forward, right and world up.
func (c *FreeCamera) HandleMovement(forward, right, up, dt float32) {
	step := c.Speed * dt
	c.Eye = c.Eye.
		Add(c.Forward().Mul(forward * step)).
		Add(c.Right().Mul(right * step)).
		Add(mgl32.Vec3{0, up * step, 0})
}

// LookAt turns the camera toward target without moving it.
func (c *FreeCamera) LookAt(target mgl32.Vec3) {
	d := target.Sub(c.Eye)
	l := d.Len()
	if l == 0 {
		return
	}
	c.Yaw = math32.Atan2(-d.X(), -d.Z())
	c.Pitch = mgl32.Clamp(math32.Asin(d.Y()/l), -1.55, 1.55)
}

// KeepAbove lifts the eye to at least margin over the ground height returned by groundAt.
func (c *FreeCamera) KeepAbove(groundAt func(x, z float32) float32, margin float32) {
	if floor := groundAt(c.Eye.X(), c.Eye.Z()) + margin; c.Eye.Y() < floor {
		c.Eye[1] = floor
	}
}
