package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

const epsilon = 1e-4

func vecNear(a, b mgl32.Vec3) bool {
	return a.Sub(b).Len() <= epsilon
}

func TestOrbitCameraPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{10, 0, 10}
	c.Distance = 100
	c.RotationX = 0
	c.RotationY = 0

	if got := c.Position(); !vecNear(got, mgl32.Vec3{10, 0, 110}) {
		t.Errorf("Position() = %v, want (10, 0, 110)", got)
	}

	c.RotationX = math32.Pi / 2
	if got := c.Position(); !vecNear(got, mgl32.Vec3{10, 100, 10}) {
		t.Errorf("Position() looking straight down = %v", got)
	}
}

func TestOrbitCameraClamps(t *testing.T) {
	c := NewOrbitCamera()

	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch not clamped to max: %f", c.RotationX)
	}
	c.HandleDrag(0, -1e6)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch not clamped to min: %f", c.RotationX)
	}

	for i := 0; i < 200; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance not clamped to min: %f", c.Distance)
	}
	for i := 0; i < 200; i++ {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("distance not clamped to max: %f", c.Distance)
	}
}

func TestOrbitCameraMovement(t *testing.T) {
	c := NewOrbitCamera()
	c.Distance = 100
	c.RotationY = 0

	// Camera sits on +Z looking toward -Z, so forward moves the center to -Z.
	c.HandleMovement(1, 0, 0)
	if !vecNear(c.Center, mgl32.Vec3{0, 0, -1}) {
		t.Errorf("forward moved center to %v", c.Center)
	}
	c.HandleMovement(0, 1, 0)
	if !vecNear(c.Center, mgl32.Vec3{1, 0, -1}) {
		t.Errorf("right moved center to %v", c.Center)
	}
}

func TestOrbitCameraFrustumContainsCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{500, 20, 500}

	f := Frustum(c)
	if !f.ContainsPoint(c.Center) {
		t.Error("orbit center should be visible")
	}
	if f.ContainsPoint(c.Position().Add(c.Position().Sub(c.Center))) {
		t.Error("point behind the camera should not be visible")
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(terrain.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1024, 100, 512}})

	if !vecNear(c.Center, mgl32.Vec3{512, 50, 256}) {
		t.Errorf("center = %v", c.Center)
	}
	if c.Distance != 768 {
		t.Errorf("distance = %f, want 768", c.Distance)
	}
}

func TestFreeCameraDirections(t *testing.T) {
	c := NewFreeCamera(mgl32.Vec3{0, 10, 0})

	if !vecNear(c.Forward(), mgl32.Vec3{0, 0, -1}) {
		t.Errorf("default forward = %v", c.Forward())
	}
	if !vecNear(c.Right(), mgl32.Vec3{1, 0, 0}) {
		t.Errorf("default right = %v", c.Right())
	}

	c.HandleMovement(1, 0, 0, 0.5)
	if !vecNear(c.Eye, mgl32.Vec3{0, 10, -25}) {
		t.Errorf("eye after moving forward = %v", c.Eye)
	}

	c.HandleLook(0, 1e6)
	if c.Pitch < -1.56 || c.Pitch > -1.54 {
		t.Errorf("pitch not clamped: %f", c.Pitch)
	}
}

func TestFreeCameraKeepAbove(t *testing.T) {
	c := NewFreeCamera(mgl32.Vec3{0, 1, 0})
	ground := func(x, z float32) float32 { return 5 }

	c.KeepAbove(ground, 2)
	if c.Eye.Y() != 7 {
		t.Errorf("eye y = %f, want 7", c.Eye.Y())
	}
	c.Eye[1] = 30
	c.KeepAbove(ground, 2)
	if c.Eye.Y() != 30 {
		t.Errorf("eye above ground should not move, got %f", c.Eye.Y())
	}
}

func TestProjectionViewport(t *testing.T) {
	p := DefaultProjection()
	p.SetViewport(800, 400)
	if p.Aspect != 2 {
		t.Errorf("aspect = %f, want 2", p.Aspect)
	}
	p.SetViewport(0, 400)
	if p.Aspect != 2 {
		t.Error("zero width should keep the previous aspect")
	}
}

func TestFreeCameraLookAt(t *testing.T) {
	tests := []struct {
		name   string
		target mgl32.Vec3
	}{
		{"ahead", mgl32.Vec3{0, 10, -5}},
		{"behind and below", mgl32.Vec3{3, 2, 20}},
		{"side", mgl32.Vec3{-40, 10, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFreeCamera(mgl32.Vec3{0, 10, 0})
			c.LookAt(tt.target)
			want := tt.target.Sub(c.Eye).Normalize()
			if !vecNear(c.Forward(), want) {
				t.Errorf("forward = %v, want %v", c.Forward(), want)
			}
		})
	}

	c := NewFreeCamera(mgl32.Vec3{1, 2, 3})
	c.Yaw, c.Pitch = 0.5, 0.25
	c.LookAt(c.Eye)
	if c.Yaw != 0.5 || c.Pitch != 0.25 {
		t.Error("looking at the eye itself should not change orientation")
	}
}
