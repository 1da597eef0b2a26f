// Package lighting provides sun placement for terrain shading.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default sun placement, degrees.
const (
	DefaultAzimuth   = 215
	DefaultElevation = 45
)

// SunDirection converts azimuth/elevation angles to a unit vector pointing towards the sun.
// Azimuth is rotation around Y (0 = +Z), elevation is the angle above the horizon.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := mgl32.DegToRad(azimuth)
	el := mgl32.DegToRad(mgl32.Clamp(elevation, -90, 90))

	se, ce := math32.Sincos(el)
	sa, ca := math32.Sincos(az)
	return mgl32.Vec3{ce * sa, se, ce * ca}
}

// LightDirection returns the direction sunlight travels, the negated SunDirection.
func LightDirection(azimuth, elevation float32) mgl32.Vec3 {
	return SunDirection(azimuth, elevation).Mul(-1)
}

// Sun is a movable directional light.
type Sun struct {
	Azimuth   float32
	Elevation float32
}

// DefaultSun returns a late-afternoon sun.
func DefaultSun() Sun {
	return Sun{Azimuth: DefaultAzimuth, Elevation: DefaultElevation}
}

// Rotate turns the sun around Y by delta degrees, wrapping to [0, 360).
func (s *Sun) Rotate(delta float32) {
	s.Azimuth = math32.Mod(s.Azimuth+delta, 360)
	if s.Azimuth < 0 {
		s.Azimuth += 360
	}
}

// Raise changes the elevation by delta degrees, keeping the sun above the horizon.
func (s *Sun) Raise(delta float32) {
	s.Elevation = mgl32.Clamp(s.Elevation+delta, 1, 90)
}

// LightDir returns the direction the sun's light travels.
func (s Sun) LightDir() mgl32.Vec3 {
	return LightDirection(s.Azimuth, s.Elevation)
}
