// Package lighting provides light setup for the viewer.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/urdfsim/pkg/math"
)

// Sun is a directional light placed by angles in degrees. Azimuth turns
// around the Y axis starting at +Z; elevation is measured from the horizon.
type Sun struct {
	Azimuth   float32
	Elevation float32
	Ambient   math.Vec3
}

// DefaultSun is a light high over the front-right of the scene.
func DefaultSun() Sun {
	return Sun{Azimuth: 30, Elevation: 60, Ambient: math.Vec3{X: 0.25, Y: 0.25, Z: 0.25}}
}

// ToSun returns the unit vector pointing from the scene towards the sun.
func (s Sun) ToSun() math.Vec3 {
	az := float64(s.Azimuth) * gomath.Pi / 180
	el := float64(s.Elevation) * gomath.Pi / 180
	return math.Vec3{
		X: float32(gomath.Cos(el) * gomath.Sin(az)),
		Y: float32(gomath.Sin(el)),
		Z: float32(gomath.Cos(el) * gomath.Cos(az)),
	}
}

// Direction returns the direction the light travels.
func (s Sun) Direction() math.Vec3 {
	return s.ToSun().Scale(-1)
}
