package robot

import (
	gomath "math"

	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/internal/render"
	"github.com/Faultbox/urdfsim/pkg/math"
)

// frameFix maps the physics frame (Z-up) into the renderer frame. The robot
// root entity carries the complementary 180° turn about X.
var frameFix = math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi)

// rootRotation is the fixed rotation of every robot root entity.
var rootRotation = math.QuatFromAxisAngle(math.Vec3{X: 1}, gomath.Pi)

// ToRenderer converts a physics pose into a renderer transform with unit scale.
// Spawning and per-tick sync both go through here.
func ToRenderer(iso physics.Isometry) render.Transform {
	return render.Transform{
		Translation: frameFix.Rotate(iso.Translation),
		Rotation:    frameFix.Mul(iso.Rotation),
		Scale:       math.Vec3{X: 1, Y: 1, Z: 1},
	}
}
