// Package physics implements a small rigid-body engine with multibody (kinematic
// tree) joints: body, collider and joint tables addressed by generational handles.
package physics

import (
	gomath "math"

	"github.com/Faultbox/urdfsim/pkg/math"
)

// Isometry is a rigid transform: rotation followed by translation.
// Positions are expressed in the engine convention (Z-up, right-handed).
type Isometry struct {
	Translation math.Vec3
	Rotation    math.Quat
}

// IsometryIdentity returns the identity transform.
func IsometryIdentity() Isometry {
	return Isometry{Rotation: math.QuatIdentity()}
}

// Mul composes two transforms: the result applies other first, then iso.
func (iso Isometry) Mul(other Isometry) Isometry {
	return Isometry{
		Translation: iso.Translation.Add(iso.Rotation.Rotate(other.Translation)),
		Rotation:    iso.Rotation.Mul(other.Rotation).Normalize(),
	}
}

// Inverse returns the inverse transform.
func (iso Isometry) Inverse() Isometry {
	inv := iso.Rotation.Conjugate()
	return Isometry{
		Translation: inv.Rotate(iso.Translation).Scale(-1),
		Rotation:    inv,
	}
}

// TransformPoint maps a point from local to parent space.
func (iso Isometry) TransformPoint(p math.Vec3) math.Vec3 {
	return iso.Rotation.Rotate(p).Add(iso.Translation)
}

// angMotionMax limits the rotation applied by a single integration step.
const angMotionMax = gomath.Pi / 4

// integrate advances the transform by linear and angular velocity over dt.
func (iso Isometry) integrate(linVel, angVel math.Vec3, dt float32) Isometry {
	iso.Translation = iso.Translation.Add(linVel.Scale(dt))

	ang := angVel.Length()
	if ang < 1e-6 {
		return iso
	}
	if ang*dt > angMotionMax {
		ang = angMotionMax / dt
	}
	dq := math.QuatFromAxisAngle(angVel.Normalize(), ang*dt)
	iso.Rotation = dq.Mul(iso.Rotation).Normalize()
	return iso
}
