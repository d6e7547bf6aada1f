package render

import "github.com/Faultbox/urdfsim/pkg/math"

// Transform places an entity relative to its parent, in the renderer
// convention (Y-up).
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// TransformIdentity returns a transform that leaves points unchanged.
func TransformIdentity() Transform {
	return Transform{Rotation: math.QuatIdentity(), Scale: math.Vec3{X: 1, Y: 1, Z: 1}}
}

// Matrix returns the local-to-parent matrix.
func (t Transform) Matrix() math.Mat4 {
	return math.FromTRS(t.Translation, t.Rotation, t.Scale)
}
