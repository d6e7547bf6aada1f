package physics

import (
	"fmt"

	"github.com/Faultbox/urdfsim/pkg/math"
)

// Shape is a collision shape in its local frame.
type Shape interface {
	// LocalAABB returns the local-space bounds of the shape.
	LocalAABB() (min, max math.Vec3)
	String() string
}

// Ball is a sphere centered at the origin.
type Ball struct {
	Radius float32
}

// Cuboid is a box centered at the origin.
type Cuboid struct {
	HalfExtents math.Vec3
}

// Cylinder is a cylinder centered at the origin with its axis along Z.
type Cylinder struct {
	HalfHeight float32
	Radius     float32
}

// Capsule is a capsule centered at the origin with its axis along Z.
type Capsule struct {
	HalfHeight float32
	Radius     float32
}

// TriMesh is a triangle soup.
type TriMesh struct {
	Vertices []math.Vec3
	Indices  [][3]uint32
}

func (s *Ball) LocalAABB() (math.Vec3, math.Vec3) {
	r := math.Vec3{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return r.Scale(-1), r
}

func (s *Cuboid) LocalAABB() (math.Vec3, math.Vec3) {
	return s.HalfExtents.Scale(-1), s.HalfExtents
}

func (s *Cylinder) LocalAABB() (math.Vec3, math.Vec3) {
	e := math.Vec3{X: s.Radius, Y: s.Radius, Z: s.HalfHeight}
	return e.Scale(-1), e
}

func (s *Capsule) LocalAABB() (math.Vec3, math.Vec3) {
	e := math.Vec3{X: s.Radius, Y: s.Radius, Z: s.HalfHeight + s.Radius}
	return e.Scale(-1), e
}

func (s *TriMesh) LocalAABB() (math.Vec3, math.Vec3) {
	if len(s.Vertices) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	lo, hi := s.Vertices[0], s.Vertices[0]
	for _, v := range s.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi
}

func (s *Ball) String() string { return fmt.Sprintf("ball(r=%g)", s.Radius) }
func (s *Cuboid) String() string { return fmt.Sprintf("cuboid(%v)", s.HalfExtents) }
func (s *Cylinder) String() string { return fmt.Sprintf("cylinder(h=%g, r=%g)", s.HalfHeight, s.Radius) }
func (s *Capsule) String() string { return fmt.Sprintf("capsule(h=%g, r=%g)", s.HalfHeight, s.Radius) }
func (s *TriMesh) String() string { return fmt.Sprintf("trimesh(%d tris)", len(s.Indices)) }

// worldAABB returns the world-space bounds of a shape placed at iso,
// by transforming the eight corners of the local box.
func worldAABB(s Shape, iso Isometry) (math.Vec3, math.Vec3) {
	lo, hi := s.LocalAABB()
	var wlo, whi math.Vec3
	for i := 0; i < 8; i++ {
		c := lo
		if i&1 != 0 {
			c.X = hi.X
		}
		if i&2 != 0 {
			c.Y = hi.Y
		}
		if i&4 != 0 {
			c.Z = hi.Z
		}
		p := iso.TransformPoint(c)
		if i == 0 {
			wlo, whi = p, p
			continue
		}
		wlo = wlo.Min(p)
		whi = whi.Max(p)
	}
	return wlo, whi
}
