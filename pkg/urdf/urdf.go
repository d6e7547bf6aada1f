// Package urdf provides a parser for URDF (Unified Robot Description Format)
// robot descriptions.
package urdf

import (
	"fmt"

	"github.com/Faultbox/urdfsim/pkg/math"
)

// Pose is a rigid transform given as translation and fixed-axis roll/pitch/yaw.
type Pose struct {
	XYZ [3]float64
	RPY [3]float64
}

// Translation returns the translation as a float32 vector.
func (p Pose) Translation() math.Vec3 {
	return math.Vec3{X: float32(p.XYZ[0]), Y: float32(p.XYZ[1]), Z: float32(p.XYZ[2])}
}

// Rotation returns the orientation as a quaternion.
func (p Pose) Rotation() math.Quat {
	return math.QuatFromRPY(float32(p.RPY[0]), float32(p.RPY[1]), float32(p.RPY[2]))
}

// Geometry is one of Box, Cylinder, Capsule, Sphere or Mesh.
// The set is closed: only types in this package implement it.
type Geometry interface {
	geometry()
	String() string
}

// Box is an axis-aligned box centered at the origin.
type Box struct {
	Size [3]float64
}

// Cylinder is a cylinder along the Z axis.
type Cylinder struct {
	Radius float64
	Length float64
}

// Capsule is a capsule along the Z axis.
type Capsule struct {
	Radius float64
	Length float64
}

// Sphere is a sphere centered at the origin.
type Sphere struct {
	Radius float64
}

// Mesh references an external mesh file.
type Mesh struct {
	Filename string
	Scale    *[3]float64 // nil when the scale attribute is absent
}

func (*Box) geometry()      {}
func (*Cylinder) geometry() {}
func (*Capsule) geometry()  {}
func (*Sphere) geometry()   {}
func (*Mesh) geometry()     {}

func (g *Box) String() string { return fmt.Sprintf("box(%v)", g.Size) }
func (g *Cylinder) String() string {
	return fmt.Sprintf("cylinder(r=%g, l=%g)", g.Radius, g.Length)
}
func (g *Capsule) String() string {
	return fmt.Sprintf("capsule(r=%g, l=%g)", g.Radius, g.Length)
}
func (g *Sphere) String() string { return fmt.Sprintf("sphere(r=%g)", g.Radius) }
func (g *Mesh) String() string   { return fmt.Sprintf("mesh(%s)", g.Filename) }

// Color is an RGBA color in [0, 1].
type Color [4]float64

// Material is a named visual material.
type Material struct {
	Name    string
	Color   *Color
	Texture string
}

// Visual is a piece of visual geometry attached to a link.
type Visual struct {
	Name     string
	Origin   Pose
	Geometry Geometry
	Material *Material
}

// Collision is a piece of collision geometry attached to a link.
type Collision struct {
	Name     string
	Origin   Pose
	Geometry Geometry
}

// Inertia is the symmetric 3x3 inertia tensor.
type Inertia struct {
	IXX, IXY, IXZ, IYY, IYZ, IZZ float64
}

// Inertial holds mass properties of a link.
type Inertial struct {
	Origin  Pose
	Mass    float64
	Inertia Inertia
}

// Link is one rigid segment of the robot.
type Link struct {
	Name      string
	Inertial  Inertial
	Visual    []Visual
	Collision []Collision
}

// JointType is the kind of a joint.
type JointType string

const (
	JointRevolute   JointType = "revolute"
	JointContinuous JointType = "continuous"
	JointPrismatic  JointType = "prismatic"
	JointFixed      JointType = "fixed"
	JointFloating   JointType = "floating"
	JointPlanar     JointType = "planar"
	JointSpherical  JointType = "spherical"
)

// Limit holds joint limits.
type Limit struct {
	Lower    float64
	Upper    float64
	Effort   float64
	Velocity float64
}

// Joint connects a parent link to a child link.
type Joint struct {
	Name   string
	Type   JointType
	Origin Pose
	Parent string
	Child  string
	Axis   [3]float64
	Limit  Limit
}

// Robot is a parsed robot description.
type Robot struct {
	Name      string
	Links     []Link
	Joints    []Joint
	Materials []Material
}

// LinkIndex returns the index of the link with the given name, or -1.
func (r *Robot) LinkIndex(name string) int {
	for i := range r.Links {
		if r.Links[i].Name == name {
			return i
		}
	}
	return -1
}
