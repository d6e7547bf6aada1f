package physics

import (
	"fmt"

	"github.com/Faultbox/urdfsim/pkg/math"
)

// JointKind is the degree-of-freedom model of a multibody joint.
type JointKind int

const (
	JointFixed JointKind = iota
	JointRevolute
	JointContinuous
	JointPrismatic
	JointFloating
	JointPlanar
	JointSpherical
)

// String returns a human-readable joint kind name.
func (k JointKind) String() string {
	switch k {
	case JointFixed:
		return "Fixed"
	case JointRevolute:
		return "Revolute"
	case JointContinuous:
		return "Continuous"
	case JointPrismatic:
		return "Prismatic"
	case JointFloating:
		return "Floating"
	case JointPlanar:
		return "Planar"
	case JointSpherical:
		return "Spherical"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// motion returns the transform contributed by the joint coordinate q.
// Multi-DOF joints are held at their rest pose.
func (k JointKind) motion(axis math.Vec3, q float32) Isometry {
	switch k {
	case JointRevolute, JointContinuous:
		return Isometry{Rotation: math.QuatFromAxisAngle(axis, q)}
	case JointPrismatic:
		return Isometry{Translation: axis.Scale(q), Rotation: math.QuatIdentity()}
	default:
		return IsometryIdentity()
	}
}

// limited reports whether the joint coordinate is clamped to its limits.
func (k JointKind) limited() bool {
	return k == JointRevolute || k == JointPrismatic
}

// MultibodyHandle references a multibody in a MultibodyJointSet.
type MultibodyHandle struct {
	index      uint32
	generation uint32
}

func (h MultibodyHandle) valid() bool { return h.generation != 0 }

// String returns a printable form of the handle.
func (h MultibodyHandle) String() string {
	return fmt.Sprintf("multibody(%d:%d)", h.index, h.generation)
}

// MultibodyJointHandle references the joint attaching one link of a multibody
// to its parent.
type MultibodyJointHandle struct {
	Multibody MultibodyHandle
	Link      int
}

// MultibodyLink is one node of the kinematic tree.
type MultibodyLink struct {
	Name   string
	Body   BodyHandle
	Parent int // -1 for a root link
	Joint  *JointTemplate

	// Joint coordinate and its rate (radians or meters).
	Position float32
	Velocity float32
}

// Multibody is a kinematic tree of bodies connected by reduced-coordinate joints.
type Multibody struct {
	Name                string
	Links               []MultibodyLink
	DisableSelfContacts bool

	order []int // parents before children
}

type multibodySlot struct {
	generation uint32
	multibody  *Multibody
}

// MultibodyJointSet is the multibody joint table of an engine.
type MultibodyJointSet struct {
	slots []multibodySlot
}

// Insert adds a multibody and returns its handle.
func (s *MultibodyJointSet) Insert(mb *Multibody) MultibodyHandle {
	s.slots = append(s.slots, multibodySlot{generation: 1, multibody: mb})
	return MultibodyHandle{index: uint32(len(s.slots) - 1), generation: 1}
}

// Get returns the multibody for a handle.
func (s *MultibodyJointSet) Get(h MultibodyHandle) (*Multibody, bool) {
	if int(h.index) >= len(s.slots) {
		return nil, false
	}
	slot := &s.slots[h.index]
	if slot.multibody == nil || slot.generation != h.generation {
		return nil, false
	}
	return slot.multibody, true
}

// Remove deletes a multibody. Returns false if the handle was stale.
func (s *MultibodyJointSet) Remove(h MultibodyHandle) bool {
	if _, ok := s.Get(h); !ok {
		return false
	}
	slot := &s.slots[h.index]
	slot.multibody = nil
	slot.generation++
	return true
}

// Each calls fn for every live multibody.
func (s *MultibodyJointSet) Each(fn func(MultibodyHandle, *Multibody)) {
	for i := range s.slots {
		if s.slots[i].multibody != nil {
			fn(MultibodyHandle{index: uint32(i), generation: s.slots[i].generation}, s.slots[i].multibody)
		}
	}
}
