package physics

import (
	"fmt"

	"github.com/Faultbox/urdfsim/pkg/math"
)

// BodyHandle references a rigid body in a RigidBodySet.
// Handles are never reused: a removed slot is not recycled.
type BodyHandle struct {
	index      uint32
	generation uint32
}

// Index returns the table index, for logging.
func (h BodyHandle) Index() uint32 { return h.index }

// String returns a printable form of the handle.
func (h BodyHandle) String() string { return fmt.Sprintf("body(%d:%d)", h.index, h.generation) }

// BodyType controls how a body is integrated.
type BodyType int

const (
	BodyDynamic BodyType = iota
	BodyFixed
	BodyKinematic
)

// String returns a human-readable body type name.
func (t BodyType) String() string {
	switch t {
	case BodyDynamic:
		return "Dynamic"
	case BodyFixed:
		return "Fixed"
	case BodyKinematic:
		return "Kinematic"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// RigidBody is a single rigid body.
type RigidBody struct {
	Type     BodyType
	Position Isometry // world pose of the body frame
	LinVel   math.Vec3
	AngVel   math.Vec3

	Mass              float32
	LocalCenterOfMass math.Vec3

	colliders []ColliderHandle
	multibody MultibodyHandle // zero value when not part of a multibody
	linkIndex int
}

// Colliders returns the handles of colliders attached to the body.
func (b *RigidBody) Colliders() []ColliderHandle {
	return b.colliders
}

// Multibody returns the multibody the body belongs to, if any.
func (b *RigidBody) Multibody() (MultibodyHandle, int, bool) {
	return b.multibody, b.linkIndex, b.multibody.valid()
}

type bodySlot struct {
	generation uint32
	body       *RigidBody
}

// RigidBodySet is the body table of an engine.
type RigidBodySet struct {
	slots []bodySlot
	live  int
}

// Insert adds a body and returns its handle.
func (s *RigidBodySet) Insert(b *RigidBody) BodyHandle {
	s.slots = append(s.slots, bodySlot{generation: 1, body: b})
	s.live++
	return BodyHandle{index: uint32(len(s.slots) - 1), generation: 1}
}

// Get returns the body for a handle, or false if it was removed or never existed.
func (s *RigidBodySet) Get(h BodyHandle) (*RigidBody, bool) {
	if int(h.index) >= len(s.slots) {
		return nil, false
	}
	slot := &s.slots[h.index]
	if slot.body == nil || slot.generation != h.generation {
		return nil, false
	}
	return slot.body, true
}

// Remove deletes a body. Returns false if the handle was stale.
func (s *RigidBodySet) Remove(h BodyHandle) bool {
	if _, ok := s.Get(h); !ok {
		return false
	}
	slot := &s.slots[h.index]
	slot.body = nil
	slot.generation++
	s.live--
	return true
}

// Len returns the number of live bodies.
func (s *RigidBodySet) Len() int {
	return s.live
}

// Each calls fn for every live body in insertion order.
func (s *RigidBodySet) Each(fn func(BodyHandle, *RigidBody)) {
	for i := range s.slots {
		if s.slots[i].body != nil {
			fn(BodyHandle{index: uint32(i), generation: s.slots[i].generation}, s.slots[i].body)
		}
	}
}
