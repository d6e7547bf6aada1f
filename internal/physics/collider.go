package physics

import "fmt"

// ColliderHandle references a collider in a ColliderSet.
type ColliderHandle struct {
	index      uint32
	generation uint32
}

// String returns a printable form of the handle.
func (h ColliderHandle) String() string {
	return fmt.Sprintf("collider(%d:%d)", h.index, h.generation)
}

// Collider is a collision shape attached to a body.
type Collider struct {
	Name     string
	Shape    Shape
	Position Isometry // relative to the parent body
	Parent   BodyHandle
}

type colliderSlot struct {
	generation uint32
	collider   *Collider
}

// ColliderSet is the collider table of an engine.
type ColliderSet struct {
	slots []colliderSlot
	live  int
}

// Insert adds a collider and returns its handle.
func (s *ColliderSet) Insert(c *Collider) ColliderHandle {
	s.slots = append(s.slots, colliderSlot{generation: 1, collider: c})
	s.live++
	return ColliderHandle{index: uint32(len(s.slots) - 1), generation: 1}
}

// Get returns the collider for a handle.
func (s *ColliderSet) Get(h ColliderHandle) (*Collider, bool) {
	if int(h.index) >= len(s.slots) {
		return nil, false
	}
	slot := &s.slots[h.index]
	if slot.collider == nil || slot.generation != h.generation {
		return nil, false
	}
	return slot.collider, true
}

// Remove deletes a collider. Returns false if the handle was stale.
func (s *ColliderSet) Remove(h ColliderHandle) bool {
	if _, ok := s.Get(h); !ok {
		return false
	}
	slot := &s.slots[h.index]
	slot.collider = nil
	slot.generation++
	s.live--
	return true
}

// Len returns the number of live colliders.
func (s *ColliderSet) Len() int {
	return s.live
}

// Each calls fn for every live collider in insertion order.
func (s *ColliderSet) Each(fn func(ColliderHandle, *Collider)) {
	for i := range s.slots {
		if s.slots[i].collider != nil {
			fn(ColliderHandle{index: uint32(i), generation: s.slots[i].generation}, s.slots[i].collider)
		}
	}
}
