// Package render holds the renderer-side scene: entities with transforms,
// meshes and materials, organised as a parent/child hierarchy.
package render

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/Faultbox/urdfsim/pkg/math"
)

// EntityID identifies an entity in a Scene. The zero ID is invalid.
type EntityID uint32

// String returns a printable form of the ID.
func (id EntityID) String() string { return fmt.Sprintf("entity(%d)", uint32(id)) }

// Visibility controls whether an entity is drawn.
type Visibility int

const (
	// VisibilityInherited follows the parent.
	VisibilityInherited Visibility = iota
	// VisibilityVisible is drawn regardless of ancestors.
	VisibilityVisible
	VisibilityHidden
)

// Entity is a node of the scene.
type Entity struct {
	ID         EntityID
	Name       string
	Transform  Transform
	Visibility Visibility
	Mesh       MeshHandle     // zero when the entity has no mesh
	Material   MaterialHandle // zero when the entity has no material

	parent     EntityID
	children   []EntityID
	components map[reflect.Type]any
}

// Parent returns the parent entity, or zero for a root.
func (e *Entity) Parent() EntityID { return e.parent }

// Children returns the child entities in creation order.
func (e *Entity) Children() []EntityID { return e.children }

// Scene owns entities. It is not safe for concurrent use.
type Scene struct {
	entities map[EntityID]*Entity
	next     EntityID
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{entities: make(map[EntityID]*Entity)}
}

// Spawn creates a root entity with an identity transform.
func (s *Scene) Spawn(name string) *Entity {
	s.next++
	e := &Entity{ID: s.next, Name: name, Transform: TransformIdentity()}
	s.entities[e.ID] = e
	return e
}

// SpawnChild creates an entity under parent. It returns false if the parent
// does not exist.
func (s *Scene) SpawnChild(parent EntityID, name string) (*Entity, bool) {
	p, ok := s.entities[parent]
	if !ok {
		return nil, false
	}
	e := s.Spawn(name)
	e.parent = parent
	p.children = append(p.children, e.ID)
	return e, true
}

// Get returns the entity with the given ID.
func (s *Scene) Get(id EntityID) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Despawn removes an entity and its descendants.
func (s *Scene) Despawn(id EntityID) {
	e, ok := s.entities[id]
	if !ok {
		return
	}
	for _, c := range e.children {
		s.Despawn(c)
	}
	if p, ok := s.entities[e.parent]; ok {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	delete(s.entities, id)
}

// Len returns the number of entities.
func (s *Scene) Len() int {
	return len(s.entities)
}

// Each calls fn for every entity in ID order.
func (s *Scene) Each(fn func(*Entity)) {
	ids := make([]EntityID, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(s.entities[id])
	}
}

// WorldMatrix returns the local-to-world matrix of an entity.
func (s *Scene) WorldMatrix(id EntityID) math.Mat4 {
	e, ok := s.entities[id]
	if !ok {
		return math.Identity()
	}
	m := e.Transform.Matrix()
	if e.parent != 0 {
		return s.WorldMatrix(e.parent).Mul(m)
	}
	return m
}

// IsVisible resolves the visibility of an entity through its ancestors.
func (s *Scene) IsVisible(id EntityID) bool {
	e, ok := s.entities[id]
	if !ok {
		return false
	}
	switch e.Visibility {
	case VisibilityVisible:
		return true
	case VisibilityHidden:
		return false
	default:
		if e.parent == 0 {
			return true
		}
		return s.IsVisible(e.parent)
	}
}

// Insert attaches a component to an entity. A component type can be set only
// once per entity; Insert returns false if it is already present or the
// entity does not exist.
func Insert[T any](s *Scene, id EntityID, c T) bool {
	e, ok := s.entities[id]
	if !ok {
		return false
	}
	key := reflect.TypeOf((*T)(nil)).Elem()
	if _, exists := e.components[key]; exists {
		return false
	}
	if e.components == nil {
		e.components = make(map[reflect.Type]any)
	}
	e.components[key] = c
	return true
}

// Component returns the component of type T on an entity.
func Component[T any](s *Scene, id EntityID) (T, bool) {
	var zero T
	e, ok := s.entities[id]
	if !ok {
		return zero, false
	}
	c, ok := e.components[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return zero, false
	}
	return c.(T), true
}

// Query calls fn, in ID order, for every entity carrying a component of type T.
func Query[T any](s *Scene, fn func(*Entity, T)) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	s.Each(func(e *Entity) {
		if c, ok := e.components[key]; ok {
			fn(e, c.(T))
		}
	})
}
