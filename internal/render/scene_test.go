package render

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/urdfsim/pkg/math"
)

type tag struct{ n int }

func TestScene_Hierarchy(t *testing.T) {
	s := NewScene()
	root := s.Spawn("root")
	a, ok := s.SpawnChild(root.ID, "a")
	require.True(t, ok)
	b, ok := s.SpawnChild(root.ID, "b")
	require.True(t, ok)
	leaf, ok := s.SpawnChild(a.ID, "leaf")
	require.True(t, ok)

	_, ok = s.SpawnChild(EntityID(999), "orphan")
	assert.False(t, ok)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []EntityID{a.ID, b.ID}, root.Children())
	assert.Equal(t, root.ID, a.Parent())
	assert.Equal(t, EntityID(0), root.Parent())

	s.Despawn(a.ID)
	assert.Equal(t, 2, s.Len())
	_, ok = s.Get(leaf.ID)
	assert.False(t, ok, "descendants are removed")
	assert.Equal(t, []EntityID{b.ID}, root.Children())
}

func TestScene_Components(t *testing.T) {
	s := NewScene()
	e1 := s.Spawn("one")
	e2 := s.Spawn("two")
	e3 := s.Spawn("three")

	assert.True(t, Insert(s, e3.ID, tag{3}))
	assert.True(t, Insert(s, e1.ID, tag{1}))
	assert.False(t, Insert(s, e1.ID, tag{100}), "components are set once")
	assert.False(t, Insert(s, EntityID(999), tag{0}))

	c, ok := Component[tag](s, e1.ID)
	require.True(t, ok)
	assert.Equal(t, 1, c.n)
	_, ok = Component[tag](s, e2.ID)
	assert.False(t, ok)
	_, ok = Component[string](s, e1.ID)
	assert.False(t, ok)

	var seen []int
	Query(s, func(_ *Entity, c tag) { seen = append(seen, c.n) })
	assert.Equal(t, []int{1, 3}, seen, "query visits entities in ID order")
}

func TestScene_WorldMatrix(t *testing.T) {
	s := NewScene()
	root := s.Spawn("root")
	root.Transform.Translation = math.Vec3{X: 1}
	root.Transform.Rotation = math.QuatFromAxisAngle(math.Vec3{Y: 1}, float32(gomath.Pi/2))

	child, _ := s.SpawnChild(root.ID, "child")
	child.Transform.Translation = math.Vec3{X: 2}

	p := s.WorldMatrix(child.ID).TransformVec3(math.Vec3{})
	// Rotating +X by 90 degrees about Y gives -Z.
	assert.InDelta(t, 1, p.X, 1e-5)
	assert.InDelta(t, 0, p.Y, 1e-5)
	assert.InDelta(t, -2, p.Z, 1e-5)

	assert.Equal(t, math.Identity(), s.WorldMatrix(EntityID(999)))
}

func TestScene_Visibility(t *testing.T) {
	s := NewScene()
	root := s.Spawn("root")
	child, _ := s.SpawnChild(root.ID, "child")
	forced, _ := s.SpawnChild(root.ID, "forced")
	forced.Visibility = VisibilityVisible

	assert.True(t, s.IsVisible(child.ID))

	root.Visibility = VisibilityHidden
	assert.False(t, s.IsVisible(child.ID))
	assert.True(t, s.IsVisible(forced.ID))
	assert.False(t, s.IsVisible(EntityID(999)))
}
