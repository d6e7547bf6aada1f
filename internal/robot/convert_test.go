package robot

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/internal/render"
	"github.com/Faultbox/urdfsim/pkg/math"
)

func TestToRenderer_Identity(t *testing.T) {
	tr := ToRenderer(physics.Isometry{
		Translation: math.Vec3{X: 1, Y: 2, Z: 3},
		Rotation:    math.QuatIdentity(),
	})

	// Half turn about Z: X and Y flip, Z stays.
	assert.InDelta(t, -1, tr.Translation.X, 1e-5)
	assert.InDelta(t, -2, tr.Translation.Y, 1e-5)
	assert.InDelta(t, 3, tr.Translation.Z, 1e-5)
	assert.Equal(t, frameFix, tr.Rotation)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, tr.Scale)
}

func unitCubeAABB(m math.Mat4) (math.Vec3, math.Vec3) {
	var lo, hi math.Vec3
	for i := 0; i < 8; i++ {
		c := math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}
		if i&1 != 0 {
			c.X = 0.5
		}
		if i&2 != 0 {
			c.Y = 0.5
		}
		if i&4 != 0 {
			c.Z = 0.5
		}
		p := m.TransformVec3(c)
		if i == 0 {
			lo, hi = p, p
			continue
		}
		lo, hi = lo.Min(p), hi.Max(p)
	}
	return lo, hi
}

func TestToRenderer_IsRigid(t *testing.T) {
	half := float32(gomath.Pi / 2)
	poses := []physics.Isometry{
		{Translation: math.Vec3{}, Rotation: math.QuatIdentity()},
		{Translation: math.Vec3{X: 4, Y: -2, Z: 7}, Rotation: math.QuatIdentity()},
		{Translation: math.Vec3{X: 1}, Rotation: math.QuatFromAxisAngle(math.Vec3{X: 1}, half)},
		{Translation: math.Vec3{Y: 3}, Rotation: math.QuatFromAxisAngle(math.Vec3{Y: 1}, -half)},
		{Translation: math.Vec3{Z: -5}, Rotation: math.QuatFromRPY(half, 0, half)},
	}

	for _, pose := range poses {
		m := ToRenderer(pose).Matrix()

		// Axis-aligned results keep the unit cube's bounding volume.
		lo, hi := unitCubeAABB(m)
		size := hi.Sub(lo)
		assert.InDelta(t, 1, size.X*size.Y*size.Z, 1e-4, "pose %+v", pose)

		// Any rotation keeps distances.
		a := m.TransformVec3(math.Vec3{X: 0.5, Y: -0.5, Z: 0.5})
		b := m.TransformVec3(math.Vec3{X: -0.5, Y: 0.5, Z: -0.5})
		assert.InDelta(t, gomath.Sqrt(3), a.Distance(b), 1e-4)
	}

	arbitrary := ToRenderer(physics.Isometry{Rotation: math.QuatFromRPY(0.3, -1.1, 2.4)}).Matrix()
	p := arbitrary.TransformVec3(math.Vec3{X: 1, Y: 2, Z: 2})
	assert.InDelta(t, 3, p.Length(), 1e-4)
}

func TestSyncGeometry(t *testing.T) {
	w := newWorld()
	rootID, err := w.spawner.Spawn(parseAsset(t, armURDF), assets.Handle{}, "")
	require.NoError(t, err)
	links := w.linkEntities(t, rootID)
	inst, _ := render.Component[Instance](w.scene, rootID)

	before := links[2].Transform
	SyncGeometry(w.engine, w.scene)
	first := links[2].Transform
	for i := 0; i < 100; i++ {
		SyncGeometry(w.engine, w.scene)
		require.Equal(t, first, links[2].Transform, "unchanged pose gives identical transform")
	}
	assert.Equal(t, before, first)

	// Moving the shoulder moves the tip.
	require.True(t, w.engine.SetJointState(inst.Multibody.Joints[0], 1, 0))
	w.engine.Step(1.0 / 60)
	SyncGeometry(w.engine, w.scene)
	assert.NotEqual(t, first, links[2].Transform)

	pose, _ := w.engine.Pose(inst.Multibody.Links[2].Body)
	assert.Equal(t, ToRenderer(pose), links[2].Transform)
}

func TestSyncGeometry_KeepsScaleAndSkipsStaleBodies(t *testing.T) {
	w := newWorld()
	rootID, err := w.spawner.Spawn(parseAsset(t, armURDF), assets.Handle{}, "")
	require.NoError(t, err)
	links := w.linkEntities(t, rootID)
	inst, _ := render.Component[Instance](w.scene, rootID)

	links[0].Transform.Scale = math.Vec3{X: 2, Y: 2, Z: 2}
	SyncGeometry(w.engine, w.scene)
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, links[0].Transform.Scale)

	w.engine.RemoveMultibody(inst.Multibody)
	marker := render.Transform{Translation: math.Vec3{X: 42}, Rotation: math.QuatIdentity(), Scale: math.Vec3{X: 1, Y: 1, Z: 1}}
	links[2].Transform = marker
	SyncGeometry(w.engine, w.scene)
	assert.Equal(t, marker, links[2].Transform, "entity left unchanged")
	_, ok := w.scene.Get(links[2].ID)
	assert.True(t, ok, "entity is not deleted")
}

func TestSyncGeometry_OtherContext(t *testing.T) {
	w := newWorld()
	rootID, err := w.spawner.Spawn(parseAsset(t, armURDF), assets.Handle{}, "")
	require.NoError(t, err)
	links := w.linkEntities(t, rootID)

	// A second engine hands out the same body handles but is a different context.
	other := physics.NewEngine()
	_, err = other.InsertMultibody(parseAsset(t, armURDF).Template, physics.MultibodyOptions{})
	require.NoError(t, err)

	marker := links[0].Transform
	marker.Translation = math.Vec3{Y: 99}
	links[0].Transform = marker
	SyncGeometry(other, w.scene)
	assert.Equal(t, marker, links[0].Transform)
}
