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

func TestExtractGeometry(t *testing.T) {
	asset := parseAsset(t, armURDF)

	geoms, err := ExtractGeometry(asset)
	require.NoError(t, err)
	require.Len(t, geoms, 3)

	for i, g := range geoms {
		assert.Equal(t, i, g.Index)
	}

	assert.Equal(t, "box([1 2 3])", geoms[0].Geometry.String())
	require.NotNil(t, geoms[0].Collider)
	assert.IsType(t, &physics.Cuboid{}, geoms[0].Collider.Shape)

	assert.Nil(t, geoms[1].Geometry)
	assert.Nil(t, geoms[1].Collider, "two colliders resolve to none")
	assert.Equal(t, [3]float64{0, 0, 0.25}, geoms[1].InertialOrigin.XYZ)

	assert.Equal(t, "sphere(r=0.5)", geoms[2].Geometry.String(), "first visual wins")
	assert.Nil(t, geoms[2].Collider)
}

func TestExtractGeometry_Mismatch(t *testing.T) {
	asset := parseAsset(t, armURDF)
	asset.Template.Links = asset.Template.Links[:2]

	_, err := ExtractGeometry(asset)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSpawn_CreatesBodiesAndLinkEntities(t *testing.T) {
	w := newWorld()
	asset := parseAsset(t, armURDF)
	handle := assets.NewServer(assets.Options{}).Load("arm.urdf", assets.Settings{})

	rootID, err := w.spawner.Spawn(asset, handle, "robots/meshes")
	require.NoError(t, err)

	// Every link gets a body, only links with visuals get an entity.
	assert.Equal(t, 3, w.engine.Bodies.Len())
	assert.Equal(t, 3, w.scene.Len())

	root, ok := w.scene.Get(rootID)
	require.True(t, ok)
	assert.Equal(t, RootName, root.Name)
	assert.Equal(t, render.VisibilityVisible, root.Visibility)
	assert.Equal(t, math.QuatFromAxisAngle(math.Vec3{X: 1}, gomath.Pi), root.Transform.Rotation)
	require.Len(t, root.Children(), 2)

	inst, ok := render.Component[Instance](w.scene, rootID)
	require.True(t, ok)
	assert.Equal(t, handle, inst.Handle)
	assert.Equal(t, "arm", inst.Name)

	links := w.linkEntities(t, rootID)
	require.Contains(t, links, 0)
	require.Contains(t, links, 2)
	assert.Equal(t, "base", links[0].Name)
	assert.Equal(t, "tip", links[2].Name)

	for idx, e := range links {
		link, _ := render.Component[BodyLink](w.scene, e.ID)
		assert.Equal(t, inst.Multibody.Links[idx].Body, link.Body, "entity refers to the body at its link index")
		assert.Equal(t, w.engine.ID(), link.Context)

		pose, ok := w.engine.Pose(link.Body)
		require.True(t, ok)
		assert.Equal(t, ToRenderer(pose), e.Transform)

		mat, ok := w.materials.Get(e.Material)
		require.True(t, ok)
		assert.Equal(t, render.SRGB(0.3, 0.4, 0.3), mat.BaseColor)
	}
	assert.Equal(t, 1, w.materials.Len(), "material is shared")

	tip, _ := w.meshes.Get(links[2].Mesh)
	assert.Equal(t, render.MeshSphere, tip.Kind)
	assert.Equal(t, float32(0.5), tip.Radius)
}

func TestSpawn_BoxIsAxisPermutedAndDoubled(t *testing.T) {
	w := newWorld()
	asset := parseAsset(t, `<robot name="b"><link name="l">
  <visual><geometry><box size="1.0 2.0 3.0"/></geometry></visual>
</link></robot>`)

	rootID, err := w.spawner.Spawn(asset, assets.Handle{}, "")
	require.NoError(t, err)

	e := w.linkEntities(t, rootID)[0]
	mesh, ok := w.meshes.Get(e.Mesh)
	require.True(t, ok)
	assert.Equal(t, render.MeshCuboid, mesh.Kind)
	assert.Equal(t, math.Vec3{X: 2, Y: 6, Z: 4}, mesh.Size)
}

func TestSpawn_MeshVisual(t *testing.T) {
	w := newWorld()
	asset := parseAsset(t, `<robot name="m"><link name="l">
  <visual><geometry><mesh filename="package://m/meshes/part.stl" scale="0.001 0.001 0.001"/></geometry></visual>
</link></robot>`)

	rootID, err := w.spawner.Spawn(asset, assets.Handle{}, "robots/m")
	require.NoError(t, err)

	e := w.linkEntities(t, rootID)[0]
	mesh, ok := w.meshes.Get(e.Mesh)
	require.True(t, ok)
	assert.Equal(t, render.MeshFile, mesh.Kind)
	assert.Equal(t, "robots/m/meshes/part.stl", mesh.Path)
	assert.Equal(t, math.Vec3{X: 0.001, Y: 0.001, Z: 0.001}, e.Transform.Scale)
}

func TestSpawn_ShapeMismatchLeavesNothing(t *testing.T) {
	w := newWorld()
	asset := parseAsset(t, armURDF)
	// Description has 2 links, template has 3.
	asset.Robot.Links = asset.Robot.Links[:2]

	_, err := w.spawner.Spawn(asset, assets.Handle{}, "")
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, 0, w.engine.Bodies.Len())
	assert.Equal(t, 0, w.engine.Colliders.Len())
	assert.Equal(t, 0, w.scene.Len())
	assert.Equal(t, 0, w.meshes.Len())
}

// shortPhysics inserts into a real engine but reports one link fewer.
type shortPhysics struct {
	*physics.Engine
	removed int
}

func (s *shortPhysics) InsertMultibody(t *physics.Template, opts physics.MultibodyOptions) (physics.MultibodyHandles, error) {
	h, err := s.Engine.InsertMultibody(t, opts)
	h.Links = h.Links[:len(h.Links)-1]
	return h, err
}

func (s *shortPhysics) RemoveMultibody(h physics.MultibodyHandles) {
	s.removed++
	s.Engine.RemoveMultibody(h)
}

func TestSpawn_BodyCountMismatchRollsBack(t *testing.T) {
	w := newWorld()
	p := &shortPhysics{Engine: w.engine}
	spawner := NewSpawner(p, w.scene, w.meshes, w.materials, SpawnOptions{})

	_, err := spawner.Spawn(parseAsset(t, armURDF), assets.Handle{}, "")
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, 1, p.removed)
	assert.Equal(t, 0, w.scene.Len())
	// The unreported last body is still there; everything reported was removed.
	assert.Equal(t, 1, w.engine.Bodies.Len())
}

func TestSpawn_UnimplementedGeometry(t *testing.T) {
	for _, geom := range []string{
		`<cylinder radius="0.1" length="1"/>`,
		`<capsule radius="0.1" length="1"/>`,
	} {
		t.Run(geom, func(t *testing.T) {
			w := newWorld()
			asset := parseAsset(t, `<robot name="c"><link name="ok">
  <visual><geometry><sphere radius="1"/></geometry></visual>
</link><link name="bad">
  <visual><geometry>`+geom+`</geometry></visual>
</link><joint name="j" type="fixed"><parent link="ok"/><child link="bad"/></joint></robot>`)

			_, err := w.spawner.Spawn(asset, assets.Handle{}, "")
			assert.ErrorIs(t, err, ErrGeometryNotImplemented)
			assert.Equal(t, 0, w.engine.Bodies.Len())
			assert.Equal(t, 0, w.scene.Len())
		})
	}
}

func TestSpawn_SelfContactsOption(t *testing.T) {
	asset := parseAsset(t, armURDF)

	w := newWorld()
	rootID, err := w.spawner.Spawn(asset, assets.Handle{}, "")
	require.NoError(t, err)
	inst, _ := render.Component[Instance](w.scene, rootID)
	mb, ok := w.engine.Multibodies.Get(inst.Multibody.Multibody)
	require.True(t, ok)
	assert.True(t, mb.DisableSelfContacts)
}
