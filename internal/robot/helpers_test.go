package robot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/internal/render"
	"github.com/Faultbox/urdfsim/pkg/urdf"
)

// armURDF has three links: a box base, a link without visuals and a sphere tip.
const armURDF = `<robot name="arm">
  <link name="base">
    <visual><geometry><box size="1 2 3"/></geometry></visual>
    <collision><geometry><box size="1 2 3"/></geometry></collision>
  </link>
  <link name="elbow">
    <inertial><origin xyz="0 0 0.25"/><mass value="2"/></inertial>
    <collision><geometry><sphere radius="0.1"/></geometry></collision>
    <collision><geometry><sphere radius="0.2"/></geometry></collision>
  </link>
  <link name="tip">
    <visual><geometry><sphere radius="0.5"/></geometry></visual>
    <visual><geometry><box size="9 9 9"/></geometry></visual>
  </link>
  <joint name="shoulder" type="revolute">
    <origin xyz="0 0 1.5"/>
    <parent link="base"/><child link="elbow"/>
    <axis xyz="0 1 0"/>
    <limit lower="-2" upper="2" effort="1" velocity="1"/>
  </joint>
  <joint name="wrist" type="fixed">
    <origin xyz="0 0 1"/>
    <parent link="elbow"/><child link="tip"/>
  </joint>
</robot>`

func parseAsset(t *testing.T, xml string) *assets.RobotAsset {
	t.Helper()
	robot, err := urdf.Parse([]byte(xml))
	require.NoError(t, err)
	tmpl, err := physics.FromURDF(robot, physics.TemplateOptions{FixedRoots: true})
	require.NoError(t, err)
	return &assets.RobotAsset{Robot: robot, Template: tmpl}
}

type world struct {
	engine    *physics.Engine
	scene     *render.Scene
	meshes    *render.Meshes
	materials *render.Materials
	spawner   *Spawner
}

func newWorld() *world {
	w := &world{
		engine:    physics.NewEngine(),
		scene:     render.NewScene(),
		meshes:    render.NewMeshes(nil),
		materials: &render.Materials{},
	}
	w.spawner = NewSpawner(w.engine, w.scene, w.meshes, w.materials, SpawnOptions{DisableSelfContacts: true})
	return w
}

// linkEntities returns the link entities of a robot root, keyed by link index.
func (w *world) linkEntities(t *testing.T, root render.EntityID) map[int]*render.Entity {
	t.Helper()
	e, ok := w.scene.Get(root)
	require.True(t, ok)
	out := make(map[int]*render.Entity)
	for _, id := range e.Children() {
		child, ok := w.scene.Get(id)
		require.True(t, ok)
		link, ok := render.Component[BodyLink](w.scene, id)
		require.True(t, ok)
		out[link.LinkIndex] = child
	}
	return out
}

// gatedStore resolves assets from a real server only once they are released.
type gatedStore struct {
	server   *assets.Server
	released map[assets.Handle]bool
}

func (g *gatedStore) Get(h assets.Handle) (*assets.RobotAsset, bool) {
	if !g.released[h] {
		return nil, false
	}
	return g.server.Get(h)
}

func (g *gatedStore) State(h assets.Handle) assets.LoadState {
	return g.server.State(h)
}

// countingSpawner records instantiation calls.
type countingSpawner struct {
	inner Instantiator
	calls []assets.Handle
	dirs  []string
}

func (c *countingSpawner) Spawn(asset *assets.RobotAsset, h assets.Handle, meshDir string) (render.EntityID, error) {
	c.calls = append(c.calls, h)
	c.dirs = append(c.dirs, meshDir)
	return c.inner.Spawn(asset, h, meshDir)
}

func writeRobot(t *testing.T, dir, name, xml string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(xml), 0644))
}
