package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/pkg/math"
)

func TestCuboid(t *testing.T) {
	m := Cuboid(2, 6, 4)

	assert.Equal(t, MeshCuboid, m.Kind)
	assert.Equal(t, math.Vec3{X: 2, Y: 6, Z: 4}, m.Size)
	assert.Equal(t, math.Vec3{X: 2, Y: 6, Z: 4}, m.Bounds.Size())
	assert.Len(t, m.Vertices, 24)
	assert.Len(t, m.Indices, 36)
	assert.True(t, m.Ready)
}

func TestSphereMesh(t *testing.T) {
	m := SphereMesh(0.5)

	assert.Equal(t, MeshSphere, m.Kind)
	assert.Equal(t, float32(0.5), m.Radius)
	for _, v := range m.Vertices {
		p := math.Vec3{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
		assert.InDelta(t, 0.5, p.Length(), 1e-5)
	}
	assert.Equal(t, sphereStacks*sphereSectors*6, len(m.Indices))
}

const triangleSTL = "solid t\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nfacet normal 0 0 0\nouter loop\nvertex 0 0 0\nvertex 0 0 0\nvertex 0 0 0\nendloop\nendfacet\nendsolid t\n"

func TestMeshes_LoadAndPoll(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "robots", "meshes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "robots", "meshes", "base.stl"), []byte(triangleSTL), 0644))

	server := assets.NewServer(assets.Options{MeshRoot: root})
	meshes := NewMeshes(server)

	good := meshes.Load("robots/meshes/base.stl")
	assert.Equal(t, good, meshes.Load("robots/meshes/base.stl"))
	bad := meshes.Load("robots/meshes/missing.stl")
	assert.Equal(t, 2, meshes.Len())

	m, ok := meshes.Get(good)
	require.True(t, ok)
	assert.Equal(t, MeshFile, m.Kind)
	assert.Equal(t, "robots/meshes/base.stl", m.Path)

	server.Wait()
	assert.Equal(t, 1, meshes.Poll())

	m, _ = meshes.Get(good)
	assert.True(t, m.Ready)
	assert.Len(t, m.Vertices, 3, "degenerate facet is skipped")
	assert.Equal(t, [3]float32{0, 0, 1}, m.Vertices[0].Normal)
	assert.Equal(t, [3]float32{1, 1, 0}, m.Bounds.Max)

	m, _ = meshes.Get(bad)
	assert.False(t, m.Ready, "missing file stays a placeholder")
	assert.Empty(t, m.Vertices)

	assert.Equal(t, 0, meshes.Poll())
}

func TestMeshes_NoSource(t *testing.T) {
	meshes := NewMeshes(nil)
	h := meshes.Load("a.stl")
	assert.True(t, h.IsValid())
	assert.Equal(t, 0, meshes.Poll())

	_, ok := meshes.Get(MeshHandle{})
	assert.False(t, ok)
}

func TestMaterials(t *testing.T) {
	var mats Materials
	h := mats.Add(Material{BaseColor: SRGB(0.3, 0.4, 0.3)})

	mat, ok := mats.Get(h)
	require.True(t, ok)
	assert.InDelta(t, 0.0732, mat.BaseColor.R, 1e-3)
	assert.InDelta(t, 0.1329, mat.BaseColor.G, 1e-3)
	assert.Equal(t, float32(1), mat.BaseColor.A)

	_, ok = mats.Get(MaterialHandle{})
	assert.False(t, ok)
}
