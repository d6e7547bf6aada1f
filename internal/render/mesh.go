package render

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/pkg/formats"
	"github.com/Faultbox/urdfsim/pkg/math"
)

// Vertex is a mesh vertex with position and normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() math.Vec3 {
	return math.Vec3{X: b.Max[0] - b.Min[0], Y: b.Max[1] - b.Min[1], Z: b.Max[2] - b.Min[2]}
}

// MeshKind tells how a mesh was made.
type MeshKind int

const (
	MeshCuboid MeshKind = iota
	MeshSphere
	MeshFile
)

// Mesh holds triangle data ready for GPU upload.
type Mesh struct {
	Kind MeshKind
	// Size is the full extent of a cuboid.
	Size math.Vec3
	// Radius of a sphere.
	Radius float32
	// Path of a file mesh.
	Path string
	// Ready is false while a file mesh is still loading or failed to load;
	// such meshes have no vertices and draw nothing.
	Ready bool

	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Cuboid builds a box of the given full size centered at the origin.
func Cuboid(x, y, z float32) *Mesh {
	hx, hy, hz := x/2, y/2, z/2
	faces := []struct {
		normal [3]float32
		quad   [4][3]float32
	}{
		{[3]float32{1, 0, 0}, [4][3]float32{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{hx, hy, -hz}, {-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{hx, -hy, hz}, {-hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}}},
		{[3]float32{0, 0, 1}, [4][3]float32{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{-hx, hy, -hz}, {hx, hy, -hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}}},
	}

	m := &Mesh{Kind: MeshCuboid, Size: math.Vec3{X: x, Y: y, Z: z}, Ready: true}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, p := range f.quad {
			m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: f.normal})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m.Bounds = Bounds{Min: [3]float32{-hx, -hy, -hz}, Max: [3]float32{hx, hy, hz}}
	return m
}

const (
	sphereSectors = 32
	sphereStacks  = 16
)

// SphereMesh builds a UV sphere centered at the origin.
func SphereMesh(radius float32) *Mesh {
	m := &Mesh{Kind: MeshSphere, Radius: radius, Ready: true}
	for i := 0; i <= sphereStacks; i++ {
		phi := gomath.Pi * float64(i) / sphereStacks
		for j := 0; j <= sphereSectors; j++ {
			theta := 2 * gomath.Pi * float64(j) / sphereSectors
			n := [3]float32{
				float32(gomath.Sin(phi) * gomath.Cos(theta)),
				float32(gomath.Cos(phi)),
				float32(gomath.Sin(phi) * gomath.Sin(theta)),
			}
			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32{n[0] * radius, n[1] * radius, n[2] * radius},
				Normal:   n,
			})
		}
	}
	for i := 0; i < sphereStacks; i++ {
		for j := 0; j < sphereSectors; j++ {
			a := uint32(i*(sphereSectors+1) + j)
			b := a + sphereSectors + 1
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	m.Bounds = Bounds{Min: [3]float32{-radius, -radius, -radius}, Max: [3]float32{radius, radius, radius}}
	return m
}

// fillFromSTL replaces the triangle data of m with the facets of stl.
// Degenerate triangles are skipped; facet normals are recomputed.
func (m *Mesh) fillFromSTL(stl *formats.STL) {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
	m.Bounds = Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}

	for _, tri := range stl.Triangles {
		v0 := math.Vec3{X: tri.Vertices[0][0], Y: tri.Vertices[0][1], Z: tri.Vertices[0][2]}
		v1 := math.Vec3{X: tri.Vertices[1][0], Y: tri.Vertices[1][1], Z: tri.Vertices[1][2]}
		v2 := math.Vec3{X: tri.Vertices[2][0], Y: tri.Vertices[2][1], Z: tri.Vertices[2][2]}
		normal := v1.Sub(v0).Cross(v2.Sub(v0))
		if normal.Length() < 1e-12 {
			continue
		}
		normal = normal.Normalize()

		base := uint32(len(m.Vertices))
		for _, v := range tri.Vertices {
			m.Vertices = append(m.Vertices, Vertex{Position: v, Normal: normal.Array()})
			for k := 0; k < 3; k++ {
				m.Bounds.Min[k] = min(m.Bounds.Min[k], v[k])
				m.Bounds.Max[k] = max(m.Bounds.Max[k], v[k])
			}
		}
		m.Indices = append(m.Indices, base, base+1, base+2)
	}
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
	}
	m.Ready = true
}

// MeshHandle references a mesh in a Meshes store. The zero handle is invalid.
type MeshHandle struct {
	id uint32
}

// IsValid reports whether the handle was issued by a store.
func (h MeshHandle) IsValid() bool { return h.id != 0 }

// MeshSource loads mesh files in the background.
type MeshSource interface {
	LoadMesh(path string) assets.Handle
	GetMesh(h assets.Handle) (*formats.STL, bool)
	State(h assets.Handle) assets.LoadState
}

// Meshes stores meshes by handle. File meshes are placeholders until Poll
// observes that their source has finished loading. Not safe for concurrent use.
type Meshes struct {
	source  MeshSource
	meshes  []*Mesh
	byPath  map[string]MeshHandle
	pending map[MeshHandle]assets.Handle
	log     *zap.Logger
}

// NewMeshes creates a mesh store. source may be nil, in which case file
// meshes stay placeholders forever.
func NewMeshes(source MeshSource) *Meshes {
	return &Meshes{
		source:  source,
		byPath:  make(map[string]MeshHandle),
		pending: make(map[MeshHandle]assets.Handle),
		log:     logger.Named("render"),
	}
}

// Add stores a mesh and returns its handle.
func (m *Meshes) Add(mesh *Mesh) MeshHandle {
	m.meshes = append(m.meshes, mesh)
	return MeshHandle{id: uint32(len(m.meshes))}
}

// Get returns the mesh for a handle.
func (m *Meshes) Get(h MeshHandle) (*Mesh, bool) {
	if h.id == 0 || int(h.id) > len(m.meshes) {
		return nil, false
	}
	return m.meshes[h.id-1], true
}

// Len returns the number of stored meshes.
func (m *Meshes) Len() int {
	return len(m.meshes)
}

// Load returns a handle to the mesh file at path. The mesh is a placeholder
// until it has loaded. Repeated calls with the same path share a handle.
func (m *Meshes) Load(path string) MeshHandle {
	if h, ok := m.byPath[path]; ok {
		return h
	}
	h := m.Add(&Mesh{Kind: MeshFile, Path: path})
	m.byPath[path] = h
	if m.source != nil {
		m.pending[h] = m.source.LoadMesh(path)
	}
	return h
}

// Poll moves finished file meshes out of the placeholder state. It returns
// the number of meshes that became ready.
func (m *Meshes) Poll() int {
	ready := 0
	for h, ah := range m.pending {
		switch m.source.State(ah) {
		case assets.StateLoaded:
			stl, ok := m.source.GetMesh(ah)
			if !ok {
				continue
			}
			mesh, _ := m.Get(h)
			mesh.fillFromSTL(stl)
			delete(m.pending, h)
			ready++
		case assets.StateFailed:
			mesh, _ := m.Get(h)
			m.log.Warn("mesh unavailable, keeping placeholder", zap.String("path", mesh.Path))
			delete(m.pending, h)
		}
	}
	return ready
}
