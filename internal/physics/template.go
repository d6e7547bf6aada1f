package physics

import (
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/urdfsim/pkg/formats"
	"github.com/Faultbox/urdfsim/pkg/math"
	"github.com/Faultbox/urdfsim/pkg/urdf"
)

// Template errors.
var (
	ErrNotATree        = errors.New("physics: joints do not form a tree")
	ErrJointOutOfRange = errors.New("physics: joint references a link out of range")
	ErrUnknownJoint    = errors.New("physics: unsupported joint type")
)

// BodyTemplate describes a body to create.
type BodyTemplate struct {
	Type              BodyType
	Position          Isometry // world pose at rest
	Mass              float32
	LocalCenterOfMass math.Vec3
}

// ColliderTemplate describes a collider to attach to a body.
type ColliderTemplate struct {
	Name     string
	Shape    Shape
	Position Isometry // relative to the body
}

// LinkTemplate is one link of a multibody template.
type LinkTemplate struct {
	Name      string
	Body      BodyTemplate
	Colliders []ColliderTemplate
}

// JointTemplate connects two links of a template by index.
type JointTemplate struct {
	Name   string
	Kind   JointKind
	Parent int
	Child  int
	Origin Isometry // child frame relative to parent frame at rest
	Axis   math.Vec3
	Lower  float32
	Upper  float32
}

// Template is a physics-ready robot: bodies, colliders and joints that have not
// been inserted into an engine yet. Link i corresponds to link i of the
// description it was built from.
type Template struct {
	Name   string
	Links  []LinkTemplate
	Joints []JointTemplate

	// Warnings collects non-fatal problems, such as unreadable collision meshes.
	Warnings []string
}

// TemplateOptions controls how a description is converted.
type TemplateOptions struct {
	// MeshDir is the base directory for mesh collision shapes.
	MeshDir string
	// FixedRoots makes root links fixed bodies instead of dynamic ones.
	FixedRoots bool
	// ReadFile reads mesh files. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// FromURDF builds a physics template from a parsed robot description.
func FromURDF(robot *urdf.Robot, opts TemplateOptions) (*Template, error) {
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}

	t := &Template{
		Name:  robot.Name,
		Links: make([]LinkTemplate, len(robot.Links)),
	}

	for _, j := range robot.Joints {
		kind, err := jointKind(j.Type)
		if err != nil {
			return nil, fmt.Errorf("joint %q: %w", j.Name, err)
		}
		axis := math.Vec3{X: float32(j.Axis[0]), Y: float32(j.Axis[1]), Z: float32(j.Axis[2])}.Normalize()
		if axis == (math.Vec3{}) {
			axis = math.Vec3{X: 1}
		}
		t.Joints = append(t.Joints, JointTemplate{
			Name:   j.Name,
			Kind:   kind,
			Parent: robot.LinkIndex(j.Parent),
			Child:  robot.LinkIndex(j.Child),
			Origin: poseToIsometry(j.Origin),
			Axis:   axis,
			Lower:  float32(j.Limit.Lower),
			Upper:  float32(j.Limit.Upper),
		})
	}

	order, parents, err := treeOrder(len(t.Links), t.Joints)
	if err != nil {
		return nil, err
	}

	for i, link := range robot.Links {
		lt := &t.Links[i]
		lt.Name = link.Name
		lt.Body.Mass = float32(link.Inertial.Mass)
		lt.Body.LocalCenterOfMass = link.Inertial.Origin.Translation()
		lt.Body.Type = BodyDynamic
		if parents[i] < 0 && opts.FixedRoots {
			lt.Body.Type = BodyFixed
		}

		for ci, col := range link.Collision {
			shape, err := collisionShape(col.Geometry, opts)
			if err != nil {
				t.Warnings = append(t.Warnings, fmt.Sprintf("link %q collision %d: %v", link.Name, ci, err))
				continue
			}
			lt.Colliders = append(lt.Colliders, ColliderTemplate{
				Name:     col.Name,
				Shape:    shape,
				Position: poseToIsometry(col.Origin),
			})
		}
	}

	// Rest poses: roots at the origin, children at parent * joint origin.
	for _, i := range order {
		p := parents[i]
		if p < 0 {
			t.Links[i].Body.Position = IsometryIdentity()
			continue
		}
		j := t.Joints[jointOf(t.Joints, i)]
		t.Links[i].Body.Position = t.Links[j.Parent].Body.Position.Mul(j.Origin)
	}

	return t, nil
}

func poseToIsometry(p urdf.Pose) Isometry {
	return Isometry{Translation: p.Translation(), Rotation: p.Rotation()}
}

func jointKind(t urdf.JointType) (JointKind, error) {
	switch t {
	case urdf.JointFixed:
		return JointFixed, nil
	case urdf.JointRevolute:
		return JointRevolute, nil
	case urdf.JointContinuous:
		return JointContinuous, nil
	case urdf.JointPrismatic:
		return JointPrismatic, nil
	case urdf.JointFloating:
		return JointFloating, nil
	case urdf.JointPlanar:
		return JointPlanar, nil
	case urdf.JointSpherical:
		return JointSpherical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownJoint, t)
	}
}

func collisionShape(g urdf.Geometry, opts TemplateOptions) (Shape, error) {
	switch g := g.(type) {
	case *urdf.Box:
		return &Cuboid{HalfExtents: math.Vec3{
			X: float32(g.Size[0] / 2),
			Y: float32(g.Size[1] / 2),
			Z: float32(g.Size[2] / 2),
		}}, nil
	case *urdf.Sphere:
		return &Ball{Radius: float32(g.Radius)}, nil
	case *urdf.Cylinder:
		return &Cylinder{HalfHeight: float32(g.Length / 2), Radius: float32(g.Radius)}, nil
	case *urdf.Capsule:
		return &Capsule{HalfHeight: float32(g.Length / 2), Radius: float32(g.Radius)}, nil
	case *urdf.Mesh:
		path := urdf.ResolveMeshPath(opts.MeshDir, g.Filename)
		data, err := opts.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading mesh %s: %w", path, err)
		}
		stl, err := formats.ParseSTL(data)
		if err != nil {
			return nil, fmt.Errorf("parsing mesh %s: %w", path, err)
		}
		scale := math.Vec3{X: 1, Y: 1, Z: 1}
		if g.Scale != nil {
			scale = math.Vec3{X: float32(g.Scale[0]), Y: float32(g.Scale[1]), Z: float32(g.Scale[2])}
		}
		return TriMeshFromSTL(stl, scale), nil
	default:
		return nil, fmt.Errorf("unsupported collision geometry %T", g)
	}
}

// TriMeshFromSTL converts STL facets into a scaled triangle mesh.
func TriMeshFromSTL(stl *formats.STL, scale math.Vec3) *TriMesh {
	mesh := &TriMesh{
		Vertices: make([]math.Vec3, 0, len(stl.Triangles)*3),
		Indices:  make([][3]uint32, 0, len(stl.Triangles)),
	}
	for _, tri := range stl.Triangles {
		base := uint32(len(mesh.Vertices))
		for _, v := range tri.Vertices {
			mesh.Vertices = append(mesh.Vertices, math.Vec3{X: v[0], Y: v[1], Z: v[2]}.Mul(scale))
		}
		mesh.Indices = append(mesh.Indices, [3]uint32{base, base + 1, base + 2})
	}
	return mesh
}

// treeOrder validates that joints form a forest over n links and returns the
// links ordered parents-first together with each link's parent (-1 for roots).
func treeOrder(n int, joints []JointTemplate) ([]int, []int, error) {
	parents := make([]int, n)
	for i := range parents {
		parents[i] = -1
	}
	children := make([][]int, n)
	for _, j := range joints {
		if j.Parent < 0 || j.Parent >= n || j.Child < 0 || j.Child >= n {
			return nil, nil, fmt.Errorf("%w: %s", ErrJointOutOfRange, j.Name)
		}
		if parents[j.Child] >= 0 || j.Parent == j.Child {
			return nil, nil, fmt.Errorf("%w: link %d has more than one parent", ErrNotATree, j.Child)
		}
		parents[j.Child] = j.Parent
		children[j.Parent] = append(children[j.Parent], j.Child)
	}

	order := make([]int, 0, n)
	var visit func(int)
	visit = func(i int) {
		order = append(order, i)
		for _, c := range children[i] {
			visit(c)
		}
	}
	for i := 0; i < n; i++ {
		if parents[i] < 0 {
			visit(i)
		}
	}
	// Links on a cycle are never reached from a root.
	if len(order) != n {
		return nil, nil, fmt.Errorf("%w: cycle detected", ErrNotATree)
	}
	return order, parents, nil
}

// jointOf returns the index of the joint whose child is link, or -1.
func jointOf(joints []JointTemplate, link int) int {
	for i := range joints {
		if joints[i].Child == link {
			return i
		}
	}
	return -1
}
