package robot

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/internal/render"
	"github.com/Faultbox/urdfsim/pkg/math"
	"github.com/Faultbox/urdfsim/pkg/urdf"
)

// RootName is the name of every robot root entity.
const RootName = "URDF Robot"

// linkColor is the flat color shared by all link entities.
var linkColor = render.SRGB(0.3, 0.4, 0.3)

// SpawnOptions configures a Spawner.
type SpawnOptions struct {
	// DisableSelfContacts filters contacts between links of the same robot.
	DisableSelfContacts bool
}

// Spawner instantiates loaded robots into one physics context and one scene.
type Spawner struct {
	physics   Physics
	scene     *render.Scene
	meshes    MeshLoader
	materials *render.Materials
	opts      SpawnOptions
	log       *zap.Logger

	material render.MaterialHandle
}

// NewSpawner creates a spawner.
func NewSpawner(p Physics, scene *render.Scene, meshes MeshLoader, materials *render.Materials, opts SpawnOptions) *Spawner {
	return &Spawner{
		physics:   p,
		scene:     scene,
		meshes:    meshes,
		materials: materials,
		opts:      opts,
		log:       logger.Named("robot"),
	}
}

// visual is a resolved link visual, not yet backed by a mesh handle.
type visual struct {
	link  int
	mesh  *render.Mesh // primitive; nil for file meshes
	path  string       // file mesh path
	scale math.Vec3
}

// Spawn inserts the robot into the physics context and creates its entities:
// a root named RootName with one child per link that has visual geometry.
// Nothing is left behind when it fails.
func (s *Spawner) Spawn(asset *assets.RobotAsset, handle assets.Handle, meshDir string) (render.EntityID, error) {
	geoms, err := ExtractGeometry(asset)
	if err != nil {
		return 0, err
	}

	visuals := make([]visual, 0, len(geoms))
	for _, g := range geoms {
		if g.Geometry == nil {
			continue
		}
		v, err := resolveVisual(g.Geometry, meshDir)
		if err != nil {
			return 0, fmt.Errorf("link %q: %w", asset.Robot.Links[g.Index].Name, err)
		}
		v.link = g.Index
		visuals = append(visuals, v)
	}

	mb, err := s.physics.InsertMultibody(asset.Template, physics.MultibodyOptions{
		DisableSelfContacts: s.opts.DisableSelfContacts,
	})
	if err != nil {
		return 0, fmt.Errorf("inserting multibody: %w", err)
	}
	if len(mb.Links) != len(geoms) {
		s.physics.RemoveMultibody(mb)
		return 0, fmt.Errorf("%w: %d bodies for %d links", ErrShapeMismatch, len(mb.Links), len(geoms))
	}

	if !s.material.IsValid() {
		s.material = s.materials.Add(render.Material{BaseColor: linkColor})
	}

	root := s.scene.Spawn(RootName)
	root.Transform.Rotation = rootRotation
	root.Visibility = render.VisibilityVisible
	render.Insert(s.scene, root.ID, Instance{Handle: handle, Name: asset.Robot.Name, Multibody: mb})

	ctx := s.physics.ID()
	for _, v := range visuals {
		body := mb.Links[v.link].Body
		pose, _ := s.physics.Pose(body)

		child, _ := s.scene.SpawnChild(root.ID, asset.Robot.Links[v.link].Name)
		if v.mesh != nil {
			child.Mesh = s.meshes.Add(v.mesh)
		} else {
			child.Mesh = s.meshes.Load(v.path)
		}
		child.Material = s.material
		child.Transform = ToRenderer(pose)
		child.Transform.Scale = v.scale
		render.Insert(s.scene, child.ID, BodyLink{Body: body, Context: ctx, LinkIndex: v.link})
	}

	s.log.Info("robot spawned",
		zap.String("name", asset.Robot.Name),
		zap.Stringer("handle", handle),
		zap.Stringer("entity", root.ID),
		zap.Int("bodies", len(mb.Links)),
		zap.Int("entities", len(visuals)))

	return root.ID, nil
}

func resolveVisual(g urdf.Geometry, meshDir string) (visual, error) {
	one := math.Vec3{X: 1, Y: 1, Z: 1}
	switch g := g.(type) {
	case *urdf.Box:
		// Y and Z swap between the physics and renderer frames.
		x, y, z := float32(g.Size[0]), float32(g.Size[1]), float32(g.Size[2])
		return visual{mesh: render.Cuboid(x*2, z*2, y*2), scale: one}, nil
	case *urdf.Sphere:
		return visual{mesh: render.SphereMesh(float32(g.Radius)), scale: one}, nil
	case *urdf.Mesh:
		scale := one
		if g.Scale != nil {
			scale = math.Vec3{X: float32(g.Scale[0]), Y: float32(g.Scale[1]), Z: float32(g.Scale[2])}
		}
		return visual{path: urdf.ResolveMeshPath(meshDir, g.Filename), scale: scale}, nil
	case *urdf.Cylinder, *urdf.Capsule:
		return visual{}, fmt.Errorf("%w: %s", ErrGeometryNotImplemented, g)
	default:
		return visual{}, fmt.Errorf("%w: %T", ErrGeometryNotImplemented, g)
	}
}
