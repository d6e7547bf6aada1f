// Package robot turns loaded robot descriptions into physics multibodies and
// renderer entities, and keeps the two in sync every tick.
//
// Requests flow through a Pipeline as events: LoadRobot issues an asynchronous
// load, RobotLoaded and SpawnRobot attempt instantiation, and WaitRobotLoaded
// defers an attempt to the next tick while the asset is still loading.
package robot

import (
	"errors"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/internal/render"
)

var (
	ErrShapeMismatch          = errors.New("robot: description and physics template disagree")
	ErrGeometryNotImplemented = errors.New("robot: geometry kind not implemented")
	ErrSpawnTimeout           = errors.New("robot: asset not loaded within spawn attempt limit")
	ErrAssetFailed            = errors.New("robot: asset failed to load")
)

// Loader starts asynchronous robot description loads.
type Loader interface {
	Load(path string, settings assets.Settings) assets.Handle
}

// Store resolves load handles.
type Store interface {
	Get(h assets.Handle) (*assets.RobotAsset, bool)
	State(h assets.Handle) assets.LoadState
}

// PoseSource reads body poses from one simulation context.
type PoseSource interface {
	ID() uint32
	Pose(h physics.BodyHandle) (physics.Isometry, bool)
}

// Physics is the simulation context robots are inserted into.
type Physics interface {
	PoseSource
	InsertMultibody(t *physics.Template, opts physics.MultibodyOptions) (physics.MultibodyHandles, error)
	RemoveMultibody(h physics.MultibodyHandles)
}

// MeshLoader provides visual meshes.
type MeshLoader interface {
	Add(mesh *render.Mesh) render.MeshHandle
	Load(path string) render.MeshHandle
}

// Instance marks the root entity of a spawned robot.
type Instance struct {
	Handle    assets.Handle
	Name      string
	Multibody physics.MultibodyHandles
}

// BodyLink ties a link entity to the physics body it mirrors. It is set once
// when the entity is created.
type BodyLink struct {
	Body      physics.BodyHandle
	Context   uint32 // ID of the simulation context owning Body
	LinkIndex int
}
