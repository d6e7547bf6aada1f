package robot

import (
	"fmt"

	"github.com/Faultbox/urdfsim/internal/assets"
)

// Event is one of LoadRobot, RobotLoaded, SpawnRobot or WaitRobotLoaded.
type Event interface {
	event()
	fmt.Stringer
}

// LoadRobot requests loading and spawning the robot described at URDFPath.
// MeshDir resolves mesh references inside the description.
type LoadRobot struct {
	URDFPath string
	MeshDir  string
}

// RobotLoaded reports that a load was issued. The handle may not resolve yet.
// MeshDir is the renderer-side mesh directory.
type RobotLoaded struct {
	Handle  assets.Handle
	MeshDir string
}

// SpawnRobot asks for the robot behind Handle to be instantiated.
type SpawnRobot struct {
	Handle  assets.Handle
	MeshDir string
}

// WaitRobotLoaded defers a spawn attempt to the next tick.
type WaitRobotLoaded struct {
	Handle  assets.Handle
	MeshDir string
}

func (LoadRobot) event()       {}
func (RobotLoaded) event()     {}
func (SpawnRobot) event()      {}
func (WaitRobotLoaded) event() {}

func (e LoadRobot) String() string {
	return fmt.Sprintf("LoadRobot(%s, mesh_dir=%s)", e.URDFPath, e.MeshDir)
}

func (e RobotLoaded) String() string {
	return fmt.Sprintf("RobotLoaded(%s, mesh_dir=%s)", e.Handle, e.MeshDir)
}

func (e SpawnRobot) String() string {
	return fmt.Sprintf("SpawnRobot(%s, mesh_dir=%s)", e.Handle, e.MeshDir)
}

func (e WaitRobotLoaded) String() string {
	return fmt.Sprintf("WaitRobotLoaded(%s, mesh_dir=%s)", e.Handle, e.MeshDir)
}
