package robot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/render"
)

type pipelineFixture struct {
	world   *world
	server  *assets.Server
	store   *gatedStore
	spawner *countingSpawner
	p       *Pipeline
	events  []Event
}

func newPipelineFixture(t *testing.T, opts PipelineOptions) *pipelineFixture {
	t.Helper()
	root := t.TempDir()
	writeRobot(t, root, "assets/robots/r1.urdf", armURDF)

	f := &pipelineFixture{world: newWorld()}
	f.server = assets.NewServer(assets.Options{Root: root, FixedRoots: true})
	f.store = &gatedStore{server: f.server, released: make(map[assets.Handle]bool)}
	f.spawner = &countingSpawner{inner: f.world.spawner}
	f.p = NewPipeline(f.server, f.store, f.spawner, opts)
	f.p.Subscribe(func(ev Event) { f.events = append(f.events, ev) })
	return f
}

// loaded returns the handle from the first RobotLoaded event.
func (f *pipelineFixture) loaded(t *testing.T) RobotLoaded {
	t.Helper()
	for _, ev := range f.events {
		if rl, ok := ev.(RobotLoaded); ok {
			return rl
		}
	}
	t.Fatal("no RobotLoaded event")
	return RobotLoaded{}
}

func TestPipeline_StripsAssetsFromMeshDir(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{})
	f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf", MeshDir: "assets/robots/meshes"})
	f.p.Update()

	rl := f.loaded(t)
	assert.Equal(t, "robots/meshes", rl.MeshDir)
	assert.True(t, rl.Handle.IsValid())

	// The loader itself still sees the directory as given.
	f.server.Wait()
	asset, ok := f.server.Get(rl.Handle)
	require.True(t, ok)
	assert.Equal(t, "assets/robots/meshes", asset.Settings.MeshDir)
}

func TestPipeline_EventOrder(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{})
	f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf", MeshDir: "assets/robots/meshes"})
	f.p.Update()

	rl := f.loaded(t)
	require.Len(t, f.events, 3)
	assert.IsType(t, LoadRobot{}, f.events[0])
	assert.IsType(t, RobotLoaded{}, f.events[1])
	assert.Equal(t, SpawnRobot{Handle: rl.Handle, MeshDir: "robots/meshes"}, f.events[2])
	assert.Equal(t, StatePending, f.p.Status(rl.Handle).State)
	assert.Equal(t, 1, f.p.Pending())

	// The wait is handled on the next tick and turns into a new attempt.
	f.p.Update()
	require.Len(t, f.events, 5)
	assert.Equal(t, WaitRobotLoaded{Handle: rl.Handle, MeshDir: "robots/meshes"}, f.events[3])
	assert.Equal(t, SpawnRobot{Handle: rl.Handle, MeshDir: "robots/meshes"}, f.events[4])
	assert.Equal(t, 2, f.p.Status(rl.Handle).Attempts)
}

func TestPipeline_RetryIsIdempotent(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("waits=%d", n), func(t *testing.T) {
			f := newPipelineFixture(t, PipelineOptions{})
			f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf", MeshDir: "assets/robots/meshes"})
			f.p.Update()
			h := f.loaded(t).Handle

			for i := 0; i < n; i++ {
				f.p.Send(WaitRobotLoaded{Handle: h, MeshDir: "robots/meshes"})
			}
			for i := 0; i < 3; i++ {
				f.p.Update()
			}
			assert.Empty(t, f.spawner.calls, "nothing spawns before the asset resolves")

			f.server.Wait()
			f.store.released[h] = true
			for i := 0; i < 5; i++ {
				f.p.Update()
			}

			assert.Equal(t, []assets.Handle{h}, f.spawner.calls)
			assert.Equal(t, []string{"robots/meshes"}, f.spawner.dirs)
			assert.Equal(t, 3, f.world.engine.Bodies.Len())
			assert.Equal(t, 3, f.world.scene.Len())

			st := f.p.Status(h)
			assert.Equal(t, StateReady, st.State)
			assert.True(t, st.Entity != 0)
			assert.Equal(t, 0, f.p.Pending())

			// Late duplicates are ignored.
			f.p.Send(SpawnRobot{Handle: h})
			f.p.Send(WaitRobotLoaded{Handle: h})
			f.p.Update()
			f.p.Update()
			assert.Len(t, f.spawner.calls, 1)
		})
	}
}

func TestPipeline_OneWaitPerTick(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{})
	f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf"})
	f.p.Update()
	h := f.loaded(t).Handle

	// Several attempts in one tick still queue a single retry.
	for i := 0; i < 4; i++ {
		f.p.Send(SpawnRobot{Handle: h})
	}
	f.p.Update()
	f.events = nil
	f.p.Update()

	waits := 0
	for _, ev := range f.events {
		if _, ok := ev.(WaitRobotLoaded); ok {
			waits++
		}
	}
	assert.Equal(t, 1, waits)
}

func TestPipeline_EachLoadSpawnsOnce(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{})
	f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf"})
	f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf"})
	f.p.Update()
	f.server.Wait()
	for _, ev := range f.events {
		if rl, ok := ev.(RobotLoaded); ok {
			f.store.released[rl.Handle] = true
		}
	}
	f.p.Update()

	// Two load requests give two robots.
	assert.Len(t, f.spawner.calls, 2)
	assert.Equal(t, 6, f.world.engine.Bodies.Len())
}

func TestPipeline_FailedAsset(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{})
	f.p.Send(LoadRobot{URDFPath: "assets/robots/missing.urdf"})
	f.p.Update()
	h := f.loaded(t).Handle

	f.server.Wait()
	f.p.Update()

	st := f.p.Status(h)
	assert.Equal(t, StateFailed, st.State)
	assert.ErrorIs(t, st.Err, ErrAssetFailed)
	assert.Empty(t, f.spawner.calls)
	assert.Equal(t, 0, f.p.Pending())
}

func TestPipeline_MaxSpawnAttempts(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{MaxSpawnAttempts: 3})
	f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf"})

	for i := 0; i < 10; i++ {
		f.p.Update()
	}
	h := f.loaded(t).Handle

	st := f.p.Status(h)
	assert.Equal(t, StateFailed, st.State)
	assert.ErrorIs(t, st.Err, ErrSpawnTimeout)
	assert.Equal(t, 3, st.Attempts)
	assert.Empty(t, f.spawner.calls)
}

type failingSpawner struct{}

func (failingSpawner) Spawn(*assets.RobotAsset, assets.Handle, string) (render.EntityID, error) {
	return 0, ErrGeometryNotImplemented
}

func TestPipeline_SpawnErrorIsRecorded(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{})
	f.p = NewPipeline(f.server, f.server, failingSpawner{}, PipelineOptions{})
	f.p.Subscribe(func(ev Event) { f.events = append(f.events, ev) })

	f.p.Send(LoadRobot{URDFPath: "assets/robots/r1.urdf"})
	f.p.Update()
	h := f.loaded(t).Handle
	f.server.Wait()
	f.p.Update()

	st := f.p.Status(h)
	assert.Equal(t, StateFailed, st.State)
	assert.True(t, errors.Is(st.Err, ErrGeometryNotImplemented))
}

func TestPipeline_UnknownHandle(t *testing.T) {
	f := newPipelineFixture(t, PipelineOptions{})
	assert.Equal(t, Status{}, f.p.Status(assets.Handle{}))
	assert.Equal(t, "Unknown", f.p.Status(assets.Handle{}).State.String())
}
