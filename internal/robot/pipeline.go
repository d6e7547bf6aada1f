package robot

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/internal/render"
)

// State is the progress of one robot through the pipeline.
type State int

const (
	StateUnknown State = iota
	// StateRequested: a spawn was requested but not attempted yet.
	StateRequested
	// StateLoading: the load was issued.
	StateLoading
	// StatePending: a spawn attempt found the asset unresolved; it is retried next tick.
	StatePending
	// StateReady: the robot was instantiated.
	StateReady
	// StateFailed: the robot will not be instantiated.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateRequested:
		return "Requested"
	case StateLoading:
		return "Loading"
	case StatePending:
		return "Pending"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status describes one robot tracked by a Pipeline.
type Status struct {
	State    State
	Attempts int             // unresolved spawn attempts so far
	Entity   render.EntityID // root entity once Ready
	Err      error           // cause once Failed
}

// Instantiator creates a robot from a loaded asset.
type Instantiator interface {
	Spawn(asset *assets.RobotAsset, handle assets.Handle, meshDir string) (render.EntityID, error)
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// MaxSpawnAttempts bounds how many ticks a spawn waits for its asset.
	// Zero waits forever.
	MaxSpawnAttempts int
}

type tracked struct {
	status  Status
	waiting bool // a WaitRobotLoaded is queued for the next tick
}

// Pipeline drives robots from load request to instantiation. Events sent
// with Send are handled on the next Update. Not safe for concurrent use.
type Pipeline struct {
	loader  Loader
	store   Store
	spawner Instantiator
	opts    PipelineOptions
	log     *zap.Logger

	queue       []Event
	robots      map[assets.Handle]*tracked
	subscribers []func(Event)
}

// NewPipeline creates a pipeline.
func NewPipeline(loader Loader, store Store, spawner Instantiator, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		loader:  loader,
		store:   store,
		spawner: spawner,
		opts:    opts,
		log:     logger.Named("robot"),
		robots:  make(map[assets.Handle]*tracked),
	}
}

// Send queues an event for the next Update. Callers normally only send LoadRobot.
func (p *Pipeline) Send(ev Event) {
	p.queue = append(p.queue, ev)
}

// Subscribe registers fn to observe every event the pipeline handles, in order.
func (p *Pipeline) Subscribe(fn func(Event)) {
	p.subscribers = append(p.subscribers, fn)
}

// Status reports the progress of the robot behind a handle.
func (p *Pipeline) Status(h assets.Handle) Status {
	if r, ok := p.robots[h]; ok {
		return r.status
	}
	return Status{}
}

// Pending returns the number of robots not yet Ready or Failed.
func (p *Pipeline) Pending() int {
	n := 0
	for _, r := range p.robots {
		if r.status.State != StateReady && r.status.State != StateFailed {
			n++
		}
	}
	return n
}

// Update handles queued events. Events produced while handling are processed
// in the same call, except WaitRobotLoaded which is deferred to the next one.
func (p *Pipeline) Update() {
	queue := p.queue
	p.queue = nil

	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]
		p.notify(ev)

		switch ev := ev.(type) {
		case LoadRobot:
			queue = append(queue, p.load(ev))
		case RobotLoaded:
			queue = append(queue, SpawnRobot(ev))
		case SpawnRobot:
			if wait, ok := p.spawn(ev); ok {
				p.queue = append(p.queue, wait)
			}
		case WaitRobotLoaded:
			if r, ok := p.robots[ev.Handle]; ok {
				r.waiting = false
			}
			queue = append(queue, SpawnRobot(ev))
		}
	}
}

func (p *Pipeline) notify(ev Event) {
	for _, fn := range p.subscribers {
		fn(ev)
	}
}

// load issues an asynchronous load and returns the RobotLoaded event for it.
// The loader sees MeshDir as given; the renderer side resolves meshes relative
// to its asset root, so "assets/" is removed from the forwarded directory.
func (p *Pipeline) load(ev LoadRobot) RobotLoaded {
	h := p.loader.Load(ev.URDFPath, assets.Settings{MeshDir: ev.MeshDir})
	p.robots[h] = &tracked{status: Status{State: StateLoading}}

	p.log.Debug("robot load issued", zap.String("path", ev.URDFPath), zap.Stringer("handle", h))
	return RobotLoaded{Handle: h, MeshDir: strings.ReplaceAll(ev.MeshDir, "assets/", "")}
}

// spawn attempts instantiation. It returns a WaitRobotLoaded event when the
// attempt must be retried next tick.
func (p *Pipeline) spawn(ev SpawnRobot) (WaitRobotLoaded, bool) {
	r, ok := p.robots[ev.Handle]
	if !ok {
		r = &tracked{status: Status{State: StateRequested}}
		p.robots[ev.Handle] = r
	}

	switch r.status.State {
	case StateReady, StateFailed:
		return WaitRobotLoaded{}, false
	}

	if p.store.State(ev.Handle) == assets.StateFailed {
		p.fail(ev.Handle, r, ErrAssetFailed)
		return WaitRobotLoaded{}, false
	}

	asset, ok := p.store.Get(ev.Handle)
	if !ok {
		r.status.Attempts++
		if p.opts.MaxSpawnAttempts > 0 && r.status.Attempts >= p.opts.MaxSpawnAttempts {
			p.fail(ev.Handle, r, fmt.Errorf("%w: %d attempts", ErrSpawnTimeout, r.status.Attempts))
			return WaitRobotLoaded{}, false
		}
		r.status.State = StatePending
		if r.waiting {
			return WaitRobotLoaded{}, false
		}
		r.waiting = true
		return WaitRobotLoaded(ev), true
	}

	entity, err := p.spawner.Spawn(asset, ev.Handle, ev.MeshDir)
	if err != nil {
		p.fail(ev.Handle, r, err)
		return WaitRobotLoaded{}, false
	}
	r.status.State = StateReady
	r.status.Entity = entity
	return WaitRobotLoaded{}, false
}

func (p *Pipeline) fail(h assets.Handle, r *tracked, err error) {
	r.status.State = StateFailed
	r.status.Err = err
	p.log.Error("robot spawn failed", zap.Stringer("handle", h), zap.Error(err))
}
