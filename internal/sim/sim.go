// Package sim runs the fixed-step simulation loop: robot spawning, physics
// stepping and scene synchronisation against a single physics engine.
package sim

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/assets"
	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/internal/physics"
	"github.com/Faultbox/urdfsim/internal/render"
	"github.com/Faultbox/urdfsim/internal/robot"
	"github.com/Faultbox/urdfsim/pkg/math"
)

// ErrMultipleEngines is returned when more than one physics engine is given.
var ErrMultipleEngines = errors.New("sim: exactly one physics engine is supported")

// Config holds simulation settings.
type Config struct {
	TickRate            float64 // Hz
	DisableSelfContacts bool
	MaxSpawnAttempts    int
	FixedRoots          bool
	Gravity             math.Vec3

	DescriptionRoot string // base for robot description paths
	MeshRoot        string // base for visual mesh paths
	Watch           bool   // reload descriptions on change
}

// App owns everything a running simulation needs.
type App struct {
	config Config
	log    *zap.Logger

	Engine    *physics.Engine
	Assets    *assets.Server
	Scene     *render.Scene
	Meshes    *render.Meshes
	Materials *render.Materials
	Pipeline  *robot.Pipeline

	ticks uint64
}

// New creates an application. A fresh engine is created unless one is passed.
func New(cfg Config, engines ...*physics.Engine) (*App, error) {
	if len(engines) > 1 {
		return nil, ErrMultipleEngines
	}
	engine := physics.NewEngine()
	if len(engines) == 1 && engines[0] != nil {
		engine = engines[0]
	}
	engine.Gravity = cfg.Gravity

	a := &App{
		config:    cfg,
		log:       logger.Named("sim"),
		Engine:    engine,
		Scene:     render.NewScene(),
		Materials: &render.Materials{},
	}
	a.Assets = assets.NewServer(assets.Options{
		Root:       cfg.DescriptionRoot,
		MeshRoot:   cfg.MeshRoot,
		FixedRoots: cfg.FixedRoots,
	})
	a.Meshes = render.NewMeshes(a.Assets)

	spawner := robot.NewSpawner(engine, a.Scene, a.Meshes, a.Materials, robot.SpawnOptions{
		DisableSelfContacts: cfg.DisableSelfContacts,
	})
	a.Pipeline = robot.NewPipeline(a.Assets, a.Assets, spawner, robot.PipelineOptions{
		MaxSpawnAttempts: cfg.MaxSpawnAttempts,
	})

	a.log.Info("simulation initialized",
		zap.Uint32("engine", engine.ID()),
		zap.Float64("tickRate", cfg.TickRate),
		zap.Bool("disableSelfContacts", cfg.DisableSelfContacts),
		zap.Int("maxSpawnAttempts", cfg.MaxSpawnAttempts))
	return a, nil
}

// Load requests a robot. It is spawned by a later Tick once its description
// has loaded.
func (a *App) Load(urdfPath, meshDir string) {
	a.Pipeline.Send(robot.LoadRobot{URDFPath: urdfPath, MeshDir: meshDir})
}

// Tick advances the simulation by dt seconds: spawn handling, physics step,
// then scene sync.
func (a *App) Tick(dt float32) {
	a.Pipeline.Update()
	a.Meshes.Poll()
	a.Engine.Step(dt)
	robot.SyncGeometry(a.Engine, a.Scene)
	a.ticks++
}

// Ticks returns the number of ticks run so far.
func (a *App) Ticks() uint64 {
	return a.ticks
}

// TickDuration returns the wall-clock period of one tick.
func (a *App) TickDuration() time.Duration {
	return time.Duration(float64(time.Second) / a.config.TickRate)
}

// StartWatch reloads robot descriptions on change until ctx is cancelled.
// It does nothing unless watching is enabled.
func (a *App) StartWatch(ctx context.Context) {
	if !a.config.Watch {
		return
	}
	go func() {
		if err := a.Assets.Watch(ctx); err != nil {
			a.log.Warn("asset watcher stopped", zap.Error(err))
		}
	}()
}

// Run ticks at the configured rate until ctx is cancelled or, when ticks is
// positive, that many ticks have run.
func (a *App) Run(ctx context.Context, ticks int) error {
	a.StartWatch(ctx)

	period := a.TickDuration()
	dt := float32(period.Seconds())
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	a.log.Info("starting simulation loop", zap.Duration("period", period), zap.Int("ticks", ticks))

	for n := 0; ticks <= 0 || n < ticks; n++ {
		select {
		case <-ctx.Done():
			a.log.Info("simulation stopped", zap.Uint64("ticks", a.ticks))
			return ctx.Err()
		case <-ticker.C:
			a.Tick(dt)
		}
	}

	a.log.Info("simulation finished", zap.Uint64("ticks", a.ticks))
	return nil
}

// Close waits for background asset loads to finish.
func (a *App) Close() {
	a.log.Info("closing simulation")
	a.Assets.Wait()
}
