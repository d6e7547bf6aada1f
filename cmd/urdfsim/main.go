// Package main runs robots headless for a number of ticks and logs where
// their links ended up.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/config"
	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/internal/render"
	"github.com/Faultbox/urdfsim/internal/robot"
	"github.com/Faultbox/urdfsim/internal/sim"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== URDF Sim ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if len(cfg.Robots) == 0 {
		logger.Warn("no robots configured, pass -urdf or list robots in the config file")
	}

	app, err := sim.New(sim.FromConfig(cfg))
	if err != nil {
		logger.Error("failed to create simulation", zap.Error(err))
		os.Exit(1)
	}
	defer app.Close()

	app.Pipeline.Subscribe(func(ev robot.Event) {
		logger.Debug("robot event", zap.Stringer("event", ev))
	})
	app.LoadConfigured(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg.Simulation.Ticks); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("simulation error", zap.Error(err))
		os.Exit(1)
	}

	report(app)
	logger.Info("simulation finished normally")
}

// report logs the final transform of every link entity.
func report(app *sim.App) {
	render.Query(app.Scene, func(e *render.Entity, inst robot.Instance) {
		logger.Info("robot",
			zap.String("name", inst.Name),
			zap.Stringer("entity", e.ID),
			zap.Stringer("handle", inst.Handle),
			zap.Int("links", len(e.Children())),
		)
	})
	render.Query(app.Scene, func(e *render.Entity, link robot.BodyLink) {
		t := e.Transform
		pos := t.Translation.Array()
		logger.Info("link",
			zap.String("name", e.Name),
			zap.Int("index", link.LinkIndex),
			zap.Float32s("translation", pos[:]),
			zap.Float32s("rotation", []float32{t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W}),
		)
	})
}
