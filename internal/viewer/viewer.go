// Package viewer runs the interactive window: input, fixed-step simulation
// ticks and scene rendering.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/urdfsim/internal/engine/camera"
	"github.com/Faultbox/urdfsim/internal/engine/debug"
	"github.com/Faultbox/urdfsim/internal/engine/input"
	"github.com/Faultbox/urdfsim/internal/engine/renderer"
	"github.com/Faultbox/urdfsim/internal/engine/window"
	"github.com/Faultbox/urdfsim/internal/logger"
	"github.com/Faultbox/urdfsim/internal/sim"
)

// maxStepsPerFrame bounds catch-up ticks after a stall.
const maxStepsPerFrame = 8

// Config holds viewer configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	// ScreenshotDir receives F12 captures.
	ScreenshotDir string
}

// Viewer is the interactive front end of a simulation.
type Viewer struct {
	config Config
	log    *zap.Logger
	app    *sim.App

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	shots    *debug.Screenshots

	running    bool
	paused     bool
	fitted     bool
	screenshot bool
}

// New opens a window and prepares to draw app's scene.
func New(cfg Config, app *sim.App) (*Viewer, error) {
	v := &Viewer{
		config: cfg,
		log:    logger.Named("viewer"),
		app:    app,
		camera: camera.NewOrbitCamera(),
		shots:  debug.NewScreenshots(cfg.ScreenshotDir, "urdfview"),
	}
	v.log.Info("initializing viewer",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
		Samples:    4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the GL context the window created.
	width, height := v.window.Size()
	v.renderer, err = renderer.New(renderer.Config{Width: width, Height: height})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.input = input.New()

	v.log.Info("viewer initialized")
	return v, nil
}

// Run drives the frame loop until the window closes or ctx is cancelled.
// The simulation ticks at its own fixed rate, independent of the frame rate.
func (v *Viewer) Run(ctx context.Context) error {
	v.running = true

	v.app.StartWatch(ctx)

	period := v.app.TickDuration()
	dt := float32(period.Seconds())
	var accumulator time.Duration

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	v.log.Info("starting frame loop", zap.Duration("tickPeriod", period))

	for v.running {
		if ctx.Err() != nil {
			break
		}

		now := time.Now()
		frame := now.Sub(lastTime)
		lastTime = now

		if v.input.Update() {
			break
		}
		v.handleInput()

		if !v.paused {
			accumulator += frame
			steps := 0
			for accumulator >= period && steps < maxStepsPerFrame {
				v.app.Tick(dt)
				accumulator -= period
				steps++
			}
			if steps == maxStepsPerFrame {
				accumulator = 0
			}
		}

		if !v.fitted {
			if lo, hi, ok := v.app.Scene.Bounds(v.app.Meshes); ok {
				v.camera.FitToBounds(lo, hi)
				v.fitted = true
			}
		}

		v.render()
		if v.screenshot {
			v.capture()
			v.screenshot = false
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(fmt.Sprintf("%s - %d fps, %d ticks", v.config.Title, frameCount, v.app.Ticks()))
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("frame", frame))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleInput() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := v.window.Size()
			v.renderer.Resize(width, height)
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_SPACE:
				v.paused = !v.paused
				v.log.Info("simulation paused", zap.Bool("paused", v.paused))
			case sdl.SCANCODE_F:
				v.fitted = false
			case sdl.SCANCODE_F12:
				v.screenshot = true
			case sdl.SCANCODE_PERIOD:
				if v.paused {
					v.app.Tick(float32(v.app.TickDuration().Seconds()))
				}
			}
		case input.EventMouseMove:
			if v.input.IsButtonHeld(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(event.DeltaX, event.DeltaY)
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(event.DeltaY)
		}
	}

	var forward, right, up float32
	if v.input.IsKeyHeld(sdl.SCANCODE_W) {
		forward++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_S) {
		forward--
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_D) {
		right++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_A) {
		right--
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_E) {
		up++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_Q) {
		up--
	}
	if forward != 0 || right != 0 || up != 0 {
		v.camera.HandleMovement(forward, right, up)
	}
}

func (v *Viewer) render() {
	v.renderer.Begin()
	v.renderer.DrawScene(
		v.app.Scene,
		v.app.Meshes,
		v.app.Materials,
		v.camera.ViewMatrix(),
		v.camera.ProjectionMatrix(v.renderer.Aspect()),
	)
	v.renderer.End()
}

// capture saves the frame just drawn.
func (v *Viewer) capture() {
	pixels, width, height := v.renderer.ReadPixels()
	path, err := v.shots.Save(pixels, width, height)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the renderer and window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
