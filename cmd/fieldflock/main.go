// SPDX-License-Identifier: Unlicense OR MIT

// Command fieldflock runs the boid-flocking simulation: a GLFW window
// backed by WebGPU compute/render passes, or a headless CPU fallback
// when --headless is given. Without --headless, a missing GPU adapter
// ends the run with exit code 1.
package main

import (
	"flag"
	"image"
	"os"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/fieldflock/fieldflock/internal/config"
	"github.com/fieldflock/fieldflock/internal/cpubackend"
	"github.com/fieldflock/fieldflock/internal/driver"
	"github.com/fieldflock/fieldflock/internal/logging"
	"github.com/fieldflock/fieldflock/internal/sim"
	"github.com/fieldflock/fieldflock/internal/wgpubackend"
)

// Exit codes, spec.md §6.
const (
	exitClean = iota
	exitNoAdapter
	exitDeviceFailed
	exitAllocFailed
	exitShaderFailed
	exitDeviceLost
)

var log = logging.New("main")

func main() {
	os.Exit(run())
}

func run() int {
	var (
		maxBoids     = flag.Int("max-boids", 20000, "hard ceiling on boid count")
		configPath   = flag.String("config", "", "TOML config file; defaults built in if omitted")
		speciesCount = flag.Int("species-count", 1, "number of species when no --config is given")
		headless     = flag.Bool("headless", false, "run the CPU fallback with no window")
		profile      = flag.Bool("profile", false, "raise the sim logger to debug verbosity")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath, *maxBoids, *speciesCount)
	if err != nil {
		log.Errorf("config: %v", err)
		return exitAllocFailed
	}
	paintDemoWall(cfg)

	device, viewport, cleanup, code := openDevice(*headless, cfg)
	if device == nil {
		return code
	}
	defer cleanup()

	orch, err := sim.NewOrchestrator(device, cfg)
	if err != nil {
		log.Errorf("orchestrator init: %v", err)
		if se, ok := err.(*sim.Error); ok && se.Op == "NewGPUSim" {
			return exitShaderFailed
		}
		return exitAllocFailed
	}
	defer orch.Close()

	if wgpuDevice, ok := device.(*wgpubackend.Device); ok {
		wireWindowInput(wgpuDevice.Window, cfg)
	}

	if *profile {
		// --profile raises the orchestrator's own 1Hz fps log to debug
		// verbosity rather than adding a second reporting path.
		logging.New("sim").SetLevel(logging.LevelDebug)
	}

	return mainLoop(device, orch, viewport, *headless)
}

func loadConfig(path string, maxBoids, speciesCount int) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path, maxBoids)
	}
	cfg := config.Default(maxBoids)
	if speciesCount > 1 {
		species := make([]config.Species, speciesCount)
		copy(species, cfg.Species)
		for i := 1; i < speciesCount; i++ {
			species[i] = cfg.Species[0]
		}
		cfg.SetSpecies(species)
	}
	return cfg, nil
}

// paintDemoWall gives every run a single circular obstacle at canvas
// center, exercising the painted-wall-obstacle feature (spec.md §1)
// without requiring a dedicated painting UI.
func paintDemoWall(cfg *config.Config) {
	mask := sim.NewWallMask(cfg.Width, cfg.Height)
	radius := cfg.Width
	if cfg.Height < radius {
		radius = cfg.Height
	}
	mask.PaintDisc(cfg.Width*0.5, cfg.Height*0.5, radius*0.08, 255)
	cfg.SetWall(mask.Pixels)
}

// wireWindowInput registers the GLFW pointer callbacks that drive the
// interactive cursor, the way the teacher's own glfw example wires
// SetCursorPosCallback/SetMouseButtonCallback to update shared state
// read from the render loop.
func wireWindowInput(window *glfw.Window, cfg *config.Config) {
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		cursor := cfg.Cursor
		cursor.X = float32(xpos)
		cursor.Y = float32(ypos)
		cursor.Active = true
		cfg.SetCursor(cursor)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		cursor := cfg.Cursor
		pressed := action != glfw.Release
		switch button {
		case glfw.MouseButtonLeft:
			cursor.Pressed = pressed
			if pressed {
				cursor.Mode = config.CursorAttract
			} else {
				cursor.Mode = config.CursorOff
			}
		case glfw.MouseButtonRight:
			if pressed {
				cursor.Mode = config.CursorRepel
			} else {
				cursor.Mode = config.CursorOff
			}
		}
		cfg.SetCursor(cursor)
	})
}

func openDevice(headless bool, cfg *config.Config) (driver.Device, image.Point, func(), int) {
	viewport := image.Point{X: int(cfg.Width), Y: int(cfg.Height)}
	if headless {
		return cpubackend.New(), viewport, func() {}, exitClean
	}
	dev, err := wgpubackend.New(viewport.X, viewport.Y, "fieldflock")
	if err != nil {
		log.Errorf("gpu device: %v", err)
		return nil, viewport, func() {}, exitNoAdapter
	}
	return dev, viewport, func() {}, exitClean
}

// mainLoop runs the GLFW event pump when a window is present, or a
// fixed-step headless loop that exits after a short warmup when
// --headless is set (there is no window to keep the process alive
// for).
func mainLoop(device driver.Device, orch *sim.Orchestrator, viewport image.Point, headless bool) int {
	const dt = 1.0 / 60.0

	if headless {
		for i := 0; i < 600; i++ {
			if err := orch.Frame(nil, viewport, dt); err != nil {
				log.Errorf("frame: %v", err)
				return exitDeviceLost
			}
		}
		return exitClean
	}

	wgpuDevice, ok := device.(*wgpubackend.Device)
	if !ok {
		return exitDeviceFailed
	}
	window := wgpuDevice.Window
	last := time.Now()
	for !window.ShouldClose() {
		now := time.Now()
		frameDt := float32(now.Sub(last).Seconds())
		last = now

		glfw.PollEvents()
		if err := orch.Frame(nil, viewport, frameDt); err != nil {
			log.Errorf("frame: %v", err)
			return exitDeviceLost
		}
	}
	return exitClean
}
