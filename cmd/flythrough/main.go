// Command flythrough opens a window and flies a camera through the configured scene, running the
// visibility pipeline every frame and showing its statistics in the title bar.
//
// Controls: WASD to move, Space/Ctrl to rise and sink, arrow keys or middle-drag to look,
// mouse wheel to change fly speed, Escape to quit.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/engine/window"
	"github.com/Carmen-Shannon/oxy-vis/internal/config"
	"github.com/Carmen-Shannon/oxy-vis/internal/workload"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	model := flag.String("model", "", "glTF/GLB scene (default: synthetic grid)")
	workers := flag.Int("workers", 0, "Compute workers (default: NumCPU)")
	lights := flag.Int("lights", 0, "Point lights to scatter (max 256)")
	fpsCap := flag.Float64("fps", 0, "Render frame cap (default: uncapped)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{Model: *model, Workers: *workers, Lights: *lights})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *fpsCap); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, fpsCap float64) error {
	scn, err := workload.Scene(cfg.Scene)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle("oxy-vis"),
		window.WithSize(cfg.Camera.Width, cfg.Camera.Height),
		window.WithMinSize(min(cfg.Camera.Width, 640), min(cfg.Camera.Height, 360)),
		window.WithMaxSize(max(cfg.Camera.Width, 3840), max(cfg.Camera.Height, 2160)),
		window.WithDragButton(window.MouseMiddle),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	r, err := renderer.NewRenderer(scn, workload.Rasterizer(scn, cfg), renderer.WithSettings(cfg.Renderer))
	if err != nil {
		return err
	}
	defer r.Close()

	input := camera.NewFlyInput(camera.FlyBindings{
		Forward:   window.KeyW,
		Backward:  window.KeyS,
		Left:      window.KeyA,
		Right:     window.KeyD,
		Up:        window.KeySpace,
		Down:      window.KeyLeftCtrl,
		YawLeft:   window.KeyLeft,
		YawRight:  window.KeyRight,
		PitchUp:   window.KeyUp,
		PitchDown: window.KeyDown,
	})
	win.SetKeyDownCallback(input.KeyDown)
	win.SetKeyUpCallback(input.KeyUp)
	win.SetDragCallbacks(input.BeginDrag, input.EndDrag)
	win.SetScrollCallback(input.Scroll)
	win.SetMouseMoveCallback(input.MouseMove)

	e, err := engine.NewEngine(
		engine.WithWindow(win, fmt.Sprintf("oxy-vis | %s", scn.Name())),
		engine.WithCamera(workload.Camera(cfg.Camera)),
		engine.WithRenderer(r),
		engine.WithInput(input),
		engine.WithProfiling(true),
		engine.WithRenderFrameLimit(fpsCap),
	)
	if err != nil {
		return err
	}
	return e.Run()
}
