// Command cullbench renders a fixed number of frames of a synthetic grid or a glTF scene through the
// visibility pipeline with an orbiting camera, and prints culling and timing statistics.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/internal/config"
	"github.com/Carmen-Shannon/oxy-vis/internal/workload"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	model := flag.String("model", "", "glTF/GLB scene (default: synthetic grid)")
	frames := flag.Int("frames", 0, "Number of frames to render (default: 120)")
	workers := flag.Int("workers", 0, "Compute workers (default: NumCPU)")
	width := flag.Int("width", 0, "Target width in pixels")
	height := flag.Int("height", 0, "Target height in pixels")
	lights := flag.Int("lights", 0, "Point lights to scatter (max 256)")
	turn := flag.Float64("turn", 1.5, "Camera yaw per frame in degrees")
	useGPU := flag.Bool("gpu", false, "Cross-check every frame against the WebGPU kernels")
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
	cfg.Resolve(config.Flags{
		Model:   *model,
		Frames:  *frames,
		Workers: *workers,
		Width:   *width,
		Height:  *height,
		Lights:  *lights,
	})
	if *useGPU {
		// The cross-check culls the late phase against the pyramid the early phase produced.
		cfg.Renderer.FinalPyramid = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Frames <= 0 {
		cfg.Frames = 120
	}

	if err := run(cfg, float32(*turn), *useGPU); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, turn float32, useGPU bool) error {
	scn, err := workload.Scene(cfg.Scene)
	if err != nil {
		return err
	}
	cam := workload.Camera(cfg.Camera)
	r, err := renderer.NewRenderer(scn, workload.Rasterizer(scn, cfg), renderer.WithSettings(cfg.Renderer))
	if err != nil {
		return err
	}
	defer r.Close()

	var check *crossCheck
	if useGPU {
		check, err = newCrossCheck(scn, cfg.Renderer)
		if err != nil {
			return err
		}
		defer check.Release()
	}

	fmt.Printf("Scene: %s, %d primitives, %d lights\n", scn.Name(), scn.PrimitiveCount(), scn.PointLightCount())
	fmt.Printf("Target: %dx%d, %d frames, %d workers\n", cfg.Camera.Width, cfg.Camera.Height, cfg.Frames, cfg.Renderer.Workers)
	fmt.Println("------------------------------------------------------------")

	prof := profiler.NewProfiler()
	var total renderer.FrameStats
	var failed int
	start := time.Now()
	for i := 0; i < cfg.Frames; i++ {
		cam.Controller().MoveByDelta(camera.CameraDelta{Yaw: turn})
		cam.Update()
		fc := cam.FrameConstants(uint32(cfg.Camera.Width), uint32(cfg.Camera.Height))

		var words []uint32
		if check != nil {
			words = r.Culler().Visibility().Words()
		}
		out, err := r.RenderFrame(fc)
		if err != nil {
			failed++
			common.Logger().Warn("frame abandoned", "frame", i, "error", err)
			continue
		}
		prof.Tick(out.Stats)
		accumulate(&total, out.Stats)

		if check != nil {
			if err := check.Frame(fc, words, out, scn.PointLights()); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(start)

	done := cfg.Frames - failed
	if done == 0 {
		return fmt.Errorf("cullbench: every frame failed")
	}
	avg := func(v uint32) float64 { return float64(v) / float64(done) }
	fmt.Printf("Frames:             %d (%d failed) in %v, %.1f fps\n", done, failed, elapsed.Round(time.Millisecond), float64(done)/elapsed.Seconds())
	fmt.Printf("Avg frame:          %v\n", total.Total/time.Duration(done))
	fmt.Printf("  cull early/late:  %v / %v\n", total.Passes.CullEarly/time.Duration(done), total.Passes.CullLate/time.Duration(done))
	fmt.Printf("  pyramid:          %v\n", (total.Passes.Pyramid+total.Passes.FinalPyramid)/time.Duration(done))
	fmt.Printf("  clusters/lights:  %v / %v\n", total.Passes.Clusters/time.Duration(done), total.Passes.Lights/time.Duration(done))
	fmt.Printf("Avg early draws:    %.1f\n", avg(total.Early.Drawn))
	fmt.Printf("Avg late draws:     %.1f\n", avg(total.Late.Drawn))
	fmt.Printf("Avg frustum culled: %.1f\n", avg(total.Late.FrustumCulled))
	fmt.Printf("Avg occluded:       %.1f\n", avg(total.Late.OcclusionCulled))
	fmt.Printf("Avg lit clusters:   %.1f\n", float64(total.LitClusters)/float64(done))
	if check != nil {
		check.Print(os.Stdout)
	}
	return nil
}

// accumulate sums the counters and timings of s into total.
func accumulate(total *renderer.FrameStats, s renderer.FrameStats) {
	total.Early.Add(s.Early)
	total.Late.Add(s.Late)
	total.LitClusters += s.LitClusters
	total.Total += s.Total
	total.Passes.CullEarly += s.Passes.CullEarly
	total.Passes.RasterEarly += s.Passes.RasterEarly
	total.Passes.Pyramid += s.Passes.Pyramid
	total.Passes.CullLate += s.Passes.CullLate
	total.Passes.RasterLate += s.Passes.RasterLate
	total.Passes.FinalPyramid += s.Passes.FinalPyramid
	total.Passes.Clusters += s.Passes.Clusters
	total.Passes.Lights += s.Passes.Lights
}
