// Command hizdump builds the hierarchical depth pyramid of a depth image, or of one rendered frame of
// the configured scene, and writes every level as a WebP image.
//
// Depth images are grayscale PNG, TGA, BMP or TIFF files where black is the near plane and white
// the far plane.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/internal/config"
	"github.com/Carmen-Shannon/oxy-vis/internal/workload"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	input := flag.String("input", "", "Depth image (default: render one frame of the configured scene)")
	outputDir := flag.String("output", "", "Output directory (default: .)")
	minSize := flag.Int("min", 64, "Upscale levels smaller than this many pixels on their longest side")
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
	cfg.Resolve(config.Flags{Output: *outputDir})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var (
		pyr *pyramid.Pyramid
		err error
	)
	if *input != "" {
		pyr, err = fromImage(*input, cfg.Camera.Near, cfg.Camera.Far)
	} else {
		pyr, err = fromScene(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	paths, err := writeLevels(pyr, cfg.OutputDir, cfg.Camera.Near, cfg.Camera.Far, *minSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for n, p := range paths {
		l := pyr.Level(n)
		fmt.Printf("level %2d  %5dx%-5d  %s\n", n, l.Width, l.Height, p)
	}
}

// fromImage decodes a depth image and reduces it.
func fromImage(path string, near, far float32) (*pyramid.Pyramid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hizdump: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("hizdump: decode %s: %w", path, err)
	}
	common.Logger().Debug("depth image decoded", "path", path, "format", format, "bounds", img.Bounds())
	p, err := pyramid.NewBuilder().Build(pyramid.FromImage(img, near, far))
	if err != nil {
		return nil, fmt.Errorf("hizdump: %s: %w", path, err)
	}
	return p, nil
}

// fromScene renders one frame of the configured scene and returns the final pyramid.
func fromScene(cfg config.Config) (*pyramid.Pyramid, error) {
	scn, err := workload.Scene(cfg.Scene)
	if err != nil {
		return nil, err
	}
	cam := workload.Camera(cfg.Camera)
	settings := cfg.Renderer
	settings.FinalPyramid = true
	r, err := renderer.NewRenderer(scn, workload.Rasterizer(scn, cfg), renderer.WithSettings(settings))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := r.RenderFrame(cam.FrameConstants(uint32(cfg.Camera.Width), uint32(cfg.Camera.Height)))
	if err != nil {
		return nil, err
	}
	common.Logger().Info("frame rendered",
		"early", out.EarlyCount.CommandCount,
		"late", out.LateCount.CommandCount,
		"visible", out.Stats.Visible,
	)
	return out.Pyramid, nil
}

// writeLevels writes level_NN.webp for every level and returns the paths in level order.
func writeLevels(pyr *pyramid.Pyramid, dir string, near, far float32, minSize int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("hizdump: %w", err)
	}
	paths := make([]string, 0, pyr.Levels())
	for n := 0; n < pyr.Levels(); n++ {
		path := filepath.Join(dir, fmt.Sprintf("level_%02d.webp", n))
		if err := writeWebP(path, levelImage(pyr.Level(n), near, far, minSize)); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
