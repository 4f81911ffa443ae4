// Package config loads the JSON configuration shared by the command line tools.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the scene, camera and pipeline settings of a run.
type Config struct {
	Renderer renderer.Settings `json:"renderer"`
	Scene    Scene             `json:"scene"`
	Camera   Camera            `json:"camera"`

	// Frames is the number of frames to render; 0 runs until the window closes.
	Frames int `json:"frames"`
	// Samples is the proxy rasterizer's samples per pixel.
	Samples int `json:"samples"`
	// OutputDir receives exported images.
	OutputDir string `json:"output_dir"`
}

// Scene selects a glTF model or describes a synthetic grid.
type Scene struct {
	// Model is a .gltf or .glb path. Empty selects the grid.
	Model    string `json:"model"`
	LODChain int    `json:"lod_chain"`

	GridX   int        `json:"grid_x"`
	GridY   int        `json:"grid_y"`
	GridZ   int        `json:"grid_z"`
	Spacing float32    `json:"spacing"`
	Origin  [3]float32 `json:"origin"`

	// Lights is the number of point lights scattered over the scene bounds.
	Lights int `json:"lights"`
	// LightRadius overrides the luminance-derived radius when > 0.
	LightRadius float32 `json:"light_radius"`
	// Seed drives light placement.
	Seed uint64 `json:"seed"`
}

// Camera is the starting camera.
type Camera struct {
	Position [3]float32 `json:"position"`
	Target   [3]float32 `json:"target"`
	// FovDegrees is the vertical field of view.
	FovDegrees float32 `json:"fov_degrees"`
	Near       float32 `json:"near"`
	Far        float32 `json:"far"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	MoveSpeed  float32 `json:"move_speed"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	grid := scene.DefaultGridLayout()
	return Config{
		Renderer: renderer.DefaultSettings(),
		Scene: Scene{
			LODChain: 4,
			GridX:    grid.CountX,
			GridY:    grid.CountY,
			GridZ:    grid.CountZ,
			Spacing:  grid.Spacing,
			Origin:   grid.Origin,
			Lights:   64,
			Seed:     1,
		},
		Camera: Camera{
			Position:   [3]float32{0, 2, 40},
			Target:     [3]float32{0, 0, 0},
			FovDegrees: 45,
			Near:       0.1,
			Far:        200,
			Width:      1280,
			Height:     720,
			MoveSpeed:  10,
		},
		Frames:    120,
		Samples:   1,
		OutputDir: ".",
	}
}

// Load reads a JSON config file over Default, so fields missing from the file keep their defaults.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the merged configuration
//   - error: a read or parse error, wrapped
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings. Zero values leave the file untouched.
type Flags struct {
	Model   string
	Frames  int
	Workers int
	Width   int
	Height  int
	Lights  int
	Output  string
}

// Resolve applies flag overrides and fills the fields that must not stay zero.
//
// Parameters:
//   - flags: the parsed command line
func (c *Config) Resolve(flags Flags) {
	c.Scene.Model = common.Coalesce(flags.Model, c.Scene.Model)
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Workers > 0 {
		c.Renderer.Workers = flags.Workers
	}
	if flags.Width > 0 {
		c.Camera.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Camera.Height = flags.Height
	}
	if flags.Lights > 0 {
		c.Scene.Lights = flags.Lights
	}
	c.OutputDir = common.Coalesce(flags.Output, c.OutputDir, ".")

	if c.Renderer.Workers <= 0 {
		c.Renderer.Workers = runtime.NumCPU()
	}
	if c.Samples <= 0 {
		c.Samples = 1
	}
	if c.Scene.LODChain <= 0 {
		c.Scene.LODChain = 1
	}
}

// Validate checks the camera and the renderer settings.
//
// Returns:
//   - error: ErrInvalid or renderer.ErrInvalidSettings, wrapped
func (c Config) Validate() error {
	cam := c.Camera
	switch {
	case !(cam.Near > 0) || !(cam.Far > cam.Near):
		return fmt.Errorf("config: near %v far %v: %w", cam.Near, cam.Far, ErrInvalid)
	case !(cam.FovDegrees > 0 && cam.FovDegrees < 180):
		return fmt.Errorf("config: fov_degrees %v: %w", cam.FovDegrees, ErrInvalid)
	case cam.Width <= 0 || cam.Height <= 0:
		return fmt.Errorf("config: size %dx%d: %w", cam.Width, cam.Height, ErrInvalid)
	case c.Scene.Lights < 0 || c.Scene.Lights > renderer.MaxLights:
		return fmt.Errorf("config: lights %d exceeds %d: %w", c.Scene.Lights, renderer.MaxLights, ErrInvalid)
	case c.Scene.Model == "" && (c.Scene.GridX <= 0 || c.Scene.GridY <= 0 || c.Scene.GridZ <= 0):
		return fmt.Errorf("config: grid %dx%dx%d: %w", c.Scene.GridX, c.Scene.GridY, c.Scene.GridZ, ErrInvalid)
	}
	if err := c.Renderer.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Fov returns the vertical field of view in radians.
//
// Returns:
//   - float32: the field of view
func (c Camera) Fov() float32 {
	return c.FovDegrees * math.Pi / 180
}

// GridLayout returns the synthetic scene layout described by the scene section.
//
// Returns:
//   - scene.GridLayout: the layout
func (s Scene) GridLayout() scene.GridLayout {
	g := scene.DefaultGridLayout()
	g.CountX, g.CountY, g.CountZ = s.GridX, s.GridY, s.GridZ
	if s.Spacing > 0 {
		g.Spacing = s.Spacing
	}
	g.Origin = s.Origin
	g.LODCount = s.LODChain
	return g
}
