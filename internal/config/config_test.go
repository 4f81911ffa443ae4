package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `{
		"renderer": {"lod_base": 30, "cluster_z": 16},
		"scene": {"model": "city.glb", "lights": 12},
		"camera": {"width": 640},
		"frames": 10
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()

	if cfg.Renderer.LODBase != 30 || cfg.Renderer.ClusterZ != 16 {
		t.Errorf("renderer overrides not applied: %+v", cfg.Renderer)
	}
	if cfg.Renderer.LODStep != def.Renderer.LODStep || cfg.Renderer.ClusterX != def.Renderer.ClusterX || !cfg.Renderer.FinalPyramid {
		t.Errorf("renderer defaults lost: %+v", cfg.Renderer)
	}
	if cfg.Scene.Model != "city.glb" || cfg.Scene.Lights != 12 || cfg.Scene.GridX != def.Scene.GridX {
		t.Errorf("unexpected scene section %+v", cfg.Scene)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != def.Camera.Height || cfg.Frames != 10 {
		t.Errorf("unexpected camera section %+v", cfg.Camera)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a wrapped not-exist error, got %v", err)
	}
	if _, err := Load(writeConfig(t, `{"frames": "many"}`)); err == nil {
		t.Error("expected a parse error")
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Renderer.Workers = 0
	cfg.Samples = 0
	cfg.OutputDir = ""
	cfg.Resolve(Flags{Model: "a.gltf", Frames: 7, Width: 320, Lights: 3})

	if cfg.Scene.Model != "a.gltf" || cfg.Frames != 7 || cfg.Camera.Width != 320 || cfg.Scene.Lights != 3 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Camera.Height != Default().Camera.Height {
		t.Errorf("zero flag should not override height")
	}
	if cfg.Renderer.Workers != runtime.NumCPU() || cfg.Samples != 1 || cfg.OutputDir != "." {
		t.Errorf("zero fields not filled: workers %d samples %d output %q", cfg.Renderer.Workers, cfg.Samples, cfg.OutputDir)
	}

	cfg.Resolve(Flags{Workers: 3})
	if cfg.Renderer.Workers != 3 {
		t.Errorf("workers flag not applied")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"near zero", func(c *Config) { c.Camera.Near = 0 }, ErrInvalid},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }, ErrInvalid},
		{"fov", func(c *Config) { c.Camera.FovDegrees = 180 }, ErrInvalid},
		{"size", func(c *Config) { c.Camera.Height = 0 }, ErrInvalid},
		{"too many lights", func(c *Config) { c.Scene.Lights = renderer.MaxLights + 1 }, ErrInvalid},
		{"empty grid", func(c *Config) { c.Scene.GridY = 0 }, ErrInvalid},
		{"empty grid with model", func(c *Config) { c.Scene.GridY = 0; c.Scene.Model = "m.glb" }, nil},
		{"lod step", func(c *Config) { c.Renderer.LODStep = 1 }, renderer.ErrInvalidSettings},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(&cfg)
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGridLayout(t *testing.T) {
	s := Default().Scene
	s.GridX, s.Spacing, s.LODChain = 2, 0, 3
	g := s.GridLayout()
	if g.CountX != 2 || g.Spacing != 4 || g.LODCount != 3 || g.Origin != [3]float32(s.Origin) {
		t.Errorf("unexpected layout %+v", g)
	}
}
