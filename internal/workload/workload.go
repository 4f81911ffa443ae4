// Package workload turns a configuration into the scene, camera and rasterizer the tools run.
package workload

import (
	"fmt"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/loader"
	"github.com/Carmen-Shannon/oxy-vis/engine/raster"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/internal/config"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene builds the glTF scene named by cfg, or the synthetic grid when no model is set,
// and scatters cfg.Lights point lights over its bounds.
//
// Parameters:
//   - cfg: the scene section
//
// Returns:
//   - scene.Scene: the scene
//   - error: a load or validation error, wrapped
func Scene(cfg config.Scene) (scene.Scene, error) {
	var (
		primitives []scene.Primitive
		instances  []scene.Instance
		materials  []scene.Material
		name       string
	)
	if cfg.Model != "" {
		l := loader.NewLoader(loader.BackendTypeGLTF, loader.WithLODChain(cfg.LODChain))
		m, err := l.Load(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("workload: %w", err)
		}
		name, primitives, instances, materials = m.Name, m.Primitives, m.Instances, m.Materials
	} else {
		name = "grid"
		primitives, instances = cfg.GridLayout().Build()
	}

	lights := ScatterLights(Bounds(primitives, instances), cfg.Lights, cfg.LightRadius, cfg.Seed)
	s, err := scene.NewScene(name,
		scene.WithPrimitives(primitives...),
		scene.WithInstances(instances...),
		scene.WithMaterials(materials...),
		scene.WithPointLights(lights...),
	)
	if err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	common.Logger().Debug("workload scene",
		"name", name,
		"primitives", len(primitives),
		"instances", len(instances),
		"lights", len(lights),
	)
	return s, nil
}

// Bounds returns the world-space box enclosing every primitive's bounding sphere.
// An empty table yields the unit box around the origin.
//
// Parameters:
//   - primitives: the primitive table
//   - instances: the instance table the primitives refer to
//
// Returns:
//   - common.AABB: the enclosing box
func Bounds(primitives []scene.Primitive, instances []scene.Instance) common.AABB {
	box := common.EmptyAABB()
	for _, p := range primitives {
		if int(p.Instance) >= len(instances) {
			continue
		}
		s := p.Bounds.Transform(instances[p.Instance].Transform)
		r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
		box.Extend(s.Center.Sub(r))
		box.Extend(s.Center.Add(r))
	}
	if box.Min[0] > box.Max[0] {
		return common.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	}
	return box
}

// ScatterLights places n point lights uniformly inside box with a deterministic generator.
// Each light gets a random warm-to-cool color; radius <= 0 keeps the luminance-derived radius.
//
// Parameters:
//   - box: the placement volume
//   - n: number of lights, clamped to [0, light.MaxPointLights]
//   - radius: the influence radius override
//   - seed: the generator seed
//
// Returns:
//   - []light.PointLight: the lights
func ScatterLights(box common.AABB, n int, radius float32, seed uint64) []light.PointLight {
	n = common.Clamp(n, 0, light.MaxPointLights)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	extent := box.Max.Sub(box.Min)

	lights := make([]light.PointLight, 0, n)
	for i := 0; i < n; i++ {
		pos := mgl32.Vec3{
			box.Min[0] + rng.Float32()*extent[0],
			box.Min[1] + rng.Float32()*extent[1],
			box.Min[2] + rng.Float32()*extent[2],
		}
		warm := rng.Float32()
		lum := mgl32.Vec3{0.5 + warm, 0.75, 1.5 - warm}.Mul(1 + 4*rng.Float32())
		var opts []light.PointLightBuilderOption
		if radius > 0 {
			opts = append(opts, light.WithRadius(radius))
		}
		lights = append(lights, light.NewPointLight(pos, lum, opts...))
	}
	return lights
}

// Camera creates a fly camera at the configured position facing the configured target.
//
// Parameters:
//   - cfg: the camera section
//
// Returns:
//   - camera.Camera: the camera, with matrices already computed
func Camera(cfg config.Camera) camera.Camera {
	ctrl := camera.NewFlyController(
		camera.WithPosition(cfg.Position),
		camera.WithMoveSpeed(max(cfg.MoveSpeed, 0)),
	)
	ctrl.LookAt(cfg.Target)
	cam := camera.NewCamera(
		camera.WithFov(cfg.Fov()),
		camera.WithNear(cfg.Near),
		camera.WithFar(cfg.Far),
		camera.WithAspect(float32(cfg.Width)/float32(cfg.Height)),
		camera.WithController(ctrl),
	)
	cam.Update()
	return cam
}

// Rasterizer creates the proxy rasterizer sized for the camera section.
//
// Parameters:
//   - s: the scene to draw
//   - cfg: the full configuration
//
// Returns:
//   - *raster.Proxy: the rasterizer
func Rasterizer(s scene.Scene, cfg config.Config) *raster.Proxy {
	return raster.NewProxy(s, cfg.Camera.Width, cfg.Camera.Height, raster.WithSamples(cfg.Samples))
}
