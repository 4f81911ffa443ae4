package workload

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/internal/config"
	"github.com/go-gl/mathgl/mgl32"
)

func TestSceneFromGrid(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.GridX, cfg.Scene.GridY, cfg.Scene.GridZ = 3, 2, 2
	cfg.Scene.Lights = 5
	cfg.Scene.LightRadius = 4

	s, err := Scene(cfg.Scene)
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if len(snap.Primitives) != 12 || len(snap.Instances) != 12 || len(snap.PointLights) != 5 {
		t.Fatalf("unexpected scene sizes: %d primitives %d instances %d lights",
			len(snap.Primitives), len(snap.Instances), len(snap.PointLights))
	}
	box := Bounds(snap.Primitives, snap.Instances)
	for i, l := range snap.PointLights {
		if l.Radius != 4 {
			t.Errorf("light %d radius %v, want 4", i, l.Radius)
		}
		if !box.ClosestPoint(l.Position).ApproxEqualThreshold(l.Position, 1e-3) {
			t.Errorf("light %d at %v is outside %+v", i, l.Position, box)
		}
	}
}

func TestSceneMissingModel(t *testing.T) {
	cfg := config.Default().Scene
	cfg.Model = "does-not-exist.glb"
	if _, err := Scene(cfg); err == nil {
		t.Error("expected a load error")
	}
}

func TestBounds(t *testing.T) {
	prims := []scene.Primitive{
		{Bounds: common.Sphere{Radius: 1}, Instance: 0},
		{Bounds: common.Sphere{Radius: 2}, Instance: 1},
		{Bounds: common.Sphere{Radius: 100}, Instance: 7},
	}
	insts := []scene.Instance{
		scene.NewInstance(mgl32.Translate3D(-5, 0, 0)),
		scene.NewInstance(mgl32.Translate3D(5, 1, 0)),
	}
	got := Bounds(prims, insts)
	want := common.AABB{Min: mgl32.Vec3{-6, -1, -2}, Max: mgl32.Vec3{7, 3, 2}}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if empty := Bounds(nil, nil); empty.Max != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("empty scene bounds %+v", empty)
	}
}

func TestScatterLightsDeterministic(t *testing.T) {
	box := common.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	a := ScatterLights(box, 8, 0, 42)
	b := ScatterLights(box, 8, 0, 42)
	c := ScatterLights(box, 8, 0, 43)
	if len(a) != 8 {
		t.Fatalf("expected 8 lights, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("light %d differs for the same seed", i)
		}
		if !(a[i].Radius > 0) {
			t.Errorf("light %d should get a luminance radius", i)
		}
	}
	if a[0] == c[0] {
		t.Error("different seeds should move the lights")
	}
	if n := len(ScatterLights(box, 1000, 0, 1)); n != 256 {
		t.Errorf("light count should clamp to 256, got %d", n)
	}
}

func TestCamera(t *testing.T) {
	cfg := config.Default().Camera
	cfg.Position = [3]float32{0, 0, 10}
	cfg.Target = [3]float32{0, 0, 0}
	cam := Camera(cfg)

	if math.Abs(float64(cam.Fov()-math.Pi/4)) > 1e-6 {
		t.Errorf("fov %v", cam.Fov())
	}
	fc := cam.FrameConstants(uint32(cfg.Width), uint32(cfg.Height))
	if got := fc.ToView(mgl32.Vec3{0, 0, 0}); !got.ApproxEqualThreshold(mgl32.Vec3{0, 0, -10}, 1e-4) {
		t.Errorf("target should be straight ahead at -10, got %v", got)
	}
}
