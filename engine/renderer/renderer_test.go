package renderer

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-vis/engine/raster"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	occluderID = 0
	hiddenID   = 1
)

func occlusionScene(t *testing.T) scene.Scene {
	t.Helper()
	lods := []scene.LOD{{FirstIndex: 0, IndexCount: 120}}
	s, err := scene.NewScene("occlusion",
		scene.WithInstances(
			scene.NewInstance(mgl32.Translate3D(0, 0, -5)),
			scene.NewInstance(mgl32.Translate3D(0, 0, -30)),
		),
		scene.WithPrimitives(
			scene.Primitive{Bounds: common.Sphere{Radius: 2}, LODs: lods, Instance: occluderID},
			scene.Primitive{Bounds: common.Sphere{Radius: 0.5}, LODs: lods, Instance: hiddenID},
		),
		scene.WithPointLights(light.NewPointLight(mgl32.Vec3{0, 0, -10}, mgl32.Vec3{1, 1, 1}, light.WithRadius(3))),
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testFrame() camera.FrameConstants {
	return camera.NewLookAtFrameConstants(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, math.Pi/2, 0.1, 100, 64, 64)
}

func newTestRenderer(t *testing.T, s scene.Scene, rast Rasterizer, options ...RendererBuilderOption) Renderer {
	t.Helper()
	d := compute.NewDispatcher(compute.WithWorkers(4), compute.WithWorkgroupSize(16))
	t.Cleanup(d.Close)
	options = append([]RendererBuilderOption{WithDispatcher(d), WithClusterGrid(4, 4, 8)}, options...)
	r, err := NewRenderer(s, rast, options...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)
	return r
}

func drawn(draws []culler.DrawCommand) []uint32 {
	out := make([]uint32, 0, len(draws))
	for _, d := range draws {
		out = append(out, d.FirstInstance)
	}
	slices.Sort(out)
	return out
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		valid  bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"zero lod base", func(s *Settings) { s.LODBase = 0 }, false},
		{"lod step one", func(s *Settings) { s.LODStep = 1 }, false},
		{"nan lod step", func(s *Settings) { s.LODStep = float32(math.NaN()) }, false},
		{"zero cluster", func(s *Settings) { s.ClusterZ = 0 }, false},
		{"negative capacity", func(s *Settings) { s.DrawCapacity = -1 }, false},
		{"zero lanes", func(s *Settings) { s.GroupLanes = 0 }, false},
		{"negative workers", func(s *Settings) { s.Workers = -2 }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(&s)
			err := s.Validate()
			if tc.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestNewRendererRejectsSettings(t *testing.T) {
	s := occlusionScene(t)
	if _, err := NewRenderer(s, raster.NewProxy(s, 8, 8), WithLOD(20, 0.5)); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
	settings := DefaultSettings()
	settings.DrawCapacity = 1
	if _, err := NewRenderer(s, raster.NewProxy(s, 8, 8), WithSettings(settings)); !errors.Is(err, culler.ErrCapacityTooSmall) {
		t.Errorf("expected ErrCapacityTooSmall, got %v", err)
	}
}

func TestOcclusionAcrossFrames(t *testing.T) {
	s := occlusionScene(t)
	r := newTestRenderer(t, s, raster.NewProxy(s, 64, 64))
	fc := testFrame()

	// Frame 1: nothing was visible before, so the late phase draws everything in the frustum.
	out, err := r.RenderFrame(fc)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Early) != 0 || !slices.Equal(drawn(out.Late), []uint32{occluderID, hiddenID}) {
		t.Fatalf("frame 1: early %v late %v", drawn(out.Early), drawn(out.Late))
	}

	// Frame 2: both are re-drawn early; the occluder's depth then hides the small sphere.
	out, err = r.RenderFrame(fc)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(drawn(out.Early), []uint32{occluderID, hiddenID}) || len(out.Late) != 0 {
		t.Fatalf("frame 2: early %v late %v", drawn(out.Early), drawn(out.Late))
	}
	if out.Stats.Late.OcclusionCulled != 1 || r.Culler().Visibility().Get(hiddenID) {
		t.Fatalf("frame 2: hidden sphere should be occluded, stats %+v", out.Stats.Late)
	}

	// Frame 3: only the occluder is drawn.
	out, err = r.RenderFrame(fc)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(drawn(out.Early), []uint32{occluderID}) || len(out.Late) != 0 {
		t.Fatalf("frame 3: early %v late %v", drawn(out.Early), drawn(out.Late))
	}

	// Frame 4: the occluder leaves the frustum and the hidden sphere is revealed by the late phase.
	if err := s.SetInstanceTransform(occluderID, mgl32.Translate3D(500, 0, -5)); err != nil {
		t.Fatal(err)
	}
	out, err = r.RenderFrame(fc)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Early) != 0 || !slices.Equal(drawn(out.Late), []uint32{hiddenID}) {
		t.Fatalf("frame 4: early %v late %v", drawn(out.Early), drawn(out.Late))
	}
	if r.Frames() != 4 || out.Stats.Frame != 4 {
		t.Errorf("expected 4 frames, got %d", r.Frames())
	}
}

func TestFrameOutputs(t *testing.T) {
	s := occlusionScene(t)
	r := newTestRenderer(t, s, raster.NewProxy(s, 64, 64))
	out, err := r.RenderFrame(testFrame())
	if err != nil {
		t.Fatal(err)
	}
	if len(out.LightMasks) != out.Grid.Len() || out.Grid.Len() != 4*4*8 {
		t.Fatalf("expected %d masks, got %d", out.Grid.Len(), len(out.LightMasks))
	}
	if out.Stats.Lights != 1 || out.Stats.LitClusters == 0 {
		t.Errorf("light should reach some clusters: %+v", out.Stats)
	}
	// The light sits on the view axis, so the cluster under the screen center at its depth holds it.
	idx := out.Grid.Lookup(32, 32, 10)
	if !out.LightMasks[idx].Has(0) {
		t.Errorf("cluster %d under the light does not hold it", idx)
	}
	if out.Pyramid == nil || out.Pyramid.Width() != 64 || out.Pyramid.Levels() != pyramid.LevelCount(64, 64) {
		t.Errorf("unexpected pyramid %+v", out.Pyramid)
	}
	if out.EarlyCount.CommandCount != uint32(len(out.Early)) || out.LateCount.CommandCount != uint32(len(out.Late)) {
		t.Error("draw counts disagree with draw slices")
	}
}

type failingRasterizer struct {
	*raster.Proxy
	fail    bool
	onPhase culler.Phase
}

func (f *failingRasterizer) Rasterize(phase culler.Phase, draws []culler.DrawCommand) error {
	if f.fail && phase == f.onPhase {
		return errors.New("device lost")
	}
	return f.Proxy.Rasterize(phase, draws)
}

func TestRasterizerErrorAbandonsFrame(t *testing.T) {
	tests := []struct {
		name    string
		onPhase culler.Phase
	}{
		{"early raster fails", culler.PhaseEarly},
		{"late raster fails", culler.PhaseLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := occlusionScene(t)
			rast := &failingRasterizer{Proxy: raster.NewProxy(s, 64, 64), onPhase: tt.onPhase}
			r := newTestRenderer(t, s, rast)
			fc := testFrame()

			if _, err := r.RenderFrame(fc); err != nil {
				t.Fatal(err)
			}
			before := r.Culler().Visibility().Words()
			if r.Culler().Visibility().Count() != 2 {
				t.Fatalf("expected both primitives visible, got %d", r.Culler().Visibility().Count())
			}

			// Move the occluder away so a completed late phase would change the bits.
			if err := s.SetInstanceTransform(occluderID, mgl32.Translate3D(500, 0, -5)); err != nil {
				t.Fatal(err)
			}
			rast.fail = true
			if _, err := r.RenderFrame(fc); err == nil {
				t.Fatal("expected rasterizer error")
			}
			if after := r.Culler().Visibility().Words(); !slices.Equal(before, after) {
				t.Errorf("visibility changed by an abandoned frame: before=%v after=%v", before, after)
			}
			if r.Frames() != 1 {
				t.Errorf("abandoned frame was counted: %d", r.Frames())
			}

			rast.fail = false
			if _, err := r.RenderFrame(fc); err != nil {
				t.Fatal(err)
			}
			if r.Culler().Visibility().Get(occluderID) {
				t.Error("occluder left the frustum but is still marked visible")
			}
		})
	}
}

func TestRenderFrameRejectsDegenerateCamera(t *testing.T) {
	s := occlusionScene(t)
	r := newTestRenderer(t, s, raster.NewProxy(s, 8, 8))
	fc := testFrame()
	fc.Far = fc.Near
	if _, err := r.RenderFrame(fc); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame, got %v", err)
	}
	fc = testFrame()
	fc.Width = 0
	if _, err := r.RenderFrame(fc); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame, got %v", err)
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	layout := scene.DefaultGridLayout()
	layout.CountX, layout.CountY, layout.CountZ = 32, 4, 32
	s, err := scene.NewGridScene("bench", layout)
	if err != nil {
		b.Fatal(err)
	}
	fc := camera.NewLookAtFrameConstants(mgl32.Vec3{0, 2, 10}, mgl32.Vec3{0, 0, -20}, math.Pi/3, 0.1, 200, 320, 180)
	r, err := NewRenderer(s, raster.NewProxy(s, 320, 180))
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.RenderFrame(fc); err != nil {
			b.Fatal(err)
		}
	}
}
